package handler

import (
	"net/http"

	"github.com/nunocpr/PersonalFinance/internal/middleware"
	"github.com/nunocpr/PersonalFinance/internal/service"
	"github.com/nunocpr/PersonalFinance/internal/util"

	"github.com/gin-gonic/gin"
)

// AccountHandler serves account CRUD and the derived-balance endpoint.
type AccountHandler struct {
	Accounts *service.AccountService
}

func NewAccountHandler(accounts *service.AccountService) *AccountHandler {
	return &AccountHandler{Accounts: accounts}
}

func (h *AccountHandler) List(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	items, err := h.Accounts.List(user.ID)
	if err != nil {
		util.Fail(c, err)
		return
	}
	util.OK(c, gin.H{"items": items})
}

func (h *AccountHandler) Get(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		util.Error(c, http.StatusBadRequest, "invalid account id")
		return
	}
	acc, err := h.Accounts.Get(user.ID, id)
	if err != nil {
		util.Fail(c, err)
		return
	}
	util.OK(c, gin.H{"account": acc})
}

func (h *AccountHandler) Create(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	var in service.CreateAccountInput
	if err := c.ShouldBindJSON(&in); err != nil {
		util.Error(c, http.StatusBadRequest, "invalid request body")
		return
	}
	acc, err := h.Accounts.Create(user.ID, in)
	if err != nil {
		util.Fail(c, err)
		return
	}
	util.Created(c, gin.H{"account": acc})
}

func (h *AccountHandler) Update(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		util.Error(c, http.StatusBadRequest, "invalid account id")
		return
	}
	var patch service.UpdateAccountInput
	if err := c.ShouldBindJSON(&patch); err != nil {
		util.Error(c, http.StatusBadRequest, "invalid request body")
		return
	}
	acc, err := h.Accounts.Update(user.ID, id, patch)
	if err != nil {
		util.Fail(c, err)
		return
	}
	util.OK(c, gin.H{"account": acc})
}

func (h *AccountHandler) Delete(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		util.Error(c, http.StatusBadRequest, "invalid account id")
		return
	}
	if err := h.Accounts.SoftDelete(user.ID, id); err != nil {
		util.Fail(c, err)
		return
	}
	util.OK(c, gin.H{"ok": true})
}

func (h *AccountHandler) CurrentBalance(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		util.Error(c, http.StatusBadRequest, "invalid account id")
		return
	}
	balance, err := h.Accounts.CurrentBalance(user.ID, id)
	if err != nil {
		util.Fail(c, err)
		return
	}
	util.OK(c, gin.H{"accountId": id, "currentBalance": balance})
}
