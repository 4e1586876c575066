package handler

import (
	"net/http"

	"github.com/nunocpr/PersonalFinance/internal/middleware"
	"github.com/nunocpr/PersonalFinance/internal/service"
	"github.com/nunocpr/PersonalFinance/internal/util"

	"github.com/gin-gonic/gin"
)

// RuleHandler serves auto-categorization rules.
type RuleHandler struct {
	Rules *service.RuleService
}

func NewRuleHandler(rules *service.RuleService) *RuleHandler {
	return &RuleHandler{Rules: rules}
}

func (h *RuleHandler) List(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	items, err := h.Rules.List(user.ID)
	if err != nil {
		util.Fail(c, err)
		return
	}
	util.OK(c, gin.H{"items": items})
}

func (h *RuleHandler) Create(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	var in service.CreateRuleInput
	if err := c.ShouldBindJSON(&in); err != nil {
		util.Error(c, http.StatusBadRequest, "invalid request body")
		return
	}
	rule, err := h.Rules.Create(user.ID, in)
	if err != nil {
		util.Fail(c, err)
		return
	}
	util.Created(c, gin.H{"rule": rule})
}

func (h *RuleHandler) Update(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		util.Error(c, http.StatusBadRequest, "invalid rule id")
		return
	}
	var patch service.UpdateRuleInput
	if err := c.ShouldBindJSON(&patch); err != nil {
		util.Error(c, http.StatusBadRequest, "invalid request body")
		return
	}
	rule, err := h.Rules.Update(user.ID, id, patch)
	if err != nil {
		util.Fail(c, err)
		return
	}
	util.OK(c, gin.H{"rule": rule})
}

func (h *RuleHandler) Delete(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		util.Error(c, http.StatusBadRequest, "invalid rule id")
		return
	}
	if err := h.Rules.Delete(user.ID, id); err != nil {
		util.Fail(c, err)
		return
	}
	util.OK(c, gin.H{"ok": true})
}

type reorderRulesReq struct {
	OrderedIDs []uint `json:"orderedIds" binding:"required"`
}

func (h *RuleHandler) Reorder(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req reorderRulesReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.Rules.Reorder(user.ID, req.OrderedIDs); err != nil {
		util.Fail(c, err)
		return
	}
	util.OK(c, gin.H{"ok": true})
}
