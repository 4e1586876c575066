package handler

import (
	"net/http"
	"strconv"

	"github.com/nunocpr/PersonalFinance/internal/middleware"
	"github.com/nunocpr/PersonalFinance/internal/service"
	"github.com/nunocpr/PersonalFinance/internal/util"

	"github.com/gin-gonic/gin"
)

// TransactionHandler serves the transaction engine: listing, grouping,
// CRUD and transfers.
type TransactionHandler struct {
	Transactions *service.TransactionService
}

func NewTransactionHandler(transactions *service.TransactionService) *TransactionHandler {
	return &TransactionHandler{Transactions: transactions}
}

// parseListFilters turns query parameters into service filters.
// categoryId accepts a number or the literal "null" for uncategorized.
func parseListFilters(c *gin.Context) (service.ListFilters, bool) {
	var f service.ListFilters

	accountID, ok := queryUint(c, "accountId")
	if !ok {
		return f, false
	}
	f.AccountID = accountID

	if raw := c.Query("categoryId"); raw != "" {
		f.CategoryID.Set = true
		if raw != "null" {
			v, err := strconv.ParseUint(raw, 10, 32)
			if err != nil {
				return f, false
			}
			u := uint(v)
			f.CategoryID.Value = &u
		}
	}

	f.Query = c.Query("q")

	if raw := c.Query("from"); raw != "" {
		t, err := service.ParseDate(raw)
		if err != nil {
			return f, false
		}
		f.From = &t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := service.ParseDate(raw)
		if err != nil {
			return f, false
		}
		f.To = &t
	}

	switch c.Query("sortBy") {
	case "amount":
		f.SortBy = "amount"
	case "createdAt":
		f.SortBy = "createdAt"
	default:
		f.SortBy = "date"
	}
	if c.Query("sortDir") == "asc" {
		f.SortDir = "asc"
	} else {
		f.SortDir = "desc"
	}

	f.Page = queryInt(c, "page", 1)
	f.PageSize = queryInt(c, "pageSize", 20)
	return f, true
}

func (h *TransactionHandler) List(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	filters, ok := parseListFilters(c)
	if !ok {
		util.Error(c, http.StatusBadRequest, "invalid filter parameters")
		return
	}
	result, err := h.Transactions.List(user.ID, filters)
	if err != nil {
		util.Fail(c, err)
		return
	}
	util.OK(c, result)
}

func (h *TransactionHandler) GroupByCategory(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	filters, ok := parseListFilters(c)
	if !ok {
		util.Error(c, http.StatusBadRequest, "invalid filter parameters")
		return
	}
	groups, err := h.Transactions.GroupByCategory(user.ID, filters)
	if err != nil {
		util.Fail(c, err)
		return
	}
	util.OK(c, gin.H{"groups": groups})
}

func (h *TransactionHandler) Create(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	var in service.CreateTransactionInput
	if err := c.ShouldBindJSON(&in); err != nil {
		util.Error(c, http.StatusBadRequest, "invalid request body")
		return
	}
	t, err := h.Transactions.Create(user.ID, in)
	if err != nil {
		util.Fail(c, err)
		return
	}
	util.Created(c, t)
}

func (h *TransactionHandler) Update(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	id := c.Param("id")
	if id == "" {
		util.Error(c, http.StatusBadRequest, "invalid transaction id")
		return
	}
	var patch service.UpdateTransactionInput
	if err := c.ShouldBindJSON(&patch); err != nil {
		util.Error(c, http.StatusBadRequest, "invalid request body")
		return
	}
	t, err := h.Transactions.Update(user.ID, id, patch)
	if err != nil {
		util.Fail(c, err)
		return
	}
	util.OK(c, t)
}

func (h *TransactionHandler) Delete(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	id := c.Param("id")
	if id == "" {
		util.Error(c, http.StatusBadRequest, "invalid transaction id")
		return
	}
	if err := h.Transactions.Remove(user.ID, id); err != nil {
		util.Fail(c, err)
		return
	}
	util.OK(c, gin.H{"ok": true})
}

func (h *TransactionHandler) CreateTransfer(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	var in service.TransferInput
	if err := c.ShouldBindJSON(&in); err != nil {
		util.Error(c, http.StatusBadRequest, "invalid request body")
		return
	}
	transfer, err := h.Transactions.CreateTransfer(user.ID, in)
	if err != nil {
		util.Fail(c, err)
		return
	}
	util.Created(c, transfer)
}

func (h *TransactionHandler) ListTransfers(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	accountID, ok := queryUint(c, "accountId")
	if !ok {
		util.Error(c, http.StatusBadRequest, "invalid account id")
		return
	}
	items, err := h.Transactions.ListTransfers(user.ID, accountID)
	if err != nil {
		util.Fail(c, err)
		return
	}
	util.OK(c, gin.H{"items": items})
}

func (h *TransactionHandler) RemoveTransfer(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	transferID := c.Param("transferId")
	if transferID == "" {
		util.Error(c, http.StatusBadRequest, "invalid transfer id")
		return
	}
	if err := h.Transactions.RemoveTransfer(user.ID, transferID); err != nil {
		util.Fail(c, err)
		return
	}
	util.OK(c, gin.H{"ok": true})
}

func (h *TransactionHandler) ConvertToTransfer(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	var in service.ConvertInput
	if err := c.ShouldBindJSON(&in); err != nil {
		util.Error(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if in.TxID == "" {
		util.Error(c, http.StatusBadRequest, "txId is required")
		return
	}
	conv, err := h.Transactions.ConvertToTransfer(user.ID, in)
	if err != nil {
		util.Fail(c, err)
		return
	}
	util.OK(c, conv)
}

// Balance proxies to the account ledger, kept on the transactions
// surface for the SPA's balance calls.
func (h *TransactionHandler) Balance(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	id, ok := paramID(c, "accountId")
	if !ok {
		util.Error(c, http.StatusBadRequest, "invalid account id")
		return
	}
	balance, err := h.Transactions.CurrentBalance(user.ID, id)
	if err != nil {
		util.Fail(c, err)
		return
	}
	util.OK(c, gin.H{"accountId": id, "balance": balance})
}
