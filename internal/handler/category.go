package handler

import (
	"net/http"

	"github.com/nunocpr/PersonalFinance/internal/middleware"
	"github.com/nunocpr/PersonalFinance/internal/service"
	"github.com/nunocpr/PersonalFinance/internal/util"

	"github.com/gin-gonic/gin"
)

// CategoryHandler serves the category tree.
type CategoryHandler struct {
	Categories *service.CategoryService
}

func NewCategoryHandler(categories *service.CategoryService) *CategoryHandler {
	return &CategoryHandler{Categories: categories}
}

func (h *CategoryHandler) ListTree(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	tree, err := h.Categories.ListTree(user.ID)
	if err != nil {
		util.Fail(c, err)
		return
	}
	util.OK(c, gin.H{"items": tree})
}

func (h *CategoryHandler) Create(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	var in service.CreateCategoryInput
	if err := c.ShouldBindJSON(&in); err != nil {
		util.Error(c, http.StatusBadRequest, "invalid request body")
		return
	}
	cat, err := h.Categories.Create(user.ID, in)
	if err != nil {
		util.Fail(c, err)
		return
	}
	util.Created(c, gin.H{"category": cat})
}

func (h *CategoryHandler) Patch(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		util.Error(c, http.StatusBadRequest, "invalid category id")
		return
	}
	var patch service.UpdateCategoryInput
	if err := c.ShouldBindJSON(&patch); err != nil {
		util.Error(c, http.StatusBadRequest, "invalid request body")
		return
	}
	cat, err := h.Categories.Update(user.ID, id, patch)
	if err != nil {
		util.Fail(c, err)
		return
	}
	util.OK(c, gin.H{"category": cat})
}

type moveCategoryReq struct {
	ParentID *uint `json:"parentId"`
}

func (h *CategoryHandler) Move(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		util.Error(c, http.StatusBadRequest, "invalid category id")
		return
	}
	var req moveCategoryReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, "invalid request body")
		return
	}
	cat, err := h.Categories.Move(user.ID, id, req.ParentID)
	if err != nil {
		util.Fail(c, err)
		return
	}
	util.OK(c, gin.H{"category": cat})
}

type reorderReq struct {
	ParentID   *uint  `json:"parentId"`
	OrderedIDs []uint `json:"orderedIds" binding:"required"`
}

func (h *CategoryHandler) Reorder(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req reorderReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.Categories.Reorder(user.ID, req.ParentID, req.OrderedIDs); err != nil {
		util.Fail(c, err)
		return
	}
	util.OK(c, gin.H{"ok": true})
}

func (h *CategoryHandler) Archive(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		util.Error(c, http.StatusBadRequest, "invalid category id")
		return
	}
	cat, err := h.Categories.Archive(user.ID, id)
	if err != nil {
		util.Fail(c, err)
		return
	}
	util.OK(c, gin.H{"category": cat})
}

func (h *CategoryHandler) Delete(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		util.Error(c, http.StatusBadRequest, "invalid category id")
		return
	}
	if err := h.Categories.HardDelete(user.ID, id); err != nil {
		util.Fail(c, err)
		return
	}
	util.OK(c, gin.H{"ok": true})
}
