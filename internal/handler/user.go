package handler

import (
	"net/http"
	"strings"

	"github.com/nunocpr/PersonalFinance/internal/middleware"
	"github.com/nunocpr/PersonalFinance/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// GetMe returns the authenticated user's profile.
func GetMe(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	util.OK(c, gin.H{"user": userPayload(user)})
}

type updateMeReq struct {
	Name *string `json:"name"`
}

// UpdateMe patches the authenticated user's profile.
func UpdateMe(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.CurrentUser(c)
		if !ok {
			util.Error(c, http.StatusUnauthorized, "unauthorized")
			return
		}

		var req updateMeReq
		if err := c.ShouldBindJSON(&req); err != nil {
			util.Error(c, http.StatusBadRequest, "invalid request body")
			return
		}

		if req.Name != nil {
			user.Name = strings.TrimSpace(*req.Name)
		}
		if err := db.Save(user).Error; err != nil {
			util.Error(c, http.StatusInternalServerError, "server error")
			return
		}

		util.OK(c, gin.H{"user": userPayload(user)})
	}
}
