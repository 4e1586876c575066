package middleware

import (
	"net/http"

	"github.com/nunocpr/PersonalFinance/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Audit records authenticated mutating requests (anything other than
// GET) to the audit_logs table after the handler runs.
func Audit(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Request.Method == http.MethodGet {
			return
		}
		user, ok := CurrentUser(c)
		if !ok {
			return
		}

		entry := models.AuditLog{
			UserID:    &user.ID,
			Method:    c.Request.Method,
			Path:      c.Request.URL.Path,
			IP:        c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
		}
		_ = db.Create(&entry).Error
	}
}
