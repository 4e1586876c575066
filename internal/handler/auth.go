package handler

import (
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/nunocpr/PersonalFinance/internal/models"
	"github.com/nunocpr/PersonalFinance/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AuthHandler serves register and login.
type AuthHandler struct {
	DB        *gorm.DB
	JWTSecret string
	Issuer    string
	TokenTTL  time.Duration
}

func NewAuthHandler(db *gorm.DB, jwtSecret, issuer string, ttlHours int) *AuthHandler {
	if ttlHours <= 0 {
		ttlHours = 24
	}
	return &AuthHandler{
		DB:        db,
		JWTSecret: jwtSecret,
		Issuer:    issuer,
		TokenTTL:  time.Duration(ttlHours) * time.Hour,
	}
}

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type registerReq struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name" binding:"max=64"`
}

type loginReq struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func userPayload(u *models.User) gin.H {
	return gin.H{
		"publicId": u.PublicID,
		"email":    u.Email,
		"name":     u.Name,
	}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req registerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, "invalid request body")
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !emailRe.MatchString(email) {
		util.Error(c, http.StatusBadRequest, "invalid email address")
		return
	}
	if len(req.Password) < 8 || len(req.Password) > 72 {
		util.Error(c, http.StatusBadRequest, "password must be 8-72 characters")
		return
	}

	var count int64
	if err := h.DB.Model(&models.User{}).
		Where("email = ?", email).
		Count(&count).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "server error")
		return
	}
	if count > 0 {
		// generic message, no account enumeration
		util.Error(c, http.StatusBadRequest, "registration failed")
		return
	}

	const bcryptCost = 12
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, "server error")
		return
	}

	user := models.User{
		PublicID:     uuid.NewString(),
		Email:        email,
		Name:         strings.TrimSpace(req.Name),
		PasswordHash: string(hash),
	}
	if err := h.DB.Create(&user).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "server error")
		return
	}

	util.Created(c, gin.H{"user": userPayload(&user)})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, "invalid request body")
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	var user models.User
	if err := h.DB.Where("email = ?", email).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			util.Error(c, http.StatusUnauthorized, "invalid email or password")
		} else {
			util.Error(c, http.StatusInternalServerError, "server error")
		}
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		util.Error(c, http.StatusUnauthorized, "invalid email or password")
		return
	}

	token, err := util.GenerateToken(h.JWTSecret, h.Issuer, user.PublicID, h.TokenTTL)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, "server error")
		return
	}

	util.OK(c, gin.H{
		"token": token,
		"user":  userPayload(&user),
	})
}
