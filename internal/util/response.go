package util

import (
	"errors"
	"net/http"

	"github.com/nunocpr/PersonalFinance/internal/service"

	"github.com/gin-gonic/gin"
)

// JSON sends a payload with the given status.
func JSON(c *gin.Context, status int, payload interface{}) {
	c.JSON(status, payload)
}

// OK sends a payload with 200.
func OK(c *gin.Context, payload interface{}) {
	c.JSON(http.StatusOK, payload)
}

// Created sends a payload with 201.
func Created(c *gin.Context, payload interface{}) {
	c.JSON(http.StatusCreated, payload)
}

// Error sends {message} with an explicit status.
func Error(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"message": msg})
}

// Fail maps a service error to its HTTP status by the tagged kind,
// never by message text. Untagged errors become 500 with a generic
// message.
func Fail(c *gin.Context, err error) {
	var se *service.Error
	if !errors.As(err, &se) {
		Error(c, http.StatusInternalServerError, "server error")
		return
	}
	switch se.Kind {
	case service.KindNotFound:
		Error(c, http.StatusNotFound, se.Message)
	case service.KindInvalidInput:
		Error(c, http.StatusBadRequest, se.Message)
	case service.KindConflict:
		Error(c, http.StatusConflict, se.Message)
	case service.KindUnauthorized:
		Error(c, http.StatusUnauthorized, se.Message)
	default:
		Error(c, http.StatusInternalServerError, "server error")
	}
}
