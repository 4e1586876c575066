package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// paramID parses a positive integer path parameter.
func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// queryUint parses an optional positive integer query parameter.
func queryUint(c *gin.Context, name string) (*uint, bool) {
	s := c.Query(name)
	if s == "" {
		return nil, true
	}
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return nil, false
	}
	u := uint(v)
	return &u, true
}

// queryInt parses an optional integer query parameter with a default.
func queryInt(c *gin.Context, name string, def int) int {
	s := c.Query(name)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
