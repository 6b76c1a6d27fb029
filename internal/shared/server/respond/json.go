package respond

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// JSON writes payload with the given status.
func JSON(c *gin.Context, status int, payload any) {
	c.JSON(status, payload)
}

func OK(c *gin.Context, payload any) {
	JSON(c, http.StatusOK, payload)
}

// Created writes a 201 with payload, used for newly opened reviews and accounts.
func Created(c *gin.Context, payload any) {
	JSON(c, http.StatusCreated, payload)
}
