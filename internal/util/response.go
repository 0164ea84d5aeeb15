package util

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response is the data half of the envelope; handlers pass a map so
// payload keys stay close to the route code.
type Response map[string]interface{}

// FieldError is one field-level validation message.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// OK writes a 200 envelope with data.
func OK(c *gin.Context, data Response) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
	})
}

// OKMessage writes a 200 envelope with a message and optional data.
func OKMessage(c *gin.Context, message string, data Response) {
	body := gin.H{
		"success": true,
		"message": message,
	}
	if data != nil {
		body["data"] = data
	}
	c.JSON(http.StatusOK, body)
}

// Created writes a 201 envelope with a message and data.
func Created(c *gin.Context, message string, data Response) {
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": message,
		"data":    data,
	})
}

// Error writes a failure envelope with the given HTTP status.
func Error(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"message": message,
	})
}

// ValidationFailed writes a 400 envelope with field-level errors.
func ValidationFailed(c *gin.Context, errs []FieldError) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"message": "Validation failed",
		"errors":  errs,
	})
}

// RateLimited writes the 429 envelope with a coarse retry hint.
func RateLimited(c *gin.Context, retryAfter int) {
	c.JSON(http.StatusTooManyRequests, gin.H{
		"success":    false,
		"message":    "Too many requests. Please try again later.",
		"retryAfter": retryAfter,
	})
}

// Conflict writes a 409 envelope carrying the conflicting resource.
func Conflict(c *gin.Context, message string, data Response) {
	c.JSON(http.StatusConflict, gin.H{
		"success": false,
		"message": message,
		"data":    data,
	})
}
