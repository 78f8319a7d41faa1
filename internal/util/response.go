package util

import (
	"errors"
	"net/http"

	"fintracker/internal/models"

	"github.com/gin-gonic/gin"
)

// Success 统一成功返回
func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
	})
}

// Created 新建资源成功
func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    data,
	})
}

// Error 统一错误返回
func Error(c *gin.Context, httpStatus int, msg string) {
	c.AbortWithStatusJSON(httpStatus, gin.H{
		"success": false,
		"message": msg,
	})
}

// StatusFor 把业务错误映射为 HTTP 状态码
func StatusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrValidation),
		errors.Is(err, models.ErrInvalidAmount),
		errors.Is(err, models.ErrInvalidOperation),
		errors.Is(err, models.ErrInsufficientFunds):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrConflict):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// Fail 记录错误并按类型返回；消息原样给客户端
func Fail(c *gin.Context, err error) {
	_ = c.Error(err)
	Error(c, StatusFor(err), err.Error())
}
