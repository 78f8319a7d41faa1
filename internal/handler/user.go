package handler

import (
	"fintracker/internal/middleware"
	"fintracker/internal/settings"
	"fintracker/internal/util"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	Settings *settings.Service
}

func NewUserHandler(s *settings.Service) *UserHandler {
	return &UserHandler{Settings: s}
}

// GetMe 返回当前用户镜像和偏好设置
func (h *UserHandler) GetMe(c *gin.Context) {
	o, ok := owner(c)
	if !ok {
		return
	}
	st, err := h.Settings.Get(c.Request.Context(), o)
	if err != nil {
		util.Fail(c, err)
		return
	}
	util.Success(c, gin.H{
		"user":     middleware.CurrentUser(c),
		"settings": st,
	})
}
