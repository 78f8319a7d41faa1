package handler

import (
	"fintracker/internal/habit"
	"fintracker/internal/models"
	"fintracker/internal/util"

	"github.com/gin-gonic/gin"
)

type HabitHandler struct {
	Habits *habit.Service
}

func NewHabitHandler(s *habit.Service) *HabitHandler {
	return &HabitHandler{Habits: s}
}

type createHabitReq struct {
	Title       string                `json:"title" binding:"required,max=128"`
	Description string                `json:"description" binding:"max=255"`
	Frequency   models.HabitFrequency `json:"frequency"`
}

func (h *HabitHandler) Create(c *gin.Context) {
	o, ok := owner(c)
	if !ok {
		return
	}
	var req createHabitReq
	if !bind(c, &req) {
		return
	}
	out, err := h.Habits.Create(c.Request.Context(), o, habit.Input{
		Title:       req.Title,
		Description: req.Description,
		Frequency:   req.Frequency,
	})
	if err != nil {
		util.Fail(c, err)
		return
	}
	util.Created(c, out)
}

func (h *HabitHandler) List(c *gin.Context) {
	o, ok := owner(c)
	if !ok {
		return
	}
	list, err := h.Habits.List(c.Request.Context(), o)
	if err != nil {
		util.Fail(c, err)
		return
	}
	util.Success(c, list)
}

type updateHabitReq struct {
	Title       *string                `json:"title" binding:"omitempty,max=128"`
	Description *string                `json:"description" binding:"omitempty,max=255"`
	Frequency   *models.HabitFrequency `json:"frequency"`
}

func (h *HabitHandler) Update(c *gin.Context) {
	o, ok := owner(c)
	if !ok {
		return
	}
	var req updateHabitReq
	if !bind(c, &req) {
		return
	}
	out, err := h.Habits.Update(c.Request.Context(), o, c.Param("id"), habit.Patch{
		Title:       req.Title,
		Description: req.Description,
		Frequency:   req.Frequency,
	})
	if err != nil {
		util.Fail(c, err)
		return
	}
	util.Success(c, out)
}

func (h *HabitHandler) Delete(c *gin.Context) {
	o, ok := owner(c)
	if !ok {
		return
	}
	if err := h.Habits.Delete(c.Request.Context(), o, c.Param("id")); err != nil {
		util.Fail(c, err)
		return
	}
	util.Success(c, gin.H{"id": c.Param("id")})
}

func (h *HabitHandler) Complete(c *gin.Context) {
	o, ok := owner(c)
	if !ok {
		return
	}
	v, err := h.Habits.Complete(c.Request.Context(), o, c.Param("id"))
	if err != nil {
		util.Fail(c, err)
		return
	}
	util.Success(c, v)
}

func (h *HabitHandler) Uncomplete(c *gin.Context) {
	o, ok := owner(c)
	if !ok {
		return
	}
	v, err := h.Habits.Uncomplete(c.Request.Context(), o, c.Param("id"))
	if err != nil {
		util.Fail(c, err)
		return
	}
	util.Success(c, v)
}
