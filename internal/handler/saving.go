package handler

import (
	"encoding/json"
	"fmt"

	"fintracker/internal/goal"
	"fintracker/internal/models"
	"fintracker/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// SavingHandler serves saving, loan and debt goals.
type SavingHandler struct {
	Engine *goal.Engine
}

func NewSavingHandler(e *goal.Engine) *SavingHandler {
	return &SavingHandler{Engine: e}
}

type createSavingReq struct {
	Title        string           `json:"title" binding:"required,max=128"`
	Type         models.GoalType  `json:"type"`
	TargetAmount decimal.Decimal  `json:"target_amount"`
	InterestRate *decimal.Decimal `json:"interest_rate"`
	StartDate    *string          `json:"start_date"`
	EndDate      *string          `json:"end_date"`
}

func (h *SavingHandler) Create(c *gin.Context) {
	o, ok := owner(c)
	if !ok {
		return
	}
	var req createSavingReq
	if !bind(c, &req) {
		return
	}
	start, err := optionalTime(req.StartDate)
	if err != nil {
		util.Fail(c, err)
		return
	}
	end, err := optionalTime(req.EndDate)
	if err != nil {
		util.Fail(c, err)
		return
	}
	if req.Type == "" {
		req.Type = models.GoalSaving
	}

	in := goal.CreateInput{
		Title:        req.Title,
		Type:         req.Type,
		TargetAmount: req.TargetAmount,
		EndDate:      end,
	}
	if req.InterestRate != nil {
		in.InterestRate = *req.InterestRate
	}
	if start != nil {
		in.StartDate = *start
	}
	s, err := h.Engine.Create(c.Request.Context(), o, in)
	if err != nil {
		util.Fail(c, err)
		return
	}
	util.Created(c, s)
}

// List 支持 ?type=saving|loan|debt
func (h *SavingHandler) List(c *gin.Context) {
	o, ok := owner(c)
	if !ok {
		return
	}
	list, err := h.Engine.List(c.Request.Context(), o, models.GoalType(c.Query("type")))
	if err != nil {
		util.Fail(c, err)
		return
	}
	util.Success(c, list)
}

func (h *SavingHandler) Get(c *gin.Context) {
	o, ok := owner(c)
	if !ok {
		return
	}
	s, err := h.Engine.Get(c.Request.Context(), o, c.Param("id"))
	if err != nil {
		util.Fail(c, err)
		return
	}
	util.Success(c, s)
}

type updateSavingReq struct {
	Title        *string          `json:"title" binding:"omitempty,max=128"`
	TargetAmount *decimal.Decimal `json:"target_amount"`
	InterestRate *decimal.Decimal `json:"interest_rate"`
	StartDate    *string          `json:"start_date"`
	EndDate      *string          `json:"end_date"`
	ClearEndDate bool             `json:"clear_end_date"`

	// rejected: these only change through deposit/withdraw or never
	CurrentAmount json.RawMessage `json:"current_amount"`
	Type          json.RawMessage `json:"type"`
	Status        json.RawMessage `json:"status"`
}

func (h *SavingHandler) Update(c *gin.Context) {
	o, ok := owner(c)
	if !ok {
		return
	}
	var req updateSavingReq
	if !bind(c, &req) {
		return
	}
	for field, raw := range map[string]json.RawMessage{
		"current_amount": req.CurrentAmount,
		"type":           req.Type,
		"status":         req.Status,
	} {
		if len(raw) > 0 {
			util.Fail(c, fmt.Errorf("%w: %s cannot be updated directly", models.ErrValidation, field))
			return
		}
	}
	start, err := optionalTime(req.StartDate)
	if err != nil {
		util.Fail(c, err)
		return
	}
	end, err := optionalTime(req.EndDate)
	if err != nil {
		util.Fail(c, err)
		return
	}

	s, err := h.Engine.Update(c.Request.Context(), o, c.Param("id"), goal.Patch{
		Title:        req.Title,
		TargetAmount: req.TargetAmount,
		InterestRate: req.InterestRate,
		StartDate:    start,
		EndDate:      end,
		ClearEndDate: req.ClearEndDate,
	})
	if err != nil {
		util.Fail(c, err)
		return
	}
	util.Success(c, s)
}

func (h *SavingHandler) Delete(c *gin.Context) {
	o, ok := owner(c)
	if !ok {
		return
	}
	if err := h.Engine.Delete(c.Request.Context(), o, c.Param("id")); err != nil {
		util.Fail(c, err)
		return
	}
	util.Success(c, gin.H{"id": c.Param("id")})
}

func (h *SavingHandler) Deposit(c *gin.Context) {
	o, ok := owner(c)
	if !ok {
		return
	}
	var req amountReq
	if !bind(c, &req) {
		return
	}
	s, err := h.Engine.Deposit(c.Request.Context(), o, c.Param("id"), req.Amount)
	if err != nil {
		util.Fail(c, err)
		return
	}
	util.Success(c, s)
}

func (h *SavingHandler) Withdraw(c *gin.Context) {
	o, ok := owner(c)
	if !ok {
		return
	}
	var req amountReq
	if !bind(c, &req) {
		return
	}
	s, err := h.Engine.Withdraw(c.Request.Context(), o, c.Param("id"), req.Amount)
	if err != nil {
		util.Fail(c, err)
		return
	}
	util.Success(c, s)
}
