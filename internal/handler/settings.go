package handler

import (
	"fintracker/internal/settings"
	"fintracker/internal/util"

	"github.com/gin-gonic/gin"
)

type SettingsHandler struct {
	Settings *settings.Service
}

func NewSettingsHandler(s *settings.Service) *SettingsHandler {
	return &SettingsHandler{Settings: s}
}

func (h *SettingsHandler) Get(c *gin.Context) {
	o, ok := owner(c)
	if !ok {
		return
	}
	st, err := h.Settings.Get(c.Request.Context(), o)
	if err != nil {
		util.Fail(c, err)
		return
	}
	util.Success(c, st)
}

type updateSettingsReq struct {
	AutoDeductBudgetExpenses *bool   `json:"auto_deduct_budget_expenses"`
	Currency                 *string `json:"currency"`
}

func (h *SettingsHandler) Update(c *gin.Context) {
	o, ok := owner(c)
	if !ok {
		return
	}
	var req updateSettingsReq
	if !bind(c, &req) {
		return
	}
	st, err := h.Settings.Update(c.Request.Context(), o, settings.Patch{
		AutoDeductBudgetExpenses: req.AutoDeductBudgetExpenses,
		Currency:                 req.Currency,
	})
	if err != nil {
		util.Fail(c, err)
		return
	}
	util.Success(c, st)
}
