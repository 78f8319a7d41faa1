package handler

import (
	"fintracker/internal/budget"
	"fintracker/internal/models"
	"fintracker/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type BudgetHandler struct {
	Budgets *budget.Service
	Rollup  *budget.Rollup
}

func NewBudgetHandler(b *budget.Service, r *budget.Rollup) *BudgetHandler {
	return &BudgetHandler{Budgets: b, Rollup: r}
}

type createBudgetReq struct {
	Title        string           `json:"title" binding:"required,max=128"`
	TargetAmount *decimal.Decimal `json:"target_amount"`
	StartDate    *string          `json:"start_date"`
	EndDate      *string          `json:"end_date"`
}

func (h *BudgetHandler) Create(c *gin.Context) {
	o, ok := owner(c)
	if !ok {
		return
	}
	var req createBudgetReq
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

	in := budget.Input{Title: req.Title, EndDate: end}
	if start != nil {
		in.StartDate = *start
	}
	if req.TargetAmount != nil {
		in.TargetAmount = decimal.NewNullDecimal(*req.TargetAmount)
	}
	b, err := h.Budgets.Create(c.Request.Context(), o, in)
	if err != nil {
		util.Fail(c, err)
		return
	}
	util.Created(c, b)
}

func (h *BudgetHandler) List(c *gin.Context) {
	o, ok := owner(c)
	if !ok {
		return
	}
	list, err := h.Budgets.List(c.Request.Context(), o)
	if err != nil {
		util.Fail(c, err)
		return
	}
	util.Success(c, list)
}

func (h *BudgetHandler) Get(c *gin.Context) {
	o, ok := owner(c)
	if !ok {
		return
	}
	b, err := h.Budgets.Get(c.Request.Context(), o, c.Param("id"))
	if err != nil {
		util.Fail(c, err)
		return
	}
	util.Success(c, b)
}

type updateBudgetReq struct {
	Title        *string              `json:"title" binding:"omitempty,max=128"`
	TargetAmount *decimal.Decimal     `json:"target_amount"`
	ClearTarget  bool                 `json:"clear_target"`
	StartDate    *string              `json:"start_date"`
	EndDate      *string              `json:"end_date"`
	ClearEndDate bool                 `json:"clear_end_date"`
	Status       *models.BudgetStatus `json:"status"`
}

func (h *BudgetHandler) Update(c *gin.Context) {
	o, ok := owner(c)
	if !ok {
		return
	}
	var req updateBudgetReq
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

	p := budget.Patch{
		Title:        req.Title,
		StartDate:    start,
		EndDate:      end,
		ClearEndDate: req.ClearEndDate,
		Status:       req.Status,
	}
	switch {
	case req.ClearTarget:
		p.TargetAmount = &decimal.NullDecimal{}
	case req.TargetAmount != nil:
		t := decimal.NewNullDecimal(*req.TargetAmount)
		p.TargetAmount = &t
	}

	b, err := h.Budgets.Update(c.Request.Context(), o, c.Param("id"), p)
	if err != nil {
		util.Fail(c, err)
		return
	}
	util.Success(c, b)
}

// Delete 删除预算及其全部条目
func (h *BudgetHandler) Delete(c *gin.Context) {
	o, ok := owner(c)
	if !ok {
		return
	}
	if err := h.Budgets.Delete(c.Request.Context(), o, c.Param("id")); err != nil {
		util.Fail(c, err)
		return
	}
	util.Success(c, gin.H{"id": c.Param("id")})
}

func (h *BudgetHandler) Recompute(c *gin.Context) {
	o, ok := owner(c)
	if !ok {
		return
	}
	b, err := h.Rollup.Recompute(c.Request.Context(), o, c.Param("id"))
	if err != nil {
		util.Fail(c, err)
		return
	}
	util.Success(c, b)
}

func (h *BudgetHandler) ListItems(c *gin.Context) {
	o, ok := owner(c)
	if !ok {
		return
	}
	items, err := h.Rollup.ListItems(c.Request.Context(), o, c.Param("id"))
	if err != nil {
		util.Fail(c, err)
		return
	}
	util.Success(c, items)
}

type createItemReq struct {
	Title       string           `json:"title" binding:"required,max=128"`
	Description string           `json:"description" binding:"max=255"`
	Amount      *decimal.Decimal `json:"amount"`
	SpentAmount *decimal.Decimal `json:"spent_amount"`
}

func (h *BudgetHandler) CreateItem(c *gin.Context) {
	o, ok := owner(c)
	if !ok {
		return
	}
	var req createItemReq
	if !bind(c, &req) {
		return
	}
	in := budget.ItemInput{Title: req.Title, Description: req.Description}
	if req.Amount != nil {
		in.Amount = *req.Amount
	}
	if req.SpentAmount != nil {
		in.SpentAmount = *req.SpentAmount
	}
	res, err := h.Rollup.CreateItem(c.Request.Context(), o, c.Param("id"), in)
	if err != nil {
		util.Fail(c, err)
		return
	}
	util.Created(c, res)
}

type updateItemReq struct {
	Title       *string          `json:"title" binding:"omitempty,max=128"`
	Description *string          `json:"description" binding:"omitempty,max=255"`
	Amount      *decimal.Decimal `json:"amount"`
	SpentAmount *decimal.Decimal `json:"spent_amount"`
}

// UpdateItem 修改条目；spent_amount 的变化按差额记账
func (h *BudgetHandler) UpdateItem(c *gin.Context) {
	o, ok := owner(c)
	if !ok {
		return
	}
	var req updateItemReq
	if !bind(c, &req) {
		return
	}
	res, err := h.Rollup.UpdateItem(c.Request.Context(), o, c.Param("id"), c.Param("itemId"), budget.ItemPatch{
		Title:       req.Title,
		Description: req.Description,
		Amount:      req.Amount,
		SpentAmount: req.SpentAmount,
	})
	if err != nil {
		util.Fail(c, err)
		return
	}
	util.Success(c, res)
}

type amountReq struct {
	Amount decimal.Decimal `json:"amount"`
}

func (h *BudgetHandler) LogSpend(c *gin.Context) {
	o, ok := owner(c)
	if !ok {
		return
	}
	var req amountReq
	if !bind(c, &req) {
		return
	}
	res, err := h.Rollup.LogSpend(c.Request.Context(), o, c.Param("id"), c.Param("itemId"), req.Amount)
	if err != nil {
		util.Fail(c, err)
		return
	}
	util.Success(c, res)
}

// DeleteItem 删除条目，已花费金额作为收入退回
func (h *BudgetHandler) DeleteItem(c *gin.Context) {
	o, ok := owner(c)
	if !ok {
		return
	}
	b, err := h.Rollup.DeleteItem(c.Request.Context(), o, c.Param("id"), c.Param("itemId"))
	if err != nil {
		util.Fail(c, err)
		return
	}
	util.Success(c, gin.H{"budget": b})
}
