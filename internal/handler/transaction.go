package handler

import (
	"fmt"
	"net/http"
	"time"

	"fintracker/internal/export"
	"fintracker/internal/ledger"
	"fintracker/internal/models"
	"fintracker/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TransactionHandler 负责账目相关接口
type TransactionHandler struct {
	Ledger *ledger.Ledger
	DB     *gorm.DB
}

func NewTransactionHandler(l *ledger.Ledger, db *gorm.DB) *TransactionHandler {
	return &TransactionHandler{Ledger: l, DB: db}
}

type createTransactionReq struct {
	Kind        models.TransactionKind `json:"kind" binding:"required"`
	Category    string                 `json:"category" binding:"max=64"`
	Amount      decimal.Decimal        `json:"amount"`
	Description string                 `json:"description" binding:"max=255"`
	OccurredAt  *string                `json:"occurred_at"`
}

func (h *TransactionHandler) Create(c *gin.Context) {
	o, ok := owner(c)
	if !ok {
		return
	}
	var req createTransactionReq
	if !bind(c, &req) {
		return
	}
	at, err := optionalTime(req.OccurredAt)
	if err != nil {
		util.Fail(c, err)
		return
	}

	entry := &models.Transaction{
		Owner:       o,
		Kind:        req.Kind,
		Category:    req.Category,
		Amount:      req.Amount,
		Description: req.Description,
	}
	if at != nil {
		entry.OccurredAt = *at
	}
	out, err := h.Ledger.Append(c.Request.Context(), entry)
	if err != nil {
		util.Fail(c, err)
		return
	}
	util.Created(c, out)
}

// List 返回账目列表（可按月/年筛选）以及不受筛选影响的当前总余额
func (h *TransactionHandler) List(c *gin.Context) {
	o, ok := owner(c)
	if !ok {
		return
	}
	month, err := queryInt(c, "month")
	if err != nil {
		util.Fail(c, err)
		return
	}
	year, err := queryInt(c, "year")
	if err != nil {
		util.Fail(c, err)
		return
	}

	res, err := h.Ledger.List(c.Request.Context(), o, ledger.ListFilter{Month: month, Year: year})
	if err != nil {
		util.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    res.Transactions,
		"balance": res.Balance,
	})
}

// Dashboard 返回指定月份的收入/支出/转账汇总
func (h *TransactionHandler) Dashboard(c *gin.Context) {
	o, ok := owner(c)
	if !ok {
		return
	}
	month, err := queryInt(c, "month")
	if err != nil {
		util.Fail(c, err)
		return
	}
	year, err := queryInt(c, "year")
	if err != nil {
		util.Fail(c, err)
		return
	}

	d, err := h.Ledger.Dashboard(c.Request.Context(), o, month, year)
	if err != nil {
		util.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"income":   d.Income,
		"expense":  d.Expense,
		"transfer": d.Transfer,
		"balance":  d.Balance,
		"month":    d.Month,
		"year":     d.Year,
	})
}

type updateTransactionReq struct {
	Kind        *models.TransactionKind `json:"kind"`
	Category    *string                 `json:"category" binding:"omitempty,max=64"`
	Amount      *decimal.Decimal        `json:"amount"`
	Description *string                 `json:"description" binding:"omitempty,max=255"`
	OccurredAt  *string                 `json:"occurred_at"`
}

// Update 修改一条记录并重算它自己的余额快照
func (h *TransactionHandler) Update(c *gin.Context) {
	o, ok := owner(c)
	if !ok {
		return
	}
	var req updateTransactionReq
	if !bind(c, &req) {
		return
	}
	at, err := optionalTime(req.OccurredAt)
	if err != nil {
		util.Fail(c, err)
		return
	}

	out, err := h.Ledger.Edit(c.Request.Context(), o, c.Param("id"), ledger.Patch{
		Kind:        req.Kind,
		Category:    req.Category,
		Amount:      req.Amount,
		Description: req.Description,
		OccurredAt:  at,
	})
	if err != nil {
		util.Fail(c, err)
		return
	}
	util.Success(c, out)
}

func (h *TransactionHandler) Delete(c *gin.Context) {
	o, ok := owner(c)
	if !ok {
		return
	}
	if err := h.Ledger.Delete(c.Request.Context(), o, c.Param("id")); err != nil {
		util.Fail(c, err)
		return
	}
	util.Success(c, gin.H{"id": c.Param("id")})
}

// Export 导出全部账目为 CSV 或 XLSX（?format=xlsx）
func (h *TransactionHandler) Export(c *gin.Context) {
	o, ok := owner(c)
	if !ok {
		return
	}
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		util.Fail(c, err)
		return
	}
	txs, err := export.Load(c.Request.Context(), h.DB, o)
	if err != nil {
		util.Fail(c, err)
		return
	}

	c.Header("Content-Type", format.ContentType())
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"transactions_%s.%s\"",
		time.Now().Format("20060102"), format))
	c.Status(http.StatusOK)
	if err := export.Write(c.Writer, format, txs); err != nil {
		_ = c.Error(err)
	}
}
