package router

import (
	"net/http"

	"fintracker/internal/budget"
	"fintracker/internal/config"
	"fintracker/internal/database"
	"fintracker/internal/goal"
	"fintracker/internal/habit"
	"fintracker/internal/handler"
	"fintracker/internal/ledger"
	"fintracker/internal/lock"
	"fintracker/internal/middleware"
	"fintracker/internal/settings"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SetupRouter wires services and handlers onto a gin engine.
func SetupRouter(cfg *config.Config, db *gorm.DB, locks lock.Locker, logger *log.Logger) *gin.Engine {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	r := gin.New()
	r.Use(middleware.RequestLogger(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	uow := database.NewUnitOfWork(db)
	settingsSvc := settings.NewService(db, cfg.Ledger.DefaultCurrency)
	ldg := ledger.New(db, logger)
	budgets := budget.NewService(db, uow, locks, logger)
	// 是否自动扣账由用户设置决定
	rollup := budget.NewRollup(db, uow, ldg, locks, settingsSvc, budget.RollupOptions{
		Category: cfg.Ledger.BudgetCategory,
		Logger:   logger,
	})
	engine := goal.NewEngine(db, uow, ldg, locks, goal.Options{
		InterestCategory: cfg.Ledger.InterestCategory,
		Logger:           logger,
	})
	habits := habit.NewService(db, uow)

	// ====== API ======
	api := r.Group("/api")
	api.Use(middleware.AuthMiddleware(cfg.Auth.JWTSecret, db))

	userHandler := handler.NewUserHandler(settingsSvc)
	api.GET("/me", userHandler.GetMe)

	settingsHandler := handler.NewSettingsHandler(settingsSvc)
	api.GET("/settings", settingsHandler.Get)
	api.PUT("/settings", settingsHandler.Update)

	txHandler := handler.NewTransactionHandler(ldg, db)
	api.GET("/transactions", txHandler.List)
	api.POST("/transactions", txHandler.Create)
	api.GET("/transactions/dashboard", txHandler.Dashboard)
	api.GET("/transactions/export", txHandler.Export)
	api.PUT("/transactions/:id", txHandler.Update)
	api.DELETE("/transactions/:id", txHandler.Delete)

	budgetHandler := handler.NewBudgetHandler(budgets, rollup)
	api.GET("/budgets", budgetHandler.List)
	api.POST("/budgets", budgetHandler.Create)
	api.GET("/budgets/:id", budgetHandler.Get)
	api.PUT("/budgets/:id", budgetHandler.Update)
	api.DELETE("/budgets/:id", budgetHandler.Delete)
	api.POST("/budgets/:id/recompute", budgetHandler.Recompute)
	api.GET("/budgets/:id/items", budgetHandler.ListItems)
	api.POST("/budgets/:id/items", budgetHandler.CreateItem)
	api.PUT("/budgets/:id/items/:itemId", budgetHandler.UpdateItem)
	api.DELETE("/budgets/:id/items/:itemId", budgetHandler.DeleteItem)
	api.POST("/budgets/:id/items/:itemId/spend", budgetHandler.LogSpend)

	savingHandler := handler.NewSavingHandler(engine)
	api.GET("/savings", savingHandler.List)
	api.POST("/savings", savingHandler.Create)
	api.GET("/savings/:id", savingHandler.Get)
	api.PUT("/savings/:id", savingHandler.Update)
	api.DELETE("/savings/:id", savingHandler.Delete)
	api.POST("/savings/:id/deposit", savingHandler.Deposit)
	api.POST("/savings/:id/withdraw", savingHandler.Withdraw)

	habitHandler := handler.NewHabitHandler(habits)
	api.GET("/habits", habitHandler.List)
	api.POST("/habits", habitHandler.Create)
	api.PUT("/habits/:id", habitHandler.Update)
	api.DELETE("/habits/:id", habitHandler.Delete)
	api.POST("/habits/:id/complete", habitHandler.Complete)
	api.DELETE("/habits/:id/complete", habitHandler.Uncomplete)

	return r
}
