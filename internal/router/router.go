package router

import (
	"github.com/nunocpr/PersonalFinance/internal/config"
	"github.com/nunocpr/PersonalFinance/internal/handler"
	"github.com/nunocpr/PersonalFinance/internal/middleware"
	"github.com/nunocpr/PersonalFinance/internal/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Setup wires services, handlers and middleware into a gin engine.
func Setup(cfg *config.Config, db *gorm.DB) *gin.Engine {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	accounts := service.NewAccountService(db)
	categories := service.NewCategoryService(db)
	rules := service.NewRuleService(db)
	transactions := service.NewTransactionService(db, rules, accounts)

	api := r.Group("/api")

	authHandler := handler.NewAuthHandler(db, cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.ExpireHours)
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)

	protected := api.Group("")
	protected.Use(
		middleware.Auth(cfg.JWT.Secret, db),
		middleware.Audit(db),
	)

	protected.GET("/users/me", handler.GetMe)
	protected.PUT("/users/me", handler.UpdateMe(db))

	accountHandler := handler.NewAccountHandler(accounts)
	protected.GET("/accounts", accountHandler.List)
	protected.GET("/accounts/:id", accountHandler.Get)
	protected.POST("/accounts", accountHandler.Create)
	protected.PUT("/accounts/:id", accountHandler.Update)
	protected.DELETE("/accounts/:id", accountHandler.Delete)
	protected.GET("/accounts/:id/current-balance", accountHandler.CurrentBalance)

	categoryHandler := handler.NewCategoryHandler(categories)
	protected.GET("/categories", categoryHandler.ListTree)
	protected.POST("/categories", categoryHandler.Create)
	protected.PATCH("/categories/:id", categoryHandler.Patch)
	protected.POST("/categories/:id/move", categoryHandler.Move)
	protected.POST("/categories/reorder", categoryHandler.Reorder)
	protected.POST("/categories/:id/archive", categoryHandler.Archive)
	protected.DELETE("/categories/:id", categoryHandler.Delete)

	ruleHandler := handler.NewRuleHandler(rules)
	protected.GET("/rules", ruleHandler.List)
	protected.POST("/rules", ruleHandler.Create)
	protected.PUT("/rules/:id", ruleHandler.Update)
	protected.DELETE("/rules/:id", ruleHandler.Delete)
	protected.POST("/rules/reorder", ruleHandler.Reorder)

	txHandler := handler.NewTransactionHandler(transactions)
	protected.GET("/transactions", txHandler.List)
	protected.POST("/transactions", txHandler.Create)
	protected.PUT("/transactions/:id", txHandler.Update)
	protected.DELETE("/transactions/:id", txHandler.Delete)
	protected.GET("/transactions/group-by-category", txHandler.GroupByCategory)
	protected.GET("/transactions/balances/:accountId", txHandler.Balance)
	protected.POST("/transactions/transfers", txHandler.CreateTransfer)
	protected.GET("/transactions/transfers", txHandler.ListTransfers)
	protected.DELETE("/transactions/transfers/:transferId", txHandler.RemoveTransfer)
	protected.POST("/transactions/transfers/convert", txHandler.ConvertToTransfer)

	exportHandler := handler.NewExportHandler(db)
	protected.GET("/export/csv", exportHandler.ExportCSV)
	protected.GET("/export/xlsx", exportHandler.ExportXLSX)

	return r
}
