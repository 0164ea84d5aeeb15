package router

import (
	"net/http"
	"time"

	"github.com/LePhiAnhDev/Fintech-Blockchain-Hackathon-sub001/internal/ai"
	"github.com/LePhiAnhDev/Fintech-Blockchain-Hackathon-sub001/internal/config"
	"github.com/LePhiAnhDev/Fintech-Blockchain-Hackathon-sub001/internal/handler"
	"github.com/LePhiAnhDev/Fintech-Blockchain-Hackathon-sub001/internal/ipfs"
	"github.com/LePhiAnhDev/Fintech-Blockchain-Hackathon-sub001/internal/metrics"
	"github.com/LePhiAnhDev/Fintech-Blockchain-Hackathon-sub001/internal/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const rateWindow = 15 * time.Minute

// SetupRouter configures the Gin engine, middleware and all API routes.
func SetupRouter(cfg *config.Config, db *gorm.DB, log *logrus.Logger) *gin.Engine {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log), metrics.Middleware())

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowOrigins = cfg.CORS.Origins
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization")
	r.Use(cors.New(corsCfg))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"success":   true,
			"message":   "Server is running",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})
	r.GET("/metrics", metrics.Handler())

	jwtSecret := cfg.JWT.Secret
	authRequired := middleware.Authenticate(jwtSecret, db)
	authOptional := middleware.OptionalAuth(jwtSecret, db)

	api := r.Group("/api")

	// auth
	authHandler := handler.NewAuthHandler(db, jwtSecret, cfg.JWT.Issuer, cfg.TokenTTL(), log)
	auth := api.Group("/auth")
	auth.POST("/login", authHandler.Login)
	auth.POST("/logout", authHandler.Logout)
	authProtected := auth.Group("", authRequired)
	authProtected.GET("/profile", authHandler.GetProfile)
	authProtected.PUT("/profile", authHandler.UpdateProfile)
	authProtected.GET("/verify", authHandler.Verify)
	authProtected.DELETE("/account", authHandler.DeleteAccount)
	authProtected.GET("/stats", authHandler.GetStats)

	// finance
	financeHandler := handler.NewFinanceHandler(db, log)
	finance := api.Group("/finance", authRequired)
	finance.POST("/transactions", middleware.UserRateLimit(50, rateWindow), financeHandler.CreateTransaction)
	finance.GET("/transactions", financeHandler.ListTransactions)
	finance.PUT("/transactions/:id", financeHandler.UpdateTransaction)
	finance.DELETE("/transactions/:id", financeHandler.DeleteTransaction)
	finance.GET("/summary", financeHandler.GetSummary)
	finance.GET("/categories", financeHandler.GetCategories)
	finance.GET("/insights", financeHandler.GetInsights)
	finance.POST("/bulk", middleware.UserRateLimit(10, rateWindow), financeHandler.BulkCreate)
	finance.GET("/daily-expenses", financeHandler.GetDailyExpenses)
	finance.GET("/monthly-expenses", financeHandler.GetMonthlyExpenses)
	finance.GET("/today-summary", financeHandler.GetTodaySummary)
	finance.POST("/blockchain-transaction", middleware.UserRateLimit(20, rateWindow), financeHandler.CreateBlockchainTransaction)
	finance.GET("/detailed-summary", financeHandler.GetDetailedSummary)
	finance.GET("/export/csv", financeHandler.ExportCSV)
	finance.GET("/export/xlsx", financeHandler.ExportXLSX)

	// blockchain analysis
	blockchainHandler := handler.NewBlockchainHandler(db, log)
	blockchain := api.Group("/blockchain")
	blockchain.GET("/health", blockchainHandler.Health)
	blockchainAuth := blockchain.Group("", authRequired)
	blockchainAuth.POST("/save", middleware.UserRateLimit(20, rateWindow), blockchainHandler.SaveAnalysis)
	blockchainAuth.GET("/history", blockchainHandler.GetHistory)
	blockchainAuth.GET("/analysis/:walletAddress", blockchainHandler.GetAnalysisByAddress)
	blockchainAuth.DELETE("/analysis/:id", blockchainHandler.DeleteAnalysis)
	blockchainAuth.GET("/stats", blockchainHandler.GetStats)
	blockchainAuth.PUT("/analysis/:id/visibility", blockchainHandler.UpdateVisibility)
	blockchainAuth.POST("/analysis/:id/tags", blockchainHandler.AddTag)
	blockchainAuth.DELETE("/analysis/:id/tags/:tag", blockchainHandler.RemoveTag)
	blockchainAuth.GET("/public", blockchainHandler.GetPublic)

	// study chat
	aiClient := ai.NewClient(cfg.AI.BaseURL, time.Duration(cfg.AI.TimeoutSeconds)*time.Second)
	studyHandler := handler.NewStudyHandler(db, aiClient, log)
	study := api.Group("/study", authRequired)
	study.POST("/conversations", middleware.UserRateLimit(20, rateWindow), studyHandler.CreateConversation)
	study.GET("/conversations", studyHandler.ListConversations)
	study.GET("/conversations/:id", studyHandler.GetConversation)
	study.PUT("/conversations/:id", studyHandler.UpdateConversation)
	study.DELETE("/conversations/:id", studyHandler.DeleteConversation)
	study.POST("/conversations/:id/messages", middleware.UserRateLimit(100, rateWindow), studyHandler.AddMessage)
	study.GET("/stats", studyHandler.GetStats)
	study.GET("/search", studyHandler.Search)
	study.POST("/chat", middleware.UserRateLimit(60, rateWindow), studyHandler.Chat)

	// academic marketplace
	ipfsClient := ipfs.NewClient(cfg.Pinata.BaseURL, cfg.Pinata.Gateway, cfg.Pinata.JWT)
	academicHandler := handler.NewAcademicHandler(ipfsClient, cfg.Upload, cfg.Contract.DeploymentFile, log)
	academic := api.Group("/academic")
	academic.GET("/contract-info", academicHandler.GetContractInfo)
	academic.POST("/upload-document", authOptional, academicHandler.UploadDocument)
	academic.GET("/listings", academicHandler.GetListings)
	academic.GET("/my-nfts", authRequired, academicHandler.GetMyNFTs)
	academic.GET("/nft/:tokenId", academicHandler.GetNFT)
	academic.GET("/test-ipfs", academicHandler.TestIPFS)

	// help center
	helpHandler := handler.NewHelpHandler(log)
	help := api.Group("/help")
	help.GET("/faq", helpHandler.GetFAQ)
	help.GET("/faq/:id", helpHandler.GetFAQItem)
	help.GET("/support", helpHandler.GetSupport)
	help.GET("/status", helpHandler.GetStatus)
	help.POST("/contact", helpHandler.SubmitContact)
	help.GET("/guides", helpHandler.GetGuides)

	return r
}
