// @title           Procurement API
// @version         1.0
// @description     Procurement backend - RFPs, quotations, negotiation, approvals and catalog imports.

// @contact.name   API Support

// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

// @schemes http https
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"procurement-backend/handlers"
	"procurement-backend/services"
	"procurement-backend/storage"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func CORSConfig() cors.Config {
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{
		"http://localhost:9000",
		"http://localhost:8080",
		"http://localhost:3000",
	}
	if origin := os.Getenv("FRONTEND_ORIGIN"); origin != "" {
		corsConfig.AllowOrigins = append(corsConfig.AllowOrigins, origin)
	}
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{
		"Content-Type", "Content-Length", "Accept-Encoding",
		"Accept", "Origin", "X-Requested-With", "Authorization", "User-Agent",
		"Cache-Control", "Referer",
		"Access-Control-Request-Method", "Access-Control-Request-Headers",
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "HEAD", "PATCH"}
	corsConfig.ExposeHeaders = []string{"Content-Length", "Content-Type", "Content-Disposition"}
	corsConfig.MaxAge = 12 * time.Hour
	return corsConfig
}

func main() {
	db := storage.InitDB()
	catalogDB := storage.InitGormDB()

	mailer := services.NewEmailService(db)

	// Daily maintenance at 00:30: session cleanup + stale RFP auto-close.
	cronLogFile, err := os.OpenFile("cron_errors.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		log.Printf("Failed to open cron error log file: %v", err)
	}
	cronLogger := log.New(cronLogFile, "CRON: ", log.LstdFlags)

	c := cron.New(
		cron.WithLogger(cron.VerbosePrintfLogger(cronLogger)),
	)
	if _, err := c.AddFunc("30 0 * * *", func() {
		log.Println("Starting daily maintenance cron job")
		services.RunDailyMaintenance(db, 30*24*time.Hour)
		log.Println("Daily maintenance cron job finished")
	}); err != nil {
		log.Fatalf("Failed to schedule daily maintenance cron job: %v", err)
	}
	c.Start()

	r := gin.Default()
	r.MaxMultipartMemory = 8 << 20

	r.Use(cors.New(CORSConfig()))

	// ==================== 1. AUTH ====================
	r.POST("/api/login", handlers.Login(db))
	r.POST("/api/refresh_token", handlers.RefreshToken(db))
	r.GET("/api/validate_session", handlers.ValidateSession(db))
	r.POST("/api/logout", handlers.Logout(db))

	// ==================== 2. RFPS ====================
	r.POST("/api/create_rfp", handlers.CreateRFP(db))
	r.GET("/api/rfp_fetch/:id", handlers.GetRFP(db))
	r.PUT("/api/rfp_update/:id", handlers.UpdateRFP(db))
	r.GET("/api/rfps", handlers.GetAllRFPs(db))
	r.POST("/api/rfp_submit/:id", handlers.SubmitRFP(db))
	r.POST("/api/rfp_float/:id", handlers.FloatRFP(db, mailer))
	r.PUT("/api/rfp_extend/:id", handlers.ExtendRFPClosingDate(db))
	r.POST("/api/rfp_cancel/:id", handlers.CancelRFP(db))
	r.POST("/api/rfp_close/:id", handlers.CloseRFP(db))
	r.DELETE("/api/rfp_delete/:id", handlers.DeleteRFP(db))

	// ==================== 3. QUOTATIONS ====================
	r.POST("/api/rfp/:id/quotations", handlers.SubmitQuotation(db))
	r.GET("/api/rfp/:id/quotations", handlers.GetRFPQuotations(db))
	r.POST("/api/rfp/:id/quotations/:quotation_id/negotiate", handlers.NegotiateQuotation(db))
	r.PUT("/api/rfp/:id/quotations/:quotation_id/resubmit", handlers.ResubmitQuotation(db))
	r.POST("/api/rfp/:id/quotations/:quotation_id/withdraw", handlers.WithdrawQuotation(db))

	// ==================== 4. EVALUATION & APPROVAL ====================
	r.GET("/api/rfp/:id/evaluate", handlers.EvaluateRFP(db))
	r.GET("/api/rfp/:id/comparison/export", handlers.ExportComparison(db))
	r.GET("/api/rfp/:id/comparison/pdf", handlers.GenerateComparisonPDF(db))
	r.POST("/api/rfp/:id/send_for_approval", handlers.SendForApproval(db, mailer))
	r.POST("/api/rfp/:id/decision", handlers.DecideRFP(db))

	// ==================== 5. PURCHASE REQUESTS ====================
	r.POST("/api/create_purchase_request", handlers.CreatePurchaseRequest(db))
	r.POST("/api/purchase_requests/import", handlers.ImportPurchaseRequest(db, catalogDB))
	r.GET("/api/purchase_requests", handlers.GetPurchaseRequests(db))
	r.GET("/api/purchase_requests/:id", handlers.GetPurchaseRequest(db))
	r.PUT("/api/purchase_requests/:id/status", handlers.UpdatePurchaseRequestStatus(db))
	r.DELETE("/api/purchase_requests/:id", handlers.DeletePurchaseRequest(db))

	// ==================== 6. SUPPLIERS ====================
	r.POST("/api/create_supplier", handlers.CreateSupplier(db))
	r.GET("/api/suppliers", handlers.GetSuppliers(db))
	r.GET("/api/suppliers/:id", handlers.GetSupplier(db))
	r.PUT("/api/suppliers/:id", handlers.UpdateSupplier(db))
	r.DELETE("/api/suppliers/:id", handlers.DeleteSupplier(db))

	// ==================== 7. CATALOG ====================
	r.GET("/api/catalog_items", handlers.GetCatalogItems(catalogDB))
	r.POST("/api/catalog_items", handlers.CreateCatalogItem(catalogDB))
	r.PUT("/api/catalog_items/:id", handlers.UpdateCatalogItem(catalogDB))
	r.DELETE("/api/catalog_items/:id", handlers.DeactivateCatalogItem(catalogDB))

	// ==================== 8. NOTIFICATIONS & LOGS ====================
	r.GET("/api/notifications/user/:user_id", handlers.GetNotifications(db))
	r.PUT("/api/notifications/:id/read", handlers.MarkNotificationRead(db))
	r.GET("/api/logs", handlers.GetActivityLogsHandler(db))

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cronCtx := c.Stop()
	select {
	case <-cronCtx.Done():
	case <-time.After(10 * time.Second):
		log.Println("Timed out waiting for cron jobs to finish")
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	log.Println("Server exiting")
}
