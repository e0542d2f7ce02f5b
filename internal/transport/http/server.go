package http

import (
	"time"

	"github.com/gin-gonic/gin"

	appsvc "myopiadx/internal/app"
	"myopiadx/internal/bootstrap"
	"myopiadx/internal/cache"
	"myopiadx/internal/platform/rabbitmq"
	"myopiadx/internal/report"
	"myopiadx/internal/repository"
	"myopiadx/internal/storage"
	"myopiadx/internal/transport/http/handler"
	"myopiadx/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)

	// Screening artifacts are served straight from the whitelisted
	// store directories; generated names are UUID-based.
	router.Static("/uploads", app.Store.Dir(storage.KindUpload))
	router.Static("/results", app.Store.Dir(storage.KindResult))
	router.Static("/charts", app.Store.Dir(storage.KindChart))
	router.Static("/reports", app.Store.Dir(storage.KindReport))

	renderer := report.NewRenderer(app.Config.Report.ClinicName, app.Config.Report.UnicodeFontPath)

	specialistRepo := repository.NewSpecialistRepository(app.MySQL)
	examRepo := repository.NewExamRepository(app.MySQL)
	artifactRepo := repository.NewReportArtifactRepository(app.MySQL)

	authService := appsvc.NewAuthService(
		specialistRepo,
		app.Config.Auth.JWTSecret,
		time.Duration(app.Config.Auth.JWTExpireMinute)*time.Minute,
	)
	screeningService := appsvc.NewScreeningService(
		app.Detector,
		app.Store,
		renderer,
		rabbitmq.NewExamPublisher(app.MQConn, app.Config.RabbitMQ.ExamPersistQueue),
		examRepo,
	)
	recommendationService := appsvc.NewRecommendationService(
		cache.NewVerdictCache(app.Redis, time.Duration(app.Config.Redis.VerdictTTLSeconds)*time.Second),
		app.Store,
		renderer,
		artifactRepo,
	)

	authHandler := handler.NewAuthHandler(authService)
	screeningHandler := handler.NewScreeningHandler(screeningService, app.Config.MaxUploadBytes())
	recommendationHandler := handler.NewRecommendationHandler(recommendationService)
	referralHandler := handler.NewReferralHandler()

	authRequired := middleware.AuthJWT(app.Config.Auth.JWTSecret)

	router.POST("/detect", middleware.OptionalAuthJWT(app.Config.Auth.JWTSecret), screeningHandler.Detect)
	router.POST("/recommend", recommendationHandler.Recommend)
	router.POST("/save-recommendation", recommendationHandler.Save)
	router.GET("/download-recommendation/:filename", recommendationHandler.Download)
	router.GET("/user/:user_id", authRequired, authHandler.Profile)

	api := router.Group("/api")
	authGroup := api.Group("/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)
	api.GET("/exams", authRequired, screeningHandler.ListExams)
	api.GET("/recommendations", authRequired, recommendationHandler.List)
	api.POST("/referral/extract-text", authRequired, referralHandler.ExtractText)

	return router
}
