package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tgo/sage/internal/config"
	"github.com/tgo/sage/internal/middleware"
	"github.com/tgo/sage/internal/pkg/jwt"
	"github.com/tgo/sage/internal/repository"
	"github.com/tgo/sage/internal/service"
	"github.com/tgo/sage/internal/task"
	"github.com/tgo/sage/internal/vectorstore"
)

func SetupRouter(cfg *config.Config, db *gorm.DB, store *vectorstore.Store, ai *service.AIService, runner *task.Runner) *gin.Engine {
	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.RequestID())

	r.GET("/health", healthCheck)

	// Repositories
	userRepo := repository.NewUserRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	documentRepo := repository.NewDocumentRepository(db)
	chunkRepo := repository.NewChunkRepository(db)

	// Services
	jwtManager := jwt.NewManager(cfg.JWTSecret, cfg.JWTExpireMinutes)
	guard := service.NewOwnershipGuard(projectRepo)
	authSvc := service.NewAuthService(userRepo, jwtManager)
	ingestSvc := service.NewIngestService(store, documentRepo)
	stepDelay := time.Duration(cfg.SummaryStepDelayMs) * time.Millisecond
	documentSvc := service.NewDocumentService(db, documentRepo, chunkRepo, guard, ai, store, ingestSvc, runner, stepDelay)
	projectSvc := service.NewProjectService(db, projectRepo, documentRepo, chunkRepo, guard, ai, store)

	// Handlers
	authHandler := NewAuthHandler(authSvc)
	projectHandler := NewProjectHandler(projectSvc)
	documentHandler := NewDocumentHandler(documentSvc, cfg.StoragePath, cfg.MaxUploadSize)

	authMW := middleware.NewAuthMiddleware(jwtManager)

	api := r.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
		}

		authorized := api.Group("")
		authorized.Use(authMW.JWTAuth())
		{
			projects := authorized.Group("/projects")
			{
				projects.POST("", projectHandler.Create)
				projects.GET("", projectHandler.List)
				projects.GET("/:projectId", projectHandler.Get)
				projects.DELETE("/:projectId", projectHandler.Delete)
				projects.GET("/:projectId/documents", projectHandler.ListDocuments)
				projects.POST("/:projectId/query", projectHandler.Query)
			}

			documents := authorized.Group("/documents")
			{
				documents.POST("", documentHandler.Upload)
				documents.GET("/:documentId", documentHandler.Get)
				documents.GET("/:documentId/summary", documentHandler.Summary)
				documents.DELETE("/:documentId", documentHandler.Delete)
			}

			authorized.POST("/quizzes", projectHandler.CreateQuiz)
		}
	}

	return r
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "sage",
	})
}
