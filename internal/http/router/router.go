package router

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/microtask-escrow/internal/config"
	"github.com/ignatzorin/microtask-escrow/internal/http/handlers"
	"github.com/ignatzorin/microtask-escrow/internal/http/middleware"
	"github.com/ignatzorin/microtask-escrow/internal/service"
)

func SetupRouter(
	cfg *config.Config,
	tokenManager *service.TokenManager,
	healthHandler *handlers.HealthHandler,
	userHandler *handlers.UserHandler,
	taskHandler *handlers.TaskHandler,
	submissionHandler *handlers.SubmissionHandler,
	withdrawalHandler *handlers.WithdrawalHandler,
	notificationHandler *handlers.NotificationHandler,
	purchaseHandler *handlers.PurchaseHandler,
	adminHandler *handlers.AdminHandler,
) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.MetricsMiddleware())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", healthHandler.Health)
	r.GET("/metrics", healthHandler.Metrics)

	// Вызовы checkout-провайдера
	internal := r.Group("/internal")
	internal.Use(middleware.CheckoutSecretMiddleware(cfg.CheckoutSecret))
	{
		internal.POST("/purchases", purchaseHandler.RecordPurchase)
	}

	api := r.Group("/api")

	// Публичные маршруты
	api.GET("/tasks", taskHandler.ListOpenTasks)

	// Защищённые маршруты
	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(tokenManager))

	// Ограничение частоты только для изменяющих запросов.
	limited := middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod)
	{
		protected.POST("/users/register", limited, userHandler.Register)
		protected.GET("/me", userHandler.Me)
		protected.GET("/me/balance", userHandler.Balance)
		protected.GET("/me/ledger", userHandler.Ledger)

		protected.GET("/notifications", notificationHandler.ListNotifications)
		protected.PUT("/notifications/:id/read", middleware.UUIDValidator("id"), notificationHandler.MarkAsRead)

		protected.POST("/tasks", limited, taskHandler.CreateTask)
		protected.GET("/tasks/my", taskHandler.ListMyTasks)
		protected.GET("/tasks/:id", middleware.UUIDValidator("id"), taskHandler.GetTask)
		protected.PUT("/tasks/:id", middleware.UUIDValidator("id"), limited, taskHandler.UpdateTask)
		protected.DELETE("/tasks/:id", middleware.UUIDValidator("id"), limited, taskHandler.DeleteTask)
		protected.GET("/tasks/:id/submissions", middleware.UUIDValidator("id"), taskHandler.ListTaskSubmissions)
		protected.POST("/tasks/:id/submissions", middleware.UUIDValidator("id"), limited, submissionHandler.Submit)

		protected.GET("/submissions/my", submissionHandler.ListMySubmissions)
		protected.GET("/submissions/review", submissionHandler.ListPendingReviews)
		protected.POST("/submissions/:id/approve", middleware.UUIDValidator("id"), limited, submissionHandler.Approve)
		protected.POST("/submissions/:id/reject", middleware.UUIDValidator("id"), limited, submissionHandler.Reject)

		protected.POST("/withdrawals", limited, withdrawalHandler.CreateWithdrawal)
		protected.GET("/withdrawals/my", withdrawalHandler.ListMyWithdrawals)

		protected.GET("/purchases/my", purchaseHandler.ListMyPurchases)
	}

	admin := protected.Group("/admin")
	{
		admin.GET("/withdrawals", withdrawalHandler.ListPending)
		admin.POST("/withdrawals/:id/approve", middleware.UUIDValidator("id"), limited, withdrawalHandler.Approve)

		admin.GET("/tasks", taskHandler.ListAllTasks)

		admin.GET("/users", adminHandler.ListUsers)
		admin.PUT("/users/:id/role", middleware.UUIDValidator("id"), limited, adminHandler.ChangeRole)
		admin.POST("/users/:id/deactivate", middleware.UUIDValidator("id"), limited, adminHandler.Deactivate)
	}

	return r
}
