package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/hichoni/challenge-service/internal/models"
	"github.com/hichoni/challenge-service/internal/services"
	"github.com/hichoni/challenge-service/internal/storage"
	"github.com/hichoni/challenge-service/internal/utils"
)

type HandlerManager struct {
	submissionHandler   *SubmissionHandler
	reviewHandler       *ReviewHandler
	achievementHandler  *AchievementHandler
	userHandler         *UserHandler
	areaHandler         *AreaHandler
	importExportHandler *ImportExportHandler
	advisorHandler      *AdvisorHandler
	authMiddleware      *JWTAuthMiddleware

	serviceManager services.ServiceManager
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	mediaStore storage.MediaStore,
	jwtManager *utils.JWTManager,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		submissionHandler:   NewSubmissionHandler(serviceManager.Submission(), mediaStore, logger),
		reviewHandler:       NewReviewHandler(serviceManager.Review(), logger),
		achievementHandler:  NewAchievementHandler(serviceManager.Achievement(), logger),
		userHandler:         NewUserHandler(serviceManager.User(), logger),
		areaHandler:         NewAreaHandler(serviceManager.Area(), logger),
		importExportHandler: NewImportExportHandler(serviceManager.ImportExport(), logger),
		advisorHandler:      NewAdvisorHandler(serviceManager.Advisor(), serviceManager.User(), logger),
		authMiddleware:      NewJWTAuthMiddleware(jwtManager),
		serviceManager:      serviceManager,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	// Login is the only unauthenticated API endpoint
	router.POST("/api/v1/auth/login", hm.userHandler.Login)

	v1 := router.Group("/api/v1")
	v1.Use(hm.authMiddleware.AuthMiddleware())
	{
		// User routes
		users := v1.Group("/users")
		{
			users.GET("/me", hm.userHandler.GetMe)
			users.PUT("/me/pin", hm.userHandler.ChangePIN)

			// Roster management - Teachers only
			users.POST("/students", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher), hm.userHandler.CreateStudent)
			users.POST("/students/bulk", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher), hm.userHandler.CreateStudentsBulk)
			users.GET("/students", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher), hm.userHandler.ListStudents)
			users.DELETE("/students", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher), hm.userHandler.DeleteStudents)
			users.POST("/students/:id/reset-pin", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher), hm.userHandler.ResetPIN)
		}

		// Challenge area routes
		areas := v1.Group("/areas")
		{
			// View areas - All authenticated users
			areas.GET("", hm.areaHandler.ListAreas)
			areas.GET("/:name", hm.areaHandler.GetArea)

			// Configure areas - Teachers only
			areas.POST("", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher), hm.areaHandler.CreateArea)
			areas.PUT("/:name", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher), hm.areaHandler.UpdateArea)
			areas.DELETE("/:name", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher), hm.areaHandler.DeleteArea)
		}

		// Submission routes
		submissions := v1.Group("/submissions")
		{
			submissions.POST("", hm.authMiddleware.RequireRoleMiddleware(models.RoleStudent), hm.submissionHandler.CreateSubmission)
			submissions.POST("/media", hm.authMiddleware.RequireRoleMiddleware(models.RoleStudent), hm.submissionHandler.UploadMedia)
			submissions.GET("", hm.submissionHandler.ListSubmissions)
			submissions.GET("/mine", hm.authMiddleware.RequireRoleMiddleware(models.RoleStudent), hm.submissionHandler.GetMySubmissions)
			submissions.GET("/:id", hm.submissionHandler.GetSubmission)
			submissions.DELETE("/:id", hm.authMiddleware.RequireRoleMiddleware(models.RoleStudent), hm.submissionHandler.DeleteSubmission)
			submissions.POST("/:id/request-deletion", hm.authMiddleware.RequireRoleMiddleware(models.RoleStudent), hm.submissionHandler.RequestDeletion)
			submissions.POST("/:id/like", hm.submissionHandler.ToggleLike)
			submissions.POST("/:id/comments", hm.submissionHandler.AddComment)
		}

		// Review routes - Teachers only
		reviews := v1.Group("/reviews")
		reviews.Use(hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher))
		{
			reviews.GET("/pending", hm.reviewHandler.ListPending)
			reviews.POST("/submissions/:id", hm.reviewHandler.ReviewSubmission)
			reviews.POST("/deletions/:id", hm.reviewHandler.ReviewDeletionRequest)
		}

		// Achievement routes
		achievements := v1.Group("/achievements")
		{
			achievements.GET("/me", hm.achievementHandler.GetMyAchievements)
			achievements.GET("/students/:student_id", hm.achievementHandler.GetStudentAchievements)
			achievements.GET("/students/:student_id/certificate", hm.achievementHandler.GetCertificateStatus)

			// Overrides - Teachers only
			achievements.PUT("/students/:student_id/areas/:area_name/progress", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher), hm.achievementHandler.SetProgress)
			achievements.PUT("/students/:student_id/areas/:area_name/label", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher), hm.achievementHandler.SetLabel)
			achievements.PUT("/students/:student_id/areas/:area_name/certify", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher), hm.achievementHandler.SetCertified)
		}

		// Roster import/export - Teachers only
		roster := v1.Group("/roster")
		roster.Use(hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher))
		{
			roster.POST("/import", hm.importExportHandler.ImportStudents)
			roster.GET("/export", hm.importExportHandler.ExportClassProgress)
		}

		// Advisor routes
		advisor := v1.Group("/advisor")
		{
			advisor.POST("/check", hm.advisorHandler.CheckSufficiency)
			advisor.POST("/comment-suggestions", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher), hm.advisorHandler.SuggestComments)
			advisor.GET("/encouragement/:area_name", hm.authMiddleware.RequireRoleMiddleware(models.RoleStudent), hm.advisorHandler.GetEncouragement)
			advisor.GET("/welcome", hm.advisorHandler.GetWelcomeMessage)
		}
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		if err := hm.serviceManager.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(503, gin.H{
				"status":  "unhealthy",
				"service": "challenge-service",
				"error":   err.Error(),
			})
			return
		}
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "challenge-service",
		})
	})
}
