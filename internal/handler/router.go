package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/yourusername/exam-engine-api/internal/middleware"
	"github.com/yourusername/exam-engine-api/internal/service"
)

// Ключи контекста для UUID-параметров пути
const (
	EvaluationIDKey = "evaluationID"
	AttemptIDKey    = "attemptID"
	QuestionIDKey   = "questionID"
	CourseIDKey     = "courseID"
	TargetUserIDKey = "targetUserID"
)

// Routes собирает зависимости маршрутов API
type Routes struct {
	Auth         *middleware.AuthMiddleware
	Limiter      *middleware.RateLimiter // nil: без ограничения частоты
	ExamLimit    middleware.RateLimitConfig
	Evaluations  *EvaluationHandler
	Attempts     *AttemptHandler
	Certificates *CertificateHandler
}

// Register регистрирует маршруты в группе /api
func (r Routes) Register(api *gin.RouterGroup) {
	authed := api.Group("", r.Auth.RequireAuth())
	staff := r.Auth.RequireRole(service.RoleAdmin, service.RoleInstructor)
	limited := r.limit()

	evaluations := authed.Group("/evaluations")
	{
		evaluations.POST("", staff, r.Evaluations.CreateEvaluation)

		withID := evaluations.Group("/:id", middleware.ExtractUUIDParam("id", EvaluationIDKey))
		{
			withID.POST("/attempts", limited, r.Evaluations.StartAttempt)

			admin := withID.Group("", staff)
			admin.PUT("", r.Evaluations.UpdateEvaluation)
			admin.POST("/versions/regenerate", r.Evaluations.RegenerateVersions)
			admin.GET("/versions", r.Evaluations.ListVersions)
			admin.GET("/attempts", r.Evaluations.ListAttempts)
			admin.GET("/report", r.Evaluations.GetReport)
			admin.GET("/report/export", r.Evaluations.ExportReport)
		}
	}

	authed.GET("/me/evaluations", r.Attempts.MyEvaluations)

	attempts := authed.Group("/attempts/:id", middleware.ExtractUUIDParam("id", AttemptIDKey))
	{
		attempts.GET("", r.Attempts.GetAttempt)
		attempts.GET("/questions", r.Attempts.GetQuestions)
		attempts.PUT("/answers/:questionId", middleware.ExtractUUIDParam("questionId", QuestionIDKey), r.Attempts.SaveAnswer)
		attempts.POST("/finish", limited, r.Attempts.FinishAttempt)
		attempts.GET("/answers", staff, r.Attempts.GetAnswers)
	}

	courses := authed.Group("/courses/:id", middleware.ExtractUUIDParam("id", CourseIDKey))
	{
		courses.GET("/eligibility/:userId", middleware.ExtractUUIDParam("userId", TargetUserIDKey), r.Certificates.GetEligibility)
		courses.GET("/certificates/pending", staff, r.Certificates.ListPending)
		courses.POST("/certificates", staff, r.Certificates.IssueCertificate)
	}
}

func (r Routes) limit() gin.HandlerFunc {
	if r.Limiter == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return r.Limiter.Limit(r.ExamLimit)
}
