package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yourusername/exam-engine-api/internal/handler/dto"
	"github.com/yourusername/exam-engine-api/pkg/logger"
)

// CertificateHandler обрабатывает запросы по справкам об окончании курса
type CertificateHandler struct {
	certificates CertificateIssuer
	log          *logger.Logger
}

// NewCertificateHandler создает новый обработчик справок
func NewCertificateHandler(certificates CertificateIssuer, log *logger.Logger) *CertificateHandler {
	return &CertificateHandler{
		certificates: certificates,
		log:          log.With("component", "certificate_handler"),
	}
}

// GetEligibility проверяет право пользователя на справку
// GET /api/courses/:id/eligibility/:userId
func (h *CertificateHandler) GetEligibility(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	courseID := c.MustGet(CourseIDKey).(uuid.UUID)
	userID := c.MustGet(TargetUserIDKey).(uuid.UUID)

	eligibility, err := h.certificates.Eligibility(c.Request.Context(), actor, courseID, userID)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, eligibility)
}

// ListPending возвращает студентов с правом на справку, которым она ещё не выдана
// GET /api/courses/:id/certificates/pending
func (h *CertificateHandler) ListPending(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	courseID := c.MustGet(CourseIDKey).(uuid.UUID)

	pending, err := h.certificates.ListPending(c.Request.Context(), actor, courseID)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"students": pending})
}

// IssueCertificate выдаёт справку студенту
// POST /api/courses/:id/certificates
func (h *CertificateHandler) IssueCertificate(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	courseID := c.MustGet(CourseIDKey).(uuid.UUID)

	var req dto.IssueCertificateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	certificate, err := h.certificates.Issue(c.Request.Context(), actor, courseID, req.UserID)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, certificate)
}
