package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/civicgrid/grievance-api/internal/models"
	"github.com/civicgrid/grievance-api/internal/service"
	appErrors "github.com/civicgrid/grievance-api/pkg/errors"
	"github.com/civicgrid/grievance-api/pkg/response"
)

// SubmissionHandler wires the submission lifecycle endpoints.
type SubmissionHandler struct {
	submissions *service.SubmissionService
	stats       *service.StatsService
	ratings     *service.RatingService
}

// NewSubmissionHandler creates a new handler.
func NewSubmissionHandler(submissions *service.SubmissionService, stats *service.StatsService, ratings *service.RatingService) *SubmissionHandler {
	return &SubmissionHandler{submissions: submissions, stats: stats, ratings: ratings}
}

// Submit godoc
// @Summary File a submission
// @Description Citizen files a grievance or feedback
// @Tags Submissions
// @Accept json
// @Produce json
// @Param payload body service.SubmitRequest true "Submission payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /submissions [post]
func (h *SubmissionHandler) Submit(c *gin.Context) {
	var req service.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid submission payload"))
		return
	}

	sub, err := h.submissions.Submit(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, sub)
}

// ListOwn godoc
// @Summary List own submissions
// @Tags Submissions
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /submissions/my [get]
func (h *SubmissionHandler) ListOwn(c *gin.Context) {
	subs, err := h.submissions.ListOwn(c.Request.Context(), actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subs)
}

// ListAssigned godoc
// @Summary List assigned submissions
// @Tags Submissions
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /submissions/assigned [get]
func (h *SubmissionHandler) ListAssigned(c *gin.Context) {
	subs, err := h.submissions.ListAssigned(c.Request.Context(), actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subs)
}

// Counts godoc
// @Summary Workload counts
// @Description Unresolved/assigned/rejected/total counts for the caller's scope
// @Tags Submissions
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /submissions/assigned/counts [get]
func (h *SubmissionHandler) Counts(c *gin.Context) {
	counts, err := h.stats.Counts(c.Request.Context(), actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, counts)
}

// Statistics godoc
// @Summary Submission statistics
// @Description Status/category/kind distributions for the caller's scope
// @Tags Submissions
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /submissions/statistics [get]
func (h *SubmissionHandler) Statistics(c *gin.Context) {
	stats, err := h.stats.Statistics(c.Request.Context(), actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats)
}

// UpdateStatus godoc
// @Summary Update submission status
// @Tags Submissions
// @Accept json
// @Produce json
// @Param id path string true "Submission ID"
// @Param payload body object true "Status payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /submissions/{id}/status [put]
func (h *SubmissionHandler) UpdateStatus(c *gin.Context) {
	var payload struct {
		Status models.SubmissionStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "status required"))
		return
	}

	sub, err := h.submissions.UpdateStatus(c.Request.Context(), actorFromContext(c), c.Param("id"), payload.Status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sub)
}

// Escalate godoc
// @Summary Escalate an overdue grievance
// @Tags Submissions
// @Produce json
// @Param id path string true "Submission ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /submissions/{id}/escalate [post]
func (h *SubmissionHandler) Escalate(c *gin.Context) {
	sub, err := h.submissions.Escalate(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sub)
}

// Withdraw godoc
// @Summary Withdraw a submission
// @Tags Submissions
// @Produce json
// @Param id path string true "Submission ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /submissions/{id}/withdraw [post]
func (h *SubmissionHandler) Withdraw(c *gin.Context) {
	sub, err := h.submissions.Withdraw(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sub)
}

// Rate godoc
// @Summary Rate a resolved submission
// @Tags Submissions
// @Accept json
// @Produce json
// @Param id path string true "Submission ID"
// @Param payload body service.RatingRequest true "Rating payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /submissions/{id}/rating [post]
func (h *SubmissionHandler) Rate(c *gin.Context) {
	var req service.RatingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid rating payload"))
		return
	}

	sub, err := h.ratings.SubmitRating(c.Request.Context(), actorFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sub)
}

// Delete godoc
// @Summary Delete a submission
// @Tags Submissions
// @Produce json
// @Param id path string true "Submission ID"
// @Success 204 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /submissions/{id} [delete]
func (h *SubmissionHandler) Delete(c *gin.Context) {
	if err := h.submissions.Delete(c.Request.Context(), actorFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// OfficerRating godoc
// @Summary Officer rating rollup
// @Description Average citizen satisfaction across an officer's resolved cases
// @Tags Submissions
// @Produce json
// @Param email path string true "Officer email"
// @Success 200 {object} response.Envelope
// @Router /officers/{email}/rating [get]
func (h *SubmissionHandler) OfficerRating(c *gin.Context) {
	rating, err := h.ratings.OfficerRating(c.Request.Context(), c.Param("email"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rating)
}
