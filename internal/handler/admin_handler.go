package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/civicgrid/grievance-api/internal/models"
	"github.com/civicgrid/grievance-api/internal/service"
	appErrors "github.com/civicgrid/grievance-api/pkg/errors"
	"github.com/civicgrid/grievance-api/pkg/response"
)

// AdminHandler wires administration endpoints: user management plus the
// admin-scoped submission operations.
type AdminHandler struct {
	users       *service.UserService
	submissions *service.SubmissionService
	stats       *service.StatsService
}

// NewAdminHandler creates a new handler.
func NewAdminHandler(users *service.UserService, submissions *service.SubmissionService, stats *service.StatsService) *AdminHandler {
	return &AdminHandler{users: users, submissions: submissions, stats: stats}
}

func requestMeta(c *gin.Context) models.LoginRequest {
	return models.LoginRequest{IP: c.ClientIP(), UserAgent: c.GetHeader("User-Agent")}
}

// ListUsers godoc
// @Summary List users
// @Tags Admin
// @Produce json
// @Param role query string false "Filter by role"
// @Param active query bool false "Filter by active flag"
// @Param search query string false "Search name or email"
// @Success 200 {object} response.Envelope
// @Router /admin/users [get]
func (h *AdminHandler) ListUsers(c *gin.Context) {
	var filter models.UserFilter
	if role := c.Query("role"); role != "" {
		r := models.UserRole(role)
		filter.Role = &r
	}
	if active := c.Query("active"); active != "" {
		v := active == "true"
		filter.Active = &v
	}
	filter.Search = c.Query("search")

	users, err := h.users.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, users)
}

// Officers godoc
// @Summary List active officers
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/officers [get]
func (h *AdminHandler) Officers(c *gin.Context) {
	officers, err := h.users.Officers(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, officers)
}

// CreateUser godoc
// @Summary Provision a user
// @Tags Admin
// @Accept json
// @Produce json
// @Param payload body service.CreateUserRequest true "User payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /admin/users [post]
func (h *AdminHandler) CreateUser(c *gin.Context) {
	var req service.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid user payload"))
		return
	}

	claims := claimsFromContext(c)
	user, err := h.users.Create(c.Request.Context(), req, claims.UserID, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, user)
}

// UpdateUser godoc
// @Summary Update a user
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param payload body service.UpdateUserRequest true "User payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/users/{id} [put]
func (h *AdminHandler) UpdateUser(c *gin.Context) {
	var req service.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid user payload"))
		return
	}

	claims := claimsFromContext(c)
	user, err := h.users.Update(c.Request.Context(), c.Param("id"), req, claims.UserID, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user)
}

// SetUserRole godoc
// @Summary Change a user's role
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param payload body service.SetRoleRequest true "Role payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/users/{id}/role [put]
func (h *AdminHandler) SetUserRole(c *gin.Context) {
	var req service.SetRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid role payload"))
		return
	}

	claims := claimsFromContext(c)
	user, err := h.users.SetRole(c.Request.Context(), c.Param("id"), req, claims.UserID, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user)
}

// DeleteUser godoc
// @Summary Deactivate a user
// @Tags Admin
// @Produce json
// @Param id path string true "User ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/users/{id} [delete]
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	claims := claimsFromContext(c)
	if err := h.users.Delete(c.Request.Context(), c.Param("id"), claims.UserID, requestMeta(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListSubmissions godoc
// @Summary List all submissions
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/submissions [get]
func (h *AdminHandler) ListSubmissions(c *gin.Context) {
	subs, err := h.submissions.ListAll(c.Request.Context(), actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subs)
}

// AssignOfficer godoc
// @Summary Assign an officer
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "Submission ID"
// @Param payload body object true "Officer payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/submissions/{id}/assign [put]
func (h *AdminHandler) AssignOfficer(c *gin.Context) {
	var payload struct {
		OfficerID string `json:"officer_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "officer_id required"))
		return
	}

	sub, err := h.submissions.AssignOfficer(c.Request.Context(), actorFromContext(c), c.Param("id"), payload.OfficerID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sub)
}

// AssignDeadline godoc
// @Summary Set a grievance deadline
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "Submission ID"
// @Param payload body object true "Deadline payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/submissions/{id}/deadline [put]
func (h *AdminHandler) AssignDeadline(c *gin.Context) {
	var payload struct {
		Deadline string `json:"deadline" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "deadline required"))
		return
	}

	sub, err := h.submissions.AssignDeadline(c.Request.Context(), actorFromContext(c), c.Param("id"), payload.Deadline)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sub)
}

// SendMessage godoc
// @Summary Attach an admin message to an escalated submission
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "Submission ID"
// @Param payload body object true "Message payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /admin/submissions/{id}/message [put]
func (h *AdminHandler) SendMessage(c *gin.Context) {
	var payload struct {
		Message string `json:"message" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "message required"))
		return
	}

	sub, err := h.submissions.SendAdminMessage(c.Request.Context(), actorFromContext(c), c.Param("id"), payload.Message)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sub)
}

// Counts godoc
// @Summary System-wide submission counts
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/submissions/counts [get]
func (h *AdminHandler) Counts(c *gin.Context) {
	counts, err := h.stats.Counts(c.Request.Context(), actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, counts)
}

// Statistics godoc
// @Summary System-wide submission statistics
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/submissions/statistics [get]
func (h *AdminHandler) Statistics(c *gin.Context) {
	stats, err := h.stats.Statistics(c.Request.Context(), actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats)
}
