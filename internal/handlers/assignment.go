package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yukikurage/questboard-api/internal/dto"
	apierrors "github.com/yukikurage/questboard-api/internal/errors"
	"github.com/yukikurage/questboard-api/internal/logger"
	"github.com/yukikurage/questboard-api/internal/models"
	"github.com/yukikurage/questboard-api/internal/services"
	"github.com/yukikurage/questboard-api/internal/utils"
)

type AssignmentHandler struct {
	log         *logger.Logger
	assignments *services.AssignmentService
	votes       *services.VoteService
	comments    *services.CommentService
}

func NewAssignmentHandler(log *logger.Logger, assignments *services.AssignmentService, votes *services.VoteService, comments *services.CommentService) *AssignmentHandler {
	return &AssignmentHandler{
		log:         log.With("handler", "AssignmentHandler"),
		assignments: assignments,
		votes:       votes,
		comments:    comments,
	}
}

// ListAssignments returns the company's assignments newest first.
// Optional query: tag, page, limit.
func (h *AssignmentHandler) ListAssignments(c *gin.Context) {
	_, companyID, ok := companyScope(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	list, total, err := h.assignments.List(c.Request.Context(), services.ListAssignmentsInput{
		CompanyID: companyID,
		Tag:       c.Query("tag"),
		Page:      params.Page,
		PageSize:  params.Limit,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToAssignmentListResponse(list, params, total))
}

// CreateAssignment accepts multipart/form-data with title, description,
// tags (comma separated) and an optional file.
func (h *AssignmentHandler) CreateAssignment(c *gin.Context) {
	userID, companyID, ok := companyScope(c)
	if !ok {
		return
	}

	input := services.CreateAssignmentInput{
		CompanyID:   companyID,
		UserID:      userID,
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		Tags:        c.PostForm("tags"),
	}

	header, err := c.FormFile("file")
	switch {
	case err == nil:
		f, err := header.Open()
		if err != nil {
			apierrors.BadRequest(c, "Failed to read file")
			return
		}
		defer f.Close()
		input.File = &services.FileInput{
			Name:        header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Size:        header.Size,
			Reader:      f,
		}
	case errors.Is(err, http.ErrMissingFile):
	default:
		apierrors.BadRequest(c, "Invalid multipart body")
		return
	}

	assignment, err := h.assignments.Create(c.Request.Context(), input)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToAssignmentDTO(*assignment))
}

// GetAssignment returns one assignment with the caller's vote
func (h *AssignmentHandler) GetAssignment(c *gin.Context) {
	userID, companyID, ok := companyScope(c)
	if !ok {
		return
	}

	assignment, err := h.assignments.Get(c.Request.Context(), companyID, c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	vote, err := h.assignments.MyVote(c.Request.Context(), assignment.ID, userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	out := dto.ToAssignmentDTO(*assignment)
	v := int8(vote)
	out.MyVote = &v
	c.JSON(http.StatusOK, out)
}

// Vote casts or replaces the caller's vote
func (h *AssignmentHandler) Vote(c *gin.Context) {
	userID, companyID, ok := companyScope(c)
	if !ok {
		return
	}

	type VoteRequest struct {
		Direction int8 `json:"direction" binding:"required"`
	}

	var req VoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	result, err := h.votes.CastVote(c.Request.Context(), companyID, c.Param("id"), userID, models.VoteDirection(req.Direction))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ListComments returns an assignment's comments oldest first
func (h *AssignmentHandler) ListComments(c *gin.Context) {
	_, companyID, ok := companyScope(c)
	if !ok {
		return
	}

	comments, err := h.comments.List(c.Request.Context(), companyID, c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"comments": dto.ToCommentDTOs(comments)})
}

// CreateComment adds a comment to an assignment
func (h *AssignmentHandler) CreateComment(c *gin.Context) {
	userID, companyID, ok := companyScope(c)
	if !ok {
		return
	}

	type CreateCommentRequest struct {
		Content string `json:"content" binding:"required"`
	}

	var req CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	comment, err := h.comments.Create(c.Request.Context(), companyID, c.Param("id"), userID, req.Content)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToCommentDTO(*comment))
}

// GetStats summarizes the company's activity. Admin only.
func (h *AssignmentHandler) GetStats(c *gin.Context) {
	_, companyID, ok := companyScope(c)
	if !ok {
		return
	}

	stats, err := h.assignments.Stats(c.Request.Context(), companyID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToStatsDTO(stats))
}
