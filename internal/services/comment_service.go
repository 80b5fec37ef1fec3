package services

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/yukikurage/questboard-api/internal/constants"
	"github.com/yukikurage/questboard-api/internal/logger"
	"github.com/yukikurage/questboard-api/internal/models"
	"github.com/yukikurage/questboard-api/internal/repository"
)

type CommentService struct {
	log         *logger.Logger
	commentRepo repository.CommentRepository
	assignments *AssignmentService
	progress    *ProgressService
}

func NewCommentService(log *logger.Logger, commentRepo repository.CommentRepository, assignments *AssignmentService, progress *ProgressService) *CommentService {
	return &CommentService{
		log:         log.With("service", "CommentService"),
		commentRepo: commentRepo,
		assignments: assignments,
		progress:    progress,
	}
}

// Create adds a comment to an assignment of companyID
func (s *CommentService) Create(ctx context.Context, companyID, assignmentID, userID, content string) (*models.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, invalid(ErrInvalidInput, "content is required")
	}
	if utf8.RuneCountInString(content) > constants.MaxCommentLength {
		return nil, invalid(ErrInvalidInput, "content must be at most %d characters", constants.MaxCommentLength)
	}

	if _, err := s.assignments.Get(ctx, companyID, assignmentID); err != nil {
		return nil, err
	}

	comment := &models.Comment{AssignmentID: assignmentID, UserID: userID, Content: content}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAssignmentNotFound
		}
		return nil, persistenceError("create comment", err)
	}

	if s.progress != nil {
		if _, err := s.progress.Award(ctx, userID, companyID, AwardCommentPosted); err != nil {
			s.log.Error("failed to award comment xp", "error", err, "comment_id", comment.ID)
		}
	}
	return comment, nil
}

// List returns comments oldest first
func (s *CommentService) List(ctx context.Context, companyID, assignmentID string) ([]models.Comment, error) {
	if _, err := s.assignments.Get(ctx, companyID, assignmentID); err != nil {
		return nil, err
	}
	comments, err := s.commentRepo.ListByAssignment(ctx, assignmentID)
	if err != nil {
		return nil, persistenceError("list comments", err)
	}
	return comments, nil
}
