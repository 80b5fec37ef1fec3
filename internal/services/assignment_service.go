package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/yukikurage/questboard-api/internal/constants"
	"github.com/yukikurage/questboard-api/internal/logger"
	"github.com/yukikurage/questboard-api/internal/models"
	"github.com/yukikurage/questboard-api/internal/repository"
	"github.com/yukikurage/questboard-api/internal/storage"
	"github.com/yukikurage/questboard-api/internal/utils"
)

// FileInput is an optional attachment streamed from the request.
type FileInput struct {
	Name        string
	ContentType string
	Size        int64
	Reader      io.Reader
}

// CreateAssignmentInput represents input for creating an assignment
type CreateAssignmentInput struct {
	CompanyID   string
	UserID      string
	Title       string
	Description string
	Tags        string
	File        *FileInput
}

// ListAssignmentsInput represents filters for listing assignments
type ListAssignmentsInput struct {
	CompanyID string
	Tag       string
	Page      int
	PageSize  int
}

type AssignmentService struct {
	log            *logger.Logger
	assignmentRepo repository.AssignmentRepository
	companyRepo    repository.CompanyRepository
	store          storage.Store
	progress       *ProgressService
	maxUploadSize  int64
	now            func() time.Time
}

func NewAssignmentService(
	log *logger.Logger,
	assignmentRepo repository.AssignmentRepository,
	companyRepo repository.CompanyRepository,
	store storage.Store,
	progress *ProgressService,
	maxUploadSize int64,
) *AssignmentService {
	if maxUploadSize <= 0 {
		maxUploadSize = constants.DefaultMaxUploadSize
	}
	return &AssignmentService{
		log:            log.With("service", "AssignmentService"),
		assignmentRepo: assignmentRepo,
		companyRepo:    companyRepo,
		store:          store,
		progress:       progress,
		maxUploadSize:  maxUploadSize,
		now:            time.Now,
	}
}

// Create uploads the optional file first and only then inserts the record.
// A failed upload leaves no record behind; a failed insert removes the
// uploaded object on a best-effort basis.
func (s *AssignmentService) Create(ctx context.Context, input CreateAssignmentInput) (*models.Assignment, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, invalid(ErrInvalidInput, "title is required")
	}
	if utf8.RuneCountInString(title) > constants.MaxTitleLength {
		return nil, invalid(ErrInvalidInput, "title must be at most %d characters", constants.MaxTitleLength)
	}
	if utf8.RuneCountInString(input.Description) > constants.MaxDescriptionLength {
		return nil, invalid(ErrInvalidInput, "description must be at most %d characters", constants.MaxDescriptionLength)
	}

	tags := utils.ParseTags(input.Tags)
	if len(tags) > constants.MaxTags {
		return nil, invalid(ErrInvalidInput, "at most %d tags are allowed", constants.MaxTags)
	}
	for _, tag := range tags {
		if utf8.RuneCountInString(tag) > constants.MaxTagLength || strings.ContainsAny(tag, `"\{}`) {
			return nil, invalid(ErrInvalidInput, "invalid tag %q", tag)
		}
	}

	assignment := &models.Assignment{
		Title:       title,
		Description: input.Description,
		UserID:      input.UserID,
		CompanyID:   input.CompanyID,
		Tags:        models.TagList(tags),
	}

	var uploadedKey string
	if input.File != nil {
		if input.File.Size > s.maxUploadSize {
			return nil, ErrFileTooLarge
		}
		key := utils.AttachmentKey(input.CompanyID, input.UserID, input.File.Name, s.now())
		contentType := input.File.ContentType
		if contentType == "" {
			contentType = storage.ContentTypeForKey(key)
		}
		if err := s.store.Upload(ctx, key, contentType, input.File.Reader); err != nil {
			s.log.Error("attachment upload failed", "error", err, "key", key)
			return nil, errors.Join(ErrUploadFailed, err)
		}
		uploadedKey = key

		url := s.store.PublicURL(key)
		name := input.File.Name
		assignment.FileURL = &url
		assignment.FileName = &name
	}

	if err := s.assignmentRepo.Create(ctx, assignment); err != nil {
		if uploadedKey != "" {
			if derr := s.store.Delete(context.WithoutCancel(ctx), uploadedKey); derr != nil {
				s.log.Error("orphaned attachment", "key", uploadedKey, "error", derr)
			}
		}
		return nil, persistenceError("create assignment", err)
	}

	if s.progress != nil {
		if _, err := s.progress.Award(ctx, input.UserID, input.CompanyID, AwardAssignmentPosted); err != nil {
			s.log.Error("failed to award assignment xp", "error", err, "assignment_id", assignment.ID)
		}
	}

	return s.Get(ctx, input.CompanyID, assignment.ID)
}

// List returns assignments newest first
func (s *AssignmentService) List(ctx context.Context, input ListAssignmentsInput) ([]models.Assignment, int64, error) {
	list, total, err := s.assignmentRepo.List(ctx, repository.AssignmentFilter{
		CompanyID: input.CompanyID,
		Tag:       input.Tag,
		Page:      input.Page,
		PageSize:  input.PageSize,
	})
	if err != nil {
		return nil, 0, persistenceError("list assignments", err)
	}
	return list, total, nil
}

// Get returns one assignment of companyID
func (s *AssignmentService) Get(ctx context.Context, companyID, id string) (*models.Assignment, error) {
	assignment, err := s.assignmentRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAssignmentNotFound
		}
		return nil, persistenceError("find assignment", err)
	}
	if assignment.CompanyID != companyID {
		return nil, ErrAssignmentNotFound
	}
	return assignment, nil
}

// MyVote returns the caller's standing vote direction, 0 when none.
func (s *AssignmentService) MyVote(ctx context.Context, assignmentID, userID string) (models.VoteDirection, error) {
	vote, err := s.assignmentRepo.FindVote(ctx, assignmentID, userID)
	if err != nil {
		return 0, persistenceError("find vote", err)
	}
	if vote == nil {
		return 0, nil
	}
	return vote.Direction, nil
}

// Stats summarizes a company's activity
func (s *AssignmentService) Stats(ctx context.Context, companyID string) (repository.CompanyStats, error) {
	stats, err := s.companyRepo.Stats(ctx, companyID)
	if err != nil {
		return stats, persistenceError("load stats", err)
	}
	return stats, nil
}
