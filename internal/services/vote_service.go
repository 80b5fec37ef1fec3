package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/yukikurage/questboard-api/internal/logger"
	"github.com/yukikurage/questboard-api/internal/models"
	"github.com/yukikurage/questboard-api/internal/repository"
)

const voteRetries = 3

// VoteResult is returned to the voter so the client can reconcile its
// optimistic count.
type VoteResult struct {
	AssignmentID string               `json:"assignment_id"`
	Previous     models.VoteDirection `json:"previous"`
	Current      models.VoteDirection `json:"current"`
	Delta        int64                `json:"delta"`
	VoteCount    int64                `json:"vote_count"`
}

type VoteService struct {
	log            *logger.Logger
	assignmentRepo repository.AssignmentRepository
	progress       *ProgressService
}

func NewVoteService(log *logger.Logger, assignmentRepo repository.AssignmentRepository, progress *ProgressService) *VoteService {
	return &VoteService{
		log:            log.With("service", "VoteService"),
		assignmentRepo: assignmentRepo,
		progress:       progress,
	}
}

// CastVote records the voter's direction on an assignment of companyID.
// A repeated vote in the same direction changes nothing; an opposite vote
// replaces the old one. The author earns upvote XP only the first time a
// given other user upvotes.
func (s *VoteService) CastVote(ctx context.Context, companyID, assignmentID, userID string, direction models.VoteDirection) (*VoteResult, error) {
	if !direction.Valid() {
		return nil, ErrInvalidVoteDirection
	}

	assignment, err := s.assignmentRepo.FindByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAssignmentNotFound
		}
		return nil, persistenceError("find assignment", err)
	}
	if assignment.CompanyID != companyID {
		return nil, ErrAssignmentNotFound
	}

	var outcome *repository.VoteOutcome
	for attempt := 1; ; attempt++ {
		outcome, err = s.assignmentRepo.CastVote(ctx, assignmentID, userID, direction)
		if err == nil {
			break
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAssignmentNotFound
		}
		if attempt >= voteRetries || !repository.IsRetryable(err) {
			return nil, persistenceError("cast vote", err)
		}
		s.log.Warn("retrying vote", "assignment_id", assignmentID, "attempt", attempt, "error", err)
	}

	if outcome.FirstVote && direction == models.VoteUp && assignment.UserID != userID && s.progress != nil {
		if _, err := s.progress.Award(ctx, assignment.UserID, companyID, AwardUpvoteReceived); err != nil {
			s.log.Error("failed to award upvote xp", "error", err, "assignment_id", assignmentID, "author_id", assignment.UserID)
		}
	}

	return &VoteResult{
		AssignmentID: assignmentID,
		Previous:     outcome.Previous,
		Current:      outcome.Current,
		Delta:        outcome.Delta,
		VoteCount:    outcome.Assignment.VoteCount,
	}, nil
}
