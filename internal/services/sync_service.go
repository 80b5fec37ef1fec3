package services

import (
	"context"
	"sync"
	"time"

	"github.com/yukikurage/questboard-api/internal/identity"
	"github.com/yukikurage/questboard-api/internal/logger"
	"github.com/yukikurage/questboard-api/internal/models"
	"github.com/yukikurage/questboard-api/internal/repository"
)

const defaultSyncTTL = 10 * time.Minute

// SyncService mirrors identity-provider users and companies into local rows
// the first time they are seen, and refreshes profiles periodically.
type SyncService struct {
	log          *logger.Logger
	companyRepo  repository.CompanyRepository
	userRepo     repository.UserRepository
	progressRepo repository.ProgressRepository
	provider     identity.Provider
	ttl          time.Duration

	mu       sync.Mutex
	synced   map[string]time.Time
	prunedAt time.Time
}

func NewSyncService(
	log *logger.Logger,
	companyRepo repository.CompanyRepository,
	userRepo repository.UserRepository,
	progressRepo repository.ProgressRepository,
	provider identity.Provider,
) *SyncService {
	return &SyncService{
		log:          log.With("service", "SyncService"),
		companyRepo:  companyRepo,
		userRepo:     userRepo,
		progressRepo: progressRepo,
		provider:     provider,
		ttl:          defaultSyncTTL,
		synced:       make(map[string]time.Time),
	}
}

// Ensure guarantees the company (with its default level table), the user and
// the user's progress row exist.
func (s *SyncService) Ensure(ctx context.Context, userID, companyID string) error {
	key := userID + "\x00" + companyID
	s.mu.Lock()
	at, ok := s.synced[key]
	s.mu.Unlock()
	if ok && time.Since(at) < s.ttl {
		return nil
	}

	created, err := s.companyRepo.EnsureWithDefaultLevels(ctx, companyID, DefaultLevels())
	if err != nil {
		return persistenceError("ensure company", err)
	}
	if created {
		s.log.Info("company initialized", "company_id", companyID)
	}

	user := &models.User{ID: userID, Username: identity.FallbackUsername(userID)}
	profile, err := s.provider.UserProfile(ctx, userID)
	if err != nil {
		// keep going with the fallback name; the profile refreshes on the next sync
		s.log.Warn("failed to fetch user profile", "user_id", userID, "error", err)
		if existing, ferr := s.userRepo.FindByID(ctx, userID); ferr == nil {
			user = existing
		}
	} else {
		if profile.Username != "" {
			user.Username = profile.Username
		}
		user.AvatarURL = profile.AvatarURL
	}
	if err := s.userRepo.Upsert(ctx, user); err != nil {
		return persistenceError("upsert user", err)
	}

	if err := s.progressRepo.Ensure(ctx, userID, companyID, DeriveLevel); err != nil {
		return persistenceError("ensure progress", err)
	}

	s.mu.Lock()
	now := time.Now()
	s.synced[key] = now
	s.pruneLocked(now)
	s.mu.Unlock()
	return nil
}

// pruneLocked drops expired entries, at most once per TTL.
func (s *SyncService) pruneLocked(now time.Time) {
	if now.Sub(s.prunedAt) < s.ttl {
		return
	}
	for k, at := range s.synced {
		if now.Sub(at) >= s.ttl {
			delete(s.synced, k)
		}
	}
	s.prunedAt = now
}

// GetUser returns the local copy of a user.
func (s *SyncService) GetUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, persistenceError("find user", err)
	}
	return user, nil
}
