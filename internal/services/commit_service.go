package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"easyhomes/internal/models"
	"easyhomes/internal/repositories"
	"easyhomes/pkg/blobstore"
	"easyhomes/pkg/metrics"
	"easyhomes/pkg/rabbitmq"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EventPublisher is satisfied by *rabbitmq.Client.
type EventPublisher interface {
	PublishCommitCreated(ctx context.Context, event rabbitmq.CommitEvent) error
}

// ScreenshotUpload is the proof-of-payment file as received from the client.
type ScreenshotUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// CreateCommitInput carries the fields of a booking submission.
type CreateCommitInput struct {
	UserID         string
	RenterID       string
	HomeID         string
	IdempotencyKey string
	Screenshot     ScreenshotUpload
}

// CommitService handles booking claims.
type CommitService struct {
	commitRepo     repositories.CommitRepository
	homeRepo       repositories.HomeRepository
	userRepo       repositories.UserRepository
	blobs          blobstore.Store
	publisher      EventPublisher
	metrics        *metrics.Metrics
	log            *zap.Logger
	maxUploadBytes int64
}

// CommitServiceOptions groups the optional collaborators of CommitService.
type CommitServiceOptions struct {
	Publisher      EventPublisher // nil disables events
	Metrics        *metrics.Metrics
	Logger         *zap.Logger
	MaxUploadBytes int64
}

// NewCommitService creates a new CommitService.
func NewCommitService(
	commitRepo repositories.CommitRepository,
	homeRepo repositories.HomeRepository,
	userRepo repositories.UserRepository,
	blobs blobstore.Store,
	opts CommitServiceOptions,
) *CommitService {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	maxBytes := opts.MaxUploadBytes
	if maxBytes <= 0 {
		maxBytes = 5 << 20
	}
	return &CommitService{
		commitRepo:     commitRepo,
		homeRepo:       homeRepo,
		userRepo:       userRepo,
		blobs:          blobs,
		publisher:      opts.Publisher,
		metrics:        opts.Metrics,
		log:            log,
		maxUploadBytes: maxBytes,
	}
}

// GetAllCommits retrieves all commits.
func (s *CommitService) GetAllCommits(ctx context.Context) ([]models.Commit, error) {
	return s.commitRepo.GetAll(ctx)
}

// GetCommitByID retrieves a single commit.
func (s *CommitService) GetCommitByID(ctx context.Context, id string) (*models.Commit, error) {
	return s.commitRepo.GetByID(ctx, id)
}

// GetCommitsByUser lists the commits owned by a user, oldest first.
func (s *CommitService) GetCommitsByUser(ctx context.Context, userID string) ([]models.Commit, error) {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.commitRepo.GetByUserID(ctx, userID)
}

// OpenScreenshot returns a reader over the commit's payment screenshot.
// The caller must close it.
func (s *CommitService) OpenScreenshot(ctx context.Context, commitID string) (io.ReadCloser, models.Screenshot, error) {
	commit, err := s.commitRepo.GetByID(ctx, commitID)
	if err != nil {
		return nil, models.Screenshot{}, err
	}
	rc, _, err := s.blobs.Get(ctx, commit.Screenshot.Ref)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return nil, models.Screenshot{}, fmt.Errorf("screenshot for commit %s %w", commitID, repositories.ErrNotFound)
		}
		return nil, models.Screenshot{}, fmt.Errorf("failed to open screenshot: %w", err)
	}
	return rc, commit.Screenshot, nil
}

// CreateCommit stores a booking claim. The boolean is false when an earlier
// commit with the same idempotency key is returned instead of a new one.
func (s *CommitService) CreateCommit(ctx context.Context, in CreateCommitInput) (*models.Commit, bool, error) {
	in.UserID = strings.TrimSpace(in.UserID)
	in.RenterID = strings.TrimSpace(in.RenterID)
	in.HomeID = strings.TrimSpace(in.HomeID)
	in.IdempotencyKey = strings.TrimSpace(in.IdempotencyKey)

	if missing := missingFields(in); len(missing) > 0 {
		s.metrics.CommitRejected("missing_field")
		return nil, false, fmt.Errorf("missing required fields %s: %w", strings.Join(missing, ", "), ErrInvalidInput)
	}
	if int64(len(in.Screenshot.Data)) > s.maxUploadBytes {
		s.metrics.CommitRejected("too_large")
		return nil, false, fmt.Errorf("screenshot exceeds %d bytes: %w", s.maxUploadBytes, ErrTooLarge)
	}
	detected := mimetype.Detect(in.Screenshot.Data)
	if !strings.HasPrefix(detected.String(), "image/") {
		s.metrics.CommitRejected("not_image")
		return nil, false, fmt.Errorf("screenshot must be an image, got %s: %w", detected.String(), ErrInvalidInput)
	}

	if in.IdempotencyKey != "" {
		existing, err := s.commitRepo.GetByIdempotencyKey(ctx, in.IdempotencyKey)
		if err == nil {
			return s.replay(existing, in)
		}
		if !errors.Is(err, repositories.ErrNotFound) {
			return nil, false, err
		}
	}

	if _, err := s.userRepo.GetByID(ctx, in.UserID); err != nil {
		return nil, false, err
	}
	home, err := s.homeRepo.GetByID(ctx, in.HomeID)
	if err != nil {
		return nil, false, err
	}
	if !home.Claimed() {
		s.metrics.CommitRejected("no_renter")
		return nil, false, fmt.Errorf("home %s has no renter: %w", in.HomeID, ErrInvalidInput)
	}
	if home.Renter.ID != in.RenterID {
		s.metrics.CommitRejected("renter_mismatch")
		return nil, false, fmt.Errorf("renter %s is not assigned to home %s: %w", in.RenterID, in.HomeID, ErrInvalidInput)
	}

	commitID := uuid.New().String()
	filename := screenshotFilename(in.Screenshot.Filename, detected)
	key := fmt.Sprintf("commits/%s/%s/%s", in.UserID, commitID, filename)
	obj, err := s.blobs.Put(ctx, key, detected.String(), in.Screenshot.Data)
	if err != nil {
		return nil, false, fmt.Errorf("failed to store screenshot: %w", err)
	}

	commit := &models.Commit{
		ID:       commitID,
		UserID:   in.UserID,
		HomeID:   in.HomeID,
		RenterID: in.RenterID,
		Screenshot: models.Screenshot{
			Ref:         obj.Ref,
			Filename:    filename,
			ContentType: obj.ContentType,
			Size:        obj.Size,
		},
	}
	if in.IdempotencyKey != "" {
		k := in.IdempotencyKey
		commit.IdempotencyKey = &k
	}

	if err := s.commitRepo.Create(ctx, commit); err != nil {
		s.discardBlob(ctx, obj.Ref)
		// a concurrent submission with the same key won the race
		if errors.Is(err, repositories.ErrDuplicate) && in.IdempotencyKey != "" {
			existing, getErr := s.commitRepo.GetByIdempotencyKey(ctx, in.IdempotencyKey)
			if getErr != nil {
				return nil, false, getErr
			}
			return s.replay(existing, in)
		}
		return nil, false, fmt.Errorf("failed to create commit in repository: %w", err)
	}
	s.metrics.CommitCreated()

	if s.publisher != nil {
		event := rabbitmq.CommitEvent{
			CommitID:  commit.ID,
			UserID:    commit.UserID,
			HomeID:    commit.HomeID,
			RenterID:  commit.RenterID,
			CreatedAt: commit.CreatedAt,
		}
		if err := s.publisher.PublishCommitCreated(ctx, event); err != nil {
			s.log.Warn("failed to publish commit created event", zap.String("commit_id", commit.ID), zap.Error(err))
		}
	}

	return commit, true, nil
}

// replay answers a repeated idempotency key. The key only identifies a
// submission when the payload is the same one stored under it.
func (s *CommitService) replay(existing *models.Commit, in CreateCommitInput) (*models.Commit, bool, error) {
	if existing.UserID != in.UserID || existing.HomeID != in.HomeID || existing.RenterID != in.RenterID {
		s.metrics.CommitRejected("idempotency_conflict")
		return nil, false, fmt.Errorf("idempotency key %s was used for a different booking: %w", in.IdempotencyKey, ErrConflict)
	}
	s.metrics.CommitReplayed()
	return existing, false, nil
}

func (s *CommitService) discardBlob(ctx context.Context, ref string) {
	if err := s.blobs.Delete(ctx, ref); err != nil {
		s.log.Warn("failed to discard orphaned screenshot", zap.String("ref", ref), zap.Error(err))
	}
}

func missingFields(in CreateCommitInput) []string {
	var missing []string
	if in.UserID == "" {
		missing = append(missing, "userId")
	}
	if in.RenterID == "" {
		missing = append(missing, "renterId")
	}
	if in.HomeID == "" {
		missing = append(missing, "homeId")
	}
	if len(in.Screenshot.Data) == 0 {
		missing = append(missing, "screenshot")
	}
	return missing
}

// screenshotFilename strips any directory part and falls back to a name
// derived from the detected type.
func screenshotFilename(name string, detected *mimetype.MIME) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "screenshot" + detected.Extension()
	}
	return name
}
