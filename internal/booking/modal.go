// Package booking drives the "Renter Info" modal that submits a commit for a claimed listing.
package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"easyhomes/internal/models"
	"easyhomes/pkg/client"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// State is the modal lifecycle stage.
type State int

const (
	Closed State = iota
	Open
	Submitting
)

func (s State) String() string {
	switch s {
	case Open:
		return "open"
	case Submitting:
		return "submitting"
	default:
		return "closed"
	}
}

var (
	ErrNoRenter      = errors.New("listing has no renter")
	ErrNotOpen       = errors.New("booking modal is not open")
	ErrBusy          = errors.New("booking submission already in progress")
	ErrMissingFields = errors.New("missing required booking fields")
)

// Notice messages shown after a submission.
const (
	SubmitSucceeded = "Payment confirmed"
	SubmitFailed    = "Failed to confirm payment"
)

// NoticeKind classifies the last notification.
type NoticeKind int

const (
	NoNotice NoticeKind = iota
	SuccessNotice
	ErrorNotice
)

// Notice is the last notification produced by the modal.
type Notice struct {
	Kind    NoticeKind
	Message string
}

// Submitter is satisfied by *client.Client.
type Submitter interface {
	PostCommit(ctx context.Context, in client.CommitRequest) (*models.Commit, error)
}

// Modal is the booking state machine. It is safe for concurrent use.
type Modal struct {
	submitter Submitter
	userID    string
	log       *zap.Logger

	mu             sync.Mutex
	state          State
	renter         *models.Renter
	homeID         string
	screenshot     *client.Screenshot
	idempotencyKey string
	notice         Notice
}

// NewModal returns a closed modal submitting on behalf of userID.
func NewModal(submitter Submitter, userID string, log *zap.Logger) *Modal {
	if log == nil {
		log = zap.NewNop()
	}
	return &Modal{submitter: submitter, userID: userID, log: log}
}

// OpenFor opens the modal for a claimed listing. Each opening starts a new
// session with its own idempotency key.
func (m *Modal) OpenFor(home models.Home) error {
	if !home.Claimed() {
		return fmt.Errorf("home %s: %w", home.ID, ErrNoRenter)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == Submitting {
		return ErrBusy
	}
	renter := *home.Renter
	m.state = Open
	m.renter = &renter
	m.homeID = home.ID
	m.screenshot = nil
	m.idempotencyKey = uuid.New().String()
	m.notice = Notice{}
	return nil
}

// AttachScreenshot sets or replaces the proof-of-payment file.
func (m *Modal) AttachScreenshot(shot client.Screenshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != Open {
		return ErrNotOpen
	}
	m.screenshot = &shot
	return nil
}

// Confirm posts the booking. On success the modal closes and forgets everything;
// on failure it returns to Open with every field kept. It never retries.
func (m *Modal) Confirm(ctx context.Context) (*models.Commit, error) {
	m.mu.Lock()
	switch m.state {
	case Closed:
		m.mu.Unlock()
		return nil, ErrNotOpen
	case Submitting:
		m.mu.Unlock()
		return nil, ErrBusy
	}
	if missing := m.missingFields(); len(missing) > 0 {
		err := fmt.Errorf("%w: %s", ErrMissingFields, strings.Join(missing, ", "))
		m.notice = Notice{Kind: ErrorNotice, Message: err.Error()}
		m.mu.Unlock()
		return nil, err
	}
	req := client.CommitRequest{
		UserID:         m.userID,
		RenterID:       m.renter.ID,
		HomeID:         m.homeID,
		Screenshot:     *m.screenshot,
		IdempotencyKey: m.idempotencyKey,
	}
	m.state = Submitting
	m.mu.Unlock()

	commit, err := m.submitter.PostCommit(ctx, req)

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.log.Warn("booking submission failed", zap.String("home_id", req.HomeID), zap.Error(err))
		m.state = Open
		m.notice = Notice{Kind: ErrorNotice, Message: SubmitFailed}
		return nil, err
	}
	m.reset()
	m.notice = Notice{Kind: SuccessNotice, Message: SubmitSucceeded}
	return commit, nil
}

// Back discards the session and closes the modal. It is ignored while submitting.
func (m *Modal) Back() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == Submitting {
		return
	}
	m.reset()
	m.notice = Notice{}
}

func (m *Modal) reset() {
	m.state = Closed
	m.renter = nil
	m.homeID = ""
	m.screenshot = nil
	m.idempotencyKey = ""
}

func (m *Modal) missingFields() []string {
	var missing []string
	if m.userID == "" {
		missing = append(missing, "userId")
	}
	if m.renter == nil || m.renter.ID == "" {
		missing = append(missing, "renterId")
	}
	if m.homeID == "" {
		missing = append(missing, "homeId")
	}
	if m.screenshot == nil || len(m.screenshot.Data) == 0 {
		missing = append(missing, "screenshot")
	}
	return missing
}

func (m *Modal) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Renter returns a copy of the captured renter, or nil when closed.
func (m *Modal) Renter() *models.Renter {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.renter == nil {
		return nil
	}
	r := *m.renter
	return &r
}

func (m *Modal) HomeID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.homeID
}

func (m *Modal) HasScreenshot() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.screenshot != nil
}

func (m *Modal) IdempotencyKey() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.idempotencyKey
}

func (m *Modal) Notice() Notice {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.notice
}
