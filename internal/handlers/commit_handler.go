package handlers

import (
	"fmt"
	"io"

	"easyhomes/internal/models"
	"easyhomes/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// IdempotencyKeyHeader lets clients retry POST /commit/post safely.
const IdempotencyKeyHeader = "Idempotency-Key"

// CommitHandler handles HTTP requests for booking claims.
type CommitHandler struct {
	service        *services.CommitService
	log            *zap.Logger
	maxUploadBytes int64
}

// NewCommitHandler creates a new CommitHandler.
func NewCommitHandler(service *services.CommitService, log *zap.Logger, maxUploadBytes int64) *CommitHandler {
	return &CommitHandler{service: service, log: log, maxUploadBytes: maxUploadBytes}
}

// RegisterRoutes registers the commit routes. Extra handlers (rate limiting)
// run in front of the submission endpoint only.
func (h *CommitHandler) RegisterRoutes(router fiber.Router, postGuards ...fiber.Handler) {
	commitRoutes := router.Group("/commit")
	commitRoutes.Get("/getall", h.HandleGetCommits)
	commitRoutes.Get("/get/:id", h.HandleGetCommitByID)
	commitRoutes.Get("/user/:userId", h.HandleGetCommitsByUser)
	commitRoutes.Get("/screenshot/:id", h.HandleGetScreenshot)
	commitRoutes.Post("/post", append(postGuards, h.HandleCreateCommit)...)
}

// HandleGetCommits returns every commit.
func (h *CommitHandler) HandleGetCommits(c *fiber.Ctx) error {
	commits, err := h.service.GetAllCommits(c.UserContext())
	if err != nil {
		return respondError(c, h.log, "Could not retrieve commits", err)
	}
	if commits == nil {
		commits = []models.Commit{}
	}
	return c.JSON(commits)
}

// HandleGetCommitByID returns one commit.
func (h *CommitHandler) HandleGetCommitByID(c *fiber.Ctx) error {
	commit, err := h.service.GetCommitByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, h.log, "Could not retrieve commit", err)
	}
	return c.JSON(commit)
}

// HandleGetCommitsByUser returns a user's commits, oldest first.
func (h *CommitHandler) HandleGetCommitsByUser(c *fiber.Ctx) error {
	commits, err := h.service.GetCommitsByUser(c.UserContext(), c.Params("userId"))
	if err != nil {
		return respondError(c, h.log, "Could not retrieve commits", err)
	}
	return c.JSON(commits)
}

// HandleGetScreenshot streams the payment screenshot with its stored content type.
func (h *CommitHandler) HandleGetScreenshot(c *fiber.Ctx) error {
	rc, shot, err := h.service.OpenScreenshot(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, h.log, "Could not retrieve screenshot", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return respondError(c, h.log, "Could not read screenshot", err)
	}
	c.Set(fiber.HeaderContentType, shot.ContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("inline; filename=%q", shot.Filename))
	return c.Send(data)
}

// HandleCreateCommit accepts multipart userId, renterId, homeId and screenshot.
// 201 means a new commit; 200 means the idempotency key matched an earlier one.
func (h *CommitHandler) HandleCreateCommit(c *fiber.Ctx) error {
	in := services.CreateCommitInput{
		UserID:         c.FormValue("userId"),
		RenterID:       c.FormValue("renterId"),
		HomeID:         c.FormValue("homeId"),
		IdempotencyKey: c.Get(IdempotencyKeyHeader),
	}
	if in.IdempotencyKey == "" {
		in.IdempotencyKey = c.FormValue("idempotencyKey")
	}

	// a missing file is reported by the service along with any other missing field
	if fh, err := c.FormFile("screenshot"); err == nil {
		if fh.Size > h.maxUploadBytes {
			return respondError(c, h.log, "Could not create commit",
				fmt.Errorf("screenshot exceeds %d bytes: %w", h.maxUploadBytes, services.ErrTooLarge))
		}
		f, err := fh.Open()
		if err != nil {
			return respondError(c, h.log, "Could not read screenshot", err)
		}
		data, err := io.ReadAll(io.LimitReader(f, h.maxUploadBytes+1))
		f.Close()
		if err != nil {
			return respondError(c, h.log, "Could not read screenshot", err)
		}
		in.Screenshot = services.ScreenshotUpload{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get(fiber.HeaderContentType),
			Data:        data,
		}
	}

	commit, created, err := h.service.CreateCommit(c.UserContext(), in)
	if err != nil {
		return respondError(c, h.log, "Could not create commit", err)
	}
	if !created {
		return c.Status(fiber.StatusOK).JSON(commit)
	}
	return c.Status(fiber.StatusCreated).JSON(commit)
}
