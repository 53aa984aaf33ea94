package handlers

import (
	"easyhomes/internal/models"
	"easyhomes/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// UserHandler handles HTTP requests for accounts.
type UserHandler struct {
	service  *services.UserService
	validate *validator.Validate
	log      *zap.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service *services.UserService, validate *validator.Validate, log *zap.Logger) *UserHandler {
	return &UserHandler{service: service, validate: validate, log: log}
}

// RegisterRoutes registers the account routes.
func (h *UserHandler) RegisterRoutes(router fiber.Router) {
	userRoutes := router.Group("/users")
	userRoutes.Post("/post", h.HandleCreateUser)
	userRoutes.Get("/get/:id", h.HandleGetUserByID)
}

// CreateUserRequest is the body of POST /users/post.
// Password may be omitted only when GoogleID is set.
type CreateUserRequest struct {
	GoogleID string `json:"googleId" validate:"omitempty,max=255"`
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required,max=100"`
	Password string `json:"password" validate:"omitempty,min=6,max=72"`
	Avatar   string `json:"avatar" validate:"omitempty,max=2048"`
	Mobile   string `json:"mobile" validate:"omitempty,max=20"`
}

// HandleCreateUser creates an account.
func (h *UserHandler) HandleCreateUser(c *fiber.Ctx) error {
	var req CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return respondBadBody(c, h.log, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return respondValidation(c, err)
	}

	user := models.User{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
		Avatar:   req.Avatar,
		Mobile:   req.Mobile,
	}
	if req.GoogleID != "" {
		gid := req.GoogleID
		user.GoogleID = &gid
	}

	if err := h.service.RegisterUser(c.UserContext(), &user); err != nil {
		return respondError(c, h.log, "Could not register user", err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User registered successfully",
		"user":    user,
	})
}

// HandleGetUserByID returns an account with its commit ids.
func (h *UserHandler) HandleGetUserByID(c *fiber.Ctx) error {
	user, err := h.service.GetUserByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, h.log, "Could not retrieve user", err)
	}
	return c.JSON(user)
}
