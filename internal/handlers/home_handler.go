package handlers

import (
	"easyhomes/internal/models"
	"easyhomes/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// HomeHandler handles HTTP requests for listings.
type HomeHandler struct {
	service  *services.HomeService
	validate *validator.Validate
	log      *zap.Logger
}

// NewHomeHandler creates a new HomeHandler.
func NewHomeHandler(service *services.HomeService, validate *validator.Validate, log *zap.Logger) *HomeHandler {
	return &HomeHandler{
		service:  service,
		validate: validate,
		log:      log,
	}
}

// RegisterRoutes registers the listing routes.
func (h *HomeHandler) RegisterRoutes(router fiber.Router) {
	homeRoutes := router.Group("/homes")
	homeRoutes.Get("/get", h.HandleGetHomes)
	homeRoutes.Get("/get/:id", h.HandleGetHomeByID)
	homeRoutes.Post("/post", h.HandleCreateHome)
	homeRoutes.Put("/update/:id", h.HandleUpdateHome)
	homeRoutes.Delete("/delete/:id", h.HandleDeleteHome)
}

// HandleGetHomes returns every listing. Filtering happens on the client.
func (h *HomeHandler) HandleGetHomes(c *fiber.Ctx) error {
	homes, err := h.service.GetAllHomes(c.UserContext())
	if err != nil {
		return respondError(c, h.log, "Could not retrieve homes", err)
	}
	if homes == nil {
		homes = []models.Home{}
	}
	return c.JSON(homes)
}

// HandleGetHomeByID returns one listing.
func (h *HomeHandler) HandleGetHomeByID(c *fiber.Ctx) error {
	home, err := h.service.GetHomeByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, h.log, "Could not retrieve home", err)
	}
	return c.JSON(home)
}

// HandleCreateHome creates a listing, optionally already claimed by a renter.
func (h *HomeHandler) HandleCreateHome(c *fiber.Ctx) error {
	var home models.Home
	if err := c.BodyParser(&home); err != nil {
		return respondBadBody(c, h.log, err)
	}
	home.ID = ""
	if err := h.validate.Struct(home); err != nil {
		return respondValidation(c, err)
	}

	if err := h.service.CreateHome(c.UserContext(), &home); err != nil {
		return respondError(c, h.log, "Could not create home", err)
	}
	return c.Status(fiber.StatusCreated).JSON(home)
}

// HandleUpdateHome replaces a listing. Omitting "renter" releases the listing.
func (h *HomeHandler) HandleUpdateHome(c *fiber.Ctx) error {
	var home models.Home
	if err := c.BodyParser(&home); err != nil {
		return respondBadBody(c, h.log, err)
	}
	home.ID = ""
	if err := h.validate.Struct(home); err != nil {
		return respondValidation(c, err)
	}
	home.ID = c.Params("id")

	if err := h.service.UpdateHome(c.UserContext(), &home); err != nil {
		return respondError(c, h.log, "Could not update home", err)
	}
	return c.JSON(home)
}

// HandleDeleteHome deletes a listing with its images and renter.
func (h *HomeHandler) HandleDeleteHome(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.service.DeleteHome(c.UserContext(), id); err != nil {
		return respondError(c, h.log, "Could not delete home", err)
	}
	return c.JSON(fiber.Map{
		"message": "Home " + id + " deleted successfully",
	})
}
