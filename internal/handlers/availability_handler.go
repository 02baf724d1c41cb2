package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/benj-n/regami/internal/models"
	"github.com/benj-n/regami/internal/repositories"
	"github.com/benj-n/regami/internal/services"
	"github.com/benj-n/regami/pkg/apperrors"
)

// AvailabilityHandler handles offer and request window HTTP requests
type AvailabilityHandler struct {
	matchService   *services.MatchService
	availability   repositories.AvailabilityRepository
	userRepository repositories.UserRepository
}

// NewAvailabilityHandler creates a new AvailabilityHandler
func NewAvailabilityHandler(matchService *services.MatchService, availabilityRepo repositories.AvailabilityRepository, userRepo repositories.UserRepository) *AvailabilityHandler {
	return &AvailabilityHandler{
		matchService:   matchService,
		availability:   availabilityRepo,
		userRepository: userRepo,
	}
}

// RegisterAvailabilityRoutes registers offer and request routes
func (h *AvailabilityHandler) RegisterAvailabilityRoutes(g *echo.Group) {
	g.POST("/offers", h.CreateOffer)
	g.GET("/offers/mine", h.ListMyOffers)
	g.GET("/offers/search", h.SearchOffers)
	g.DELETE("/offers/:id", h.DeleteOffer)

	g.POST("/requests", h.CreateRequest)
	g.GET("/requests/mine", h.ListMyRequests)
	g.GET("/requests/search", h.SearchRequests)
	g.DELETE("/requests/:id", h.DeleteRequest)
}

// CreateOffer opens a new care availability window and runs the matching
// engine against existing requests.
func (h *AvailabilityHandler) CreateOffer(c echo.Context) error {
	req, user, err := h.bindSlot(c)
	if err != nil {
		return err
	}

	offer, matches, err := h.matchService.CreateOffer(c.Request().Context(), user, req.StartAt, req.EndAt)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"offer":           offer,
		"matches_created": len(matches),
	})
}

// CreateRequest opens a new care need window and runs the matching engine
// against existing offers.
func (h *AvailabilityHandler) CreateRequest(c echo.Context) error {
	req, user, err := h.bindSlot(c)
	if err != nil {
		return err
	}

	request, matches, err := h.matchService.CreateRequest(c.Request().Context(), user, req.StartAt, req.EndAt)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"request":         request,
		"matches_created": len(matches),
	})
}

// ListMyOffers returns the caller's offers, newest first
func (h *AvailabilityHandler) ListMyOffers(c echo.Context) error {
	page, pageSize := paginationParams(c)

	result, err := h.availability.ListUserOffers(getUserIDFromContext(c), page, pageSize, true)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{
		"offers": result.Items,
		"meta":   pageMeta(result.Page, result.PageSize, result.Total),
	})
}

// ListMyRequests returns the caller's requests, newest first
func (h *AvailabilityHandler) ListMyRequests(c echo.Context) error {
	page, pageSize := paginationParams(c)

	result, err := h.availability.ListUserRequests(getUserIDFromContext(c), page, pageSize, true)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{
		"requests": result.Items,
		"meta":     pageMeta(result.Page, result.PageSize, result.Total),
	})
}

// SearchOffers returns other users' offers matching the query filters
func (h *AvailabilityHandler) SearchOffers(c echo.Context) error {
	filter, err := h.bindSearchFilter(c)
	if err != nil {
		return err
	}

	result, err := h.availability.SearchOffers(filter)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{
		"offers": result.Items,
		"meta":   pageMeta(result.Page, result.PageSize, result.Total),
	})
}

// SearchRequests returns other users' requests matching the query filters
func (h *AvailabilityHandler) SearchRequests(c echo.Context) error {
	filter, err := h.bindSearchFilter(c)
	if err != nil {
		return err
	}

	result, err := h.availability.SearchRequests(filter)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{
		"requests": result.Items,
		"meta":     pageMeta(result.Page, result.PageSize, result.Total),
	})
}

// DeleteOffer removes one of the caller's offers. An offer with a match in
// any state other than rejected cannot be deleted.
func (h *AvailabilityHandler) DeleteOffer(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid offer ID")
	}

	deleted, err := h.availability.DeleteOffer(uint(id), getUserIDFromContext(c))
	if err != nil {
		return err
	}
	if !deleted {
		return apperrors.ErrOfferNotFound
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// DeleteRequest removes one of the caller's requests
func (h *AvailabilityHandler) DeleteRequest(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request ID")
	}

	deleted, err := h.availability.DeleteRequest(uint(id), getUserIDFromContext(c))
	if err != nil {
		return err
	}
	if !deleted {
		return apperrors.ErrRequestNotFound
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

func (h *AvailabilityHandler) bindSlot(c echo.Context) (*models.SlotRequest, *models.User, error) {
	var req models.SlotRequest

	if err := c.Bind(&req); err != nil {
		return nil, nil, echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return nil, nil, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, err := h.userRepository.GetUserByID(getUserIDFromContext(c))
	if err != nil {
		return nil, nil, apperrors.ErrUserNotFound
	}
	return &req, user, nil
}

func (h *AvailabilityHandler) bindSearchFilter(c echo.Context) (repositories.SlotSearchFilter, error) {
	var q models.SlotSearchQuery
	if err := c.Bind(&q); err != nil {
		return repositories.SlotSearchFilter{}, echo.NewHTTPError(http.StatusBadRequest, "Invalid query parameters")
	}

	filter := repositories.SlotSearchFilter{
		StartDate: q.StartDate,
		EndDate:   q.EndDate,
		Page:      q.Page,
		PageSize:  q.PageSize,
		Sort:      q.Sort,
	}
	if q.ExcludeMine {
		filter.ExcludeUser = getUserIDFromContext(c)
	}
	return filter, nil
}
