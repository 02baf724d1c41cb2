package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/benj-n/regami/internal/models"
	"github.com/benj-n/regami/internal/repositories"
	"github.com/benj-n/regami/internal/services"
	"github.com/benj-n/regami/pkg/apperrors"
)

// MatchHandler handles match lifecycle HTTP requests
type MatchHandler struct {
	matchService   *services.MatchService
	userRepository repositories.UserRepository
}

// NewMatchHandler creates a new MatchHandler
func NewMatchHandler(matchService *services.MatchService, userRepo repositories.UserRepository) *MatchHandler {
	return &MatchHandler{
		matchService:   matchService,
		userRepository: userRepo,
	}
}

// RegisterMatchRoutes registers match routes
func (h *MatchHandler) RegisterMatchRoutes(g *echo.Group) {
	g.GET("/matches", h.ListMatches)
	g.GET("/matches/pending", h.PendingMatches)
	g.POST("/matches/:id/accept", h.Accept)
	g.POST("/matches/:id/confirm", h.Confirm)
	g.POST("/matches/:id/reject", h.Reject)
}

// ListMatches returns every match involving the caller, optionally filtered
// by ?status=pending|accepted|confirmed|rejected.
func (h *MatchHandler) ListMatches(c echo.Context) error {
	page, pageSize := paginationParams(c)

	status := models.MatchStatus(c.QueryParam("status"))
	if status != "" && !status.Valid() {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid match status")
	}

	matches, total, err := h.matchService.UserMatches(getUserIDFromContext(c), status, page, pageSize)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{
		"matches": matches,
		"meta":    pageMeta(page, pageSize, total),
	})
}

// PendingMatches returns the matches currently waiting on the caller's answer
func (h *MatchHandler) PendingMatches(c echo.Context) error {
	page, pageSize := paginationParams(c)

	matches, total, err := h.matchService.PendingMatches(getUserIDFromContext(c), page, pageSize)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{
		"matches": matches,
		"meta":    pageMeta(page, pageSize, total),
	})
}

// Accept moves a pending match to accepted. Only the user the match is
// waiting on may accept.
func (h *MatchHandler) Accept(c echo.Context) error {
	return h.respond(c, h.matchService.Accept)
}

// Confirm moves an accepted match to confirmed, sealing the agreement
func (h *MatchHandler) Confirm(c echo.Context) error {
	return h.respond(c, h.matchService.Confirm)
}

// Reject moves a pending or accepted match to rejected. Either party may
// reject at any point before the match is terminal.
func (h *MatchHandler) Reject(c echo.Context) error {
	return h.respond(c, h.matchService.Reject)
}

func (h *MatchHandler) respond(c echo.Context, transition func(ctx context.Context, matchID uint, actor *models.User) (*models.Match, error)) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid match ID")
	}

	actor, err := h.userRepository.GetUserByID(getUserIDFromContext(c))
	if err != nil {
		return apperrors.ErrUserNotFound
	}

	match, err := transition(c.Request().Context(), uint(id), actor)
	if err != nil {
		return err
	}

	detail := models.NewMatchDetail(match, actor.ID)
	return c.JSON(http.StatusOK, detail)
}
