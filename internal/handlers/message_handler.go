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

// MessageHandler handles direct messaging HTTP requests
type MessageHandler struct {
	messageService *services.MessageService
	userRepository repositories.UserRepository
}

// NewMessageHandler creates a new MessageHandler
func NewMessageHandler(messageService *services.MessageService, userRepo repositories.UserRepository) *MessageHandler {
	return &MessageHandler{
		messageService: messageService,
		userRepository: userRepo,
	}
}

// RegisterMessageRoutes registers messaging routes
func (h *MessageHandler) RegisterMessageRoutes(g *echo.Group) {
	g.POST("/messages", h.SendMessage)
	g.PUT("/messages/:id/read", h.MarkRead)
	g.GET("/conversations", h.ListConversations)
	g.GET("/conversations/:user_id/messages", h.GetThread)
}

// SendMessage delivers a direct message to another user
func (h *MessageHandler) SendMessage(c echo.Context) error {
	var req models.SendMessageRequest

	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	sender, err := h.userRepository.GetUserByID(getUserIDFromContext(c))
	if err != nil {
		return apperrors.ErrUserNotFound
	}

	message, err := h.messageService.Send(c.Request().Context(), sender, req.RecipientID, req.Content)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, message)
}

// ListConversations returns one summary per counterpart, most recent first
func (h *MessageHandler) ListConversations(c echo.Context) error {
	conversations, err := h.messageService.ListConversations(getUserIDFromContext(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{"conversations": conversations})
}

// GetThread returns the message history with one other user, newest first,
// and marks the received side of the thread as read.
func (h *MessageHandler) GetThread(c echo.Context) error {
	page, pageSize := paginationParams(c)

	messages, err := h.messageService.GetThread(getUserIDFromContext(c), c.Param("user_id"), page, pageSize)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{"messages": messages})
}

// MarkRead marks a single received message as read
func (h *MessageHandler) MarkRead(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid message ID")
	}

	message, err := h.messageService.MarkRead(getUserIDFromContext(c), uint(id))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, message)
}
