package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"clustercart/internal/delivery/http/response"
	"clustercart/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

const defaultListLimit = 50

// AdminHandler serves the dashboard API.
type AdminHandler struct {
	adminUC usecase.AdminUsecase
	orderUC usecase.OrderUsecase
	logger  *slog.Logger
}

// NewAdminHandler is the constructor for AdminHandler, injected by Fx.
func NewAdminHandler(adminUC usecase.AdminUsecase, orderUC usecase.OrderUsecase, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		adminUC: adminUC,
		orderUC: orderUC,
		logger:  logger,
	}
}

// LoginInput is the dashboard login request body.
type LoginInput struct {
	Password string `json:"password" validate:"required"`
}

// Login exchanges the dashboard password for a session token.
func (h *AdminHandler) Login(c echo.Context) error {
	var input LoginInput
	if err := c.Bind(&input); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid login input")
	}
	if err := c.Validate(&input); err != nil {
		return errors.WithStack(err)
	}

	token, err := h.adminUC.Login(c.Request().Context(), input.Password)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, map[string]string{"token": token}, "Login successful")
}

// ListOrders retrieves the newest orders.
func (h *AdminHandler) ListOrders(c echo.Context) error {
	orders, err := h.orderUC.ListRecent(c.Request().Context(), queryLimit(c))
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, orders, "Orders retrieved")
}

// ListMembers retrieves members for the dashboard.
func (h *AdminHandler) ListMembers(c echo.Context) error {
	members, err := h.adminUC.ListMembers(c.Request().Context(), queryLimit(c))
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, members, "Members retrieved")
}

// ListNotifications retrieves the newest event feed entries.
func (h *AdminHandler) ListNotifications(c echo.Context) error {
	notifications, err := h.adminUC.ListNotifications(c.Request().Context(), queryLimit(c))
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, notifications, "Notifications retrieved")
}

// BroadcastInput is the broadcast request body.
type BroadcastInput struct {
	Message string `json:"message" validate:"required"`
}

// Broadcast sends a message to every member.
func (h *AdminHandler) Broadcast(c echo.Context) error {
	var input BroadcastInput
	if err := c.Bind(&input); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid broadcast input")
	}
	if err := c.Validate(&input); err != nil {
		return errors.WithStack(err)
	}

	result, err := h.adminUC.Broadcast(c.Request().Context(), input.Message)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, result, "Broadcast sent")
}

// MarkOrderPaid sets the order PAID by slug.
func (h *AdminHandler) MarkOrderPaid(c echo.Context) error {
	slug := c.Param("slug")
	if slug == "" {
		return response.BadRequest(c, "INVALID_INPUT", "Order slug is required")
	}

	if err := h.orderUC.MarkPaid(c.Request().Context(), slug); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, map[string]string{"slug": slug}, "Order marked paid")
}

// HealthCheck is a simple handler to check if the service is up.
func HealthCheck(c echo.Context) error {
	return response.Success(c, http.StatusOK, map[string]string{"status": "ok"}, "Service is healthy")
}

func queryLimit(c echo.Context) int {
	limit, err := strconv.Atoi(c.QueryParam("limit"))
	if err != nil || limit <= 0 {
		return defaultListLimit
	}

	return limit
}
