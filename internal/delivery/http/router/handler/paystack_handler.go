package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"clustercart/internal/delivery/http/response"
	domainerrors "clustercart/internal/domain/errors"
	"clustercart/internal/domain/service"
	"clustercart/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

const signatureHeader = "x-paystack-signature"

// PaystackHandler receives payment provider webhooks, verifies their
// signature over the raw body and hands the event to the reconciler.
type PaystackHandler struct {
	uc      usecase.PaymentUsecase
	gateway service.PaymentGateway
	logger  *slog.Logger
}

// NewPaystackHandler is the constructor for PaystackHandler, injected by Fx.
func NewPaystackHandler(uc usecase.PaymentUsecase, gateway service.PaymentGateway, logger *slog.Logger) *PaystackHandler {
	return &PaystackHandler{
		uc:      uc,
		gateway: gateway,
		logger:  logger,
	}
}

// Receive handles one webhook delivery. The signature must verify before the
// body is even parsed; a mismatch is a 401 and nothing is processed.
func (h *PaystackHandler) Receive(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return errors.Wrap(err, "failed to read webhook body")
	}

	if !h.gateway.VerifyWebhookSignature(body, c.Request().Header.Get(signatureHeader)) {
		h.logger.Warn("webhook signature mismatch", slog.String("ip", c.RealIP()))

		return domainerrors.ErrSignatureInvalid
	}

	var event usecase.WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return response.BadRequest(c, "INVALID_PAYLOAD", "Invalid webhook payload")
	}

	if err := h.uc.HandleEvent(c.Request().Context(), &event); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, map[string]string{"status": "processed"}, "Webhook processed")
}
