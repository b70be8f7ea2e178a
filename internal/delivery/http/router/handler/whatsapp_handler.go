// Package handler contains the HTTP handlers for the application.
package handler

import (
	"encoding/xml"
	"log/slog"
	"net/http"

	"clustercart/internal/domain/entity"
	"clustercart/internal/usecase"

	"github.com/labstack/echo/v4"
)

// WhatsAppHandler receives Twilio inbound message webhooks and answers with
// TwiML so the reply rides the same HTTP exchange.
type WhatsAppHandler struct {
	uc     usecase.ConversationUsecase
	logger *slog.Logger
}

// NewWhatsAppHandler is the constructor for WhatsAppHandler, injected by Fx.
func NewWhatsAppHandler(uc usecase.ConversationUsecase, logger *slog.Logger) *WhatsAppHandler {
	return &WhatsAppHandler{
		uc:     uc,
		logger: logger,
	}
}

type twimlMessage struct {
	Body  string `xml:"Body,omitempty"`
	Media string `xml:"Media,omitempty"`
}

type twimlResponse struct {
	XMLName xml.Name      `xml:"Response"`
	Message *twimlMessage `xml:"Message,omitempty"`
}

// Receive handles one inbound message. Failures return an empty TwiML
// response rather than an error status, so Twilio does not retry and flood
// the member with duplicate replies.
func (h *WhatsAppHandler) Receive(c echo.Context) error {
	msg := &usecase.IncomingMessage{
		Phone:         c.FormValue("From"),
		Body:          c.FormValue("Body"),
		ButtonPayload: c.FormValue("ButtonPayload"),
		ReplyToSID:    c.FormValue("OriginalRepliedMessageSid"),
	}
	if c.FormValue("NumMedia") != "" && c.FormValue("NumMedia") != "0" {
		msg.MediaURL = c.FormValue("MediaUrl0")
	}

	reply, err := h.uc.Process(c.Request().Context(), msg)
	if err != nil {
		h.logger.Error("message processing failed",
			slog.String("phone", msg.Phone), slog.Any("error", err))

		return c.XML(http.StatusOK, twimlResponse{})
	}

	out := twimlResponse{}
	if reply.Text != "" || reply.MediaURL != "" {
		out.Message = &twimlMessage{Body: reply.Text, Media: reply.MediaURL}
	}

	return c.XML(http.StatusOK, out)
}

// Status receives Twilio delivery-status callbacks for outbound messages.
// Recording failures are logged, not returned, so Twilio does not retry.
func (h *WhatsAppHandler) Status(c echo.Context) error {
	status := &entity.MessageStatus{
		MessageSID:   c.FormValue("MessageSid"),
		Status:       c.FormValue("MessageStatus"),
		To:           c.FormValue("To"),
		ErrorCode:    c.FormValue("ErrorCode"),
		ErrorMessage: c.FormValue("ErrorMessage"),
	}

	if err := h.uc.RecordDeliveryStatus(c.Request().Context(), status); err != nil {
		h.logger.Error("delivery status recording failed",
			slog.String("sid", status.MessageSID), slog.Any("error", err))
	}

	return c.String(http.StatusOK, "ok")
}
