// Package httpapi holds the webhook adapters. They normalize each vendor
// envelope down to (phone, text, message id), hand that to the booking
// engine, and relay the templated reply back the way the vendor expects.
package httpapi

import (
	"context"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/agritrack/machinery-booking/internal/model"
	"github.com/agritrack/machinery-booking/internal/service"
)

// Engine is the single entry point the transports need from the core.
type Engine interface {
	ProcessMessage(ctx context.Context, from, body, messageID string, source model.BookingSource) service.Result
}

// Sender pushes replies out on channels that cannot answer inline
// (WhatsApp replies go through the Cloud API, not the webhook response).
type Sender interface {
	SendText(ctx context.Context, to, body string) error
	MarkRead(ctx context.Context, messageID string) error
}

type Server struct {
	engine Engine
	sender Sender

	twilioAccountSID string
	metaVerifyToken  string
}

func NewServer(engine Engine, sender Sender, twilioAccountSID, metaVerifyToken string) *Server {
	return &Server{
		engine:           engine,
		sender:           sender,
		twilioAccountSID: twilioAccountSID,
		metaVerifyToken:  metaVerifyToken,
	}
}

func (s *Server) Register(e *echo.Echo) {
	e.Use(echomw.Recover())

	e.GET("/health", s.health)

	e.POST("/webhooks/twilio-sms", s.twilioSMS)
	e.GET("/webhooks/twilio-sms", s.twilioInfo)

	e.GET("/webhooks/meta-whatsapp", s.metaVerify)
	e.POST("/webhooks/meta-whatsapp", s.metaMessage)
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(200, map[string]string{"status": "ok"})
}
