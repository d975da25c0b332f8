package httpapi

import (
	"encoding/xml"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/agritrack/machinery-booking/internal/model"
)

// twiML is the XML acknowledgment Twilio expects; the Message body is
// sent back to the user as the SMS reply.
type twiML struct {
	XMLName xml.Name `xml:"Response"`
	Message string   `xml:"Message"`
}

// twilioSMS handles the url-encoded inbound-SMS webhook. It always
// answers 200 with TwiML (a non-200 would make Twilio retry the message).
func (s *Server) twilioSMS(c echo.Context) error {
	body := c.FormValue("Body")
	from := c.FormValue("From")
	messageSID := c.FormValue("MessageSid")
	accountSID := c.FormValue("AccountSid")

	if body == "" || from == "" {
		return c.XML(http.StatusBadRequest, twiML{Message: "Invalid request. Please try again."})
	}

	// Cheap spoofing check; proper signature validation is a deployment
	// concern in front of this service.
	if s.twilioAccountSID != "" && accountSID != "" && accountSID != s.twilioAccountSID {
		log.Printf("twilio: account SID mismatch from %s", from)
		return c.String(http.StatusForbidden, "Forbidden")
	}

	result := s.engine.ProcessMessage(c.Request().Context(), from, body, messageSID, model.BookingSourceSMS)
	return c.XML(http.StatusOK, twiML{Message: result.Response})
}

func (s *Server) twilioInfo(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "Twilio SMS Webhook",
		"message": "This endpoint accepts POST requests from Twilio",
	})
}
