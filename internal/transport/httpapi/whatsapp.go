package httpapi

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/agritrack/machinery-booking/internal/model"
)

// metaMessage is one inbound message inside the Cloud API envelope.
type metaMessagePayload struct {
	From string `json:"from"`
	ID   string `json:"id"`
	Type string `json:"type"`
	Text struct {
		Body string `json:"body"`
	} `json:"text"`
}

// metaWebhook mirrors the slice of the Cloud API envelope we care about:
// entry[0].changes[0].value.messages[0] plus the contact profile name.
type metaWebhook struct {
	Entry []struct {
		Changes []struct {
			Value struct {
				Messages []metaMessagePayload `json:"messages"`
				Contacts []struct {
					Profile struct {
						Name string `json:"name"`
					} `json:"profile"`
				} `json:"contacts"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

func (p metaWebhook) firstMessage() (metaMessagePayload, bool) {
	if len(p.Entry) == 0 || len(p.Entry[0].Changes) == 0 {
		return metaMessagePayload{}, false
	}
	msgs := p.Entry[0].Changes[0].Value.Messages
	if len(msgs) == 0 {
		return metaMessagePayload{}, false
	}
	return msgs[0], true
}

// metaVerify answers Meta's webhook verification handshake.
func (s *Server) metaVerify(c echo.Context) error {
	mode := c.QueryParam("hub.mode")
	token := c.QueryParam("hub.verify_token")
	challenge := c.QueryParam("hub.challenge")

	if mode == "subscribe" && token == s.metaVerifyToken {
		return c.String(http.StatusOK, challenge)
	}
	return c.String(http.StatusForbidden, "Forbidden")
}

// metaMessage handles inbound WhatsApp messages. Meta wants a 200 within
// seconds, so the turn runs after the response is committed and the reply
// goes out through the Cloud API, not the webhook response.
func (s *Server) metaMessage(c echo.Context) error {
	var payload metaWebhook
	if err := c.Bind(&payload); err != nil {
		log.Printf("whatsapp: bad envelope: %v", err)
		return c.String(http.StatusOK, "OK")
	}

	msg, ok := payload.firstMessage()
	if !ok {
		// Status callback or other non-message event.
		return c.String(http.StatusOK, "OK")
	}

	go s.processWhatsApp(msg.From, msg.Text.Body, msg.ID)

	return c.String(http.StatusOK, "OK")
}

func (s *Server) processWhatsApp(from, text, messageID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.sender.MarkRead(ctx, messageID); err != nil {
		log.Printf("whatsapp: mark read %s: %v", messageID, err)
	}

	phone := "+" + from
	result := s.engine.ProcessMessage(ctx, phone, text, messageID, model.BookingSourceWhatsApp)

	if err := s.sender.SendText(ctx, phone, result.Response); err != nil {
		log.Printf("whatsapp: send to %s: %v", phone, err)
	}
}
