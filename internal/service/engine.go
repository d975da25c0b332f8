package service

import (
	"context"
	"log"
	"math/rand"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/agritrack/machinery-booking/internal/command"
	"github.com/agritrack/machinery-booking/internal/config"
	"github.com/agritrack/machinery-booking/internal/events"
	"github.com/agritrack/machinery-booking/internal/model"
	"github.com/agritrack/machinery-booking/internal/phone"
	"github.com/agritrack/machinery-booking/internal/reply"
	"github.com/agritrack/machinery-booking/internal/repository"
)

// Policy holds the booking rules the engine enforces. Values come from
// configuration; nothing here is hard-coded.
type Policy struct {
	DefaultCountryCode string
	SessionTTL         time.Duration
	BookingHorizonDays int
	AltSearchDays      int
	OTPTTL             time.Duration
}

func PolicyFromConfig(cfg config.App) Policy {
	return Policy{
		DefaultCountryCode: cfg.DefaultCountryCode,
		SessionTTL:         time.Duration(cfg.SessionTTLMin) * time.Minute,
		BookingHorizonDays: cfg.BookingHorizonDays,
		AltSearchDays:      cfg.AltSearchDays,
		OTPTTL:             time.Duration(cfg.OTPTTLHours) * time.Hour,
	}
}

// Result is what a transport adapter gets back: the reply to relay and
// whether the turn ran cleanly. Success is false only on store failures;
// business rejections are successful turns with a specific reply.
type Result struct {
	Success  bool
	Response string
}

// BookingEngine processes one inbound message at a time to completion:
// parse, load session, dispatch, render reply. All collaborators are
// injected; there is no package-level state.
type BookingEngine struct {
	farmers  repository.FarmerRepository
	machines repository.MachineRepository
	bookings repository.BookingRepository
	otps     repository.OTPRepository
	sessions repository.SessionRepository
	logs     repository.MessageLogRepository
	events   events.Publisher
	policy   Policy

	// overridable clock for expiry tests
	now func() time.Time
}

func NewBookingEngine(
	farmers repository.FarmerRepository,
	machines repository.MachineRepository,
	bookings repository.BookingRepository,
	otps repository.OTPRepository,
	sessions repository.SessionRepository,
	logs repository.MessageLogRepository,
	pub events.Publisher,
	policy Policy,
) *BookingEngine {
	return &BookingEngine{
		farmers:  farmers,
		machines: machines,
		bookings: bookings,
		otps:     otps,
		sessions: sessions,
		logs:     logs,
		events:   pub,
		policy:   policy,
		now:      time.Now,
	}
}

// ProcessMessage runs one conversational turn. It never returns an empty
// reply: unrecognized commands get the invalid-command template and store
// failures the generic-failure one.
func (e *BookingEngine) ProcessMessage(ctx context.Context, from, body, messageID string, source model.BookingSource) Result {
	now := e.now().UTC()
	phoneNumber := phone.Normalize(from, e.policy.DefaultCountryCode)
	cmd := command.Parse(body)

	e.logMessage(ctx, model.MessageDirectionInbound, phoneNumber, body, string(cmd.Type), messageID, nil)

	response, sessionID, err := e.handleTurn(ctx, phoneNumber, cmd, source, now)
	if err != nil {
		log.Printf("engine: turn failed for %s: %v", phoneNumber, err)
		e.logMessage(ctx, model.MessageDirectionOutbound, phoneNumber, reply.ErrorGeneric, "", "", sessionID)
		return Result{Success: false, Response: reply.ErrorGeneric}
	}

	e.logMessage(ctx, model.MessageDirectionOutbound, phoneNumber, response, "", "", sessionID)
	return Result{Success: true, Response: response}
}

// handleTurn dispatches one parsed command against the current session.
// A pending confirmation swallows CONFIRM/REJECT; any other command resets
// the session first and is then processed as if nothing was pending.
func (e *BookingEngine) handleTurn(ctx context.Context, phoneNumber string, cmd command.Command, source model.BookingSource, now time.Time) (string, *uuid.UUID, error) {
	farmer, err := e.farmers.FindByPhone(ctx, phoneNumber, phone.Bare(phoneNumber, e.policy.DefaultCountryCode))
	if err != nil {
		return "", nil, err
	}

	sess, err := e.getOrCreateSession(ctx, phoneNumber, farmer, now)
	if err != nil {
		return "", nil, err
	}
	sessionID := &sess.ID

	if sess.State == model.SessionStateAwaitingConfirmation {
		switch cmd.Type {
		case command.TypeConfirm, command.TypeReject:
			resp, err := e.handleConfirmation(ctx, sess, farmer, cmd.Type == command.TypeConfirm, source, now)
			return resp, sessionID, err
		default:
			// Confirmation interruption: drop the pending proposal, then
			// process the new command normally.
			if err := e.sessions.Reset(ctx, sess.ID, now); err != nil {
				return "", sessionID, err
			}
			sess.State = model.SessionStateIdle
			sess.PendingDate = nil
			sess.PendingMachineID = nil
			sess.SuggestedDates = nil
		}
	}

	var resp string
	switch cmd.Type {
	case command.TypeBook:
		resp, err = e.handleBook(ctx, cmd, farmer, sess, source, now)
	case command.TypeStatus:
		resp, err = e.handleStatus(ctx, farmer, now)
	case command.TypeCancel:
		resp, err = e.handleCancel(ctx, cmd, farmer, sess, now)
	case command.TypeComplete:
		resp, err = e.handleComplete(ctx, cmd, farmer, now)
	case command.TypeReceipt:
		resp, err = e.handleReceipt(ctx, farmer)
	case command.TypeHelp:
		resp = reply.Help
	case command.TypeOTP:
		resp, err = e.handleOTPVerification(ctx, cmd.OTP, now)
	default:
		// TypeConfirm/TypeReject with nothing pending land here too.
		resp = reply.InvalidCommand
	}
	return resp, sessionID, err
}

// getOrCreateSession returns the live session for the phone, refreshing
// its sliding TTL, or creates a fresh idle one. Expired and terminal
// sessions are treated as absent.
func (e *BookingEngine) getOrCreateSession(ctx context.Context, phoneNumber string, farmer *model.Farmer, now time.Time) (*model.Session, error) {
	sess, err := e.sessions.GetActive(ctx, phoneNumber, now)
	if err != nil {
		return nil, err
	}
	expiresAt := now.Add(e.policy.SessionTTL)
	if sess != nil {
		if err := e.sessions.Touch(ctx, sess.ID, now, expiresAt); err != nil {
			return nil, err
		}
		sess.ExpiresAt = expiresAt
		return sess, nil
	}

	sess = &model.Session{
		PhoneNumber:    phoneNumber,
		State:          model.SessionStateIdle,
		CreatedAt:      now,
		LastActivityAt: now,
		ExpiresAt:      expiresAt,
	}
	if farmer != nil {
		sess.FarmerID = &farmer.ID
	}
	if err := e.sessions.Create(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (e *BookingEngine) generateOTP() string {
	return strconv.Itoa(1000 + rand.Intn(9000))
}

func (e *BookingEngine) publish(ctx context.Context, key string, payload any) {
	if err := e.events.PublishJSON(ctx, key, payload); err != nil {
		log.Printf("engine: publish %s: %v", key, err)
	}
}

// logMessage is best-effort audit; a failed log never fails the turn.
func (e *BookingEngine) logMessage(ctx context.Context, dir model.MessageDirection, phoneNumber, body, parsed, messageID string, sessionID *uuid.UUID) {
	m := &model.MessageLog{
		Direction:          dir,
		PhoneNumber:        phoneNumber,
		Body:               body,
		ParsedCommand:      parsed,
		TransportMessageID: messageID,
		SessionID:          sessionID,
	}
	if err := e.logs.Create(ctx, m); err != nil {
		log.Printf("engine: message log: %v", err)
	}
}
