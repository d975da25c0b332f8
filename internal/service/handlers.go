package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"gorm.io/datatypes"

	"github.com/agritrack/machinery-booking/internal/command"
	"github.com/agritrack/machinery-booking/internal/dates"
	"github.com/agritrack/machinery-booking/internal/events"
	"github.com/agritrack/machinery-booking/internal/model"
	"github.com/agritrack/machinery-booking/internal/reply"
	"github.com/agritrack/machinery-booking/internal/repository"
)

func (e *BookingEngine) handleBook(ctx context.Context, cmd command.Command, farmer *model.Farmer, sess *model.Session, source model.BookingSource, now time.Time) (string, error) {
	if farmer == nil {
		return reply.NotRegistered, nil
	}

	date, err := dates.ParseBooking(cmd.Day, cmd.Month, cmd.Year, now, e.policy.BookingHorizonDays)
	switch {
	case errors.Is(err, dates.ErrPast):
		return reply.DatePast, nil
	case errors.Is(err, dates.ErrTooFar):
		return reply.DateFar, nil
	case err != nil:
		return reply.InvalidDate, nil
	}

	existing, err := e.bookings.ActiveByFarmer(ctx, farmer.ID, dates.Day(now))
	if err != nil {
		return "", err
	}
	if existing != nil {
		return reply.AlreadyBooked(dates.Format(existing.ScheduledDate)), nil
	}

	machine, err := e.findAvailableMachine(ctx, farmer.District, date)
	if err != nil {
		return "", err
	}

	if machine != nil {
		code, err := e.createBooking(ctx, farmer, machine, date, sess, source, now)
		switch {
		case errors.Is(err, repository.ErrFarmerBusy):
			return reply.AlreadyBooked(dates.Format(date)), nil
		case errors.Is(err, repository.ErrSlotTaken):
			// Lost the slot between the availability check and the insert;
			// fall through to the alternate-date search.
			machine = nil
		case err != nil:
			return "", err
		default:
			return reply.BookingConfirmed(dates.Format(date), machine.Name, code), nil
		}
	}

	altDate, altMachine, err := e.findNextAvailableDate(ctx, farmer.District, date)
	if err != nil {
		return "", err
	}
	if altMachine == nil {
		return reply.NoMachines, nil
	}

	err = e.sessions.Update(ctx, sess.ID, map[string]any{
		"state":              model.SessionStateAwaitingConfirmation,
		"pending_date":       altDate,
		"pending_machine_id": altMachine.ID,
		"suggested_dates":    datatypes.NewJSONSlice([]string{altDate.Format("2006-01-02")}),
	}, now)
	if err != nil {
		return "", err
	}

	return reply.BookingUnavailable(dates.Format(date), dates.Format(altDate)), nil
}

func (e *BookingEngine) handleStatus(ctx context.Context, farmer *model.Farmer, now time.Time) (string, error) {
	if farmer == nil {
		return reply.NotRegistered, nil
	}

	b, err := e.bookings.ActiveByFarmer(ctx, farmer.ID, dates.Day(now))
	if err != nil {
		return "", err
	}
	if b == nil {
		return reply.StatusNone, nil
	}

	name := "TBD"
	if b.Machine != nil {
		name = b.Machine.Name
	}
	return reply.StatusActive(dates.Format(b.ScheduledDate), name, reply.StatusText(string(b.Status))), nil
}

func (e *BookingEngine) handleCancel(ctx context.Context, cmd command.Command, farmer *model.Farmer, sess *model.Session, now time.Time) (string, error) {
	if farmer == nil {
		return reply.NotRegistered, nil
	}

	b, err := e.bookings.ActiveByFarmer(ctx, farmer.ID, dates.Day(now))
	if err != nil {
		return "", err
	}
	if b == nil {
		return reply.CancelNone, nil
	}
	dateStr := dates.Format(b.ScheduledDate)

	// With a valid OTP the cancellation is immediate; otherwise ask for a
	// YES confirmation first.
	if cmd.OTP != "" {
		ok, err := e.otps.Valid(ctx, b.ID, cmd.OTP, now)
		if err != nil {
			return "", err
		}
		if !ok {
			return reply.CancelWrongOTP, nil
		}
		if err := e.bookings.MarkCancelled(ctx, b.ID, now); err != nil {
			return "", err
		}
		e.publish(ctx, events.BookingCancelled, bookingEvent(b))
		return reply.CancelSuccess(dateStr), nil
	}

	err = e.sessions.Update(ctx, sess.ID, map[string]any{
		"state":        model.SessionStateAwaitingConfirmation,
		"pending_date": b.ScheduledDate,
	}, now)
	if err != nil {
		return "", err
	}
	return reply.CancelConfirm(dateStr), nil
}

func (e *BookingEngine) handleComplete(ctx context.Context, cmd command.Command, farmer *model.Farmer, now time.Time) (string, error) {
	if farmer == nil {
		return reply.NotRegistered, nil
	}

	b, err := e.bookings.OpenForCompletion(ctx, farmer.ID)
	if err != nil {
		return "", err
	}
	if b == nil {
		return reply.CompleteNone, nil
	}

	if cmd.OTP == "" {
		return reply.CompleteNeedOTP, nil
	}

	ok, err := e.otps.Valid(ctx, b.ID, cmd.OTP, now)
	if err != nil {
		return "", err
	}
	if !ok {
		return reply.OTPInvalid, nil
	}

	if err := e.bookings.MarkCompleted(ctx, b.ID, now); err != nil {
		return "", err
	}
	e.publish(ctx, events.BookingCompleted, bookingEvent(b))

	acres := b.AcresCovered
	if acres == 0 {
		acres = farmer.LandAcres
	}
	return reply.CompleteSuccess(dates.Format(b.ScheduledDate), formatAcres(acres)), nil
}

func (e *BookingEngine) handleReceipt(ctx context.Context, farmer *model.Farmer) (string, error) {
	if farmer == nil {
		return reply.NotRegistered, nil
	}

	b, err := e.bookings.LatestCompleted(ctx, farmer.ID)
	if err != nil {
		return "", err
	}
	if b == nil {
		active, err := e.bookings.OpenForCompletion(ctx, farmer.ID)
		if err != nil {
			return "", err
		}
		if active != nil {
			return reply.ReceiptPending, nil
		}
		return reply.ReceiptNone, nil
	}

	acres := b.AcresCovered
	if acres == 0 {
		acres = farmer.LandAcres
	}
	if acres == 0 {
		acres = 5
	}

	machineName := "Happy Seeder"
	ratePerAcre := 500.0
	if b.Machine != nil {
		machineName = b.Machine.Name
		if b.Machine.RatePerAcre > 0 {
			ratePerAcre = b.Machine.RatePerAcre
		}
	}

	paymentStatus := "Pending"
	if b.PaymentStatus == model.PaymentStatusPaid {
		paymentStatus = "Paid"
	}

	return reply.ReceiptSlip(reply.Receipt{
		BookingID:     strings.ToUpper(b.ID.String()[:8]),
		Date:          dates.Format(b.ScheduledDate),
		Machine:       machineName,
		Acres:         formatAcres(acres),
		Amount:        reply.FormatINR(int64(acres * ratePerAcre)),
		PaymentStatus: paymentStatus,
	}), nil
}

// handleConfirmation resolves a pending YES/NO. Which action was pending
// is encoded in the session: machine+date means an alternate-date booking,
// date alone means a cancellation.
func (e *BookingEngine) handleConfirmation(ctx context.Context, sess *model.Session, farmer *model.Farmer, confirmed bool, source model.BookingSource, now time.Time) (string, error) {
	if sess.State != model.SessionStateAwaitingConfirmation {
		return reply.ConfirmExpired, nil
	}
	if farmer == nil {
		return reply.NotRegistered, nil
	}

	if !confirmed {
		if err := e.sessions.Reset(ctx, sess.ID, now); err != nil {
			return "", err
		}
		return reply.RejectSuccess, nil
	}

	if sess.PendingMachineID != nil && sess.PendingDate != nil {
		machine, err := e.machines.GetByID(ctx, *sess.PendingMachineID)
		if err != nil {
			return "", err
		}
		if machine == nil {
			return reply.ErrorGeneric, nil
		}

		date := dates.Day(*sess.PendingDate)
		code, err := e.createBooking(ctx, farmer, machine, date, sess, source, now)
		if errors.Is(err, repository.ErrFarmerBusy) || errors.Is(err, repository.ErrSlotTaken) {
			return reply.ErrorGeneric, nil
		}
		if err != nil {
			return "", err
		}

		if err := e.sessions.Complete(ctx, sess.ID, now); err != nil {
			return "", err
		}
		return reply.ConfirmSuccess(dates.Format(date), machine.Name, code), nil
	}

	// Pending cancellation.
	b, err := e.bookings.ActiveByFarmer(ctx, farmer.ID, dates.Day(now))
	if err != nil {
		return "", err
	}
	if b == nil {
		return reply.ErrorGeneric, nil
	}
	if err := e.bookings.MarkCancelled(ctx, b.ID, now); err != nil {
		return "", err
	}
	e.publish(ctx, events.BookingCancelled, bookingEvent(b))
	if err := e.sessions.Complete(ctx, sess.ID, now); err != nil {
		return "", err
	}
	return reply.CancelSuccess(dates.Format(b.ScheduledDate)), nil
}

// handleOTPVerification is the operator-side flow: a bare 4-digit code
// marks the matching OTP verified and flips its booking to in_progress.
func (e *BookingEngine) handleOTPVerification(ctx context.Context, code string, now time.Time) (string, error) {
	otp, err := e.otps.FindActiveByCode(ctx, code, now)
	if err != nil {
		return "", err
	}
	if otp == nil {
		return reply.OTPInvalid, nil
	}

	if err := e.otps.MarkVerified(ctx, otp.ID, now); err != nil {
		return "", err
	}
	if err := e.bookings.MarkInProgress(ctx, otp.BookingID); err != nil {
		return "", err
	}
	e.publish(ctx, events.BookingStarted, map[string]any{"booking_id": otp.BookingID})

	return reply.OTPVerified, nil
}

// createBooking inserts the booking (status confirmed) and issues its
// one-and-only OTP. Returns the OTP code for the reply.
func (e *BookingEngine) createBooking(ctx context.Context, farmer *model.Farmer, machine *model.Machine, date time.Time, sess *model.Session, source model.BookingSource, now time.Time) (string, error) {
	b := &model.Booking{
		FarmerID:      farmer.ID,
		MachineID:     machine.ID,
		ScheduledDate: date,
		Status:        model.BookingStatusConfirmed,
		Source:        source,
		AcresCovered:  farmer.LandAcres,
		PaymentStatus: model.PaymentStatusPending,
		SessionID:     &sess.ID,
	}
	if err := e.bookings.CreateIfFree(ctx, b); err != nil {
		return "", err
	}

	code := e.generateOTP()
	otp := &model.BookingOTP{
		BookingID: b.ID,
		Code:      code,
		ExpiresAt: now.Add(e.policy.OTPTTL),
	}
	if err := e.otps.Create(ctx, otp); err != nil {
		return "", err
	}

	e.publish(ctx, events.BookingCreated, bookingEvent(b))
	return code, nil
}

func bookingEvent(b *model.Booking) map[string]any {
	return map[string]any{
		"booking_id":     b.ID,
		"farmer_id":      b.FarmerID,
		"machine_id":     b.MachineID,
		"scheduled_date": b.ScheduledDate.Format("2006-01-02"),
		"source":         b.Source,
	}
}

func formatAcres(acres float64) string {
	if acres == 0 {
		return "N/A"
	}
	return strconv.FormatFloat(acres, 'f', -1, 64)
}
