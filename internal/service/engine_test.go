package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/agritrack/machinery-booking/internal/events"
	"github.com/agritrack/machinery-booking/internal/model"
	"github.com/agritrack/machinery-booking/internal/reply"
	"github.com/agritrack/machinery-booking/internal/repository"
)

// Fixed clock for every conversation: Sunday 15 June 2025, 10:00 UTC.
var testNow = time.Date(2025, time.June, 15, 10, 0, 0, 0, time.UTC)

const farmerPhone = "+919876543210"

func newTestEngine(t *testing.T) (*BookingEngine, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := model.AutoMigrate(db); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}

	eng := NewBookingEngine(
		repository.NewGormFarmerRepository(db),
		repository.NewGormMachineRepository(db),
		repository.NewGormBookingRepository(db),
		repository.NewGormOTPRepository(db),
		repository.NewGormSessionRepository(db),
		repository.NewGormMessageLogRepository(db),
		events.NopPublisher{},
		Policy{
			DefaultCountryCode: "+91",
			SessionTTL:         30 * time.Minute,
			BookingHorizonDays: 60,
			AltSearchDays:      14,
			OTPTTL:             24 * time.Hour,
		},
	)
	eng.now = func() time.Time { return testNow }
	return eng, db
}

func seedFarmer(t *testing.T, db *gorm.DB, phone, district string, acres float64) *model.Farmer {
	t.Helper()
	f := &model.Farmer{
		FullName:  "Test Farmer " + phone,
		Phone:     phone,
		District:  district,
		Verified:  true,
		Language:  "en",
		LandAcres: acres,
	}
	if err := db.Create(f).Error; err != nil {
		t.Fatalf("seed farmer: %v", err)
	}
	return f
}

func seedMachine(t *testing.T, db *gorm.DB, name, district string, rate float64) *model.Machine {
	t.Helper()
	m := &model.Machine{
		Name:        name,
		Type:        "seeder",
		District:    district,
		Status:      model.MachineStatusAvailable,
		RatePerAcre: rate,
	}
	if err := db.Create(m).Error; err != nil {
		t.Fatalf("seed machine: %v", err)
	}
	return m
}

// blockMachine gives machineID an active booking on date, held by a
// throwaway farmer, so availability checks see the slot as taken.
func blockMachine(t *testing.T, db *gorm.DB, machineID uuid.UUID, date time.Time) {
	t.Helper()
	holder := seedFarmer(t, db, "+9190000"+uuid.NewString()[:5], "elsewhere", 0)
	b := &model.Booking{
		FarmerID:      holder.ID,
		MachineID:     machineID,
		ScheduledDate: date,
		Status:        model.BookingStatusConfirmed,
		Source:        model.BookingSourceWeb,
	}
	if err := db.Create(b).Error; err != nil {
		t.Fatalf("block machine: %v", err)
	}
}

func send(t *testing.T, eng *BookingEngine, text string) Result {
	t.Helper()
	return eng.ProcessMessage(context.Background(), farmerPhone, text, "MSG-"+uuid.NewString()[:8], model.BookingSourceSMS)
}

func otpFor(t *testing.T, db *gorm.DB, bookingID uuid.UUID) string {
	t.Helper()
	var o model.BookingOTP
	if err := db.First(&o, "booking_id = ?", bookingID).Error; err != nil {
		t.Fatalf("load otp: %v", err)
	}
	return o.Code
}

func activeBooking(t *testing.T, db *gorm.DB, farmerID uuid.UUID) *model.Booking {
	t.Helper()
	var b model.Booking
	err := db.Where("farmer_id = ? AND status IN ?", farmerID, model.ActiveBookingStatuses).First(&b).Error
	if err != nil {
		t.Fatalf("load active booking: %v", err)
	}
	return &b
}

func TestProcessMessage_UnregisteredPhone(t *testing.T) {
	eng, db := newTestEngine(t)

	res := send(t, eng, "BOOK 25-12")
	if !res.Success {
		t.Fatalf("business rejection must still be a successful turn")
	}
	if res.Response != reply.NotRegistered {
		t.Fatalf("got %q", res.Response)
	}

	var n int64
	db.Model(&model.Booking{}).Count(&n)
	if n != 0 {
		t.Fatalf("no booking should exist, got %d", n)
	}
	// A session may be created for the phone, but never with a farmer.
	var sessions []model.Session
	db.Find(&sessions)
	for _, s := range sessions {
		if s.FarmerID != nil {
			t.Fatalf("session carries farmer_id for unregistered phone")
		}
	}
}

func TestBook_Success(t *testing.T) {
	eng, db := newTestEngine(t)
	f := seedFarmer(t, db, farmerPhone, "Ludhiana", 5)
	seedMachine(t, db, "Happy Seeder", "Ludhiana", 500)

	res := send(t, eng, "BOOK 20-06")
	if !strings.Contains(res.Response, "Booking Confirmed") {
		t.Fatalf("got %q", res.Response)
	}
	if !strings.Contains(res.Response, "20 Jun 2025") || !strings.Contains(res.Response, "Happy Seeder") {
		t.Fatalf("missing details: %q", res.Response)
	}

	b := activeBooking(t, db, f.ID)
	if b.Status != model.BookingStatusConfirmed {
		t.Fatalf("status = %s", b.Status)
	}
	if b.Source != model.BookingSourceSMS {
		t.Fatalf("source = %s", b.Source)
	}

	code := otpFor(t, db, b.ID)
	if len(code) != 4 || !strings.Contains(res.Response, code) {
		t.Fatalf("otp %q not in reply %q", code, res.Response)
	}
}

func TestBook_DateValidation(t *testing.T) {
	eng, db := newTestEngine(t)
	seedFarmer(t, db, farmerPhone, "Ludhiana", 5)
	seedMachine(t, db, "Happy Seeder", "Ludhiana", 500)

	if res := send(t, eng, "BOOK 14-06"); res.Response != reply.DatePast {
		t.Fatalf("past: got %q", res.Response)
	}
	if res := send(t, eng, "BOOK 31-02"); res.Response != reply.InvalidDate {
		t.Fatalf("invalid: got %q", res.Response)
	}
	if res := send(t, eng, "BOOK 20-09"); res.Response != reply.DateFar {
		t.Fatalf("far: got %q", res.Response)
	}
}

// Only one active booking per farmer: the second BOOK is rejected until
// the first is cancelled or completed.
func TestBook_SingleActiveBooking(t *testing.T) {
	eng, db := newTestEngine(t)
	seedFarmer(t, db, farmerPhone, "Ludhiana", 5)
	seedMachine(t, db, "Happy Seeder", "Ludhiana", 500)
	seedMachine(t, db, "Super Seeder", "Ludhiana", 600)

	send(t, eng, "BOOK 20-06")
	res := send(t, eng, "BOOK 22-06")
	if !strings.Contains(res.Response, "already have a booking") {
		t.Fatalf("got %q", res.Response)
	}
	if !strings.Contains(res.Response, "20 Jun 2025") {
		t.Fatalf("should mention existing date: %q", res.Response)
	}

	var n int64
	db.Model(&model.Booking{}).Count(&n)
	if n != 1 {
		t.Fatalf("bookings = %d, want 1", n)
	}
}

// No double-booking per (machine, date): with the only machine taken, a
// second farmer gets an alternate date, never the same slot.
func TestBook_NoDoubleBooking(t *testing.T) {
	eng, db := newTestEngine(t)
	seedFarmer(t, db, farmerPhone, "Ludhiana", 5)
	m := seedMachine(t, db, "Happy Seeder", "Ludhiana", 500)
	date := time.Date(2025, time.June, 20, 0, 0, 0, 0, time.UTC)
	blockMachine(t, db, m.ID, date)

	res := send(t, eng, "BOOK 20-06")
	if !strings.Contains(res.Response, "20 Jun 2025 is full") {
		t.Fatalf("got %q", res.Response)
	}
	if !strings.Contains(res.Response, "21 Jun 2025") {
		t.Fatalf("expected next-day alternate: %q", res.Response)
	}

	var n int64
	db.Model(&model.Booking{}).
		Where("machine_id = ? AND scheduled_date = ? AND status IN ?", m.ID, date, model.ActiveBookingStatuses).
		Count(&n)
	if n != 1 {
		t.Fatalf("active bookings on slot = %d, want 1", n)
	}
}

func TestBook_AlternateDateConfirm(t *testing.T) {
	eng, db := newTestEngine(t)
	f := seedFarmer(t, db, farmerPhone, "Ludhiana", 5)
	m := seedMachine(t, db, "Happy Seeder", "Ludhiana", 500)
	date := time.Date(2025, time.June, 20, 0, 0, 0, 0, time.UTC)
	blockMachine(t, db, m.ID, date)

	send(t, eng, "BOOK 20-06")

	var sess model.Session
	if err := db.First(&sess, "phone_number = ?", farmerPhone).Error; err != nil {
		t.Fatalf("load session: %v", err)
	}
	if sess.State != model.SessionStateAwaitingConfirmation {
		t.Fatalf("state = %s", sess.State)
	}
	if sess.PendingMachineID == nil || sess.PendingDate == nil {
		t.Fatalf("pending payload missing")
	}

	res := send(t, eng, "YES")
	if !strings.Contains(res.Response, "Booking Confirmed") || !strings.Contains(res.Response, "21 Jun 2025") {
		t.Fatalf("got %q", res.Response)
	}

	b := activeBooking(t, db, f.ID)
	if !b.ScheduledDate.Equal(date.AddDate(0, 0, 1)) {
		t.Fatalf("scheduled = %v", b.ScheduledDate)
	}
	if b.Status != model.BookingStatusConfirmed {
		t.Fatalf("status = %s", b.Status)
	}

	db.First(&sess, "id = ?", sess.ID)
	if sess.State != model.SessionStateCompleted {
		t.Fatalf("session state = %s", sess.State)
	}
}

func TestBook_NoMachinesAnywhere(t *testing.T) {
	eng, db := newTestEngine(t)
	seedFarmer(t, db, farmerPhone, "Ludhiana", 5)
	// District has no machines at all.
	res := send(t, eng, "BOOK 20-06")
	if res.Response != reply.NoMachines {
		t.Fatalf("got %q", res.Response)
	}
}

func TestBook_Reject(t *testing.T) {
	eng, db := newTestEngine(t)
	seedFarmer(t, db, farmerPhone, "Ludhiana", 5)
	m := seedMachine(t, db, "Happy Seeder", "Ludhiana", 500)
	blockMachine(t, db, m.ID, time.Date(2025, time.June, 20, 0, 0, 0, 0, time.UTC))

	send(t, eng, "BOOK 20-06")
	res := send(t, eng, "NO")
	if res.Response != reply.RejectSuccess {
		t.Fatalf("got %q", res.Response)
	}

	var sess model.Session
	db.First(&sess, "phone_number = ?", farmerPhone)
	if sess.State != model.SessionStateIdle || sess.PendingMachineID != nil {
		t.Fatalf("session not reset: state=%s", sess.State)
	}
}

// Any command other than YES/NO while a confirmation is pending resets
// the session first, then runs normally.
func TestConfirmation_Interruption(t *testing.T) {
	eng, db := newTestEngine(t)
	seedFarmer(t, db, farmerPhone, "Ludhiana", 5)
	m := seedMachine(t, db, "Happy Seeder", "Ludhiana", 500)
	blockMachine(t, db, m.ID, time.Date(2025, time.June, 20, 0, 0, 0, 0, time.UTC))

	send(t, eng, "BOOK 20-06")

	res := send(t, eng, "STATUS")
	if res.Response != reply.StatusNone {
		t.Fatalf("got %q", res.Response)
	}

	var sess model.Session
	db.First(&sess, "phone_number = ?", farmerPhone)
	if sess.State != model.SessionStateIdle || sess.PendingDate != nil {
		t.Fatalf("pending confirmation survived interruption: state=%s", sess.State)
	}

	// The dropped proposal is gone: YES now has nothing to confirm.
	res = send(t, eng, "YES")
	if res.Response != reply.InvalidCommand {
		t.Fatalf("got %q", res.Response)
	}
}

func TestSessionExpiry_TreatedAsAbsent(t *testing.T) {
	eng, db := newTestEngine(t)
	seedFarmer(t, db, farmerPhone, "Ludhiana", 5)
	m := seedMachine(t, db, "Happy Seeder", "Ludhiana", 500)
	blockMachine(t, db, m.ID, time.Date(2025, time.June, 20, 0, 0, 0, 0, time.UTC))

	send(t, eng, "BOOK 20-06")

	// 31 minutes later the awaiting_confirmation session has expired.
	eng.now = func() time.Time { return testNow.Add(31 * time.Minute) }

	res := send(t, eng, "YES")
	if res.Response != reply.InvalidCommand {
		t.Fatalf("expired session should behave like no session: %q", res.Response)
	}

	var n int64
	db.Model(&model.Session{}).Where("phone_number = ?", farmerPhone).Count(&n)
	if n != 2 {
		t.Fatalf("expected a fresh session alongside the expired one, got %d", n)
	}
}

func TestSession_SlidingTTL(t *testing.T) {
	eng, db := newTestEngine(t)
	seedFarmer(t, db, farmerPhone, "Ludhiana", 5)
	m := seedMachine(t, db, "Happy Seeder", "Ludhiana", 500)
	blockMachine(t, db, m.ID, time.Date(2025, time.June, 20, 0, 0, 0, 0, time.UTC))

	send(t, eng, "BOOK 20-06")

	// 20 minutes on, still live; an interruption-free STATUS refreshes it.
	eng.now = func() time.Time { return testNow.Add(20 * time.Minute) }
	send(t, eng, "STATUS")

	var sess model.Session
	db.Order("created_at DESC").First(&sess, "phone_number = ?", farmerPhone)
	want := testNow.Add(20 * time.Minute).Add(30 * time.Minute)
	if !sess.ExpiresAt.Equal(want) {
		t.Fatalf("expires_at = %v, want %v", sess.ExpiresAt, want)
	}
}

func TestStatus(t *testing.T) {
	eng, db := newTestEngine(t)
	seedFarmer(t, db, farmerPhone, "Ludhiana", 5)
	seedMachine(t, db, "Happy Seeder", "Ludhiana", 500)

	if res := send(t, eng, "STATUS"); res.Response != reply.StatusNone {
		t.Fatalf("got %q", res.Response)
	}

	send(t, eng, "BOOK 20-06")
	res := send(t, eng, "STATUS")
	if !strings.Contains(res.Response, "Happy Seeder") || !strings.Contains(res.Response, "Confirmed") {
		t.Fatalf("got %q", res.Response)
	}
}

func TestCancel_ConfirmationFlow(t *testing.T) {
	eng, db := newTestEngine(t)
	f := seedFarmer(t, db, farmerPhone, "Ludhiana", 5)
	seedMachine(t, db, "Happy Seeder", "Ludhiana", 500)

	send(t, eng, "BOOK 20-06")

	res := send(t, eng, "CANCEL")
	if !strings.Contains(res.Response, "Cancel booking for 20 Jun 2025?") {
		t.Fatalf("got %q", res.Response)
	}
	// Nothing cancelled yet.
	b := activeBooking(t, db, f.ID)
	if b.Status != model.BookingStatusConfirmed {
		t.Fatalf("status = %s", b.Status)
	}

	res = send(t, eng, "YES")
	if !strings.Contains(res.Response, "has been cancelled") {
		t.Fatalf("got %q", res.Response)
	}

	db.First(b, "id = ?", b.ID)
	if b.Status != model.BookingStatusCancelled || b.CancelledAt == nil {
		t.Fatalf("status = %s, cancelled_at = %v", b.Status, b.CancelledAt)
	}
}

func TestCancel_WithOTP(t *testing.T) {
	eng, db := newTestEngine(t)
	f := seedFarmer(t, db, farmerPhone, "Ludhiana", 5)
	seedMachine(t, db, "Happy Seeder", "Ludhiana", 500)

	send(t, eng, "BOOK 20-06")
	b := activeBooking(t, db, f.ID)
	code := otpFor(t, db, b.ID)

	wrong := "0000"
	if wrong == code {
		wrong = "0001"
	}
	res := send(t, eng, "CANCEL "+wrong)
	if res.Response != reply.CancelWrongOTP {
		t.Fatalf("got %q", res.Response)
	}
	db.First(b, "id = ?", b.ID)
	if b.Status != model.BookingStatusConfirmed {
		t.Fatalf("wrong otp must not cancel, status = %s", b.Status)
	}

	res = send(t, eng, "CANCEL "+code)
	if !strings.Contains(res.Response, "has been cancelled") {
		t.Fatalf("got %q", res.Response)
	}
}

func TestCancel_NoBooking(t *testing.T) {
	eng, db := newTestEngine(t)
	seedFarmer(t, db, farmerPhone, "Ludhiana", 5)

	if res := send(t, eng, "CANCEL"); res.Response != reply.CancelNone {
		t.Fatalf("got %q", res.Response)
	}
}

func TestComplete_Flow(t *testing.T) {
	eng, db := newTestEngine(t)
	f := seedFarmer(t, db, farmerPhone, "Ludhiana", 5)
	seedMachine(t, db, "Happy Seeder", "Ludhiana", 500)

	if res := send(t, eng, "COMPLETE"); res.Response != reply.CompleteNone {
		t.Fatalf("got %q", res.Response)
	}

	send(t, eng, "BOOK 20-06")
	b := activeBooking(t, db, f.ID)
	code := otpFor(t, db, b.ID)

	if res := send(t, eng, "COMPLETE"); res.Response != reply.CompleteNeedOTP {
		t.Fatalf("got %q", res.Response)
	}

	wrong := "9999"
	if wrong == code {
		wrong = "9998"
	}
	if res := send(t, eng, "COMPLETE "+wrong); res.Response != reply.OTPInvalid {
		t.Fatalf("got %q", res.Response)
	}
	db.First(b, "id = ?", b.ID)
	if b.Status != model.BookingStatusConfirmed {
		t.Fatalf("failed otp must not complete, status = %s", b.Status)
	}

	res := send(t, eng, "COMPLETE "+code)
	if !strings.Contains(res.Response, "Work completed") || !strings.Contains(res.Response, "5") {
		t.Fatalf("got %q", res.Response)
	}
	db.First(b, "id = ?", b.ID)
	if b.Status != model.BookingStatusCompleted || b.CompletedAt == nil {
		t.Fatalf("status = %s", b.Status)
	}
}

// Operator-side flow: a bare 4-digit code starts the work, and the code
// is single-use.
func TestOTPVerification_SingleUse(t *testing.T) {
	eng, db := newTestEngine(t)
	f := seedFarmer(t, db, farmerPhone, "Ludhiana", 5)
	seedMachine(t, db, "Happy Seeder", "Ludhiana", 500)

	send(t, eng, "BOOK 20-06")
	b := activeBooking(t, db, f.ID)
	code := otpFor(t, db, b.ID)

	res := send(t, eng, code)
	if res.Response != reply.OTPVerified {
		t.Fatalf("got %q", res.Response)
	}
	db.First(b, "id = ?", b.ID)
	if b.Status != model.BookingStatusInProgress || !b.OTPVerified {
		t.Fatalf("status = %s, verified = %v", b.Status, b.OTPVerified)
	}

	if res := send(t, eng, code); res.Response != reply.OTPInvalid {
		t.Fatalf("verified otp must not verify again: %q", res.Response)
	}
}

func TestReceipt(t *testing.T) {
	eng, db := newTestEngine(t)
	f := seedFarmer(t, db, farmerPhone, "Ludhiana", 5)
	seedMachine(t, db, "Happy Seeder", "Ludhiana", 500)

	if res := send(t, eng, "RECEIPT"); res.Response != reply.ReceiptNone {
		t.Fatalf("got %q", res.Response)
	}

	send(t, eng, "BOOK 20-06")
	if res := send(t, eng, "RECEIPT"); res.Response != reply.ReceiptPending {
		t.Fatalf("got %q", res.Response)
	}

	b := activeBooking(t, db, f.ID)
	code := otpFor(t, db, b.ID)
	send(t, eng, "COMPLETE "+code)

	res := send(t, eng, "RECEIPT")
	if !strings.Contains(res.Response, "PAYMENT SLIP") {
		t.Fatalf("got %q", res.Response)
	}
	// 5 acres x rs 500 = rs 2,500, payment still pending.
	if !strings.Contains(res.Response, "2,500") || !strings.Contains(res.Response, "Pending") {
		t.Fatalf("got %q", res.Response)
	}
}

func TestHelpAndInvalid(t *testing.T) {
	eng, db := newTestEngine(t)
	seedFarmer(t, db, farmerPhone, "Ludhiana", 5)

	if res := send(t, eng, "HELP"); res.Response != reply.Help {
		t.Fatalf("got %q", res.Response)
	}
	res := send(t, eng, "open the pod bay doors")
	if res.Response != reply.InvalidCommand {
		t.Fatalf("got %q", res.Response)
	}
	if !res.Success {
		t.Fatalf("invalid command is still a successful turn")
	}

	var n int64
	db.Model(&model.MessageLog{}).Count(&n)
	if n == 0 {
		t.Fatalf("messages should be audited")
	}
}

func TestPhoneNormalization_Lookup(t *testing.T) {
	eng, db := newTestEngine(t)
	seedFarmer(t, db, farmerPhone, "Ludhiana", 5)
	seedMachine(t, db, "Happy Seeder", "Ludhiana", 500)

	// Vendor delivers the number without the plus.
	res := eng.ProcessMessage(context.Background(), "919876543210", "STATUS", "MSG-1", model.BookingSourceWhatsApp)
	if res.Response != reply.StatusNone {
		t.Fatalf("got %q", res.Response)
	}
}
