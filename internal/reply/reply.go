// Package reply renders orchestrator outcomes into the strings sent back
// over SMS/WhatsApp. Templates are data-parameterized only; every outcome
// of the booking engine has exactly one template here.
package reply

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	NotRegistered   = "You are not registered. Please visit your local CHC office or register at AgriTrack.in"
	InvalidCommand  = "Invalid code. Send:\nBOOK DD-MM - Reserve machine\nSTATUS - Check booking\nCANCEL - Cancel booking\nCOMPLETE - Mark work done\nRECEIPT - Get payment slip\nHELP - Get help"
	Help            = "AgriTrack SMS Booking:\n1. BOOK 25-12 - Book for Dec 25\n2. STATUS - Check your booking\n3. CANCEL - Cancel booking\n4. COMPLETE - Mark work finished\n5. RECEIPT - Get payment slip\n\nCall 1800-XXX-XXXX for help"
	NoMachines      = "Sorry, no machines available in your area. Please contact CHC."
	InvalidDate     = "Invalid date. Use format: BOOK DD-MM (e.g., BOOK 25-12)"
	DatePast        = "Cannot book for past dates. Please choose a future date."
	DateFar         = "Cannot book more than 60 days ahead. Please choose an earlier date."
	StatusNone      = "No active bookings found. Send BOOK DD-MM to reserve a machine."
	CancelNone      = "No active booking to cancel."
	CancelWrongOTP  = "Invalid OTP. Send CANCEL with correct OTP or just CANCEL to get confirmation."
	CompleteNone    = "No active booking to complete. Book first with BOOK DD-MM."
	CompleteNeedOTP = "Please provide OTP to confirm completion. Send: COMPLETE 1234"
	ReceiptNone     = "No completed bookings found. Complete a booking first to get receipt."
	ReceiptPending  = "Your booking is not yet completed. Send COMPLETE [OTP] first."
	ConfirmExpired  = "Session expired. Please start again with BOOK DD-MM."
	RejectSuccess   = "Booking cancelled. Send BOOK DD-MM to try another date."
	OTPVerified     = "OTP verified! Operator can now start work."
	OTPInvalid      = "Invalid OTP. Please check and try again."
	OTPExpired      = "OTP expired. Please contact operator."
	ErrorGeneric    = "Something went wrong. Please try again or call 1800-XXX-XXXX."
)

func BookingConfirmed(date, machine, otp string) string {
	return fmt.Sprintf("✅ Booking Confirmed!\nDate: %s\nMachine: %s\nOTP: %s\n\nShow OTP to operator on arrival.", date, machine, otp)
}

func BookingUnavailable(date, altDate string) string {
	return fmt.Sprintf("❌ %s is full.\n✅ Book for %s for Priority Access.\n\nReply YES to confirm or NO to cancel.", date, altDate)
}

func AlreadyBooked(date string) string {
	return fmt.Sprintf("You already have a booking for %s. Send CANCEL first to book a new date.", date)
}

func StatusActive(date, machine, status string) string {
	return fmt.Sprintf("Your booking:\n📅 Date: %s\n🚜 Machine: %s\n📊 Status: %s", date, machine, status)
}

func CancelSuccess(date string) string {
	return fmt.Sprintf("Booking for %s has been cancelled.", date)
}

func CancelConfirm(date string) string {
	return fmt.Sprintf("Cancel booking for %s? Reply YES to confirm.", date)
}

func CompleteSuccess(date, acres string) string {
	return fmt.Sprintf("✅ Work completed!\n📅 Date: %s\n🌾 Acres: %s\n\nSend RECEIPT for payment slip.", date, acres)
}

func ConfirmSuccess(date, machine, otp string) string {
	return fmt.Sprintf("✅ Booking Confirmed!\nDate: %s\nMachine: %s\nOTP: %s", date, machine, otp)
}

// Receipt carries the rendered payment-slip fields.
type Receipt struct {
	BookingID     string
	Date          string
	Machine       string
	Acres         string
	Amount        string
	PaymentStatus string // "Paid" or "Pending"
}

func ReceiptSlip(r Receipt) string {
	footer := "✅ Payment received"
	if r.PaymentStatus == "Pending" {
		footer = "Pay at CHC office or\nUPI: agritrack@upi"
	}
	return fmt.Sprintf(
		"📄 *PAYMENT SLIP*\n━━━━━━━━━━━━━━━━━\n🆔 Booking: #%s\n🗓 Date: %s\n🚜 Machine: %s\n🌾 Acres: %s\n💰 Amount: ₹%s\n📊 Status: %s\n━━━━━━━━━━━━━━━━━\n%s",
		r.BookingID, r.Date, r.Machine, r.Acres, r.Amount, r.PaymentStatus, footer,
	)
}

var statusText = map[string]string{
	"pending":     "⏳ Pending",
	"confirmed":   "✅ Confirmed",
	"in_progress": "🚜 In Progress",
	"completed":   "✔️ Completed",
	"cancelled":   "❌ Cancelled",
}

// StatusText maps a booking status to its display form; unknown statuses
// pass through unchanged.
func StatusText(status string) string {
	if s, ok := statusText[status]; ok {
		return s
	}
	return status
}

// FormatINR renders a rupee amount with Indian digit grouping
// (12,34,567): the last three digits form one group, the rest pair up.
func FormatINR(amount int64) string {
	s := strconv.FormatInt(amount, 10)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	if len(s) > 3 {
		head, tail := s[:len(s)-3], s[len(s)-3:]
		var groups []string
		for len(head) > 2 {
			groups = append([]string{head[len(head)-2:]}, groups...)
			head = head[:len(head)-2]
		}
		if head != "" {
			groups = append([]string{head}, groups...)
		}
		s = strings.Join(append(groups, tail), ",")
	}
	if neg {
		s = "-" + s
	}
	return s
}
