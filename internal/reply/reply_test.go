package reply

import (
	"strings"
	"testing"
)

func TestTemplates_NeverEmpty(t *testing.T) {
	all := []string{
		NotRegistered, InvalidCommand, Help, NoMachines, InvalidDate,
		DatePast, DateFar, StatusNone, CancelNone, CancelWrongOTP,
		CompleteNone, CompleteNeedOTP, ReceiptNone, ReceiptPending,
		ConfirmExpired, RejectSuccess, OTPVerified, OTPInvalid, OTPExpired,
		ErrorGeneric,
		BookingConfirmed("25 Dec 2025", "Happy Seeder", "1234"),
		BookingUnavailable("25 Dec 2025", "27 Dec 2025"),
		AlreadyBooked("25 Dec 2025"),
		StatusActive("25 Dec 2025", "Happy Seeder", StatusText("confirmed")),
		CancelSuccess("25 Dec 2025"),
		CancelConfirm("25 Dec 2025"),
		CompleteSuccess("25 Dec 2025", "5"),
		ConfirmSuccess("27 Dec 2025", "Happy Seeder", "1234"),
		ReceiptSlip(Receipt{BookingID: "AB12CD34", Date: "25 Dec 2025", Machine: "Happy Seeder", Acres: "5", Amount: "2,500", PaymentStatus: "Pending"}),
	}
	for i, s := range all {
		if strings.TrimSpace(s) == "" {
			t.Errorf("template %d rendered empty", i)
		}
	}
}

func TestBookingUnavailable_MentionsBothDates(t *testing.T) {
	s := BookingUnavailable("25 Dec 2025", "27 Dec 2025")
	if !strings.Contains(s, "25 Dec 2025") || !strings.Contains(s, "27 Dec 2025") {
		t.Fatalf("missing dates: %q", s)
	}
	if !strings.Contains(s, "YES") || !strings.Contains(s, "NO") {
		t.Fatalf("missing confirmation prompt: %q", s)
	}
}

func TestReceiptSlip_PaymentFooter(t *testing.T) {
	pending := ReceiptSlip(Receipt{PaymentStatus: "Pending"})
	if !strings.Contains(pending, "UPI") {
		t.Fatalf("pending slip should show payment instructions: %q", pending)
	}
	paid := ReceiptSlip(Receipt{PaymentStatus: "Paid"})
	if !strings.Contains(paid, "Payment received") {
		t.Fatalf("paid slip should acknowledge payment: %q", paid)
	}
}

func TestStatusText(t *testing.T) {
	if got := StatusText("in_progress"); got != "🚜 In Progress" {
		t.Fatalf("got %q", got)
	}
	if got := StatusText("weird"); got != "weird" {
		t.Fatalf("unknown status should pass through, got %q", got)
	}
}

func TestFormatINR(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{500, "500"},
		{2500, "2,500"},
		{123456, "1,23,456"},
		{1234567, "12,34,567"},
		{123456789, "12,34,56,789"},
		{-2500, "-2,500"},
	}
	for _, tc := range cases {
		if got := FormatINR(tc.in); got != tc.want {
			t.Errorf("FormatINR(%d) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
