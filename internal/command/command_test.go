package command

import "testing"

func TestParse_Classification(t *testing.T) {
	cases := []struct {
		in   string
		want Type
	}{
		{"BOOK 25-12", TypeBook},
		{"book 25/12", TypeBook},
		{"BOOK 5-1-26", TypeBook},
		{"BOOK 25-12-2025", TypeBook},
		{"  BOOK 25-12  ", TypeBook},
		{"STATUS", TypeStatus},
		{"status", TypeStatus},
		{"CANCEL", TypeCancel},
		{"CANCEL 1234", TypeCancel},
		{"COMPLETE", TypeComplete},
		{"DONE 4321", TypeComplete},
		{"finished", TypeComplete},
		{"पूर्ण", TypeComplete},
		{"ਮੁਕੰਮਲ 1234", TypeComplete},
		{"সম্পন্ন", TypeComplete},
		{"RECEIPT", TypeReceipt},
		{"bill", TypeReceipt},
		{"रसीद", TypeReceipt},
		{"রশিদ", TypeReceipt},
		{"HELP", TypeHelp},
		{"madad", TypeHelp},
		{"मदद", TypeHelp},
		{"सहायता", TypeHelp},
		{"YES", TypeConfirm},
		{"y", TypeConfirm},
		{"ok", TypeConfirm},
		{"हां", TypeConfirm},
		{"1", TypeConfirm},
		{"NO", TypeReject},
		{"nahi", TypeReject},
		{"ਨਹੀਂ", TypeReject},
		{"0", TypeReject},
		{"1234", TypeOTP},
		{"", TypeInvalid},
		{"BOOK", TypeInvalid},
		{"BOOK tomorrow", TypeInvalid},
		{"BOOK 255-12", TypeInvalid},
		{"12345", TypeInvalid},
		{"123", TypeInvalid},
		{"hello there", TypeInvalid},
		{"🚜🚜🚜", TypeInvalid},
		{"STATUS please", TypeInvalid},
	}

	for _, tc := range cases {
		got := Parse(tc.in)
		if got.Type != tc.want {
			t.Errorf("Parse(%q) = %s, want %s", tc.in, got.Type, tc.want)
		}
	}
}

func TestParse_BookCaptures(t *testing.T) {
	cmd := Parse("BOOK 25-12")
	if cmd.Day != "25" || cmd.Month != "12" || cmd.Year != "" {
		t.Fatalf("got %q-%q-%q", cmd.Day, cmd.Month, cmd.Year)
	}

	cmd = Parse("book 5/1/26")
	if cmd.Day != "5" || cmd.Month != "1" || cmd.Year != "26" {
		t.Fatalf("got %q-%q-%q", cmd.Day, cmd.Month, cmd.Year)
	}

	cmd = Parse("BOOK 25-12-2025")
	if cmd.Year != "2025" {
		t.Fatalf("year = %q", cmd.Year)
	}
}

// CANCEL/COMPLETE with a trailing code must win over the bare-OTP pattern.
func TestParse_Precedence(t *testing.T) {
	cmd := Parse("CANCEL 1234")
	if cmd.Type != TypeCancel || cmd.OTP != "1234" {
		t.Fatalf("got %s otp=%q", cmd.Type, cmd.OTP)
	}

	cmd = Parse("COMPLETE 9876")
	if cmd.Type != TypeComplete || cmd.OTP != "9876" {
		t.Fatalf("got %s otp=%q", cmd.Type, cmd.OTP)
	}

	cmd = Parse("4321")
	if cmd.Type != TypeOTP || cmd.OTP != "4321" {
		t.Fatalf("got %s otp=%q", cmd.Type, cmd.OTP)
	}
}

func TestParse_Total(t *testing.T) {
	inputs := []string{
		"", " ", "\n", "BOOK -", "BOOK 1-", "-1-1", "कुछ भी",
		"CANCEL 12", "CANCEL 12345", "yesno", "00", "11",
		string([]byte{0xff, 0xfe}),
	}
	for _, in := range inputs {
		cmd := Parse(in)
		if cmd.Type == "" {
			t.Errorf("Parse(%q) returned empty type", in)
		}
	}
}
