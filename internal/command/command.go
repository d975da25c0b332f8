package command

import (
	"regexp"
	"strings"
)

// Type is the closed set of command classifications. Parse always returns
// exactly one of these; unrecognized text maps to TypeInvalid.
type Type string

const (
	TypeBook     Type = "BOOK"
	TypeStatus   Type = "STATUS"
	TypeCancel   Type = "CANCEL"
	TypeComplete Type = "COMPLETE"
	TypeReceipt  Type = "RECEIPT"
	TypeHelp     Type = "HELP"
	TypeConfirm  Type = "CONFIRM"
	TypeReject   Type = "REJECT"
	TypeOTP      Type = "OTP"
	TypeInvalid  Type = "INVALID"
)

// Command is a classified inbound message.
type Command struct {
	Type Type

	// BOOK captures: raw digit strings, Year may be empty.
	Day, Month, Year string

	// 4-digit code captured by CANCEL, COMPLETE or a bare OTP.
	OTP string

	Raw string
}

// tokens lists the accepted literals per keyword command across locales
// (English, Hindi, Punjabi, Bengali). Adding a language means adding
// entries here, nothing else.
var tokens = map[Type][]string{
	TypeComplete: {"COMPLETE", "DONE", "FINISHED", "पूर्ण", "ਮੁਕੰਮਲ", "সম্পন্ন"},
	TypeReceipt:  {"RECEIPT", "SLIP", "BILL", "RASEED", "रसीद", "ਰਸੀਦ", "রশিদ", "PAYMENT"},
	TypeHelp:     {"HELP", "MADAD", "मदद", "ਮਦਦ", "सहायता"},
	TypeConfirm:  {"YES", "Y", "CONFIRM", "OK", "HA", "हां", "ਹਾਂ", "1"},
	TypeReject:   {"NO", "N", "NAHI", "NA", "नहीं", "ਨਹੀਂ", "0"},
}

type matcher struct {
	typ Type
	re  *regexp.Regexp
}

// table is evaluated in order, first match wins. Order is load-bearing:
// "CANCEL 1234" and "COMPLETE 1234" must not fall through to the bare-OTP
// pattern, so OTP sits last before the INVALID fallback.
var table = []matcher{
	{TypeBook, regexp.MustCompile(`(?i)^BOOK\s+(\d{1,2})[-/](\d{1,2})(?:[-/](\d{2,4}))?$`)},
	{TypeStatus, regexp.MustCompile(`(?i)^STATUS$`)},
	{TypeCancel, regexp.MustCompile(`(?i)^CANCEL(?:\s+(\d{4}))?$`)},
	{TypeComplete, regexp.MustCompile(`(?i)^(?:` + alternation(TypeComplete) + `)(?:\s+(\d{4}))?$`)},
	{TypeReceipt, regexp.MustCompile(`(?i)^(?:` + alternation(TypeReceipt) + `)$`)},
	{TypeHelp, regexp.MustCompile(`(?i)^(?:` + alternation(TypeHelp) + `)$`)},
	{TypeConfirm, regexp.MustCompile(`(?i)^(?:` + alternation(TypeConfirm) + `)$`)},
	{TypeReject, regexp.MustCompile(`(?i)^(?:` + alternation(TypeReject) + `)$`)},
	{TypeOTP, regexp.MustCompile(`^(\d{4})$`)},
}

func alternation(t Type) string {
	quoted := make([]string, 0, len(tokens[t]))
	for _, tok := range tokens[t] {
		quoted = append(quoted, regexp.QuoteMeta(tok))
	}
	return strings.Join(quoted, "|")
}

// Parse classifies raw text into exactly one command. Deterministic, no
// side effects, never fails: anything unmatched is TypeInvalid.
func Parse(raw string) Command {
	text := strings.TrimSpace(raw)

	for _, m := range table {
		groups := m.re.FindStringSubmatch(text)
		if groups == nil {
			continue
		}
		cmd := Command{Type: m.typ, Raw: raw}
		switch m.typ {
		case TypeBook:
			cmd.Day, cmd.Month = groups[1], groups[2]
			if len(groups) > 3 {
				cmd.Year = groups[3]
			}
		case TypeCancel, TypeComplete, TypeOTP:
			cmd.OTP = groups[1]
		}
		return cmd
	}

	return Command{Type: TypeInvalid, Raw: raw}
}
