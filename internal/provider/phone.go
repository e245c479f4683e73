package provider

import "strings"

// normalizeIndianMobile validates a 10-digit Indian mobile number and
// returns it in E.164 form. Accepted inputs: bare 10 digits starting 6-9,
// or the same with a "+91", "91" or "0" prefix. Spaces and dashes are
// ignored.
func normalizeIndianMobile(raw string) (string, bool) {
	digits := keepDigits(raw)
	switch {
	case len(digits) == 12 && strings.HasPrefix(digits, "91"):
		digits = digits[2:]
	case len(digits) == 11 && strings.HasPrefix(digits, "0"):
		digits = digits[1:]
	}
	if len(digits) != 10 {
		return "", false
	}
	if digits[0] < '6' || digits[0] > '9' {
		return "", false
	}
	return "+91" + digits, true
}

// normalizeChatRecipient validates an international chat (WhatsApp-style)
// number: 10 to 15 digits, country code included or defaulted to India.
func normalizeChatRecipient(raw string) (string, bool) {
	digits := keepDigits(raw)
	if len(digits) == 10 {
		// assume a national number
		return normalizeIndianMobile(digits)
	}
	if len(digits) < 10 || len(digits) > 15 {
		return "", false
	}
	return "+" + digits, true
}

func keepDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
