package utils

import "strings"

// NormalizePhone canonicalizes a phone number to E.164-like form.
// Separators are stripped; domestic Korean numbers ("010-1234-5678") become
// "+821012345678" and a bare "82..." prefix gains a '+'. Anything else is
// returned with only its separators removed.
func NormalizePhone(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	plus := strings.HasPrefix(s, "+")
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if digits == "" {
		return ""
	}
	switch {
	case plus:
		return "+" + digits
	case strings.HasPrefix(digits, "0"):
		return "+82" + digits[1:]
	case strings.HasPrefix(digits, "82") && len(digits) >= 11:
		return "+" + digits
	}
	return digits
}

// FormatKoreanPhone renders a normalized +82 mobile number in the domestic
// 010-1234-5678 style used by the dashboard. Other numbers pass through.
func FormatKoreanPhone(normalized string) string {
	if !strings.HasPrefix(normalized, "+82") {
		return normalized
	}
	local := "0" + normalized[3:]
	switch len(local) {
	case 11:
		return local[:3] + "-" + local[3:7] + "-" + local[7:]
	case 10:
		return local[:3] + "-" + local[3:6] + "-" + local[6:]
	}
	return local
}
