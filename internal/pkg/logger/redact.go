package logger

import "strings"

// RedactAddress masks a messaging address for safe logging, keeping country
// prefix and trailing digits so operators can still correlate entries.
// "15550001234" → "155*****234"; "+4915551234@s.contact.net" keeps the
// namespace suffix. Values too short to mask safely become "***".
func RedactAddress(addr string) string {
	suffix := ""
	if at := strings.Index(addr, "@"); at >= 0 {
		suffix = addr[at:]
		addr = addr[:at]
	}
	digits := strings.TrimPrefix(addr, "+")
	if len(digits) < 7 {
		return "***" + suffix
	}
	masked := digits[:3] + strings.Repeat("*", len(digits)-6) + digits[len(digits)-3:]
	if strings.HasPrefix(addr, "+") {
		masked = "+" + masked
	}
	return masked + suffix
}
