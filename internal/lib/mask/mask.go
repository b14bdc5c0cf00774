package mask

import (
	"strings"
	"unicode/utf8"
)

// Phone keeps the last four digits, e.g. "+16502530000" -> "***-***-0000".
func Phone(phone string) string {
	digits := make([]rune, 0, len(phone))
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits = append(digits, r)
		}
	}
	if len(digits) < 4 {
		return "***"
	}
	return "***-***-" + string(digits[len(digits)-4:])
}

// Email keeps the first character of the local part and the whole domain.
func Email(email string) string {
	at := strings.LastIndex(email, "@")
	if at <= 0 {
		return "***"
	}
	first, _ := utf8.DecodeRuneInString(email)
	return string(first) + "***" + email[at:]
}

// ForLogging shows up to visible characters at each end of value.
func ForLogging(value string, visible int) string {
	runes := []rune(value)
	if len(runes) == 0 {
		return ""
	}
	if len(runes) <= visible*2 {
		return strings.Repeat("*", len(runes))
	}
	return string(runes[:visible]) + "..." + string(runes[len(runes)-visible:])
}
