package utils

import (
	"regexp"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

// CheckPassword compares a password with its hash
func CheckPassword(password, hash string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// SanitizeString removes dangerous characters from string
func SanitizeString(input string) string {
	input = strings.ReplaceAll(input, "\x00", "")
	return strings.TrimSpace(input)
}

var moneyPrinter = message.NewPrinter(language.English)

// FormatMoney renders whole currency units with thousands separators, e.g. $200,000 or -$500.
func FormatMoney(amount int64) string {
	if amount < 0 {
		return moneyPrinter.Sprintf("-$%d", -amount)
	}
	return moneyPrinter.Sprintf("$%d", amount)
}

var unsafeFileChars = regexp.MustCompile(`[^\p{L}\p{N}_.-]+`)

// FileNamePart turns a display name into a file name fragment: spaces become underscores and
// path separators or other punctuation are dropped.
func FileNamePart(name string) string {
	name = strings.Join(strings.Fields(SanitizeString(name)), "_")
	return unsafeFileChars.ReplaceAllString(name, "")
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
