package db

import (
	"os"
	"regexp"
	"strings"
)

var kvPairRegex = regexp.MustCompile(`(?i)\b(host|user|password|dbname|port|sslmode)=`)

// NormalizeDSN accepts a URL style DSN (postgres://...), a lib/pq key=value
// list, or a sqlite path/file: DSN. It trims quotes and whitespace and, for
// key=value form, supplements sslmode when missing.
func NormalizeDSN(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.Trim(s, "\"'")
	if s == "" {
		return s
	}
	lower := strings.ToLower(s)
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		return s
	}
	if IsSQLiteDSN(s) {
		return s
	}
	if !kvPairRegex.MatchString(s) {
		return s
	}
	fields := strings.Fields(s)
	cleaned := strings.Join(fields, " ")
	if !strings.Contains(strings.ToLower(cleaned), "sslmode=") {
		cleaned += " sslmode=disable"
	}
	return cleaned
}

// IsSQLiteDSN reports whether the DSN targets sqlite (dev/test convenience).
func IsSQLiteDSN(dsn string) bool {
	lower := strings.ToLower(strings.TrimSpace(dsn))
	return strings.HasPrefix(lower, "file:") || lower == ":memory:" || strings.HasSuffix(lower, ".db") || strings.HasSuffix(lower, ".sqlite")
}

// GetNormalizedDSN reads DATABASE_DSN from the environment and normalizes it.
func GetNormalizedDSN() string {
	return NormalizeDSN(os.Getenv("DATABASE_DSN"))
}

// MaskDSN hides the password for log output.
func MaskDSN(dsn string) string {
	masked := dsn
	if strings.Contains(masked, "password=") {
		re := regexp.MustCompile(`(password=)([^\s]+)`)
		masked = re.ReplaceAllString(masked, `${1}***`)
	}
	if i := strings.Index(masked, "://"); i > 0 {
		if at := strings.Index(masked, "@"); at > i {
			creds := masked[i+3 : at]
			if c := strings.Index(creds, ":"); c >= 0 {
				masked = masked[:i+3] + creds[:c] + ":***" + masked[at:]
			}
		}
	}
	return masked
}
