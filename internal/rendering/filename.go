package rendering

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Format is an export format.
type Format string

const (
	// FormatText is a plain-text report.
	FormatText Format = "text"
	// FormatPDF is a PDF report.
	FormatPDF Format = "pdf"
)

// ParseFormat parses a format name. Empty defaults to text.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt":
		return FormatText, nil
	case "pdf":
		return FormatPDF, nil
	default:
		return "", fmt.Errorf("unknown export format: %s", s)
	}
}

// Extension returns the file extension for the format.
func (f Format) Extension() string {
	if f == FormatPDF {
		return "pdf"
	}
	return "txt"
}

// ContentType returns the MIME type for the format.
func (f Format) ContentType() string {
	if f == FormatPDF {
		return "application/pdf"
	}
	return "text/plain; charset=utf-8"
}

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// Filename builds interview_summary_<user>_<YYYYmmdd_HHMMSS>.<ext>.
func Filename(userID string, format Format, now time.Time) string {
	user := strings.Trim(unsafeFilenameChars.ReplaceAllString(userID, "_"), "_")
	if user == "" {
		user = "user"
	}
	return fmt.Sprintf("interview_summary_%s_%s.%s", user, now.Format("20060102_150405"), format.Extension())
}
