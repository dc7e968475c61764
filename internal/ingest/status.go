package ingest

import (
	"strings"

	"paysync-server/internal/models"
)

// MapStatus converts a single-letter PayPal status code to its label.
func MapStatus(code string) string {
	switch code {
	case "S":
		return models.StatusSuccess
	case "P":
		return models.StatusPending
	case "V":
		return models.StatusReversed
	case "F":
		return models.StatusFailed
	default:
		return models.StatusUnknown
	}
}

// StatusFromFilter accepts either a status code or a label, in any case,
// and returns the stored label.
func StatusFromFilter(value string) (string, bool) {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "S", "SUCCESS", "SUCCESSFUL":
		return models.StatusSuccess, true
	case "P", "PENDING":
		return models.StatusPending, true
	case "V", "REVERSED":
		return models.StatusReversed, true
	case "F", "FAILED":
		return models.StatusFailed, true
	default:
		return "", false
	}
}
