package providers

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/Adda-Baaj/arthik-khobor/internal/domain"
)

// UpstreamError reports a non-2xx answer from a provider.
type UpstreamError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s api error (%d): %s", e.Provider, e.StatusCode, e.Body)
}

const errorSnippetLen = 512

// responseSnippet returns at most maxLen bytes of the trimmed body for errors
// and logs, cut on a rune boundary.
func responseSnippet(body []byte, maxLen int) string {
	s := strings.TrimSpace(string(body))
	if s == "" {
		return "<empty>"
	}
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

func isSuccess(status int) bool { return status >= 200 && status < 300 }

// checkStatus converts a non-2xx response into an UpstreamError.
func checkStatus(providerID string, status int, body []byte) error {
	if isSuccess(status) {
		return nil
	}
	return &UpstreamError{Provider: providerID, StatusCode: status, Body: responseSnippet(body, errorSnippetLen)}
}

// renumber assigns contiguous 1-based ids in slice order.
func renumber(items []domain.NewsItem) {
	for i := range items {
		items[i].ID = i + 1
	}
}
