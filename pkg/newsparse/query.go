package newsparse

import (
	"fmt"
	"strings"
)

// DefaultLimit is the item count requested when callers pass a non-positive limit.
const DefaultLimit = 10

// FormatQuery builds the natural-language question sent to the upstream prose API.
// The search phrase is passed through as-is; callers JSON-encode the request body.
func FormatQuery(limit int, search string) string {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if strings.TrimSpace(search) != "" {
		return search + " Indian markets"
	}
	return fmt.Sprintf("Get the latest %d indian financial news and reports", limit)
}

// QueryBody is the JSON request body expected by the upstream.
type QueryBody struct {
	Query string `json:"query"`
}
