package newsparse

import (
	"regexp"
	"strings"
)

// MatchKind tells the classifier which fields a Match carries.
type MatchKind string

const (
	// KindLinked carries a title, a link and a body.
	KindLinked MatchKind = "linked"
	// KindTitled carries a title and a body.
	KindTitled MatchKind = "titled"
	// KindPlain carries only an unsplit body.
	KindPlain MatchKind = "plain"
)

// Match is one raw news entry located in a prose message.
type Match struct {
	Kind  MatchKind
	Title string
	URL   string
	Body  string
}

// Strategy is one pattern attempt over a message.
type Strategy struct {
	Name  string
	Apply func(message string) []Match
}

// ScoopMarker is the upstream phrasing that unlocks the scoop strategies.
const ScoopMarker = "Here's the latest scoop on Indian financial news"

var (
	linkedHead   = regexp.MustCompile(`(?s)\d+\.\s+\*\*\[(.*?)\]\((.*?)\)\*\*\s+`)
	boldHead     = regexp.MustCompile(`(?s)\d+\.\s+\*\*(.*?)\*\*\s+`)
	numberedHead = regexp.MustCompile(`\d+\.\s+`)

	boldBoundary     = regexp.MustCompile(`\d+\.\s+\*\*`)
	numberedBoundary = regexp.MustCompile(`\d+\.\s+`)

	scoopItem = regexp.MustCompile(`\d+\.\s+\*\*([^\r\n]*?)\*\*\s+\n\s+[^\r\n]*?\n\s+\*Source:\s+([^\r\n]*?)\*\s+\n\s+\[Read more\]\(([^\r\n]*?)\)`)
)

// defaultStrategies are tried in order; the first one yielding matches wins.
var defaultStrategies = []Strategy{
	{Name: "linked-bold", Apply: linkedBoldItems},
	{Name: "bold-title", Apply: boldTitleItems},
	{Name: "bold-title-loose", Apply: looseBoldTitleItems},
	{Name: "numbered", Apply: numberedItems},
	{Name: "scoop", Apply: scoopItems},
	{Name: "scoop-split", Apply: scoopSplitItems},
}

// DefaultStrategies returns a copy of the built-in strategy order.
func DefaultStrategies() []Strategy {
	return append([]Strategy(nil), defaultStrategies...)
}

// Extract runs the default strategies against message.
func Extract(message string, limit int) ([]Match, string) {
	return extract(defaultStrategies, message, limit)
}

// extract returns the first non-empty match set, truncated to limit, with the
// name of the strategy that produced it.
func extract(strategies []Strategy, message string, limit int) ([]Match, string) {
	for _, s := range strategies {
		matches := s.Apply(message)
		if len(matches) == 0 {
			continue
		}
		if limit > 0 && len(matches) > limit {
			matches = matches[:limit]
		}
		return matches, s.Name
	}
	return nil, ""
}

func linkedBoldItems(message string) []Match {
	return scanItems(message, linkedHead, boldBoundary, func(g []string, body string) Match {
		return Match{Kind: KindLinked, Title: g[1], URL: g[2], Body: body}
	})
}

func boldTitleItems(message string) []Match {
	return scanItems(message, boldHead, boldBoundary, func(g []string, body string) Match {
		return Match{Kind: KindTitled, Title: g[1], Body: body}
	})
}

func looseBoldTitleItems(message string) []Match {
	return scanItems(message, boldHead, numberedBoundary, func(g []string, body string) Match {
		return Match{Kind: KindTitled, Title: g[1], Body: body}
	})
}

func numberedItems(message string) []Match {
	return scanItems(message, numberedHead, numberedBoundary, func(_ []string, body string) Match {
		return Match{Kind: KindPlain, Body: body}
	})
}

func scoopItems(message string) []Match {
	if !strings.Contains(message, ScoopMarker) {
		return nil
	}
	found := scoopItem.FindAllStringSubmatch(message, -1)
	if len(found) == 0 {
		return nil
	}
	out := make([]Match, 0, len(found))
	for _, m := range found {
		out = append(out, Match{
			Kind:  KindLinked,
			Title: m[1],
			URL:   m[3],
			Body:  "Source: " + m[2],
		})
	}
	return out
}

// scoopSplitItems drops the intro segment and treats every numbered segment as one item.
func scoopSplitItems(message string) []Match {
	if !strings.Contains(message, ScoopMarker) {
		return nil
	}
	parts := numberedHead.Split(message, -1)
	if len(parts) < 2 {
		return nil
	}
	out := make([]Match, 0, len(parts)-1)
	for _, part := range parts[1:] {
		out = append(out, Match{Kind: KindPlain, Body: part})
	}
	return out
}

// scanItems collects every head match in message. An item's body runs from the
// end of its head to the leftmost boundary match after it, or to the point
// where only trailing newlines remain, whichever comes first. Scanning resumes
// where the body ended.
func scanItems(message string, head, boundary *regexp.Regexp, build func(groups []string, body string) Match) []Match {
	var out []Match
	tail := len(strings.TrimRight(message, "\n"))

	for pos := 0; pos < len(message); {
		loc := head.FindStringSubmatchIndex(message[pos:])
		if loc == nil {
			break
		}

		headEnd := pos + loc[1]
		bodyEnd := max(tail, headEnd)
		if b := boundary.FindStringIndex(message[headEnd:]); b != nil && headEnd+b[0] < bodyEnd {
			bodyEnd = headEnd + b[0]
		}

		out = append(out, build(submatches(message[pos:], loc), message[headEnd:bodyEnd]))
		pos = bodyEnd
	}
	return out
}

func submatches(s string, loc []int) []string {
	groups := make([]string, len(loc)/2)
	for i := range groups {
		start, end := loc[2*i], loc[2*i+1]
		if start >= 0 && end >= 0 {
			groups[i] = s[start:end]
		}
	}
	return groups
}
