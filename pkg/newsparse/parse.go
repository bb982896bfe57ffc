// Package newsparse turns loosely structured answers from prose news APIs into
// news items. Parsing never fails: every dead end degrades to the next path and
// finally to a fixed fallback set.
package newsparse

import (
	"fmt"
	"time"

	"github.com/Adda-Baaj/arthik-khobor/internal/domain"
)

// Degradation names a point where parsing fell back to a weaker path.
type Degradation string

const (
	DegradationInvalidJSON Degradation = "invalid_json"
	DegradationNoMatches   Degradation = "no_message_matches"
	DegradationNoItems     Degradation = "no_items"
	DegradationPanic       Degradation = "panic"
)

// Path values report which route produced Result.Items. Message routes use the
// strategy name instead.
const (
	PathResults  = "results"
	PathObject   = "object"
	PathFallback = "fallback"
)

// Result is the outcome of parsing one upstream payload.
type Result struct {
	Items        []domain.NewsItem
	Path         string
	Degradations []Degradation
	// Panic holds the recovered value when parsing panicked.
	Panic string
}

// Fallback reports whether the fixed fixture set was served.
func (r Result) Fallback() bool { return r.Path == PathFallback }

// Degraded reports whether reason occurred while parsing.
func (r Result) Degraded(reason Degradation) bool {
	for _, d := range r.Degradations {
		if d == reason {
			return true
		}
	}
	return false
}

// Parser parses payloads with a fixed strategy list. The zero value uses the
// default strategies.
type Parser struct {
	strategies []Strategy
}

// NewParser returns a Parser that tries strategies in order. With no
// strategies it uses DefaultStrategies.
func NewParser(strategies ...Strategy) *Parser {
	if len(strategies) == 0 {
		return &Parser{}
	}
	return &Parser{strategies: append([]Strategy(nil), strategies...)}
}

var defaultParser = &Parser{}

// ParseBody normalizes a raw response body and parses it with the default
// strategies.
func ParseBody(body []byte, limit int, now time.Time) Result {
	return defaultParser.ParseBody(body, limit, now)
}

// Parse extracts news items from a normalized payload with the default
// strategies. The returned Items are never empty.
func Parse(payload Payload, limit int, now time.Time) Result {
	return defaultParser.Parse(payload, limit, now)
}

// ParseBody normalizes a raw response body and parses it.
func (p *Parser) ParseBody(body []byte, limit int, now time.Time) Result {
	payload, ok := Normalize(body)
	res := p.Parse(payload, limit, now)
	if !ok {
		res.Degradations = append([]Degradation{DegradationInvalidJSON}, res.Degradations...)
	}
	return res
}

// Parse extracts news items from a normalized payload. The returned Items are
// never empty.
func (p *Parser) Parse(payload Payload, limit int, now time.Time) (res Result) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	defer func() {
		if r := recover(); r != nil {
			res = Result{
				Items:        Fallback(now),
				Path:         PathFallback,
				Degradations: append(res.Degradations, DegradationPanic),
				Panic:        fmt.Sprint(r),
			}
		}
	}()

	if msg, ok := messageOf(payload); ok {
		matches, strategy := extract(p.strategyList(), msg, limit)
		if len(matches) > 0 {
			items := make([]domain.NewsItem, 0, len(matches))
			for i, m := range matches {
				items = append(items, Classify(m, i+1, now))
			}
			return Result{Items: items, Path: strategy}
		}
		res.Degradations = append(res.Degradations, DegradationNoMatches)
	}

	if records, ok := resultsOf(payload); ok {
		if items := FromRecords(records, limit, now); len(items) > 0 {
			res.Items, res.Path = items, PathResults
			return res
		}
	}

	if items := FromRecords(genericOf(payload), limit, now); len(items) > 0 {
		res.Items, res.Path = items, PathObject
		return res
	}

	res.Items = Fallback(now)
	res.Path = PathFallback
	res.Degradations = append(res.Degradations, DegradationNoItems)
	return res
}

func (p *Parser) strategyList() []Strategy {
	if p == nil || len(p.strategies) == 0 {
		return defaultStrategies
	}
	return p.strategies
}
