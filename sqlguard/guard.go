// Package sqlguard gates caller-supplied SQL before execution. It admits
// only SELECT statements, rejects statements carrying mutation or definition
// keywords, and bounds the result set with a TOP clause.
//
// The gate is a defense-in-depth denylist, not a sandbox: it tokenizes on a
// fixed set of delimiters rather than parsing SQL, so keywords inside string
// literals are rejected conservatively and mutating side effects reachable
// through functions are not caught. The database login's own permissions
// remain the authoritative control.
package sqlguard

import (
	"errors"
	"strconv"
	"strings"
	"unicode"
)

const (
	DefaultLimit = 100
	MinLimit     = 1
	MaxLimit     = 1000
)

// ErrNotAReadStatement is returned for statements that do not start with
// the SELECT keyword.
var ErrNotAReadStatement = errors.New("only SELECT queries are allowed for security reasons")

// ProhibitedKeywordError reports which denylisted keyword appeared as a
// whole token in the statement.
type ProhibitedKeywordError struct {
	Keyword string
}

func (e *ProhibitedKeywordError) Error() string {
	return "query contains prohibited keyword: " + e.Keyword
}

// SanitizedQuery is the gate's accepted outcome.
type SanitizedQuery struct {
	Original       string
	Bounded        string
	EffectiveLimit int
}

// DefaultDenylist covers the T-SQL mutation and definition keywords.
var DefaultDenylist = []string{
	"DROP", "DELETE", "INSERT", "UPDATE", "ALTER", "CREATE", "TRUNCATE",
}

// Guard holds a configured denylist. The zero value is not usable; use New.
type Guard struct {
	denylist map[string]struct{}
}

// New builds a Guard. With no arguments the default denylist applies.
func New(denylist ...string) *Guard {
	if len(denylist) == 0 {
		denylist = DefaultDenylist
	}
	set := make(map[string]struct{}, len(denylist))
	for _, kw := range denylist {
		set[strings.ToUpper(kw)] = struct{}{}
	}
	return &Guard{denylist: set}
}

var defaultGuard = New()

// Sanitize runs the default Guard.
func Sanitize(query string, limit int) (*SanitizedQuery, error) {
	return defaultGuard.Sanitize(query, limit)
}

// Sanitize validates a statement and bounds its row count. On success the
// returned query carries the statement to execute and the limit that was
// applied; the limit is reported even when the statement declared its own
// limiting clause and the text passed through untouched.
func (g *Guard) Sanitize(query string, limit int) (*SanitizedQuery, error) {
	trimmed := strings.TrimSpace(query)
	upper := strings.ToUpper(trimmed)

	if !strings.HasPrefix(upper, "SELECT") {
		return nil, ErrNotAReadStatement
	}

	tokens := tokenize(upper)
	for _, tok := range tokens {
		if _, bad := g.denylist[tok]; bad {
			return nil, &ProhibitedKeywordError{Keyword: tok}
		}
	}

	effective := Clamp(limit)

	bounded := query
	if !hasLimitClause(tokens) {
		// Insert TOP immediately after the SELECT keyword.
		bounded = trimmed[:len("SELECT")] + " TOP " + strconv.Itoa(effective) + trimmed[len("SELECT"):]
	}

	return &SanitizedQuery{
		Original:       query,
		Bounded:        bounded,
		EffectiveLimit: effective,
	}, nil
}

// Clamp maps a requested row limit into [MinLimit, MaxLimit]. A missing
// (zero) limit defaults to DefaultLimit before clamping.
func Clamp(limit int) int {
	if limit == 0 {
		limit = DefaultLimit
	}
	if limit < MinLimit {
		return MinLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// tokenize splits a statement into whole tokens so that identifiers merely
// containing a keyword (created_at, updated_by) are never flagged.
func tokenize(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || r == ';' || r == '(' || r == ')'
	})
}

// hasLimitClause reports whether the statement already declares a row bound
// via either limiting syntax.
func hasLimitClause(tokens []string) bool {
	for _, tok := range tokens {
		if tok == "TOP" || tok == "LIMIT" {
			return true
		}
	}
	return false
}
