// Package search builds the filter predicate run against the fare store.
// A Query is a neutral bool predicate (must / must_not clause groups) that
// each store backend renders into its own query language.
package search

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/avdeenkov/farewatch/internal/domain"
)

var (
	ErrNoDestination = errors.New("at least one destination is required")
	ErrBadFlightType = errors.New("flight type must be oneway or roundtrip")
)

// Clause is one filter condition. The closed set of implementations mirrors
// the store semantics the assembler depends on: exact match, set membership
// and inclusive range.
type Clause interface {
	clauseKey() string
}

type Term struct {
	Field string
	Value string
}

type Terms struct {
	Field  string
	Values []string
}

type Range struct {
	Field string
	GTE   string
	LTE   string
}

func (c Term) clauseKey() string  { return fmt.Sprintf("term:%s=%s", c.Field, c.Value) }
func (c Terms) clauseKey() string { return fmt.Sprintf("terms:%s=%s", c.Field, strings.Join(c.Values, ",")) }
func (c Range) clauseKey() string { return fmt.Sprintf("range:%s=[%s..%s]", c.Field, c.GTE, c.LTE) }

// Query is the conjunction of all Must clauses AND the negation of every
// MustNot clause.
type Query struct {
	Must    []Clause
	MustNot []Clause
}

func (q Query) Clone() Query {
	return Query{
		Must:    append([]Clause(nil), q.Must...),
		MustNot: append([]Clause(nil), q.MustNot...),
	}
}

// WithTerm returns a copy of the query narrowed by one more exact-match
// condition. Used to split a round-trip query into forth and back legs.
func (q Query) WithTerm(field, value string) Query {
	c := q.Clone()
	c.Must = append(c.Must, Term{Field: field, Value: value})
	return c
}

// Fingerprint is a stable digest of the predicate, usable as a cache key.
// The builder emits clauses in a deterministic order, so equal filters
// produce equal fingerprints.
func (q Query) Fingerprint() string {
	h := sha256.New()
	for _, c := range q.Must {
		fmt.Fprintf(h, "+%s;", c.clauseKey())
	}
	for _, c := range q.MustNot {
		fmt.Fprintf(h, "-%s;", c.clauseKey())
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// Filter carries the normalized user-supplied search parameters. All codes
// are expected uppercase (see SplitCodes); dates are YYYYMMDD strings, empty
// meaning absent.
type Filter struct {
	Destinations     []string
	OriginExclusions []string
	OriginInclusions []string
	FlightType       string
	MinDate          string
	MaxDate          string
	DateRetrieved    string
	ConcreteDate     string
}

// Build translates a Filter into the store predicate. It is pure: no
// retrieval happens here, and validation failures surface before any store
// call can be made.
func Build(f Filter) (Query, error) {
	if len(f.Destinations) == 0 {
		return Query{}, ErrNoDestination
	}
	if f.FlightType != domain.FlightTypeOneway && f.FlightType != domain.FlightTypeRoundtrip {
		return Query{}, ErrBadFlightType
	}

	var q Query

	if len(f.Destinations) == 1 {
		q.Must = append(q.Must, Term{Field: "destination", Value: f.Destinations[0]})
	} else {
		q.Must = append(q.Must, Terms{Field: "destination", Values: f.Destinations})
	}

	if len(f.OriginExclusions) > 0 {
		q.MustNot = append(q.MustNot, Terms{Field: "origin", Values: f.OriginExclusions})
	}
	if len(f.OriginInclusions) > 0 {
		q.Must = append(q.Must, Terms{Field: "origin", Values: f.OriginInclusions})
	}

	q.Must = append(q.Must, Term{Field: "type", Value: f.FlightType})

	if f.DateRetrieved != "" {
		q.Must = append(q.Must, Term{Field: "date_retrieved", Value: f.DateRetrieved})
	}

	// A concrete travel date takes precedence; the range bounds are ignored
	// entirely, not combined.
	if f.ConcreteDate != "" {
		q.Must = append(q.Must, Term{Field: "date", Value: f.ConcreteDate})
	} else if f.MinDate != "" || f.MaxDate != "" {
		q.Must = append(q.Must, Range{Field: "date", GTE: f.MinDate, LTE: f.MaxDate})
	}

	return q, nil
}

// PreviousDayLookup builds the point-lookup predicate for the same itinerary
// observed on the previous snapshot day.
func PreviousDayLookup(origin, destination, date, flightType, prevDateRetrieved string) Query {
	return Query{Must: []Clause{
		Term{Field: "origin", Value: origin},
		Term{Field: "destination", Value: destination},
		Term{Field: "date", Value: date},
		Term{Field: "type", Value: flightType},
		Term{Field: "date_retrieved", Value: prevDateRetrieved},
	}}
}

// SplitCodes normalizes a comma-separated list of location codes: split,
// trim, uppercase, drop empties.
func SplitCodes(s string) []string {
	var codes []string
	for _, part := range strings.Split(s, ",") {
		code := strings.ToUpper(strings.TrimSpace(part))
		if code != "" {
			codes = append(codes, code)
		}
	}
	return codes
}
