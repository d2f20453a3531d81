package domain

import (
	"encoding/json"
	"fmt"
	"math"
)

// DateLayout is the fixed-width date format used for both travel dates and
// snapshot dates. Lexicographic order on it equals calendar order.
const DateLayout = "20060102"

const (
	FlightTypeOneway    = "oneway"
	FlightTypeRoundtrip = "roundtrip"

	DirectionForth = "forth"
	DirectionBack  = "back"
)

// FareRecord is one retrieved price snapshot of one itinerary leg. Records are
// written by a separate ingestion process and are read-only here; a record is
// identified by (origin, destination, date, type, direction, date_retrieved).
type FareRecord struct {
	ID            string `json:"-"`
	Origin        string `json:"origin"`
	Destination   string `json:"destination"`
	Date          string `json:"date"`
	DateRetrieved string `json:"date_retrieved"`
	Type          string `json:"type"`
	Direction     string `json:"direction,omitempty"`
	PriceCents    int64  `json:"price"`
}

// Validate checks the record against the index schema contract. The store is
// loosely typed, so a document missing a required field must be rejected
// instead of flowing through as zero values.
func (r FareRecord) Validate() error {
	switch {
	case r.Origin == "":
		return fmt.Errorf("fare record %s: missing origin", r.ID)
	case r.Destination == "":
		return fmt.Errorf("fare record %s: missing destination", r.ID)
	case r.Date == "":
		return fmt.Errorf("fare record %s: missing date", r.ID)
	case r.DateRetrieved == "":
		return fmt.Errorf("fare record %s: missing date_retrieved", r.ID)
	}
	switch r.Type {
	case FlightTypeOneway:
	case FlightTypeRoundtrip:
		if r.Direction != DirectionForth && r.Direction != DirectionBack {
			return fmt.Errorf("fare record %s: roundtrip with direction %q", r.ID, r.Direction)
		}
	default:
		return fmt.Errorf("fare record %s: unknown type %q", r.ID, r.Type)
	}
	if r.PriceCents < 0 {
		return fmt.Errorf("fare record %s: negative price %d", r.ID, r.PriceCents)
	}
	return nil
}

// DecodeFareRecord unmarshals a raw store document and validates it.
func DecodeFareRecord(id string, source []byte) (FareRecord, error) {
	var rec FareRecord
	if err := json.Unmarshal(source, &rec); err != nil {
		return FareRecord{}, fmt.Errorf("decode fare record %s: %w", id, err)
	}
	rec.ID = id
	if err := rec.Validate(); err != nil {
		return FareRecord{}, err
	}
	return rec, nil
}

// CentsToPrice converts a minor-unit amount to a currency value rounded to
// two decimals.
func CentsToPrice(cents int64) float64 {
	return math.Round(float64(cents)) / 100
}

// PriceDelta is a day-over-day price change that may be unknown, in which
// case it renders as the "N/A" sentinel rather than zero or null.
type PriceDelta struct {
	Known bool
	Value float64
}

func KnownDelta(v float64) PriceDelta {
	return PriceDelta{Known: true, Value: v}
}

func (d PriceDelta) MarshalJSON() ([]byte, error) {
	if !d.Known {
		return json.Marshal("N/A")
	}
	return json.Marshal(d.Value)
}

func (d *PriceDelta) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s == "N/A" {
			*d = PriceDelta{}
			return nil
		}
		return fmt.Errorf("price delta: unexpected string %q", s)
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*d = PriceDelta{Known: true, Value: v}
	return nil
}

// PricedFare is a one-way result row.
type PricedFare struct {
	Origin        string     `json:"origin"`
	Destination   string     `json:"destination"`
	DateRetrieved string     `json:"date_retrieved"`
	Date          string     `json:"date"`
	Price         float64    `json:"price"`
	Type          string     `json:"type"`
	PriceChange   PriceDelta `json:"price_change_vs_previous_day"`
}

// FarePair is a matched forth/back round-trip result row.
type FarePair struct {
	Origin      string  `json:"origin"`
	Destination string  `json:"destination"`
	ForthDate   string  `json:"forth_date"`
	BackDate    string  `json:"back_date"`
	ForthPrice  float64 `json:"forth_price"`
	BackPrice   float64 `json:"back_price"`
	TotalPrice  float64 `json:"total_price"`
}
