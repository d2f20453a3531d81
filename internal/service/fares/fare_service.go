package fares

import (
	"context"
	"log"
	"sort"
	"time"

	"github.com/avdeenkov/farewatch/internal/domain"
	"github.com/avdeenkov/farewatch/internal/kafka"
	"github.com/avdeenkov/farewatch/internal/metrics"
	"github.com/avdeenkov/farewatch/internal/repository"
	"github.com/avdeenkov/farewatch/internal/search"
)

const (
	onewayLimit    = 100
	roundtripLimit = 100
	legFetchLimit  = 1000
)

type FareUseCase interface {
	Oneway(ctx context.Context, q search.Query) ([]domain.PricedFare, error)
	Roundtrip(ctx context.Context, q search.Query) ([]domain.FarePair, error)
}

type Cache interface {
	GetOneway(ctx context.Context, key string) ([]domain.PricedFare, error)
	SetOneway(ctx context.Context, key string, rows []domain.PricedFare) error
	GetRoundtrip(ctx context.Context, key string) ([]domain.FarePair, error)
	SetRoundtrip(ctx context.Context, key string, rows []domain.FarePair) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type FareService struct {
	repo          repository.FareRepository
	cache         Cache
	producer      Producer
	alertsTopic   string
	dropThreshold float64
}

type FareServiceOption func(*FareService)

func WithCache(cache Cache) FareServiceOption {
	return func(s *FareService) {
		s.cache = cache
	}
}

// WithDropAlerts publishes a FareDropEvent for every one-way fare whose
// day-over-day change is a drop of at least threshold currency units.
func WithDropAlerts(producer Producer, topic string, threshold float64) FareServiceOption {
	return func(s *FareService) {
		s.producer = producer
		s.alertsTopic = topic
		s.dropThreshold = threshold
	}
}

func NewFareService(repo repository.FareRepository, opts ...FareServiceOption) *FareService {
	service := &FareService{repo: repo}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// Oneway returns the 100 cheapest fares matching the predicate, each
// annotated with its price change versus the previous day's snapshot of the
// same itinerary. Rows keep the store's price-ascending order.
func (s *FareService) Oneway(ctx context.Context, q search.Query) ([]domain.PricedFare, error) {
	timer := time.Now()
	defer func() {
		metrics.SearchDuration.WithLabelValues("oneway").Observe(time.Since(timer).Seconds())
	}()
	metrics.SearchesTotal.WithLabelValues("oneway").Inc()

	key := q.Fingerprint()
	if s.cache != nil {
		if cached, err := s.cache.GetOneway(ctx, key); err == nil && cached != nil {
			return cached, nil
		}
	}

	records, err := s.repo.Search(ctx, q, onewayLimit)
	if err != nil {
		metrics.SearchErrorsTotal.WithLabelValues("oneway").Inc()
		return nil, err
	}

	rows := make([]domain.PricedFare, 0, len(records))
	for _, rec := range records {
		row := domain.PricedFare{
			Origin:        rec.Origin,
			Destination:   rec.Destination,
			DateRetrieved: rec.DateRetrieved,
			Date:          rec.Date,
			Price:         domain.CentsToPrice(rec.PriceCents),
			Type:          rec.Type,
			PriceChange:   s.previousDayChange(ctx, rec),
		}
		rows = append(rows, row)
		s.maybeAlert(ctx, row)
	}

	if s.cache != nil {
		_ = s.cache.SetOneway(ctx, key, rows)
	}
	return rows, nil
}

// previousDayChange resolves the delta against yesterday's snapshot of the
// same (origin, destination, date, type). Any failure degrades to the
// unknown delta for this row only.
func (s *FareService) previousDayChange(ctx context.Context, rec domain.FareRecord) domain.PriceDelta {
	prevDay, err := previousDay(rec.DateRetrieved)
	if err != nil {
		metrics.PrevDayLookupMisses.Inc()
		return domain.PriceDelta{}
	}

	lookup := search.PreviousDayLookup(rec.Origin, rec.Destination, rec.Date, rec.Type, prevDay)
	prev, err := s.repo.Search(ctx, lookup, 1)
	if err != nil {
		log.Printf("previous-day lookup for %s-%s %s: %v", rec.Origin, rec.Destination, rec.Date, err)
		metrics.PrevDayLookupMisses.Inc()
		return domain.PriceDelta{}
	}
	if len(prev) == 0 {
		metrics.PrevDayLookupMisses.Inc()
		return domain.PriceDelta{}
	}

	return domain.KnownDelta(domain.CentsToPrice(rec.PriceCents - prev[0].PriceCents))
}

// previousDay subtracts one calendar day from a YYYYMMDD snapshot date,
// rolling over month and year boundaries.
func previousDay(dateRetrieved string) (string, error) {
	day, err := time.Parse(domain.DateLayout, dateRetrieved)
	if err != nil {
		return "", err
	}
	return day.AddDate(0, 0, -1).Format(domain.DateLayout), nil
}

func (s *FareService) maybeAlert(ctx context.Context, row domain.PricedFare) {
	if s.producer == nil || s.dropThreshold <= 0 {
		return
	}
	if !row.PriceChange.Known || row.PriceChange.Value > -s.dropThreshold {
		return
	}

	event := kafka.FareDropEvent{
		Origin:        row.Origin,
		Destination:   row.Destination,
		Date:          row.Date,
		DateRetrieved: row.DateRetrieved,
		FlightType:    row.Type,
		Price:         row.Price,
		PriceChange:   row.PriceChange.Value,
	}
	if err := s.producer.Publish(ctx, s.alertsTopic, event.Key(), event); err != nil {
		log.Printf("publish fare-drop alert for %s: %v", event.Key(), err)
		return
	}
	metrics.AlertsPublished.Inc()
}

// pairCandidate keeps minor-unit totals until final conversion so rounding
// happens once, on the sum.
type pairCandidate struct {
	forth      domain.FareRecord
	back       domain.FareRecord
	totalCents int64
}

// Roundtrip matches forth and back legs sharing an itinerary key where the
// back travel date is strictly later, and returns the 100 cheapest pairs by
// total price.
func (s *FareService) Roundtrip(ctx context.Context, q search.Query) ([]domain.FarePair, error) {
	timer := time.Now()
	defer func() {
		metrics.SearchDuration.WithLabelValues("roundtrip").Observe(time.Since(timer).Seconds())
	}()
	metrics.SearchesTotal.WithLabelValues("roundtrip").Inc()

	key := q.Fingerprint()
	if s.cache != nil {
		if cached, err := s.cache.GetRoundtrip(ctx, key); err == nil && cached != nil {
			return cached, nil
		}
	}

	forth, err := s.repo.Search(ctx, q.WithTerm("direction", domain.DirectionForth), legFetchLimit)
	if err != nil {
		metrics.SearchErrorsTotal.WithLabelValues("roundtrip").Inc()
		return nil, err
	}
	back, err := s.repo.Search(ctx, q.WithTerm("direction", domain.DirectionBack), legFetchLimit)
	if err != nil {
		metrics.SearchErrorsTotal.WithLabelValues("roundtrip").Inc()
		return nil, err
	}

	candidates := matchPairs(forth, back)

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].totalCents < candidates[j].totalCents
	})
	if len(candidates) > roundtripLimit {
		candidates = candidates[:roundtripLimit]
	}

	rows := make([]domain.FarePair, 0, len(candidates))
	for _, c := range candidates {
		rows = append(rows, domain.FarePair{
			Origin:      c.forth.Origin,
			Destination: c.forth.Destination,
			ForthDate:   c.forth.Date,
			BackDate:    c.back.Date,
			ForthPrice:  domain.CentsToPrice(c.forth.PriceCents),
			BackPrice:   domain.CentsToPrice(c.back.PriceCents),
			TotalPrice:  domain.CentsToPrice(c.totalCents),
		})
	}

	if s.cache != nil {
		_ = s.cache.SetRoundtrip(ctx, key, rows)
	}
	return rows, nil
}

type itineraryKey struct {
	origin      string
	destination string
}

type datedRecord struct {
	rec  domain.FareRecord
	date time.Time
}

// matchPairs enumerates valid (forth, back) combinations. Grouping the back
// legs by itinerary key first cuts the cross-join down to same-itinerary
// pairs; output order and content are identical to the naive version.
// Records with unparseable travel dates are skipped, not fatal.
func matchPairs(forth, back []domain.FareRecord) []pairCandidate {
	backByItinerary := make(map[itineraryKey][]datedRecord)
	for _, b := range back {
		date, err := time.Parse(domain.DateLayout, b.Date)
		if err != nil {
			continue
		}
		k := itineraryKey{origin: b.Origin, destination: b.Destination}
		backByItinerary[k] = append(backByItinerary[k], datedRecord{rec: b, date: date})
	}

	var candidates []pairCandidate
	for _, f := range forth {
		forthDate, err := time.Parse(domain.DateLayout, f.Date)
		if err != nil {
			continue
		}
		k := itineraryKey{origin: f.Origin, destination: f.Destination}
		for _, b := range backByItinerary[k] {
			if !b.date.After(forthDate) {
				continue
			}
			candidates = append(candidates, pairCandidate{
				forth:      f,
				back:       b.rec,
				totalCents: f.PriceCents + b.rec.PriceCents,
			})
		}
	}
	return candidates
}

var _ FareUseCase = (*FareService)(nil)
