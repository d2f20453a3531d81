package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/avdeenkov/farewatch/config"
	"github.com/avdeenkov/farewatch/internal/domain"
	"github.com/avdeenkov/farewatch/internal/search"
	elasticsearch "github.com/elastic/go-elasticsearch/v8"
)

// FareRepository retrieves fare records matching a predicate, sorted
// ascending by price, at most size rows.
type FareRepository interface {
	Search(ctx context.Context, q search.Query, size int) ([]domain.FareRecord, error)
}

type ESFareRepository struct {
	client *elasticsearch.Client
	index  string
}

func NewESFareRepository(cfg config.ElasticsearchConfig) (*ESFareRepository, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}
	return &ESFareRepository{client: client, index: cfg.Index}, nil
}

// NewESFareRepositoryWithClient wires a preconfigured client, used by tests
// to substitute a fake transport.
func NewESFareRepositoryWithClient(client *elasticsearch.Client, index string) *ESFareRepository {
	return &ESFareRepository{client: client, index: index}
}

type esHit struct {
	ID     string          `json:"_id"`
	Source json.RawMessage `json:"_source"`
}

type esSearchResponse struct {
	Hits struct {
		Hits []esHit `json:"hits"`
	} `json:"hits"`
}

func (r *ESFareRepository) Search(ctx context.Context, q search.Query, size int) ([]domain.FareRecord, error) {
	body := map[string]any{
		"query": esQuery(q),
		"sort":  []any{map[string]any{"price": map[string]any{"order": "asc"}}},
		"size":  size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, fmt.Errorf("encode search body: %w", err)
	}

	res, err := r.client.Search(
		r.client.Search.WithContext(ctx),
		r.client.Search.WithIndex(r.index),
		r.client.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, fmt.Errorf("search fares: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		msg, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("search fares: %s: %s", res.Status(), msg)
	}

	var parsed esSearchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	records := make([]domain.FareRecord, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		rec, err := domain.DecodeFareRecord(hit.ID, hit.Source)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func esQuery(q search.Query) map[string]any {
	must := make([]any, 0, len(q.Must))
	for _, c := range q.Must {
		must = append(must, esClause(c))
	}
	mustNot := make([]any, 0, len(q.MustNot))
	for _, c := range q.MustNot {
		mustNot = append(mustNot, esClause(c))
	}
	return map[string]any{
		"bool": map[string]any{
			"must":     must,
			"must_not": mustNot,
		},
	}
}

func esClause(c search.Clause) map[string]any {
	switch c := c.(type) {
	case search.Term:
		return map[string]any{"term": map[string]any{c.Field: c.Value}}
	case search.Terms:
		return map[string]any{"terms": map[string]any{c.Field: c.Values}}
	case search.Range:
		bounds := map[string]any{}
		if c.GTE != "" {
			bounds["gte"] = c.GTE
		}
		if c.LTE != "" {
			bounds["lte"] = c.LTE
		}
		return map[string]any{"range": map[string]any{c.Field: bounds}}
	default:
		panic(fmt.Sprintf("unknown clause type %T", c))
	}
}

var _ FareRepository = (*ESFareRepository)(nil)
