package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeFareRecord(t *testing.T) {
	source := []byte(`{"origin":"FRA","destination":"LIS","date":"20250310","date_retrieved":"20250302","type":"oneway","price":15000}`)

	rec, err := DecodeFareRecord("doc-1", source)

	assert.NoError(t, err)
	assert.Equal(t, "doc-1", rec.ID)
	assert.Equal(t, "FRA", rec.Origin)
	assert.Equal(t, int64(15000), rec.PriceCents)
}

func TestDecodeFareRecord_MissingRequiredField(t *testing.T) {
	source := []byte(`{"origin":"FRA","date":"20250310","date_retrieved":"20250302","type":"oneway","price":15000}`)

	_, err := DecodeFareRecord("doc-1", source)

	assert.ErrorContains(t, err, "missing destination")
}

func TestFareRecord_Validate(t *testing.T) {
	base := FareRecord{
		ID: "1", Origin: "FRA", Destination: "LIS",
		Date: "20250310", DateRetrieved: "20250302",
		Type: FlightTypeOneway, PriceCents: 15000,
	}
	assert.NoError(t, base.Validate())

	unknownType := base
	unknownType.Type = "charter"
	assert.ErrorContains(t, unknownType.Validate(), "unknown type")

	roundtripNoDirection := base
	roundtripNoDirection.Type = FlightTypeRoundtrip
	assert.ErrorContains(t, roundtripNoDirection.Validate(), "direction")

	roundtripOK := roundtripNoDirection
	roundtripOK.Direction = DirectionForth
	assert.NoError(t, roundtripOK.Validate())

	negative := base
	negative.PriceCents = -1
	assert.ErrorContains(t, negative.Validate(), "negative price")
}

func TestCentsToPrice(t *testing.T) {
	assert.Equal(t, 150.00, CentsToPrice(15000))
	assert.Equal(t, 0.01, CentsToPrice(1))
	assert.Equal(t, -10.00, CentsToPrice(-1000))
	// Idempotent for a given input.
	assert.Equal(t, CentsToPrice(12345), CentsToPrice(12345))
}

func TestPriceDelta_JSON(t *testing.T) {
	known, err := json.Marshal(KnownDelta(10.00))
	assert.NoError(t, err)
	assert.Equal(t, "10", string(known))

	unknown, err := json.Marshal(PriceDelta{})
	assert.NoError(t, err)
	assert.Equal(t, `"N/A"`, string(unknown))

	var d PriceDelta
	assert.NoError(t, json.Unmarshal([]byte(`"N/A"`), &d))
	assert.False(t, d.Known)

	assert.NoError(t, json.Unmarshal([]byte(`-2.5`), &d))
	assert.Equal(t, KnownDelta(-2.5), d)
}

func TestPricedFare_JSONShape(t *testing.T) {
	row := PricedFare{
		Origin: "FRA", Destination: "LIS",
		DateRetrieved: "20250302", Date: "20250310",
		Price: 150.00, Type: FlightTypeOneway,
	}

	data, err := json.Marshal(row)
	assert.NoError(t, err)
	assert.JSONEq(t, `{
		"origin":"FRA","destination":"LIS",
		"date_retrieved":"20250302","date":"20250310",
		"price":150,"type":"oneway",
		"price_change_vs_previous_day":"N/A"
	}`, string(data))
}
