package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/avdeenkov/farewatch/internal/domain"
	"github.com/avdeenkov/farewatch/internal/search"
	"github.com/avdeenkov/farewatch/internal/service/fares"
	"github.com/gin-gonic/gin"
)

type FareHandler struct {
	service fares.FareUseCase
}

func NewFareHandler(service fares.FareUseCase) *FareHandler {
	return &FareHandler{service: service}
}

func (h *FareHandler) Register(router *gin.RouterGroup) {
	router.GET("/oneway", h.oneway)
	router.GET("/roundtrip", h.roundtrip)
}

func (h *FareHandler) oneway(c *gin.Context) {
	q, ok := h.buildQuery(c, domain.FlightTypeOneway)
	if !ok {
		return
	}
	rows, err := h.service.Oneway(c.Request.Context(), q)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (h *FareHandler) roundtrip(c *gin.Context) {
	q, ok := h.buildQuery(c, domain.FlightTypeRoundtrip)
	if !ok {
		return
	}
	rows, err := h.service.Roundtrip(c.Request.Context(), q)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, rows)
}

// buildQuery normalizes the raw query parameters and builds the store
// predicate. Validation failures answer 400 here; no retrieval has happened
// yet at that point.
func (h *FareHandler) buildQuery(c *gin.Context, flightType string) (search.Query, bool) {
	filter := search.Filter{
		Destinations:     search.SplitCodes(c.Query("destination")),
		OriginExclusions: search.SplitCodes(c.Query("exclude_origins")),
		OriginInclusions: search.SplitCodes(c.Query("include_origins")),
		FlightType:       flightType,
		MinDate:          strings.TrimSpace(c.Query("min_date")),
		MaxDate:          strings.TrimSpace(c.Query("max_date")),
		DateRetrieved:    strings.TrimSpace(c.Query("date_retrieved")),
		ConcreteDate:     strings.TrimSpace(c.Query("date")),
	}

	q, err := search.Build(filter)
	if err != nil {
		if errors.Is(err, search.ErrNoDestination) || errors.Is(err, search.ErrBadFlightType) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return search.Query{}, false
	}
	return q, true
}
