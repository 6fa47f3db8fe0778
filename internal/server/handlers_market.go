package server

import (
	"net/http"
	"strings"

	"github.com/yangbongclub/marketdesk/internal/models"
)

// handleMarket handles GET /api/market?segment=KR&bypassCache=true.
func (s *Server) handleMarket(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	segment := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("segment")))
	if segment == "" {
		segment = models.SegmentKR
	}
	// Short forms the dashboard frontend historically used.
	if segment == "CMD" || segment == "CMDTY" {
		segment = models.SegmentCommodity
	}
	if !models.IsSegment(segment) {
		WriteError(w, http.StatusBadRequest, "Unknown segment: "+segment)
		return
	}

	bypassCache := QueryBool(r, "bypassCache")
	result := s.app.MarketService.GetSegment(r.Context(), segment, bypassCache)
	WriteJSON(w, http.StatusOK, result)
}

// handleMarketAll handles GET /api/market/all.
func (s *Server) handleMarketAll(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	bypassCache := QueryBool(r, "bypassCache")
	results := s.app.MarketService.GetAll(r.Context(), bypassCache)

	bySegment := make(map[string]*models.SegmentResult, len(results))
	for _, res := range results {
		bySegment[res.Segment] = res
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"ok":       true,
		"segments": bySegment,
	})
}
