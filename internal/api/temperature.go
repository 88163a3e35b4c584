package api

import "net/http"

// handleTemperature returns the thermal history and its trend.
func (s *Server) handleTemperature(w http.ResponseWriter, _ *http.Request) {
	if s.thermal == nil {
		writeNotFound(w, "thermal monitor is disabled")
		return
	}

	temps := s.thermal.Temperatures()
	if temps == nil {
		temps = []float64{}
	}
	resp := map[string]any{
		"temperatures": temps,
		"decreasing":   s.thermal.IsDecreasing(),
		"capacity":     s.thermal.Capacity(),
	}
	if avg, ok := s.thermal.Average(0, len(temps)); ok {
		resp["average"] = avg
	}

	writeJSON(w, http.StatusOK, resp)
}
