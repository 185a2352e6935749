package server

import (
	"encoding/json"
	"net/http"
)

// returnJSON writes resp with statusCode. Headers are already sent when encoding fails, so
// the failure is logged rather than reported to the client.
func (s *Server) returnJSON(w http.ResponseWriter, resp any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.log.Error().Err(err).Int("status", statusCode).Msg("encoding response")
	}
}

func (s *Server) returnErrorJSON(w http.ResponseWriter, msg string, statusCode int) {
	s.returnJSON(w, map[string]any{"error": msg}, statusCode)
}
