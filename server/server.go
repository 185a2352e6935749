// Package server serves proofs for one compiled circuit over HTTP.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/noirkit/noirkit/circuit"
)

type Server struct {
	circuit *circuit.Circuit
	log     zerolog.Logger
}

// New creates a server for c, deriving its key pair up front so the first request does not
// pay for the setup.
func New(c *circuit.Circuit, log zerolog.Logger) (*Server, error) {
	if _, err := c.Keys(); err != nil {
		return nil, errors.Wrap(err, "loading circuit keys")
	}
	return &Server{circuit: c, log: log}, nil
}

// Handler returns the routes wrapped in request logging.
func (s *Server) Handler() http.Handler {
	router := http.NewServeMux()
	router.HandleFunc("GET /healthz", s.healthz)
	router.HandleFunc("POST /prove", s.handleProve)
	router.HandleFunc("POST /verify", s.handleVerify)
	return LoggingMiddleware(s.log)(router)
}

// Start listens on addr until ctx is cancelled.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Str("circuit", s.circuit.Program().Name).Msg("starting server")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// healthz returns success if the circuit keys are loaded.
func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	if _, err := s.circuit.Keys(); err != nil {
		s.returnErrorJSON(w, "not ready", http.StatusInternalServerError)
		return
	}
	s.returnJSON(w, "OK", http.StatusOK)
}

// handleProve accepts a JSON object of circuit inputs and returns the proof.
func (s *Server) handleProve(w http.ResponseWriter, r *http.Request) {
	var input circuit.Input
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&input); err != nil {
		s.returnErrorJSON(w, "decoding request", http.StatusBadRequest)
		return
	}

	proof, err := s.circuit.GetProof(r.Context(), input)
	switch {
	case errors.Is(err, circuit.ErrUnsatisfied):
		s.returnErrorJSON(w, err.Error(), http.StatusUnprocessableEntity)
		return
	case err != nil:
		s.log.Error().Err(err).Msg("generating proof")
		s.returnErrorJSON(w, "generating proof", http.StatusBadRequest)
		return
	}

	data, err := json.Marshal(proof)
	if err != nil {
		s.log.Error().Err(err).Msg("serializing proof")
		s.returnErrorJSON(w, "serializing proof", http.StatusInternalServerError)
		return
	}
	s.returnJSON(w, json.RawMessage(data), http.StatusOK)
}

type verifyResponse struct {
	Valid bool `json:"valid"`
}

// handleVerify accepts a proof as returned by /prove and reports whether it verifies.
func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	var proof circuit.Proof
	if err := json.NewDecoder(r.Body).Decode(&proof); err != nil {
		s.returnErrorJSON(w, "decoding request", http.StatusBadRequest)
		return
	}

	ok, err := s.circuit.VerifyProof(r.Context(), &proof)
	if err != nil {
		s.log.Error().Err(err).Msg("verifying proof")
		s.returnErrorJSON(w, "verifying proof", http.StatusInternalServerError)
		return
	}
	s.returnJSON(w, verifyResponse{Valid: ok}, http.StatusOK)
}
