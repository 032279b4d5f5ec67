// Package server exposes the runner over HTTP: start and inspect runs, fetch
// the trajectory log as CSV and follow progress on a websocket.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	errorsmod "cosmossdk.io/errors"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/oxygene76/ballistics-client/internal/types"
	"github.com/oxygene76/ballistics-client/pkg/astronomy/ballistic"
	"github.com/oxygene76/ballistics-client/pkg/compute"
	"github.com/oxygene76/ballistics-client/pkg/metrics"
	"github.com/oxygene76/ballistics-client/pkg/runner"
	"github.com/oxygene76/ballistics-client/pkg/utils"
)

// Server serves the ballistics API
type Server struct {
	defaults utils.SimulationConfig
	runner   *runner.Runner
	log      zerolog.Logger
	interval time.Duration
	upgrader websocket.Upgrader
	started  time.Time
}

// New creates a server. defaults fills any field a run request leaves empty.
func New(defaults utils.SimulationConfig, r *runner.Runner, streamInterval time.Duration, log zerolog.Logger) *Server {
	return &Server{
		defaults: defaults,
		runner:   r,
		log:      log.With().Str("component", "server").Logger(),
		interval: streamInterval,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		started: time.Now(),
	}
}

// Router builds the HTTP routes.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()

	api := r.PathPrefix("/api/v1").Subrouter()

	// Runs
	api.HandleFunc("/runs", s.handleStartRun).Methods("POST")
	api.HandleFunc("/runs/current", s.handleCurrentRun).Methods("GET")
	api.HandleFunc("/runs/current", s.handleStopRun).Methods("DELETE")
	api.HandleFunc("/runs/current/log.csv", s.handleCurrentLog).Methods("GET")
	api.HandleFunc("/runs/{id}", s.handleGetRun).Methods("GET")

	// Sweeps run to completion within the request.
	api.HandleFunc("/sweeps", s.handleSweep).Methods("POST")

	// Reference data
	api.HandleFunc("/presets", s.handlePresets).Methods("GET")

	// Progress stream
	api.HandleFunc("/stream", s.handleStream).Methods("GET")

	r.HandleFunc("/health", s.handleHealth).Methods("GET")
	r.Handle("/metrics", metrics.Handler()).Methods("GET")

	r.Use(metrics.Middleware)
	r.Use(corsMiddleware)
	return r
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// launchConfig merges a request over the defaults (or over a preset).
func (s *Server) launchConfig(req types.RunRequest) (ballistic.LaunchConfig, error) {
	sim := s.defaults
	if req.Preset != "" {
		p, err := utils.GetPreset(req.Preset)
		if err != nil {
			return ballistic.LaunchConfig{}, err
		}
		sim = p.Simulation
	}

	for _, f := range []struct {
		src string
		dst *string
	}{
		{req.Lat, &sim.Lat},
		{req.Lon, &sim.Lon},
		{req.Height, &sim.Height},
		{req.Azm, &sim.Azm},
		{req.Alt, &sim.Alt},
		{req.Speed, &sim.Speed},
		{req.Radius, &sim.Radius},
		{req.RotationPeriod, &sim.RotationPeriod},
		{req.DeltaTime, &sim.DeltaTime},
		{req.LogInterval, &sim.LogInterval},
		{req.GSurfaceAcc, &sim.GSurfaceAcc},
	} {
		if f.src != "" {
			*f.dst = f.src
		}
	}
	return sim.LaunchConfig()
}

func (s *Server) handleStartRun(w http.ResponseWriter, r *http.Request) {
	var req types.RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, errorsmod.Wrapf(types.ErrInvalidConfig, "invalid request body: %v", err))
		return
	}

	cfg, err := s.launchConfig(req)
	if err != nil {
		s.writeError(w, err)
		return
	}

	id := s.runner.Start(cfg)
	snap, err := s.runner.Get(id)
	if err != nil {
		// Already superseded by a concurrent request.
		s.writeError(w, err)
		return
	}

	w.Header().Set("Location", "/api/v1/runs/"+id)
	s.writeJSON(w, http.StatusAccepted, types.RunResponse{
		ID:         id,
		Generation: snap.Generation,
		Config:     cfg,
	})
}

func (s *Server) handleCurrentRun(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.runner.Current()
	if !ok {
		s.writeError(w, errorsmod.Wrap(types.ErrRunNotFound, "no run started"))
		return
	}
	s.writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleStopRun(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.runner.Current(); !ok {
		s.writeError(w, errorsmod.Wrap(types.ErrRunNotFound, "no run started"))
		return
	}
	s.runner.Stop()
	snap, _ := s.runner.Current()
	s.writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleCurrentLog(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.runner.Current()
	if !ok {
		s.writeError(w, errorsmod.Wrap(types.ErrRunNotFound, "no run started"))
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("X-Run-Id", snap.ID)
	if err := ballistic.WriteCSV(w, snap.Samples); err != nil {
		s.log.Warn().Err(err).Str("run", snap.ID).Msg("write log")
	}
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	snap, err := s.runner.Get(vars["id"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleSweep(w http.ResponseWriter, r *http.Request) {
	var req types.SweepRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, errorsmod.Wrapf(types.ErrInvalidConfig, "invalid request body: %v", err))
		return
	}

	base, err := s.launchConfig(req.RunRequest)
	if err != nil {
		s.writeError(w, err)
		return
	}

	axis := compute.Axis(req.Axis)
	from, err := axis.Parse(req.From)
	if err != nil {
		s.writeError(w, err)
		return
	}
	to, err := axis.Parse(req.To)
	if err != nil {
		s.writeError(w, err)
		return
	}

	res, err := compute.Sweep(r.Context(), compute.Request{
		Base:    base,
		Axis:    axis,
		From:    from,
		To:      to,
		Points:  req.Points,
		Options: runner.Options{MaxSteps: req.MaxSteps},
	}, s.log, nil)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

type presetResponse struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Simulation  utils.SimulationConfig `json:"simulation"`
}

func (s *Server) handlePresets(w http.ResponseWriter, r *http.Request) {
	list := utils.Presets()
	resp := make([]presetResponse, 0, len(list))
	for _, p := range list {
		resp = append(resp, presetResponse{Name: p.Name, Description: p.Description, Simulation: p.Simulation})
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(s.started).Round(time.Second).String(),
	}
	if snap, ok := s.runner.Current(); ok {
		resp["run"] = snap.ID
		resp["run_status"] = snap.Status
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// writeJSON encodes v before the header goes out. A value that cannot be
// encoded (NaN coordinates at a pole) is answered with a 500.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	b, err := json.Marshal(v)
	if err != nil {
		s.log.Error().Err(err).Int("status", status).Msg("failed to encode response")
		b, _ = json.Marshal(types.ErrorResponse{Error: "failed to encode response: " + err.Error()})
		status = http.StatusInternalServerError
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(b, '\n')); err != nil {
		s.log.Debug().Err(err).Msg("write response")
	}
}

// writeError maps registered error codes to HTTP statuses.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, types.ErrInvalidConfig), errors.Is(err, types.ErrInvalidUnit):
		status = http.StatusBadRequest
	case errors.Is(err, types.ErrRunNotFound), errors.Is(err, types.ErrRunSuperseded):
		status = http.StatusNotFound
	}

	codespace, code, _ := errorsmod.ABCIInfo(err, false)
	s.writeJSON(w, status, types.ErrorResponse{
		Error:     err.Error(),
		Codespace: codespace,
		Code:      code,
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
