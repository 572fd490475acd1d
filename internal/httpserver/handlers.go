package httpserver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"finsim/internal/engine"
	"finsim/internal/store"
	"finsim/internal/validate"

	"go.uber.org/zap"
)

func readAll(r *http.Request) ([]byte, error) {
	defer r.Body.Close()
	return io.ReadAll(r.Body)
}

// decodeStrict rejects any field in raw that dest does not declare,
// matching the teacher's server/api.go request decoding so a typo'd
// field name fails loudly instead of being silently ignored.
func decodeStrict(raw []byte, dest interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	return dec.Decode(dest)
}

// Server wires the engine into three JSON endpoints plus /health, with
// response caching, rate limiting, tracing, and an audit trail
// riding alongside — the thin collaborator the engine spec calls for.
type Server struct {
	log         *zap.Logger
	cache       *responseCache
	rateLimiter *rateLimiter
	runs        *store.RunStore
	maxBody     int64
}

// NewServer wires up a Server. cache, rateLimiter, and runs may each be
// nil (e.g. no Redis or Postgres configured); every handler degrades
// gracefully when its collaborator is absent.
func NewServer(log *zap.Logger, cache *responseCache, rl *rateLimiter, runs *store.RunStore, maxBody int64) *Server {
	return &Server{log: log, cache: cache, rateLimiter: rl, runs: runs, maxBody: maxBody}
}

// Routes returns the mux the caller installs on an *http.Server.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/simulate", s.wrap("/simulate", s.handleSimulate))
	mux.HandleFunc("/simulate/branch", s.wrap("/simulate/branch", s.handleBranch))
	mux.HandleFunc("/simulate/compare", s.wrap("/simulate/compare", s.handleCompare))
	mux.HandleFunc("/health", s.handleHealth)
	return mux
}

func (s *Server) wrap(route string, h http.HandlerFunc) http.HandlerFunc {
	wrapped := h
	if s.rateLimiter != nil {
		wrapped = withRateLimit(s.rateLimiter, wrapped)
	}
	wrapped = withLogging(s.log, route, wrapped)
	wrapped = withTracing(route, wrapped)
	return wrapped
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status, body := resolveError(err)
	writeJSON(w, status, body)
}

func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, dest interface{}) ([]byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBody)
	raw, err := readAll(r)
	if err != nil {
		writeError(w, fmt.Errorf("%w: %v", ErrPayloadTooLarge, err))
		return nil, false
	}
	if err := decodeStrict(raw, dest); err != nil {
		writeError(w, fmt.Errorf("%w: %v", ErrValidation, err))
		return nil, false
	}
	if err := validate.Struct(dest); err != nil {
		writeError(w, fmt.Errorf("%w: %v", ErrValidation, err))
		return nil, false
	}
	return raw, true
}

func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, fmt.Errorf("%w: method not allowed", ErrValidation))
		return
	}

	var dto simulationInputDTO
	raw, ok := s.decodeBody(w, r, &dto)
	if !ok {
		return
	}

	key := cacheKeyFor("simulate", raw)
	var cached simulationOutputResponse
	if s.cache.get(r.Context(), key, &cached) {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	out, err := engine.Simulate(toEngineInput(dto))
	if err != nil {
		writeError(w, err)
		return
	}

	resp := toOutputResponse(out)
	s.cache.set(r.Context(), key, resp)
	s.runs.RecordAsync(out, map[string]interface{}{"route": "/simulate", "seed": dto.Seed})

	writeJSON(w, http.StatusOK, resp)
}

type branchResponse struct {
	Baseline    simulationOutputResponse `json:"baseline"`
	Branch      simulationOutputResponse `json:"branch"`
	BranchAtDay int                      `json:"branchAtDay"`
}

func (s *Server) runBranch(w http.ResponseWriter, r *http.Request) (engine.SimulationOutput, engine.SimulationOutput, int, bool) {
	if r.Method != http.MethodPost {
		writeError(w, fmt.Errorf("%w: method not allowed", ErrValidation))
		return engine.SimulationOutput{}, engine.SimulationOutput{}, 0, false
	}

	var dto branchRequestDTO
	if _, ok := s.decodeBody(w, r, &dto); !ok {
		return engine.SimulationOutput{}, engine.SimulationOutput{}, 0, false
	}

	baseline, branch, err := engine.SimulateBranch(
		toEngineInput(dto.BaseInput), dto.BranchAtDay, toEngineInput(dto.ModifiedInput),
	)
	if err != nil {
		writeError(w, err)
		return engine.SimulationOutput{}, engine.SimulationOutput{}, 0, false
	}
	return baseline, branch, dto.BranchAtDay, true
}

func (s *Server) handleBranch(w http.ResponseWriter, r *http.Request) {
	baseline, branch, branchAtDay, ok := s.runBranch(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, branchResponse{
		Baseline:    toOutputResponse(baseline),
		Branch:      toOutputResponse(branch),
		BranchAtDay: branchAtDay,
	})
}

type compareResponse struct {
	Baseline    simulationOutputResponse `json:"baseline"`
	Branch      simulationOutputResponse `json:"branch"`
	BranchAtDay int                      `json:"branchAtDay"`
	Deltas      branchDeltasResponse     `json:"deltas"`
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	baseline, branch, branchAtDay, ok := s.runBranch(w, r)
	if !ok {
		return
	}

	deltas, err := engine.CompareBranches(baseline, branch, branchAtDay)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, compareResponse{
		Baseline:    toOutputResponse(baseline),
		Branch:      toOutputResponse(branch),
		BranchAtDay: branchAtDay,
		Deltas:      toDeltasResponse(deltas),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
