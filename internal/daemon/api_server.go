package daemon

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"tally/internal/api"
	"tally/internal/logging"
)

// apiServer adapts the feature service to HTTP. Handlers stay thin: parsing
// and status mapping here, behavior in the service.
type apiServer struct {
	logger   *slog.Logger
	service  *api.Service
	status   func(context.Context) api.StatusSnapshot
	shutdown func()
}

func newAPIServer(service *api.Service, logger *slog.Logger, status func(context.Context) api.StatusSnapshot, shutdown func()) *apiServer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &apiServer{
		logger:   logging.NewComponentLogger(logger, "api"),
		service:  service,
		status:   status,
		shutdown: shutdown,
	}
}

func (s *apiServer) routes() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(s.requestLogger)

	router.Get("/health", s.handleHealth)
	router.Get("/status", s.handleStatus)
	router.Post("/control/shutdown", s.handleShutdown)

	router.Route("/features", func(r chi.Router) {
		r.Get("/", s.handleList)
		r.Post("/", s.handleCreate)
		r.Post("/bulk", s.handleCreateBulk)
		r.Get("/next", s.handleNext)
		r.Get("/stats", s.handleStats)
		r.Get("/{id}", s.handleGet)
		r.Patch("/{id}", s.handleSetPasses)
		r.Delete("/{id}", s.handleDelete)
	})

	return router
}

// handleHealth always answers 200; degradation is reported in the body so
// that agents polling during startup can distinguish "not yet listening"
// from "listening but broken".
func (s *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.service.Health(r.Context()))
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.status(r.Context()))
}

func (s *apiServer) handleShutdown(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusAccepted, api.ShutdownResponse{Stopping: true})
	s.shutdown()
}

func (s *apiServer) handleList(w http.ResponseWriter, r *http.Request) {
	req := api.DefaultListRequest()
	query := r.URL.Query()
	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			s.writeError(w, http.StatusUnprocessableEntity, "limit must be an integer")
			return
		}
		req.Limit = limit
	}
	if raw := query.Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil {
			s.writeError(w, http.StatusUnprocessableEntity, "offset must be an integer")
			return
		}
		req.Offset = offset
	}
	if raw := query.Get("passes"); raw != "" {
		passes, err := strconv.ParseBool(raw)
		if err != nil {
			s.writeError(w, http.StatusUnprocessableEntity, "passes must be a boolean")
			return
		}
		req.Passes = &passes
	}
	req.Category = query.Get("category")

	list, err := s.service.List(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, list)
}

func (s *apiServer) handleCreate(w http.ResponseWriter, r *http.Request) {
	var input api.FeatureInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}
	created, err := s.service.Create(r.Context(), input)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	logging.WithContext(r.Context(), s.logger).Info("feature created",
		logging.Int64(logging.FieldFeatureID, created.ID),
		logging.String("category", created.Category))
	s.writeJSON(w, http.StatusCreated, created)
}

func (s *apiServer) handleCreateBulk(w http.ResponseWriter, r *http.Request) {
	var req api.BulkCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}
	created, err := s.service.CreateBulk(r.Context(), req.Features)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	logging.WithContext(r.Context(), s.logger).Info("features created",
		logging.Int64("count", created))
	s.writeJSON(w, http.StatusCreated, api.BulkCreateResponse{Created: created})
}

func (s *apiServer) handleNext(w http.ResponseWriter, r *http.Request) {
	next, err := s.service.NextPending(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, next)
}

func (s *apiServer) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.service.Stats(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, stats)
}

func (s *apiServer) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := s.featureID(w, r)
	if !ok {
		return
	}
	r = r.WithContext(logging.WithFeatureID(r.Context(), id))
	f, err := s.service.Get(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, f)
}

func (s *apiServer) handleSetPasses(w http.ResponseWriter, r *http.Request) {
	id, ok := s.featureID(w, r)
	if !ok {
		return
	}
	var req api.UpdatePassesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}
	r = r.WithContext(logging.WithFeatureID(r.Context(), id))
	updated, err := s.service.SetPasses(r.Context(), id, req.Passes)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	logging.WithContext(r.Context(), s.logger).Info("feature passes updated",
		logging.Bool("passes", updated.Passes))
	s.writeJSON(w, http.StatusOK, updated)
}

func (s *apiServer) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := s.featureID(w, r)
	if !ok {
		return
	}
	r = r.WithContext(logging.WithFeatureID(r.Context(), id))
	if err := s.service.Delete(r.Context(), id); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	logging.WithContext(r.Context(), s.logger).Info("feature deleted")
	s.writeJSON(w, http.StatusNoContent, nil)
}

func (s *apiServer) featureID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, "feature id must be an integer")
		return 0, false
	}
	return id, true
}

func (s *apiServer) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch api.KindOf(err) {
	case api.KindValidation:
		s.writeError(w, http.StatusUnprocessableEntity, err.Error())
	case api.KindNotFound:
		s.writeError(w, http.StatusNotFound, err.Error())
	default:
		logging.WithContext(r.Context(), s.logger).Error("api request failed",
			logging.Error(err))
		s.writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

func (s *apiServer) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		// Mirror the router's request id into the logging context so handler
		// logs carry it without reaching back into chi.
		reqID := middleware.GetReqID(r.Context())
		r = r.WithContext(logging.WithRequestID(r.Context(), reqID))
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("api request",
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
			logging.Int("status", ww.Status()),
			logging.Duration("duration", time.Since(start)),
			logging.String(logging.FieldRequestID, reqID))
	})
}
