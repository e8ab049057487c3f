package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const (
	// SagasPath is the collection route for create and list.
	SagasPath   = "/sagas"
	MetricsPath = "/metrics"

	maxBodyBytes = 32 << 10
)

type createResponse struct {
	ID string `json:"id"`
}

type listResponse struct {
	Results []Record `json:"results"`
}

// createRequest mirrors SagaRequest with pointers so missing required fields
// can be told apart from empty ones.
type createRequest struct {
	Target    *string   `json:"target"`
	TargetID  *string   `json:"target_id"`
	TargetRef *[]string `json:"target_ref"`
	Timeout   *string   `json:"timeout"`
	InOrder   *bool     `json:"in_order"`
}

func (r createRequest) validate() (SagaRequest, error) {
	var missing []string
	if r.Target == nil {
		missing = append(missing, "target")
	}
	if r.TargetID == nil {
		missing = append(missing, "target_id")
	}
	if r.TargetRef == nil {
		missing = append(missing, "target_ref")
	}
	if len(missing) > 0 {
		return SagaRequest{}, fmt.Errorf("missing field(s): %v", missing)
	}
	return SagaRequest{
		Target:    *r.Target,
		TargetID:  *r.TargetID,
		TargetRef: *r.TargetRef,
		Timeout:   r.Timeout,
		InOrder:   r.InOrder,
	}, nil
}

// HandlerOptions configures NewHandler. Zero values are usable.
type HandlerOptions struct {
	Logger   *zap.Logger
	Metrics  *Metrics
	Gatherer prometheus.Gatherer // serves /metrics when set
}

// NewHandler routes POST and GET on /sagas to s, plus /metrics when a
// gatherer is given. Every request is logged at debug level.
func NewHandler(s *Store, opts HandlerOptions) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &handler{store: s, logger: logger, metrics: opts.Metrics}

	router := httprouter.New()
	router.RedirectTrailingSlash = false
	router.POST(SagasPath, h.instrument(SagasPath, h.create))
	router.GET(SagasPath, h.instrument(SagasPath, h.list))
	if opts.Gatherer != nil {
		router.Handler(http.MethodGet, MetricsPath, promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}
	return router
}

type handler struct {
	store   *Store
	logger  *zap.Logger
	metrics *Metrics
}

func (h *handler) instrument(route string, next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r, ps)
		elapsed := time.Since(start)

		h.metrics.observe(route, r.Method, rec.status, elapsed)
		h.logger.Debug("HTTP request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Int64("body_bytes", rec.bytes),
			zap.Duration("response_time", elapsed),
			zap.String("remote_addr", r.RemoteAddr),
		)
	}
}

func (h *handler) create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if ct := r.Header.Get("Content-Type"); ct != "" {
		mediaType, _, err := mime.ParseMediaType(ct)
		if err != nil || mediaType != "application/json" {
			writeError(w, http.StatusUnsupportedMediaType, "content type must be application/json")
			return
		}
	}

	var body createRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&body); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	req, err := body.validate()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id := h.store.Insert(req)
	writeJSON(w, http.StatusCreated, createResponse{ID: id.String()})
}

func (h *handler) list(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	writeJSON(w, http.StatusOK, listResponse{Results: h.store.ListAll()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
