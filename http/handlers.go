package http

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"

	"go.uber.org/zap"

	"houseprice/ml"
	"houseprice/monitoring"
)

// PriceUnit is the unit every estimate is expressed in.
const PriceUnit = "Lakhs"

//go:embed templates/index.html
var templateFS embed.FS

var indexTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// HandlerOptions are the optional collaborators of a Handler.
type HandlerOptions struct {
	Logger  *zap.Logger
	Metrics *monitoring.MetricsCollector
	// StrictValidation rejects non-positive sqft, bhk and bath with 400.
	StrictValidation bool
	// AllowedOrigins gates websocket upgrades; empty or "*" allows any.
	AllowedOrigins []string
}

// Handler serves every route from one read-only estimator.
type Handler struct {
	estimator *ml.Estimator
	logger    *zap.Logger
	metrics   *monitoring.MetricsCollector
	strict    bool
	origins   []string
}

// NewHandler panics on a nil estimator; missing options get no-op defaults.
func NewHandler(estimator *ml.Estimator, opts HandlerOptions) *Handler {
	if estimator == nil {
		panic("http: nil estimator")
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Metrics == nil {
		opts.Metrics = monitoring.NewMetricsCollector()
	}
	return &Handler{
		estimator: estimator,
		logger:    opts.Logger,
		metrics:   opts.Metrics,
		strict:    opts.StrictValidation,
		origins:   opts.AllowedOrigins,
	}
}

// Register adds all routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.handleIndex)
	mux.HandleFunc("POST /predict", h.handlePredictForm)
	mux.HandleFunc("GET /api/health", handleHealth)
	mux.HandleFunc("GET /api/locations", h.handleLocations)
	mux.HandleFunc("POST /api/predict", h.handlePredictAPI)
	mux.HandleFunc("GET /api/stats", h.handleStats)
	mux.HandleFunc("GET /ws/predict", h.handleWebSocket)
}

// pageData feeds templates/index.html.
type pageData struct {
	Locations      []string
	Form           formValues
	PredictionText string
	ErrorText      string
}

// handleIndex renders the empty form.
func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	h.renderPage(w, r, http.StatusOK, pageData{})
}

// handlePredictForm prices a submitted form and re-renders the page.
func (h *Handler) handlePredictForm(w http.ResponseWriter, r *http.Request) {
	values, present, err := readFormValues(r)
	if err != nil {
		h.renderBadRequest(w, r, values, err)
		return
	}

	req, err := parsePredictionForm(values, present)
	if err == nil {
		err = h.validate(req)
	}
	if err != nil {
		h.renderBadRequest(w, r, values, err)
		return
	}

	price, err := h.estimate(r, req)
	if err != nil {
		h.renderPage(w, r, http.StatusInternalServerError, pageData{
			Form:      values,
			ErrorText: "The price could not be estimated. Please try again later.",
		})
		return
	}

	h.renderPage(w, r, http.StatusOK, pageData{
		Form:           values,
		PredictionText: "Estimated Price: " + formatPrice(price) + " " + PriceUnit,
	})
}

// renderBadRequest re-renders the form with the error and no price.
func (h *Handler) renderBadRequest(w http.ResponseWriter, r *http.Request, values formValues, err error) {
	h.metrics.Inc(monitoring.MetricBadRequests)
	h.logger.Debug("rejected prediction form",
		zap.String("request_id", GetRequestID(r.Context())),
		zap.Error(err),
	)
	h.renderPage(w, r, http.StatusBadRequest, pageData{
		Form:      values,
		ErrorText: "Invalid input: " + err.Error(),
	})
}

// renderPage executes the template into a buffer before writing status.
func (h *Handler) renderPage(w http.ResponseWriter, r *http.Request, status int, data pageData) {
	data.Locations = h.estimator.Locations()

	var buf bytes.Buffer
	if err := indexTemplate.Execute(&buf, data); err != nil {
		h.logger.Error("render index template",
			zap.String("request_id", GetRequestID(r.Context())),
			zap.Error(err),
		)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// handleHealth is the liveness probe.
func handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleLocations lists the schema locations.
func (h *Handler) handleLocations(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string][]string{"locations": h.estimator.Locations()})
}

// predictResponse is a successful estimate.
type predictResponse struct {
	Price float64 `json:"price"`
	Unit  string  `json:"unit"`
}

// errorResponse is the JSON error body.
type errorResponse struct {
	Error string `json:"error"`
}

// handlePredictAPI prices a JSON request.
func (h *Handler) handlePredictAPI(w http.ResponseWriter, r *http.Request) {
	var body predictRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		h.metrics.Inc(monitoring.MetricBadRequests)
		respondError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	status, resp := h.predictJSON(r, body)
	respondJSON(w, status, resp)
}

// predictJSON is shared by the JSON API and the websocket stream.
func (h *Handler) predictJSON(r *http.Request, body predictRequest) (int, any) {
	req, err := body.featureRequest()
	if err == nil {
		err = h.validate(req)
	}
	if err != nil {
		h.metrics.Inc(monitoring.MetricBadRequests)
		return http.StatusBadRequest, errorResponse{Error: err.Error()}
	}

	price, err := h.estimate(r, req)
	if err != nil {
		return http.StatusInternalServerError, errorResponse{Error: "internal server error"}
	}
	return http.StatusOK, predictResponse{Price: price, Unit: PriceUnit}
}

// handleStats reports metrics and cache usage.
func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, struct {
		monitoring.Snapshot
		CacheEntries int `json:"cache_entries"`
		Locations    int `json:"locations"`
	}{
		Snapshot:     h.metrics.Snapshot(),
		CacheEntries: h.estimator.CacheLen(),
		Locations:    len(h.estimator.Locations()),
	})
}

// validate applies bounds checks in strict mode only.
func (h *Handler) validate(req ml.FeatureRequest) error {
	if !h.strict {
		return nil
	}
	if err := req.Validate(); err != nil {
		return &FormError{Field: "request", Reason: err.Error()}
	}
	return nil
}

// estimate runs the estimator and records the outcome. A returned error is
// always a server fault.
func (h *Handler) estimate(r *http.Request, req ml.FeatureRequest) (float64, error) {
	requestID := GetRequestID(r.Context())

	if _, ok := h.estimator.Schema().LocationIndex(req.Location); !ok {
		h.metrics.Inc(monitoring.MetricUnknownLocation)
		h.logger.Debug("unknown location, using baseline",
			zap.String("request_id", requestID),
			zap.String("location", req.Location),
		)
	}

	price, err := h.estimator.Estimate(req)
	if err != nil {
		h.metrics.Inc(monitoring.MetricServerErrors)
		if errors.Is(err, ml.ErrDimensionMismatch) {
			h.logger.Error("model and schema disagree",
				zap.String("request_id", requestID),
				zap.Error(err),
			)
		} else {
			h.logger.Error("estimate failed",
				zap.String("request_id", requestID),
				zap.Error(err),
			)
		}
		return 0, err
	}

	h.metrics.Inc(monitoring.MetricPredictions)
	return price, nil
}

// respondJSON encodes before writing the status so an unencodable value
// becomes a 500 instead of a truncated 200.
func respondJSON(w http.ResponseWriter, status int, data any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(data); err != nil {
		status = http.StatusInternalServerError
		buf.Reset()
		buf.WriteString(`{"error":"internal server error"}` + "\n")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// respondError writes {"error": message}.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Error: message})
}
