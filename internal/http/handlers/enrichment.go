// Package handlers implements the HTTP surface over the enrichment
// service and the conversation manager.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/isndotbiz/spiritatlas/internal/enrichment"
	"github.com/isndotbiz/spiritatlas/internal/usage"
	"github.com/isndotbiz/spiritatlas/pkg/logging"
)

// EnrichmentHandler serves enrichment and insight generation endpoints.
type EnrichmentHandler struct {
	service *enrichment.Service
	logger  *logging.Logger
}

func NewEnrichmentHandler(service *enrichment.Service, logger *logging.Logger) *EnrichmentHandler {
	if service == nil {
		panic("handlers: enrichment service is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &EnrichmentHandler{service: service, logger: logger}
}

type enrichmentRequest struct {
	CompletedFields int               `json:"completedFields"`
	TotalFields     int               `json:"totalFields"`
	Numerology      map[string]string `json:"numerology"`
	Astrology       map[string]string `json:"astrology"`
	EnergyProfile   map[string]string `json:"energyProfile"`
	PersonalDetails map[string]string `json:"personalDetails"`
}

type enrichmentResponse struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Provider   string  `json:"provider"`
}

// Generate handles POST /v1/enrichment.
func (h *EnrichmentHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req enrichmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.CompletedFields < 0 || req.TotalFields < req.CompletedFields {
		writeError(w, http.StatusBadRequest, "completedFields must be between 0 and totalFields")
		return
	}

	ec := enrichment.NewContext(req.CompletedFields, req.TotalFields,
		req.Numerology, req.Astrology, req.EnergyProfile, req.PersonalDetails)
	res, providerID, err := h.service.GenerateEnrichment(r.Context(), ec)
	if err != nil {
		h.writeProviderError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, enrichmentResponse{Text: res.Text, Confidence: res.Confidence, Provider: providerID})
}

type dailyInsightRequest struct {
	ProfileID      string `json:"profileId"`
	ProfileSummary string `json:"profileSummary"`
	Date           string `json:"date"`
	PersonalYear   int    `json:"personalYear"`
	PersonalMonth  int    `json:"personalMonth"`
	PersonalDay    int    `json:"personalDay"`
}

// DailyInsight handles POST /v1/insights/daily.
func (h *EnrichmentHandler) DailyInsight(w http.ResponseWriter, r *http.Request) {
	var req dailyInsightRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ProfileID == "" {
		writeError(w, http.StatusBadRequest, "profileId is required")
		return
	}
	date := time.Now().UTC()
	if req.Date != "" {
		parsed, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		date = parsed
	}

	result, err := h.service.GenerateDailyInsight(r.Context(), enrichment.DailyInsightRequest{
		ProfileID:      req.ProfileID,
		ProfileSummary: req.ProfileSummary,
		Date:           date,
		PersonalYear:   req.PersonalYear,
		PersonalMonth:  req.PersonalMonth,
		PersonalDay:    req.PersonalDay,
	})
	if err != nil {
		h.writeProviderError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type compatibilityRequest struct {
	ProfileA string             `json:"profileA"`
	ProfileB string             `json:"profileB"`
	Scores   map[string]float64 `json:"scores"`
}

// Compatibility handles POST /v1/insights/compatibility.
func (h *EnrichmentHandler) Compatibility(w http.ResponseWriter, r *http.Request) {
	var req compatibilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	result, err := h.service.GenerateCompatibility(r.Context(), req.ProfileA, req.ProfileB, req.Scores)
	if err != nil {
		h.writeProviderError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// writeProviderError maps the provider error taxonomy onto HTTP statuses.
func (h *EnrichmentHandler) writeProviderError(w http.ResponseWriter, err error) {
	var pe *enrichment.ProviderError
	if !errors.As(err, &pe) {
		h.logger.Error("enrichment request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	switch pe.Kind {
	case enrichment.KindConfiguration:
		writeError(w, http.StatusServiceUnavailable, "no AI provider is configured for this request")
	case enrichment.KindAuthentication, enrichment.KindForbidden:
		writeError(w, http.StatusBadGateway, "provider rejected our credentials")
	case enrichment.KindRateLimited:
		if pe.RetryAfter > 0 {
			secs := int(pe.RetryAfter / time.Second)
			if secs < 1 {
				secs = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(secs))
		}
		writeError(w, http.StatusTooManyRequests, "provider quota exhausted, "+usage.FormatWait(pe.RetryAfter))
	case enrichment.KindEmptyResponse:
		writeError(w, http.StatusBadGateway, "provider returned no usable content")
	default:
		writeError(w, http.StatusBadGateway, "provider request failed, please retry")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
