package routes

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/fieldplan/allocator/internal/apperr"
	"github.com/fieldplan/allocator/internal/candidate"
	"github.com/fieldplan/allocator/internal/domain"
	"github.com/fieldplan/allocator/internal/engine"
	"github.com/fieldplan/allocator/internal/profile"
	"github.com/fieldplan/allocator/internal/store"
	applogger "github.com/fieldplan/allocator/internal/utils/logger"
	"github.com/fieldplan/allocator/internal/utils/validator"
	"github.com/fieldplan/allocator/internal/weather"
	"github.com/fieldplan/allocator/pkg/dto"
)

// OptimizeHandler serves POST /api/v1/optimize and /api/v1/adjust,
// decoding the request body into the dto layer, validating it, and
// handing the resulting domain values to internal/engine. repo,
// weatherSrc, profileSrc, and phenologyCache are each optional: when set,
// they back-fill weather/profile data the request body omits, share
// phenology results across process instances, and record an audit trail
// of every call.
type OptimizeHandler struct {
	log            *zap.Logger
	validate       *validator.CustomValidator
	repo           *store.Repository
	weatherSrc     weather.Source
	profileSrc     profile.Source
	phenologyCache candidate.PhenologyCache
}

// NewOptimizeHandler builds an OptimizeHandler logging through log.
// phenologyCache may be nil, in which case each call memoizes phenology
// results only within its own run.
func NewOptimizeHandler(log *zap.Logger, repo *store.Repository, weatherSrc weather.Source, profileSrc profile.Source, phenologyCache candidate.PhenologyCache) *OptimizeHandler {
	return &OptimizeHandler{
		log:            log,
		validate:       validator.NewValidator(),
		repo:           repo,
		weatherSrc:     weatherSrc,
		profileSrc:     profileSrc,
		phenologyCache: phenologyCache,
	}
}

// Optimize handles POST /api/v1/optimize.
func (h *OptimizeHandler) Optimize(w http.ResponseWriter, r *http.Request) {
	var req dto.OptimizeRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	engineReq := req.ToEngineRequest()
	engineReq.Cache = h.phenologyCache
	if err := h.fillFromCatalog(r.Context(), &engineReq, req.Fields, req.Crops, len(req.Weather), len(req.Profiles)); err != nil {
		h.writeEngineError(w, err)
		return
	}

	result, err := engine.Optimize(engineReq)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	h.recordRun(r.Context(), result, engineReq)

	writeJSON(w, http.StatusOK, dto.OptimizeResponseFromResult(result))
}

// Adjust handles POST /api/v1/adjust.
func (h *OptimizeHandler) Adjust(w http.ResponseWriter, r *http.Request) {
	var req dto.AdjustRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	engineReq := req.ToEngineRequest()
	engineReq.Cache = h.phenologyCache
	if err := h.fillFromCatalog(r.Context(), &engineReq.Request, req.Fields, req.Crops, len(req.Weather), len(req.Profiles)); err != nil {
		h.writeEngineError(w, err)
		return
	}

	result, err := engine.Adjust(engineReq)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	h.recordRun(r.Context(), result.Result, engineReq.Request)

	writeJSON(w, http.StatusOK, dto.AdjustResponseFromResult(result))
}

// fillFromCatalog back-fills engineReq.Weather and engineReq.Profiles from
// the configured Postgres-backed sources when the request body left them
// empty. dto.OptimizeRequest.ToEngineRequest always wraps the (possibly
// empty) inlined weather records in a non-nil phenology.SliceLookup
// closure, so presence is tracked by the caller from the raw request
// instead of by inspecting the built engine.Request. The farm is treated
// as a single weather station, keyed by the first field's ID, since
// internal/phenology's WeatherLookup has no notion of per-field location.
func (h *OptimizeHandler) fillFromCatalog(ctx context.Context, req *engine.Request, fields []dto.FieldInput, crops []dto.CropInput, weatherCount, profileCount int) error {
	if weatherCount == 0 && h.weatherSrc != nil && len(fields) > 0 {
		lookup, err := weather.Lookup(ctx, h.weatherSrc, fields[0].ID, req.Horizon.Start, req.Horizon.End)
		if err != nil {
			applogger.Error(h.log, "catalog weather fetch failed", err)
			return apperr.New(apperr.ErrCodeDataInsufficiency, "failed to fetch weather from catalog: "+err.Error())
		}
		req.Weather = lookup
	}

	if profileCount == 0 && h.profileSrc != nil {
		profiles := make(map[string][]domain.StageRequirement, len(crops))
		for _, c := range crops {
			stages, err := h.profileSrc.FetchProfile(ctx, c.ID)
			if err != nil {
				applogger.Error(h.log, "catalog profile fetch failed", err)
				return apperr.New(apperr.ErrCodeDataInsufficiency, "failed to fetch profile for crop "+c.ID+": "+err.Error())
			}
			profiles[c.ID] = stages
		}
		req.Profiles = profiles
	}

	return nil
}

// recordRun persists an audit record of a finished call when a catalog
// repository is configured. Failure to record is logged, never surfaced to
// the caller: the call itself already succeeded.
func (h *OptimizeHandler) recordRun(ctx context.Context, result engine.Result, req engine.Request) {
	if h.repo == nil {
		return
	}
	run, err := store.NewOptimizationRunRecord(result.AlgorithmUsed, req.Horizon, len(req.Fields), len(req.Crops), result.Solution, result.Diagnostic)
	if err != nil {
		applogger.Error(h.log, "failed to build optimization run record", err)
		return
	}
	if err := h.repo.RecordRun(ctx, run); err != nil {
		applogger.Error(h.log, "failed to persist optimization run record", err)
	}
}

func (h *OptimizeHandler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed request body: " + err.Error()})
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		applogger.Error(h.log, "request validation failed", err)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return false
	}
	return true
}

func (h *OptimizeHandler) writeEngineError(w http.ResponseWriter, err error) {
	applogger.Error(h.log, "optimization call failed", err)

	code := apperr.Code(err)
	status := http.StatusInternalServerError
	switch code {
	case apperr.ErrCodeInputValidation:
		status = http.StatusBadRequest
	case apperr.ErrCodeDataInsufficiency:
		status = http.StatusUnprocessableEntity
	case apperr.ErrCodeInternalInvariant:
		status = http.StatusInternalServerError
	}

	writeJSON(w, status, map[string]string{"error": err.Error(), "code": code})
}
