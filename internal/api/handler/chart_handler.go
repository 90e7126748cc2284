package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"music_charts_api/internal/api/middleware"
	"music_charts_api/internal/app/service"
	"music_charts_api/internal/common"
	"music_charts_api/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

type ChartHandler struct {
	chartService *service.ChartService
}

func NewChartHandler(chartService *service.ChartService) *ChartHandler {
	return &ChartHandler{chartService: chartService}
}

func (h *ChartHandler) RegisterRoutes(r chi.Router) {
	// Read endpoints require any authenticated role.
	r.Group(func(read chi.Router) {
		read.Use(middleware.Authenticator)
		read.Get("/", h.list)
		read.Get("/top", h.top)
		read.Get("/artist/{artistName}", h.artistHistory)
		read.Get("/{entryID}", h.getByID)
	})

	r.Group(func(edit chi.Router) {
		edit.Use(middleware.Authenticator)
		edit.Use(middleware.RequireRole(model.RoleEditor, model.RoleAdmin))
		edit.Post("/", h.create)
		edit.Post("/batch", h.createBatch)
		edit.Put("/{entryID}", h.update)
	})

	r.Group(func(admin chi.Router) {
		admin.Use(middleware.Authenticator)
		admin.Use(middleware.RequireRole(model.RoleAdmin))
		admin.Delete("/{entryID}", h.delete)
	})
}

func (h *ChartHandler) create(w http.ResponseWriter, r *http.Request) {
	var req service.ChartEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	entry, err := h.chartService.CreateEntry(r.Context(), req)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, entry)
}

func (h *ChartHandler) createBatch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Entries            []service.ChartEntryRequest `json:"entries"`
		ValidateDuplicates *bool                       `json:"validate_duplicates"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	validateDuplicates := true
	if req.ValidateDuplicates != nil {
		validateDuplicates = *req.ValidateDuplicates
	}

	result, err := h.chartService.CreateBatch(r.Context(), req.Entries, validateDuplicates)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, result)
}

func (h *ChartHandler) list(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	limit := parseIntParam(query.Get("limit"), 100)
	offset := parseIntParam(query.Get("offset"), 0)

	date, ok := parseDateParam(w, query.Get("date"), "date")
	if !ok {
		return
	}
	dateFrom, ok := parseDateParam(w, query.Get("date_from"), "date_from")
	if !ok {
		return
	}
	dateTo, ok := parseDateParam(w, query.Get("date_to"), "date_to")
	if !ok {
		return
	}

	entries, err := h.chartService.Query(r.Context(), service.QueryParams{
		Limit:    limit,
		Offset:   offset,
		Date:     date,
		DateFrom: dateFrom,
		DateTo:   dateTo,
		Source:   query.Get("source"),
		Country:  query.Get("country"),
		Artist:   query.Get("artist"),
	})
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, entries)
}

func (h *ChartHandler) top(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	if query.Get("date") == "" {
		common.RespondWithError(w, http.StatusUnprocessableEntity, "date query parameter is required")
		return
	}
	date, ok := parseDateParam(w, query.Get("date"), "date")
	if !ok {
		return
	}
	limit := parseIntParam(query.Get("limit"), 10)

	entries, err := h.chartService.GetTop(r.Context(), date, limit, query.Get("source"), query.Get("country"))
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, entries)
}

func (h *ChartHandler) artistHistory(w http.ResponseWriter, r *http.Request) {
	artistName := chi.URLParam(r, "artistName")
	query := r.URL.Query()

	dateFrom, ok := parseDateParam(w, query.Get("date_from"), "date_from")
	if !ok {
		return
	}
	dateTo, ok := parseDateParam(w, query.Get("date_to"), "date_to")
	if !ok {
		return
	}

	entries, err := h.chartService.GetArtistHistory(r.Context(), artistName, dateFrom, dateTo)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, entries)
}

func (h *ChartHandler) getByID(w http.ResponseWriter, r *http.Request) {
	entry, err := h.chartService.GetByID(r.Context(), chi.URLParam(r, "entryID"))
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, entry)
}

func (h *ChartHandler) update(w http.ResponseWriter, r *http.Request) {
	var req service.ChartEntryUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	entry, err := h.chartService.UpdateEntry(r.Context(), chi.URLParam(r, "entryID"), req)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, entry)
}

func (h *ChartHandler) delete(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.chartService.DeleteEntry(r.Context(), chi.URLParam(r, "entryID"))
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	if !deleted {
		common.RespondWithError(w, http.StatusNotFound, "Chart entry not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseIntParam(value string, fallback int64) int64 {
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

// parseDateParam validates an optional YYYY-MM-DD query parameter. It
// writes a validation error and returns ok=false on malformed input.
func parseDateParam(w http.ResponseWriter, value, name string) (string, bool) {
	if value == "" {
		return "", true
	}
	if _, err := time.Parse(time.DateOnly, value); err != nil {
		common.RespondWithError(w, http.StatusUnprocessableEntity, name+" must be a YYYY-MM-DD date")
		return "", false
	}
	return value, true
}
