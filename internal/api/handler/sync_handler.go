package handler

import (
	"net/http"
	"time"

	"music_charts_api/internal/api/middleware"
	"music_charts_api/internal/app/service"
	"music_charts_api/internal/common"
	"music_charts_api/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

type SyncHandler struct {
	feedService  *service.FeedService
	chartService *service.ChartService
}

func NewSyncHandler(feedService *service.FeedService, chartService *service.ChartService) *SyncHandler {
	return &SyncHandler{feedService: feedService, chartService: chartService}
}

func (h *SyncHandler) RegisterRoutes(r chi.Router) {
	r.Group(func(edit chi.Router) {
		edit.Use(middleware.Authenticator)
		edit.Use(middleware.RequireRole(model.RoleEditor, model.RoleAdmin))
		edit.Post("/fetch/itunes", h.fetchITunes)
		edit.Post("/fetch/all", h.fetchAll)
	})
}

type syncResult struct {
	Message     string   `json:"message"`
	Fetched     int      `json:"fetched"`
	Imported    int      `json:"imported"`
	Skipped     int      `json:"skipped"`
	Errors      []string `json:"errors,omitempty"`
	DaysCreated int      `json:"days_created,omitempty"`
}

// fetchITunes pulls the current iTunes ranking and imports it. With
// days_back > 0 the same ranking is replicated across today and the N
// prior days to synthesize demo data; that is not point-in-time history.
func (h *SyncHandler) fetchITunes(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	country := query.Get("country")
	if country == "" {
		country = "us"
	}
	limit := int(parseIntParam(query.Get("limit"), service.MaxFeedLimit))
	daysBack := int(parseIntParam(query.Get("days_back"), 0))
	if daysBack < 0 {
		daysBack = 0
	}

	entries := h.feedService.FetchTopSongs(r.Context(), country, limit)
	if len(entries) == 0 {
		common.RespondWithError(w, http.StatusServiceUnavailable, "Failed to fetch iTunes data")
		return
	}

	if daysBack > 0 {
		result := syncResult{
			Message:     "iTunes data fetched and imported with back-fill",
			Fetched:     len(entries),
			DaysCreated: daysBack + 1,
		}
		for dayOffset := 0; dayOffset <= daysBack; dayOffset++ {
			targetDate := time.Now().UTC().AddDate(0, 0, -dayOffset).Format(time.DateOnly)
			batch, err := h.chartService.CreateBatch(r.Context(), service.Redate(entries, targetDate), true)
			if err != nil {
				common.RespondWithDomainError(w, err)
				return
			}
			result.Imported += batch.Imported
			result.Skipped += batch.Skipped
			result.Errors = append(result.Errors, batch.Errors...)
		}
		common.RespondWithJSON(w, http.StatusCreated, result)
		return
	}

	batch, err := h.chartService.CreateBatch(r.Context(), entries, true)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, syncResult{
		Message:  "iTunes data fetched and imported successfully",
		Fetched:  len(entries),
		Imported: batch.Imported,
		Skipped:  batch.Skipped,
		Errors:   batch.Errors,
	})
}

// fetchAll exists for compatibility with the dashboard; iTunes is the only
// wired source.
func (h *SyncHandler) fetchAll(w http.ResponseWriter, r *http.Request) {
	country := r.URL.Query().Get("country")
	if country == "" {
		country = "us"
	}

	entries := h.feedService.FetchTopSongs(r.Context(), country, service.MaxFeedLimit)
	if len(entries) == 0 {
		common.RespondWithError(w, http.StatusServiceUnavailable, "No data fetched from iTunes Charts. Check network connectivity.")
		return
	}

	batch, err := h.chartService.CreateBatch(r.Context(), entries, true)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, syncResult{
		Message:  "iTunes chart data fetched and imported successfully",
		Fetched:  len(entries),
		Imported: batch.Imported,
		Skipped:  batch.Skipped,
		Errors:   batch.Errors,
	})
}
