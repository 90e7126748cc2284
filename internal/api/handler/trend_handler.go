package handler

import (
	"net/http"

	"music_charts_api/internal/api/middleware"
	"music_charts_api/internal/app/service"
	"music_charts_api/internal/common"

	"github.com/go-chi/chi/v5"
)

type TrendHandler struct {
	chartService *service.ChartService
}

func NewTrendHandler(chartService *service.ChartService) *TrendHandler {
	return &TrendHandler{chartService: chartService}
}

func (h *TrendHandler) RegisterRoutes(r chi.Router) {
	r.Group(func(read chi.Router) {
		read.Use(middleware.Authenticator)
		read.Get("/top-artists", h.topArtists)
	})
}

func (h *TrendHandler) topArtists(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	days := int(parseIntParam(query.Get("days"), 30))
	minAppearances := int(parseIntParam(query.Get("min_appearances"), 1))

	trends, err := h.chartService.TrendAnalysis(r.Context(), days, query.Get("source"), minAppearances)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, trends)
}
