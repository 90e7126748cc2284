package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"music_charts_api/internal/common"
	"music_charts_api/internal/domain/model"
	"music_charts_api/internal/domain/repository"

	"github.com/charmbracelet/log"
	"github.com/go-playground/validator/v10"
)

// MaxBatchSize bounds a single batch import call.
const MaxBatchSize = 1000

const (
	defaultQueryLimit = 100
	maxQueryLimit     = 1000
	maxTopLimit       = 100
	topSongsPerArtist = 5
	historyPerArtist  = 20
)

type ChartService struct {
	chartRepo repository.ChartRepository
	validate  *validator.Validate
	logger    *log.Logger
}

func NewChartService(chartRepo repository.ChartRepository, logger *log.Logger) *ChartService {
	return &ChartService{
		chartRepo: chartRepo,
		validate:  validator.New(),
		logger:    logger,
	}
}

type ChartEntryRequest struct {
	Date         string                 `json:"date" validate:"required,datetime=2006-01-02"`
	Rank         int                    `json:"rank" validate:"required,min=1"`
	Song         string                 `json:"song" validate:"required"`
	Artist       string                 `json:"artist" validate:"required"`
	Album        string                 `json:"album"`
	Streams      *int64                 `json:"streams" validate:"omitempty,min=0"`
	DurationMs   *int                   `json:"duration_ms" validate:"omitempty,min=0"`
	Source       string                 `json:"source" validate:"required,oneof='Apple Music'"`
	Country      string                 `json:"country"`
	PlatformData map[string]interface{} `json:"platform_data"`
}

type ChartEntryUpdate struct {
	Rank         *int                   `json:"rank" validate:"omitempty,min=1"`
	Song         *string                `json:"song"`
	Artist       *string                `json:"artist"`
	Album        *string                `json:"album"`
	Streams      *int64                 `json:"streams" validate:"omitempty,min=0"`
	DurationMs   *int                   `json:"duration_ms" validate:"omitempty,min=0"`
	Source       *string                `json:"source" validate:"omitempty,oneof='Apple Music'"`
	Country      *string                `json:"country"`
	PlatformData map[string]interface{} `json:"platform_data"`
}

type BatchResult struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors"`
}

type QueryParams struct {
	Limit    int64
	Offset   int64
	Date     string
	DateFrom string
	DateTo   string
	Source   string
	Country  string
	Artist   string
}

// validatePlatformData accepts only flat key/value extension fields.
func validatePlatformData(data map[string]interface{}) error {
	for key, value := range data {
		switch value.(type) {
		case map[string]interface{}, []interface{}:
			return fmt.Errorf("platform_data.%s must be a flat value: %w", key, common.ErrValidation)
		}
	}
	return nil
}

func (s *ChartService) toEntry(req ChartEntryRequest, now time.Time) (*model.ChartEntry, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}
	if err := validatePlatformData(req.PlatformData); err != nil {
		return nil, err
	}
	country := req.Country
	if country == "" {
		country = model.DefaultCountry
	}
	return &model.ChartEntry{
		Date:         req.Date,
		Rank:         req.Rank,
		Song:         req.Song,
		Artist:       req.Artist,
		Album:        req.Album,
		Streams:      req.Streams,
		DurationMs:   req.DurationMs,
		Source:       req.Source,
		Country:      country,
		PlatformData: req.PlatformData,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func (s *ChartService) CreateEntry(ctx context.Context, req ChartEntryRequest) (*model.ChartEntry, error) {
	entry, err := s.toEntry(req, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if err := s.chartRepo.Insert(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// CreateBatch imports up to MaxBatchSize entries. Failures are isolated at
// entry granularity: a bad entry is counted and reported without aborting
// its siblings, and the surviving entries go in as one bulk insert. With
// validateDuplicates set, a candidate matching an existing (date, rank,
// source, country) tuple is skipped, not an error.
func (s *ChartService) CreateBatch(ctx context.Context, reqs []ChartEntryRequest, validateDuplicates bool) (*BatchResult, error) {
	if len(reqs) > MaxBatchSize {
		return nil, fmt.Errorf("maximum %d entries per batch request: %w", MaxBatchSize, common.ErrBadRequest)
	}

	result := &BatchResult{Errors: []string{}}
	now := time.Now().UTC()

	var entries []*model.ChartEntry
	for idx, req := range reqs {
		entry, err := s.toEntry(req, now)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("entry %d: %v", idx, err))
			result.Skipped++
			continue
		}

		if validateDuplicates {
			exists, err := s.chartRepo.Exists(ctx, entry.Date, entry.Rank, entry.Source, entry.Country)
			if err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("entry %d: %v", idx, err))
				result.Skipped++
				continue
			}
			if exists {
				result.Skipped++
				continue
			}
		}
		entries = append(entries, entry)
	}

	if len(entries) > 0 {
		imported, err := s.chartRepo.InsertMany(ctx, entries)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("batch insert error: %v", err))
			result.Skipped += len(entries)
		} else {
			result.Imported = imported
		}
	}

	return result, nil
}

func (s *ChartService) Query(ctx context.Context, params QueryParams) ([]*model.ChartEntry, error) {
	if params.Limit == 0 {
		params.Limit = defaultQueryLimit
	}
	if params.Limit < 0 || params.Limit > maxQueryLimit {
		return nil, fmt.Errorf("limit must be between 1 and %d: %w", maxQueryLimit, common.ErrValidation)
	}
	if params.Offset < 0 {
		params.Offset = 0
	}
	filter := repository.QueryFilter{
		Date:     params.Date,
		DateFrom: params.DateFrom,
		DateTo:   params.DateTo,
		Source:   params.Source,
		Country:  params.Country,
		Artist:   params.Artist,
	}
	return s.chartRepo.Find(ctx, filter, params.Offset, params.Limit)
}

func (s *ChartService) GetTop(ctx context.Context, date string, limit int64, source, country string) ([]*model.ChartEntry, error) {
	if date == "" {
		return nil, fmt.Errorf("date is required: %w", common.ErrValidation)
	}
	if limit == 0 {
		limit = 10
	}
	if limit < 0 || limit > maxTopLimit {
		return nil, fmt.Errorf("limit must be between 1 and %d: %w", maxTopLimit, common.ErrValidation)
	}
	return s.chartRepo.FindTop(ctx, date, limit, source, country)
}

func (s *ChartService) GetArtistHistory(ctx context.Context, artist, dateFrom, dateTo string) ([]*model.ChartEntry, error) {
	if artist == "" {
		return nil, fmt.Errorf("artist name is required: %w", common.ErrValidation)
	}
	filter := repository.QueryFilter{
		Artist:   artist,
		DateFrom: dateFrom,
		DateTo:   dateTo,
	}
	return s.chartRepo.Find(ctx, filter, 0, 0)
}

func (s *ChartService) GetByID(ctx context.Context, id string) (*model.ChartEntry, error) {
	entry, err := s.chartRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, common.ErrNotFound
	}
	return entry, nil
}

// UpdateEntry applies a partial update: supplied scalar fields overwrite,
// extension fields merge key by key under the platform_data prefix. An
// update carrying neither scalars nor extension data is treated as
// not-found and leaves updated_at untouched.
func (s *ChartService) UpdateEntry(ctx context.Context, id string, update ChartEntryUpdate) (*model.ChartEntry, error) {
	if err := s.validate.Struct(update); err != nil {
		return nil, err
	}
	if err := validatePlatformData(update.PlatformData); err != nil {
		return nil, err
	}

	set := map[string]interface{}{}
	if update.Rank != nil {
		set["rank"] = *update.Rank
	}
	if update.Song != nil {
		set["song"] = *update.Song
	}
	if update.Artist != nil {
		set["artist"] = *update.Artist
	}
	if update.Album != nil {
		set["album"] = *update.Album
	}
	if update.Streams != nil {
		set["streams"] = *update.Streams
	}
	if update.DurationMs != nil {
		set["duration_ms"] = *update.DurationMs
	}
	if update.Source != nil {
		set["source"] = *update.Source
	}
	if update.Country != nil {
		set["country"] = *update.Country
	}
	for key, value := range update.PlatformData {
		set["platform_data."+key] = value
	}

	if len(set) == 0 {
		return nil, common.ErrNotFound
	}
	set["updated_at"] = time.Now().UTC()

	entry, err := s.chartRepo.UpdateByID(ctx, id, set)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, common.ErrNotFound
	}
	return entry, nil
}

// DeleteEntry is idempotent; it reports whether a document was removed.
func (s *ChartService) DeleteEntry(ctx context.Context, id string) (bool, error) {
	return s.chartRepo.DeleteByID(ctx, id)
}

// TrendAnalysis aggregates the window [today-days, today] by artist and
// derives the trending score (appearances / mean rank). The zero-mean guard
// never fires for real data since ranks are positive.
func (s *ChartService) TrendAnalysis(ctx context.Context, days int, source string, minAppearances int) ([]*model.TrendAnalysis, error) {
	if days < 1 || days > 365 {
		days = 30
	}
	if minAppearances < 1 {
		minAppearances = 1
	}

	dateFrom := time.Now().UTC().AddDate(0, 0, -days).Format(time.DateOnly)
	rows, err := s.chartRepo.AggregateArtists(ctx, dateFrom, source, minAppearances)
	if err != nil {
		return nil, err
	}

	trends := make([]*model.TrendAnalysis, 0, len(rows))
	for _, row := range rows {
		var score float64
		if row.AvgRank > 0 {
			score = float64(row.Appearances) / row.AvgRank
		}

		topSongs := make([]model.SongAppearance, len(row.Songs))
		copy(topSongs, row.Songs)
		sort.SliceStable(topSongs, func(i, j int) bool {
			return topSongs[i].Rank < topSongs[j].Rank
		})
		if len(topSongs) > topSongsPerArtist {
			topSongs = topSongs[:topSongsPerArtist]
		}

		history := row.Songs
		if len(history) > historyPerArtist {
			history = history[:historyPerArtist]
		}

		trends = append(trends, &model.TrendAnalysis{
			Artist:           row.Artist,
			PeriodDays:       days,
			TotalAppearances: row.Appearances,
			AverageRank:      round2(row.AvgRank),
			BestRank:         row.BestRank,
			WorstRank:        row.WorstRank,
			TotalStreams:     row.TotalStreams,
			TrendingScore:    round2(score),
			TopSongs:         topSongs,
			ChartHistory:     history,
		})
	}
	return trends, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
