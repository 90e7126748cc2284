package service

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"music_charts_api/internal/domain/model"

	"github.com/charmbracelet/log"
	"github.com/goccy/go-json"
)

const (
	feedRequestTimeout = 10 * time.Second
	// MaxFeedLimit is the most entries a single feed call can return.
	MaxFeedLimit = 200
)

// FeedService fetches ranked song lists from the public iTunes top-songs
// feed and maps them into chart entry records. It never returns an error:
// transport failures and non-success responses yield an empty list and a
// logged cause, leaving the "no data is an error" decision to the caller.
type FeedService struct {
	client  *http.Client
	baseURL string
	logger  *log.Logger
}

func NewFeedService(baseURL string, logger *log.Logger) *FeedService {
	return &FeedService{
		client:  &http.Client{Timeout: feedRequestTimeout},
		baseURL: baseURL,
		logger:  logger,
	}
}

type feedLabel struct {
	Label string `json:"label"`
}

type feedItem struct {
	Name       feedLabel `json:"im:name"`
	Artist     feedLabel `json:"im:artist"`
	Collection struct {
		Name feedLabel `json:"im:name"`
	} `json:"im:collection"`
	ID struct {
		Label      string `json:"label"`
		Attributes struct {
			ID string `json:"im:id"`
		} `json:"attributes"`
	} `json:"id"`
	Category struct {
		Attributes struct {
			Label string `json:"label"`
		} `json:"attributes"`
	} `json:"category"`
	ReleaseDate feedLabel `json:"im:releaseDate"`
}

type feedDocument struct {
	Feed struct {
		Entry []feedItem `json:"entry"`
	} `json:"feed"`
}

// FetchTopSongs fetches the ranking for a country code ("us", "gb", "de",
// ...). Items that cannot be mapped are skipped; ranks stay sequential
// from 1 over the items that survive.
func (s *FeedService) FetchTopSongs(ctx context.Context, country string, limit int) []ChartEntryRequest {
	if limit <= 0 || limit > MaxFeedLimit {
		limit = MaxFeedLimit
	}

	url := s.baseURL + "/rss/topsongs/limit=200/json"
	if country != "us" {
		url = fmt.Sprintf("%s/%s/rss/topsongs/limit=200/json", s.baseURL, country)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		s.logger.Error("building feed request", "url", url, "error", err)
		return nil
	}

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Error("fetching iTunes feed", "url", url, "error", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.logger.Error("iTunes feed returned non-success status", "url", url, "status", resp.StatusCode)
		return nil
	}

	var doc feedDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		s.logger.Error("decoding iTunes feed", "url", url, "error", err)
		return nil
	}

	today := time.Now().UTC().Format(time.DateOnly)
	countryTag := strings.ToUpper(country)

	entries := make([]ChartEntryRequest, 0, limit)
	rank := 1
	for _, item := range doc.Feed.Entry {
		if rank > limit {
			break
		}
		if item.Name.Label == "" || item.Artist.Label == "" {
			s.logger.Warn("skipping feed item with missing song or artist", "rank", rank)
			continue
		}
		entries = append(entries, ChartEntryRequest{
			Date:    today,
			Rank:    rank,
			Song:    item.Name.Label,
			Artist:  item.Artist.Label,
			Album:   item.Collection.Name.Label,
			Source:  model.SourceAppleMusic,
			Country: countryTag,
			PlatformData: map[string]interface{}{
				"itunes_id":    item.ID.Attributes.ID,
				"itunes_url":   item.ID.Label,
				"category":     item.Category.Attributes.Label,
				"release_date": item.ReleaseDate.Label,
			},
		})
		rank++
	}

	return entries
}

// Redate copies fetched entries onto a target calendar date. Used by the
// back-fill import mode, which replicates one day's ranking across several
// dates to synthesize demo data. It is not a historical reconstruction.
func Redate(entries []ChartEntryRequest, date string) []ChartEntryRequest {
	dated := make([]ChartEntryRequest, len(entries))
	for i, entry := range entries {
		entry.Date = date
		dated[i] = entry
	}
	return dated
}
