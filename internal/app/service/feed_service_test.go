package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"music_charts_api/internal/domain/model"
)

const feedFixture = `{
  "feed": {
    "entry": [
      {
        "im:name": {"label": "Song One"},
        "im:artist": {"label": "Artist One"},
        "im:collection": {"im:name": {"label": "Album One"}},
        "id": {"label": "https://music.apple.com/song-one", "attributes": {"im:id": "111"}},
        "category": {"attributes": {"label": "Pop"}},
        "im:releaseDate": {"label": "2025-05-20T00:00:00-07:00"}
      },
      {
        "im:name": {"label": ""},
        "im:artist": {"label": "No Song Artist"}
      },
      {
        "im:name": {"label": "Song Two"},
        "im:artist": {"label": "Artist Two"},
        "im:collection": {"im:name": {"label": "Album Two"}},
        "id": {"label": "https://music.apple.com/song-two", "attributes": {"im:id": "222"}},
        "category": {"attributes": {"label": "Hip-Hop"}},
        "im:releaseDate": {"label": "2025-04-11T00:00:00-07:00"}
      }
    ]
  }
}`

func TestFetchTopSongsMapsFeedItems(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/gb/rss/topsongs/limit=200/json" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Write([]byte(feedFixture))
	}))
	defer server.Close()

	svc := NewFeedService(server.URL, testLogger())
	entries := svc.FetchTopSongs(context.Background(), "gb", 50)

	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2 (the item without a song is skipped)", len(entries))
	}
	first := entries[0]
	if first.Rank != 1 || first.Song != "Song One" || first.Artist != "Artist One" || first.Album != "Album One" {
		t.Fatalf("unexpected first entry: %+v", first)
	}
	if first.Source != model.SourceAppleMusic || first.Country != "GB" {
		t.Fatalf("source/country = %q/%q", first.Source, first.Country)
	}
	if first.PlatformData["itunes_id"] != "111" || first.PlatformData["category"] != "Pop" {
		t.Fatalf("platform data not mapped: %v", first.PlatformData)
	}
	// Ranks stay sequential over the surviving items.
	if entries[1].Rank != 2 || entries[1].Song != "Song Two" {
		t.Fatalf("unexpected second entry: %+v", entries[1])
	}
}

func TestFetchTopSongsUSOmitsCountrySegment(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(feedFixture))
	}))
	defer server.Close()

	NewFeedService(server.URL, testLogger()).FetchTopSongs(context.Background(), "us", 10)
	if gotPath != "/rss/topsongs/limit=200/json" {
		t.Fatalf("path = %q, want the bare feed path for us", gotPath)
	}
}

func TestFetchTopSongsHonorsLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(feedFixture))
	}))
	defer server.Close()

	entries := NewFeedService(server.URL, testLogger()).FetchTopSongs(context.Background(), "us", 1)
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
}

func TestFetchTopSongsFailuresYieldEmptyList(t *testing.T) {
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer failing.Close()

	svc := NewFeedService(failing.URL, testLogger())
	if entries := svc.FetchTopSongs(context.Background(), "us", 10); len(entries) != 0 {
		t.Fatalf("non-200 response: entries = %d, want 0", len(entries))
	}

	// Unreachable host.
	svc = NewFeedService("http://127.0.0.1:0", testLogger())
	if entries := svc.FetchTopSongs(context.Background(), "us", 10); len(entries) != 0 {
		t.Fatalf("transport failure: entries = %d, want 0", len(entries))
	}
}

func TestRedate(t *testing.T) {
	entries := []ChartEntryRequest{validEntryRequest(1), validEntryRequest(2)}
	dated := Redate(entries, "2025-01-15")

	for i, entry := range dated {
		if entry.Date != "2025-01-15" {
			t.Fatalf("entry %d date = %q, want 2025-01-15", i, entry.Date)
		}
	}
	if entries[0].Date != "2025-06-01" {
		t.Fatalf("Redate mutated its input: %q", entries[0].Date)
	}
}
