package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"music_charts_api/internal/app/service"
	"music_charts_api/internal/common"
	"music_charts_api/internal/common/security"
	"music_charts_api/internal/domain/model"
	"music_charts_api/internal/domain/repository"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type memUserRepo struct {
	byUsername map[string]*model.User
	byEmail    map[string]*model.User
	byID       map[int64]*model.User
	nextID     int64
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{
		byUsername: map[string]*model.User{},
		byEmail:    map[string]*model.User{},
		byID:       map[int64]*model.User{},
		nextID:     1,
	}
}

func (m *memUserRepo) Create(ctx context.Context, user *model.User) error {
	user.ID = m.nextID
	m.nextID++
	user.CreatedAt = time.Now().UTC()
	// Store a snapshot, like a real database would; callers may mutate the
	// object they handed in after Create returns.
	stored := *user
	m.byUsername[stored.Username] = &stored
	m.byEmail[stored.Email] = &stored
	m.byID[stored.ID] = &stored
	return nil
}

func (m *memUserRepo) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	if user, ok := m.byUsername[username]; ok {
		found := *user
		return &found, nil
	}
	return nil, common.ErrNotFound
}

func (m *memUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	if user, ok := m.byEmail[email]; ok {
		found := *user
		return &found, nil
	}
	return nil, common.ErrNotFound
}

func (m *memUserRepo) FindByID(ctx context.Context, id int64) (*model.User, error) {
	if user, ok := m.byID[id]; ok {
		found := *user
		return &found, nil
	}
	return nil, common.ErrNotFound
}

func (m *memUserRepo) UpdateLastLogin(ctx context.Context, id int64, when time.Time) error {
	return nil
}

// memChartRepo is a minimal in-memory chart store for handler tests. Dup
// detection keys on the (date, rank, source, country) tuple like the real
// store's Exists query.
type memChartRepo struct {
	entries []*model.ChartEntry
}

func (m *memChartRepo) Insert(ctx context.Context, entry *model.ChartEntry) error {
	entry.ID = primitive.NewObjectID()
	m.entries = append(m.entries, entry)
	return nil
}

func (m *memChartRepo) InsertMany(ctx context.Context, entries []*model.ChartEntry) (int, error) {
	for _, entry := range entries {
		entry.ID = primitive.NewObjectID()
	}
	m.entries = append(m.entries, entries...)
	return len(entries), nil
}

func (m *memChartRepo) Exists(ctx context.Context, date string, rank int, source, country string) (bool, error) {
	for _, entry := range m.entries {
		if entry.Date == date && entry.Rank == rank && entry.Source == source && entry.Country == country {
			return true, nil
		}
	}
	return false, nil
}

func (m *memChartRepo) Find(ctx context.Context, filter repository.QueryFilter, offset, limit int64) ([]*model.ChartEntry, error) {
	return m.entries, nil
}

func (m *memChartRepo) FindTop(ctx context.Context, date string, limit int64, source, country string) ([]*model.ChartEntry, error) {
	var matched []*model.ChartEntry
	for _, entry := range m.entries {
		if entry.Date == date {
			matched = append(matched, entry)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].Rank < matched[j].Rank })
	if limit > 0 && int64(len(matched)) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (m *memChartRepo) FindByID(ctx context.Context, id string) (*model.ChartEntry, error) {
	for _, entry := range m.entries {
		if entry.ID.Hex() == id {
			return entry, nil
		}
	}
	return nil, nil
}

func (m *memChartRepo) UpdateByID(ctx context.Context, id string, set map[string]interface{}) (*model.ChartEntry, error) {
	entry, _ := m.FindByID(ctx, id)
	if entry == nil {
		return nil, nil
	}
	if rank, ok := set["rank"].(int); ok {
		entry.Rank = rank
	}
	if song, ok := set["song"].(string); ok {
		entry.Song = song
	}
	return entry, nil
}

func (m *memChartRepo) DeleteByID(ctx context.Context, id string) (bool, error) {
	for i, entry := range m.entries {
		if entry.ID.Hex() == id {
			m.entries = append(m.entries[:i], m.entries[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (m *memChartRepo) AggregateArtists(ctx context.Context, dateFrom, source string, minAppearances int) ([]*model.ArtistAggregate, error) {
	return nil, nil
}

// testEnv wires handlers the way the router does, backed by in-memory
// stores and a stub feed endpoint.
type testEnv struct {
	router    chi.Router
	codec     *security.TokenCodec
	userRepo  *memUserRepo
	chartRepo *memChartRepo
}

func newTestEnv(t *testing.T, feedURL string) *testEnv {
	t.Helper()
	logger := log.NewWithOptions(io.Discard, log.Options{})
	codec := security.NewTokenCodec([]byte("unit-test-secret"), 30*time.Minute, 7*24*time.Hour)

	userRepo := newMemUserRepo()
	chartRepo := &memChartRepo{}

	authService := service.NewAuthService(userRepo, codec, logger)
	chartService := service.NewChartService(chartRepo, logger)
	feedService := service.NewFeedService(feedURL, logger)

	r := chi.NewRouter()
	r.Use(jwtauth.Verifier(codec.JWTAuth()))
	r.Route("/auth", NewAuthHandler(authService).RegisterRoutes)
	r.Route("/charts", NewChartHandler(chartService).RegisterRoutes)
	r.Route("/trends", NewTrendHandler(chartService).RegisterRoutes)
	r.Route("/sync", NewSyncHandler(feedService, chartService).RegisterRoutes)

	return &testEnv{router: r, codec: codec, userRepo: userRepo, chartRepo: chartRepo}
}

// tokenFor seeds a user with the role and returns a signed access token.
func (e *testEnv) tokenFor(t *testing.T, role model.Role) string {
	t.Helper()
	username := fmt.Sprintf("user-%s", role)
	user, err := e.userRepo.FindByUsername(context.Background(), username)
	if err != nil {
		hash, err := security.HashPassword("password123")
		if err != nil {
			t.Fatalf("HashPassword: %v", err)
		}
		user = &model.User{
			Username:       username,
			Email:          username + "@example.com",
			HashedPassword: hash,
			Role:           role,
			IsActive:       true,
		}
		if err := e.userRepo.Create(context.Background(), user); err != nil {
			t.Fatalf("seed user: %v", err)
		}
	}
	token, err := e.codec.GenerateAccessToken(user.Username, string(user.Role), user.ID)
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}
	return token
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("json.Marshal: %v", err)
		}
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	e.router.ServeHTTP(resp, req)
	return resp
}

func decodeBody(t *testing.T, resp *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	if err := json.Unmarshal(resp.Body.Bytes(), out); err != nil {
		t.Fatalf("json.Unmarshal %q: %v", resp.Body.String(), err)
	}
}

func chartEntryBody(rank int) map[string]interface{} {
	return map[string]interface{}{
		"date":   "2025-06-01",
		"rank":   rank,
		"song":   fmt.Sprintf("Song %d", rank),
		"artist": "Some Artist",
		"source": "Apple Music",
	}
}
