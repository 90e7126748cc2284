package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"music_charts_api/internal/domain/model"

	"github.com/charmbracelet/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const chartCollection = "chart_entries"

// chartRetentionSeconds is the TTL on created_at: documents are silently
// expired by the store two years after import. This is a storage-lifecycle
// policy, not a business rule.
const chartRetentionSeconds = 63072000

// QueryFilter composes conjunctively. An exact Date takes precedence over
// DateFrom/DateTo when both are set. Artist is a case-insensitive substring
// match. Dates are ISO "YYYY-MM-DD" strings.
type QueryFilter struct {
	Date     string
	DateFrom string
	DateTo   string
	Source   string
	Country  string
	Artist   string
}

type ChartRepository interface {
	Insert(ctx context.Context, entry *model.ChartEntry) error
	InsertMany(ctx context.Context, entries []*model.ChartEntry) (int, error)
	Exists(ctx context.Context, date string, rank int, source, country string) (bool, error)
	// Find returns entries sorted by date descending then rank ascending.
	// A limit of 0 means no limit.
	Find(ctx context.Context, filter QueryFilter, offset, limit int64) ([]*model.ChartEntry, error)
	// FindTop returns entries for an exact date sorted by rank ascending.
	FindTop(ctx context.Context, date string, limit int64, source, country string) ([]*model.ChartEntry, error)
	// FindByID returns (nil, nil) for a malformed or unknown id.
	FindByID(ctx context.Context, id string) (*model.ChartEntry, error)
	// UpdateByID applies a $set document and returns the updated entry, or
	// (nil, nil) when the id is malformed or matches nothing.
	UpdateByID(ctx context.Context, id string, set map[string]interface{}) (*model.ChartEntry, error)
	// DeleteByID reports whether a document was actually removed.
	DeleteByID(ctx context.Context, id string) (bool, error)
	AggregateArtists(ctx context.Context, dateFrom, source string, minAppearances int) ([]*model.ArtistAggregate, error)
}

type mongoChartRepository struct {
	collection *mongo.Collection
	logger     *log.Logger
}

func NewMongoChartRepository(db *mongo.Database, logger *log.Logger) ChartRepository {
	r := &mongoChartRepository{
		collection: db.Collection(chartCollection),
		logger:     logger,
	}
	r.ensureIndexes()
	return r
}

func (r *mongoChartRepository) ensureIndexes() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "date", Value: 1}, {Key: "rank", Value: 1}}},
		{Keys: bson.D{{Key: "artist", Value: 1}}},
		{Keys: bson.D{{Key: "song", Value: 1}}},
		{Keys: bson.D{{Key: "source", Value: 1}}},
		{Keys: bson.D{{Key: "country", Value: 1}}},
		{
			Keys:    bson.D{{Key: "created_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(chartRetentionSeconds),
		},
	}
	if _, err := r.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		r.logger.Warn("failed to create chart indexes", "error", err)
	}
}

func buildFilter(f QueryFilter) bson.M {
	filter := bson.M{}
	if f.Date != "" {
		filter["date"] = f.Date
	} else if f.DateFrom != "" || f.DateTo != "" {
		rangeFilter := bson.M{}
		if f.DateFrom != "" {
			rangeFilter["$gte"] = f.DateFrom
		}
		if f.DateTo != "" {
			rangeFilter["$lte"] = f.DateTo
		}
		filter["date"] = rangeFilter
	}
	if f.Source != "" {
		filter["source"] = f.Source
	}
	if f.Country != "" {
		filter["country"] = f.Country
	}
	if f.Artist != "" {
		filter["artist"] = bson.M{"$regex": f.Artist, "$options": "i"}
	}
	return filter
}

func (r *mongoChartRepository) Insert(ctx context.Context, entry *model.ChartEntry) error {
	entry.ID = primitive.NewObjectID()
	if _, err := r.collection.InsertOne(ctx, entry); err != nil {
		return fmt.Errorf("mongoChartRepository.Insert: %w", err)
	}
	return nil
}

func (r *mongoChartRepository) InsertMany(ctx context.Context, entries []*model.ChartEntry) (int, error) {
	documents := make([]interface{}, 0, len(entries))
	for _, entry := range entries {
		entry.ID = primitive.NewObjectID()
		documents = append(documents, entry)
	}
	result, err := r.collection.InsertMany(ctx, documents)
	if err != nil {
		return 0, fmt.Errorf("mongoChartRepository.InsertMany: %w", err)
	}
	return len(result.InsertedIDs), nil
}

func (r *mongoChartRepository) Exists(ctx context.Context, date string, rank int, source, country string) (bool, error) {
	filter := bson.M{"date": date, "rank": rank, "source": source, "country": country}
	err := r.collection.FindOne(ctx, filter).Err()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, nil
		}
		return false, fmt.Errorf("mongoChartRepository.Exists: %w", err)
	}
	return true, nil
}

func (r *mongoChartRepository) Find(ctx context.Context, filter QueryFilter, offset, limit int64) ([]*model.ChartEntry, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "date", Value: -1}, {Key: "rank", Value: 1}}).
		SetSkip(offset)
	if limit > 0 {
		opts.SetLimit(limit)
	}
	return r.find(ctx, buildFilter(filter), opts)
}

// topFindOptions sorts by rank ascending and caps the result at limit.
func topFindOptions(limit int64) *options.FindOptions {
	return options.Find().
		SetSort(bson.D{{Key: "rank", Value: 1}}).
		SetLimit(limit)
}

func (r *mongoChartRepository) FindTop(ctx context.Context, date string, limit int64, source, country string) ([]*model.ChartEntry, error) {
	filter := bson.M{"date": date}
	if source != "" {
		filter["source"] = source
	}
	if country != "" {
		filter["country"] = country
	}
	return r.find(ctx, filter, topFindOptions(limit))
}

func (r *mongoChartRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*model.ChartEntry, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("mongoChartRepository.find: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []*model.ChartEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("mongoChartRepository.find: decode: %w", err)
	}
	return entries, nil
}

func (r *mongoChartRepository) FindByID(ctx context.Context, id string) (*model.ChartEntry, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		// Malformed ids are not-found, not errors.
		return nil, nil
	}
	var entry model.ChartEntry
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&entry)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("mongoChartRepository.FindByID: %w", err)
	}
	return &entry, nil
}

func (r *mongoChartRepository) UpdateByID(ctx context.Context, id string, set map[string]interface{}) (*model.ChartEntry, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var entry model.ChartEntry
	err = r.collection.FindOneAndUpdate(ctx, bson.M{"_id": objectID}, bson.M{"$set": set}, opts).Decode(&entry)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("mongoChartRepository.UpdateByID: %w", err)
	}
	return &entry, nil
}

func (r *mongoChartRepository) DeleteByID(ctx context.Context, id string) (bool, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, nil
	}
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return false, fmt.Errorf("mongoChartRepository.DeleteByID: %w", err)
	}
	return result.DeletedCount > 0, nil
}

// artistAggregationPipeline groups entries since dateFrom by artist, drops
// artists below minAppearances, and orders by appearance count descending
// (average rank ascending as the tiebreak), top 50.
func artistAggregationPipeline(dateFrom, source string, minAppearances int) mongo.Pipeline {
	match := bson.M{"date": bson.M{"$gte": dateFrom}}
	if source != "" {
		match["source"] = source
	}

	return mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{
			"_id":           "$artist",
			"appearances":   bson.M{"$sum": 1},
			"avg_rank":      bson.M{"$avg": "$rank"},
			"best_rank":     bson.M{"$min": "$rank"},
			"worst_rank":    bson.M{"$max": "$rank"},
			"total_streams": bson.M{"$sum": "$streams"},
			"songs": bson.M{"$push": bson.M{
				"song": "$song", "rank": "$rank", "date": "$date",
			}},
		}}},
		{{Key: "$match", Value: bson.M{"appearances": bson.M{"$gte": minAppearances}}}},
		{{Key: "$sort", Value: bson.D{{Key: "appearances", Value: -1}, {Key: "avg_rank", Value: 1}}}},
		{{Key: "$limit", Value: 50}},
	}
}

func (r *mongoChartRepository) AggregateArtists(ctx context.Context, dateFrom, source string, minAppearances int) ([]*model.ArtistAggregate, error) {
	cursor, err := r.collection.Aggregate(ctx, artistAggregationPipeline(dateFrom, source, minAppearances))
	if err != nil {
		return nil, fmt.Errorf("mongoChartRepository.AggregateArtists: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []*model.ArtistAggregate
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("mongoChartRepository.AggregateArtists: decode: %w", err)
	}
	return rows, nil
}
