package repository

import (
	"reflect"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
)

func TestTopFindOptionsSortAscendingByRank(t *testing.T) {
	opts := topFindOptions(5)

	if opts.Limit == nil || *opts.Limit != 5 {
		t.Fatalf("limit = %v, want 5", opts.Limit)
	}
	sort, ok := opts.Sort.(bson.D)
	if !ok {
		t.Fatalf("sort is %T, want bson.D", opts.Sort)
	}
	want := bson.D{{Key: "rank", Value: 1}}
	if !reflect.DeepEqual(sort, want) {
		t.Fatalf("sort = %v, want %v", sort, want)
	}
}

func TestArtistAggregationPipelineStages(t *testing.T) {
	pipeline := artistAggregationPipeline("2025-05-01", "Apple Music", 3)

	if len(pipeline) != 5 {
		t.Fatalf("pipeline = %d stages, want 5", len(pipeline))
	}

	match := pipeline[0]
	if match[0].Key != "$match" {
		t.Fatalf("stage 0 = %q, want $match", match[0].Key)
	}
	matchDoc, ok := match[0].Value.(bson.M)
	if !ok {
		t.Fatalf("stage 0 value is %T, want bson.M", match[0].Value)
	}
	if !reflect.DeepEqual(matchDoc["date"], bson.M{"$gte": "2025-05-01"}) {
		t.Fatalf("date match = %v, want $gte 2025-05-01", matchDoc["date"])
	}
	if matchDoc["source"] != "Apple Music" {
		t.Fatalf("source match = %v, want Apple Music", matchDoc["source"])
	}

	if pipeline[1][0].Key != "$group" {
		t.Fatalf("stage 1 = %q, want $group", pipeline[1][0].Key)
	}

	appearanceFilter := pipeline[2]
	if appearanceFilter[0].Key != "$match" {
		t.Fatalf("stage 2 = %q, want $match", appearanceFilter[0].Key)
	}
	wantFilter := bson.M{"appearances": bson.M{"$gte": 3}}
	if !reflect.DeepEqual(appearanceFilter[0].Value, wantFilter) {
		t.Fatalf("appearance filter = %v, want %v", appearanceFilter[0].Value, wantFilter)
	}

	sortStage := pipeline[3]
	if sortStage[0].Key != "$sort" {
		t.Fatalf("stage 3 = %q, want $sort", sortStage[0].Key)
	}
	wantSort := bson.D{{Key: "appearances", Value: -1}, {Key: "avg_rank", Value: 1}}
	if !reflect.DeepEqual(sortStage[0].Value, wantSort) {
		t.Fatalf("sort = %v, want appearances desc then avg_rank asc", sortStage[0].Value)
	}

	limitStage := pipeline[4]
	if limitStage[0].Key != "$limit" || limitStage[0].Value != 50 {
		t.Fatalf("stage 4 = %v, want $limit 50", limitStage)
	}
}

func TestArtistAggregationPipelineOmitsSourceWhenUnset(t *testing.T) {
	pipeline := artistAggregationPipeline("2025-05-01", "", 1)

	matchDoc := pipeline[0][0].Value.(bson.M)
	if _, ok := matchDoc["source"]; ok {
		t.Fatalf("empty source must not be matched: %v", matchDoc)
	}
}
