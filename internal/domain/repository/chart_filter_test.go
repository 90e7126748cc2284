package repository

import (
	"reflect"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
)

func TestBuildFilterExactDateWinsOverRange(t *testing.T) {
	got := buildFilter(QueryFilter{
		Date:     "2025-06-01",
		DateFrom: "2025-01-01",
		DateTo:   "2025-12-31",
	})
	want := bson.M{"date": "2025-06-01"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("buildFilter = %v, want %v", got, want)
	}
}

func TestBuildFilterDateRange(t *testing.T) {
	got := buildFilter(QueryFilter{DateFrom: "2025-01-01", DateTo: "2025-06-30"})
	want := bson.M{"date": bson.M{"$gte": "2025-01-01", "$lte": "2025-06-30"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("buildFilter = %v, want %v", got, want)
	}
}

func TestBuildFilterOpenEndedRange(t *testing.T) {
	got := buildFilter(QueryFilter{DateFrom: "2025-01-01"})
	want := bson.M{"date": bson.M{"$gte": "2025-01-01"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("buildFilter = %v, want %v", got, want)
	}
}

func TestBuildFilterArtistIsCaseInsensitiveSubstring(t *testing.T) {
	got := buildFilter(QueryFilter{Artist: "weeknd"})
	want := bson.M{"artist": bson.M{"$regex": "weeknd", "$options": "i"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("buildFilter = %v, want %v", got, want)
	}
}

func TestBuildFilterComposesConjunctively(t *testing.T) {
	got := buildFilter(QueryFilter{
		Date:    "2025-06-01",
		Source:  "Apple Music",
		Country: "US",
		Artist:  "Dua",
	})
	want := bson.M{
		"date":    "2025-06-01",
		"source":  "Apple Music",
		"country": "US",
		"artist":  bson.M{"$regex": "Dua", "$options": "i"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("buildFilter = %v, want %v", got, want)
	}
}

func TestBuildFilterEmpty(t *testing.T) {
	if got := buildFilter(QueryFilter{}); len(got) != 0 {
		t.Fatalf("buildFilter of zero filter = %v, want empty", got)
	}
}
