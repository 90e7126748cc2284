package model

// SongAppearance is one (song, rank, date) tuple inside a trend result.
type SongAppearance struct {
	Song string `bson:"song" json:"song"`
	Rank int    `bson:"rank" json:"rank"`
	Date string `bson:"date" json:"date"`
}

// ArtistAggregate is one row of the per-artist aggregation pipeline, before
// trend post-processing.
type ArtistAggregate struct {
	Artist       string           `bson:"_id"`
	Appearances  int              `bson:"appearances"`
	AvgRank      float64          `bson:"avg_rank"`
	BestRank     int              `bson:"best_rank"`
	WorstRank    int              `bson:"worst_rank"`
	TotalStreams int64            `bson:"total_streams"`
	Songs        []SongAppearance `bson:"songs"`
}

// TrendAnalysis is derived on demand from chart entry aggregation and never
// persisted.
type TrendAnalysis struct {
	Artist           string           `json:"artist"`
	PeriodDays       int              `json:"period_days"`
	TotalAppearances int              `json:"total_appearances"`
	AverageRank      float64          `json:"average_rank"`
	BestRank         int              `json:"best_rank"`
	WorstRank        int              `json:"worst_rank"`
	TotalStreams     int64            `json:"total_streams"`
	TrendingScore    float64          `json:"trending_score"`
	TopSongs         []SongAppearance `json:"top_songs"`
	ChartHistory     []SongAppearance `json:"chart_history"`
}
