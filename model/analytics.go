package model

import "time"

// PhraseEvent records one phrase query for analytics tracking
type PhraseEvent struct {
	IndexName    string        `json:"index_name"`
	Phrase       string        `json:"phrase"`
	Slop         int           `json:"slop"`
	ResponseTime time.Duration `json:"response_time"`
	ResultCount  int           `json:"result_count"`
	Timestamp    time.Time     `json:"timestamp"`
}

// PopularPhrase represents aggregated data for a frequently queried phrase
type PopularPhrase struct {
	Phrase      string `json:"phrase"`
	SearchCount int    `json:"search_count"`
}

// IndexStats represents statistics for a specific index
type IndexStats struct {
	IndexName     string `json:"index_name"`
	DocumentCount int    `json:"document_count"`
	SearchCount   int    `json:"search_count"`
}

// ResponseTimeDistribution represents response time distribution buckets
type ResponseTimeDistribution struct {
	Bucket0To25ms     int     `json:"bucket_0_25ms"`
	Bucket25To50ms    int     `json:"bucket_25_50ms"`
	Bucket50To100ms   int     `json:"bucket_50_100ms"`
	Bucket100msPlus   int     `json:"bucket_100ms_plus"`
	Percentage0To25   float64 `json:"percentage_0_25"`
	Percentage25To50  float64 `json:"percentage_25_50"`
	Percentage50To100 float64 `json:"percentage_50_100"`
	Percentage100Plus float64 `json:"percentage_100_plus"`
}

// SlopUsage counts the queries evaluated with one slop value
type SlopUsage struct {
	Slop  int `json:"slop"`
	Count int `json:"count"`
}

// SearchPerformanceHourly represents hourly search performance data
type SearchPerformanceHourly struct {
	Hour            int   `json:"hour"`
	SearchCount     int   `json:"search_count"`
	AvgResponseTime int64 `json:"avg_response_time"` // in milliseconds
}

// AnalyticsDashboard represents the complete analytics dashboard data
type AnalyticsDashboard struct {
	// Summary metrics
	TotalSearches         int     `json:"total_searches"`
	SearchesChangePercent float64 `json:"searches_change_percent"`
	AvgResponseTime       int64   `json:"avg_response_time"` // in milliseconds
	ResponseTimeChange    string  `json:"response_time_change"`
	ZeroResultRate        float64 `json:"zero_result_rate"` // percentage of queries without hits
	TotalDocuments        int     `json:"total_documents"`
	ActiveIndexes         int     `json:"active_indexes"`

	// Detailed analytics
	SearchPerformance24h     []SearchPerformanceHourly `json:"search_performance_24h"`
	PopularPhrases           []PopularPhrase           `json:"popular_phrases"`
	ZeroResultPhrases        []PopularPhrase           `json:"zero_result_phrases"`
	IndexUsage               []IndexStats              `json:"index_usage"`
	ResponseTimeDistribution ResponseTimeDistribution  `json:"response_time_distribution"`
	SlopUsage                []SlopUsage               `json:"slop_usage"`
}
