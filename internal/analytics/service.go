// Package analytics keeps a bounded log of phrase queries and aggregates it
// into a dashboard.
package analytics

import (
	"errors"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gcbaptista/go-phrase-engine/internal/logging"
	"github.com/gcbaptista/go-phrase-engine/internal/persistence"
	"github.com/gcbaptista/go-phrase-engine/model"
	"github.com/gcbaptista/go-phrase-engine/services"
)

const (
	maxEventsToKeep = 10000 // Keep last 10k events for performance
	topPhrases      = 5
)

// Service implements analytics tracking and reporting
type Service struct {
	mutex        sync.RWMutex
	events       []model.PhraseEvent
	indexManager services.IndexManager
	dataFilePath string // Empty disables persistence
	now          func() time.Time
	logger       *slog.Logger
}

// NewService creates a new analytics service and loads the events saved at dataFilePath.
func NewService(indexManager services.IndexManager, dataFilePath string) *Service {
	service := &Service{
		events:       make([]model.PhraseEvent, 0),
		indexManager: indexManager,
		dataFilePath: dataFilePath,
		now:          time.Now,
		logger:       logging.WithComponent("analytics"),
	}

	if err := service.loadData(); err != nil {
		service.logger.Warn("failed to load analytics data", "path", dataFilePath, "error", err)
	}

	return service
}

// TrackPhraseEvent records a phrase query. Phrases are stored lower-cased and
// trimmed so the same phrase aggregates regardless of spelling.
func (s *Service) TrackPhraseEvent(event model.PhraseEvent) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	event.Phrase = strings.ToLower(strings.Join(strings.Fields(event.Phrase), " "))
	s.events = append(s.events, event)

	// Keep only the latest events to prevent unbounded growth
	if len(s.events) > maxEventsToKeep {
		s.events = s.events[len(s.events)-maxEventsToKeep:]
	}
}

// GetDashboardData returns complete analytics dashboard data
func (s *Service) GetDashboardData() model.AnalyticsDashboard {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	now := s.now()
	yesterday := now.Add(-24 * time.Hour)
	lastWeek := now.Add(-7 * 24 * time.Hour)

	last24hEvents := filterEventsByTimeRange(s.events, yesterday, now.Add(time.Second))
	prev24hEvents := filterEventsByTimeRange(s.events, yesterday.Add(-24*time.Hour), yesterday)
	lastWeekEvents := filterEventsByTimeRange(s.events, lastWeek, now.Add(time.Second))

	usage := s.getIndexUsage(lastWeekEvents)
	totalDocuments := 0
	for _, stats := range usage {
		totalDocuments += stats.DocumentCount
	}

	return model.AnalyticsDashboard{
		TotalSearches:            len(last24hEvents),
		SearchesChangePercent:    calculateChangePercent(len(last24hEvents), len(prev24hEvents)),
		AvgResponseTime:          calculateAvgResponseTime(last24hEvents),
		ResponseTimeChange:       calculateResponseTimeChange(last24hEvents, prev24hEvents),
		ZeroResultRate:           zeroResultRate(last24hEvents),
		TotalDocuments:           totalDocuments,
		ActiveIndexes:            len(usage),
		SearchPerformance24h:     getHourlyPerformance(last24hEvents),
		PopularPhrases:           getPopularPhrases(lastWeekEvents, func(model.PhraseEvent) bool { return true }),
		ZeroResultPhrases:        getPopularPhrases(lastWeekEvents, func(e model.PhraseEvent) bool { return e.ResultCount == 0 }),
		IndexUsage:               usage,
		ResponseTimeDistribution: getResponseTimeDistribution(last24hEvents),
		SlopUsage:                getSlopUsage(last24hEvents),
	}
}

// filterEventsByTimeRange returns events in [start, end)
func filterEventsByTimeRange(events []model.PhraseEvent, start, end time.Time) []model.PhraseEvent {
	var filtered []model.PhraseEvent
	for _, event := range events {
		if !event.Timestamp.Before(start) && event.Timestamp.Before(end) {
			filtered = append(filtered, event)
		}
	}
	return filtered
}

// calculateChangePercent calculates percentage change between current and previous values
func calculateChangePercent(current, previous int) float64 {
	if previous == 0 {
		if current > 0 {
			return 100.0
		}
		return 0.0
	}
	return float64(current-previous) / float64(previous) * 100.0
}

// calculateAvgResponseTime calculates average response time for events in milliseconds
func calculateAvgResponseTime(events []model.PhraseEvent) int64 {
	if len(events) == 0 {
		return 0
	}

	var total time.Duration
	for _, event := range events {
		total += event.ResponseTime
	}
	return (total / time.Duration(len(events))).Milliseconds()
}

// calculateResponseTimeChange compares average latency against the previous period
func calculateResponseTimeChange(current, previous []model.PhraseEvent) string {
	currentAvg := calculateAvgResponseTime(current)
	previousAvg := calculateAvgResponseTime(previous)

	if previousAvg == 0 {
		return "stable"
	}

	change := float64(currentAvg-previousAvg) / float64(previousAvg)
	if change > 0.1 {
		return "up"
	} else if change < -0.1 {
		return "down"
	}
	return "stable"
}

func zeroResultRate(events []model.PhraseEvent) float64 {
	if len(events) == 0 {
		return 0
	}
	zero := 0
	for _, event := range events {
		if event.ResultCount == 0 {
			zero++
		}
	}
	return float64(zero) / float64(len(events)) * 100
}

// getHourlyPerformance returns hourly search performance for the last 24 hours
func getHourlyPerformance(events []model.PhraseEvent) []model.SearchPerformanceHourly {
	hourlyData := make(map[int][]model.PhraseEvent)
	for _, event := range events {
		hour := event.Timestamp.Hour()
		hourlyData[hour] = append(hourlyData[hour], event)
	}

	performance := make([]model.SearchPerformanceHourly, 0, 24)
	for hour := 0; hour < 24; hour++ {
		performance = append(performance, model.SearchPerformanceHourly{
			Hour:            hour,
			SearchCount:     len(hourlyData[hour]),
			AvgResponseTime: calculateAvgResponseTime(hourlyData[hour]),
		})
	}
	return performance
}

// getPopularPhrases returns the most frequent phrases among the events keep accepts,
// most frequent first and alphabetical among ties
func getPopularPhrases(events []model.PhraseEvent, keep func(model.PhraseEvent) bool) []model.PopularPhrase {
	counts := make(map[string]int)
	for _, event := range events {
		if event.Phrase != "" && keep(event) {
			counts[event.Phrase]++
		}
	}

	popular := make([]model.PopularPhrase, 0, len(counts))
	for phrase, count := range counts {
		popular = append(popular, model.PopularPhrase{Phrase: phrase, SearchCount: count})
	}
	sort.Slice(popular, func(i, j int) bool {
		if popular[i].SearchCount != popular[j].SearchCount {
			return popular[i].SearchCount > popular[j].SearchCount
		}
		return popular[i].Phrase < popular[j].Phrase
	})

	if len(popular) > topPhrases {
		popular = popular[:topPhrases]
	}
	return popular
}

// getIndexUsage returns usage statistics for each loaded index
func (s *Service) getIndexUsage(events []model.PhraseEvent) []model.IndexStats {
	indexSearchCounts := make(map[string]int)
	for _, event := range events {
		indexSearchCounts[event.IndexName]++
	}

	indexes := s.indexManager.ListIndexes()
	usage := make([]model.IndexStats, 0, len(indexes))
	for _, indexName := range indexes {
		documentCount := 0
		if accessor, err := s.indexManager.GetIndex(indexName); err == nil {
			documentCount = accessor.DocumentCount()
		}
		usage = append(usage, model.IndexStats{
			IndexName:     indexName,
			DocumentCount: documentCount,
			SearchCount:   indexSearchCounts[indexName],
		})
	}
	return usage
}

// getResponseTimeDistribution returns response time distribution
func getResponseTimeDistribution(events []model.PhraseEvent) model.ResponseTimeDistribution {
	dist := model.ResponseTimeDistribution{}
	total := len(events)
	if total == 0 {
		return dist
	}

	for _, event := range events {
		ms := event.ResponseTime.Milliseconds()
		switch {
		case ms <= 25:
			dist.Bucket0To25ms++
		case ms <= 50:
			dist.Bucket25To50ms++
		case ms <= 100:
			dist.Bucket50To100ms++
		default:
			dist.Bucket100msPlus++
		}
	}

	dist.Percentage0To25 = float64(dist.Bucket0To25ms) / float64(total) * 100
	dist.Percentage25To50 = float64(dist.Bucket25To50ms) / float64(total) * 100
	dist.Percentage50To100 = float64(dist.Bucket50To100ms) / float64(total) * 100
	dist.Percentage100Plus = float64(dist.Bucket100msPlus) / float64(total) * 100
	return dist
}

// getSlopUsage counts queries per slop, ascending by slop
func getSlopUsage(events []model.PhraseEvent) []model.SlopUsage {
	counts := make(map[int]int)
	for _, event := range events {
		counts[event.Slop]++
	}
	usage := make([]model.SlopUsage, 0, len(counts))
	for slop, count := range counts {
		usage = append(usage, model.SlopUsage{Slop: slop, Count: count})
	}
	sort.Slice(usage, func(i, j int) bool { return usage[i].Slop < usage[j].Slop })
	return usage
}

// Flush saves the event log to the data file.
func (s *Service) Flush() error {
	if s.dataFilePath == "" {
		return nil
	}
	s.mutex.RLock()
	events := make([]model.PhraseEvent, len(s.events))
	copy(events, s.events)
	s.mutex.RUnlock()

	return persistence.SaveGob(s.dataFilePath, events, persistence.WithCompression(3))
}

// loadData loads analytics data from file
func (s *Service) loadData() error {
	if s.dataFilePath == "" {
		return nil
	}
	var events []model.PhraseEvent
	if err := persistence.LoadGob(s.dataFilePath, &events); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil // File doesn't exist yet, that's okay
		}
		return err
	}
	s.events = events
	return nil
}
