package services

import (
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// 保持するログの上限件数
const maxMonitoringEntries = 5000

// LogEntry は単一のリクエストログを表します。
type LogEntry struct {
	Timestamp    time.Time     `json:"timestamp"`
	Path         string        `json:"path"`
	Method       string        `json:"method"`
	StatusCode   int           `json:"statusCode"`
	ResponseTime time.Duration `json:"responseTime"`
}

// MonitoringService はリクエストとグラフ描画のモニタリング機能を提供します。
type MonitoringService struct {
	logs    []LogEntry
	renders []RenderEvent
	mu      sync.RWMutex
}

// NewMonitoringService は新しいMonitoringServiceを生成します。
func NewMonitoringService() *MonitoringService {
	return &MonitoringService{
		logs:    make([]LogEntry, 0),
		renders: make([]RenderEvent, 0),
	}
}

// LogRequest はリクエストを記録します。
func (s *MonitoringService) LogRequest(entry LogEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = appendBounded(s.logs, entry)
}

// RecordRender はグラフ1枚分の描画結果を記録します。
func (s *MonitoringService) RecordRender(event RenderEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.renders = appendBounded(s.renders, event)
}

func appendBounded[T any](entries []T, entry T) []T {
	entries = append(entries, entry)
	if over := len(entries) - maxMonitoringEntries; over > 0 {
		entries = append(entries[:0:0], entries[over:]...)
	}
	return entries
}

// LoggingMiddleware はリクエスト情報を記録するGinミドルウェアです。
func (s *MonitoringService) LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		// モニタリングAPI自身とヘルスチェックは記録しない
		path := c.Request.URL.Path
		if strings.HasPrefix(path, "/api/v1/monitoring") || path == "/health" {
			return
		}

		s.LogRequest(LogEntry{
			Timestamp:    start,
			Path:         path,
			Method:       c.Request.Method,
			StatusCode:   c.Writer.Status(),
			ResponseTime: time.Since(start),
		})
	}
}

// RenderSummary はグラフ描画の集計です。
type RenderSummary struct {
	Total          int              `json:"total"`
	Failed         int              `json:"failed"`
	BySurface      map[string]int   `json:"bySurface"`
	AvgRenderMs    map[string]int64 `json:"avgRenderMs"`
	RecentFailures []RenderEvent    `json:"recentFailures"`
}

// DashboardData はモニタリング画面に表示するための集計済みデータです。
type DashboardData struct {
	RequestsOverTime []map[string]interface{} `json:"requestsOverTime"`
	Endpoints        map[string]int           `json:"endpoints"`
	StatusCodes      []map[string]interface{} `json:"statusCodes"`
	AvgResponseTimes []map[string]interface{} `json:"avgResponseTimes"`
	RecentErrors     []LogEntry               `json:"recentErrors"`
	Renders          RenderSummary            `json:"renders"`
}

// GetDashboardData は指定された期間のログを集計して返します。
func (s *MonitoringService) GetDashboardData(periodHours int) DashboardData {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// JSTタイムゾーンを取得
	jst, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		// JSTが取得できない場合はUTCを使用
		jst = time.UTC
	}

	now := time.Now().In(jst)
	since := now.Add(-time.Duration(periodHours) * time.Hour)

	filteredLogs := make([]LogEntry, 0)
	for _, log := range s.logs {
		if log.Timestamp.After(since) {
			filteredLogs = append(filteredLogs, log)
		}
	}

	// 時間ごとのリクエスト数（過去から現在の順）
	requestsOverTime := make([]map[string]interface{}, periodHours)
	hourlyBuckets := make(map[string]int)
	for _, log := range filteredLogs {
		hourlyBuckets[log.Timestamp.In(jst).Truncate(time.Hour).Format(time.RFC3339)]++
	}
	for i := 0; i < periodHours; i++ {
		targetTime := now.Add(-time.Duration(periodHours-1-i) * time.Hour)
		bucketKey := targetTime.Truncate(time.Hour).Format(time.RFC3339)
		requestsOverTime[i] = map[string]interface{}{
			"time":     targetTime.Format("15:00"),
			"requests": hourlyBuckets[bucketKey],
		}
	}

	// エンドポイント別・ステータス別の集計
	endpoints := make(map[string]int)
	statusCodes := map[string]int{
		"2xx Success":      0,
		"4xx Client Error": 0,
		"5xx Server Error": 0,
	}
	responseTimeSum := make(map[string]time.Duration)
	for _, log := range filteredLogs {
		endpoints[log.Path]++
		responseTimeSum[log.Path] += log.ResponseTime
		switch {
		case log.StatusCode >= 200 && log.StatusCode < 300:
			statusCodes["2xx Success"]++
		case log.StatusCode >= 400 && log.StatusCode < 500:
			statusCodes["4xx Client Error"]++
		case log.StatusCode >= 500:
			statusCodes["5xx Server Error"]++
		}
	}
	statusCodesSlice := make([]map[string]interface{}, 0, len(statusCodes))
	for _, name := range []string{"2xx Success", "4xx Client Error", "5xx Server Error"} {
		statusCodesSlice = append(statusCodesSlice, map[string]interface{}{"name": name, "value": statusCodes[name]})
	}
	avgResponseTimes := make([]map[string]interface{}, 0, len(responseTimeSum))
	for path, total := range responseTimeSum {
		avg := total.Milliseconds() / int64(endpoints[path])
		avgResponseTimes = append(avgResponseTimes, map[string]interface{}{"endpoint": path, "responseTime": avg})
	}

	// 直近の5xxエラー（新しい順に最大10件）
	recentErrors := make([]LogEntry, 0)
	for i := len(filteredLogs) - 1; i >= 0 && len(recentErrors) < 10; i-- {
		if filteredLogs[i].StatusCode >= 500 {
			recentErrors = append(recentErrors, filteredLogs[i])
		}
	}

	return DashboardData{
		RequestsOverTime: requestsOverTime,
		Endpoints:        endpoints,
		StatusCodes:      statusCodesSlice,
		AvgResponseTimes: avgResponseTimes,
		RecentErrors:     recentErrors,
		Renders:          s.summarizeRenders(since),
	}
}

// summarizeRenders は呼び出し側でロックを取得済みであることを前提とします。
func (s *MonitoringService) summarizeRenders(since time.Time) RenderSummary {
	summary := RenderSummary{
		BySurface:      make(map[string]int),
		AvgRenderMs:    make(map[string]int64),
		RecentFailures: make([]RenderEvent, 0),
	}
	durations := make(map[string]time.Duration)
	for _, ev := range s.renders {
		if !ev.Timestamp.After(since) {
			continue
		}
		summary.Total++
		summary.BySurface[ev.SurfaceID]++
		durations[ev.SurfaceID] += ev.Duration
		if ev.Error != "" {
			summary.Failed++
		}
	}
	for id, total := range durations {
		summary.AvgRenderMs[id] = total.Milliseconds() / int64(summary.BySurface[id])
	}
	for i := len(s.renders) - 1; i >= 0 && len(summary.RecentFailures) < 10; i-- {
		ev := s.renders[i]
		if ev.Error != "" && ev.Timestamp.After(since) {
			summary.RecentFailures = append(summary.RecentFailures, ev)
		}
	}
	return summary
}
