package services

import (
	"math"
	"sort"
)

// Shortfall 予測需要が在庫を上回っている品目
type Shortfall struct {
	Name   string  `json:"name"`
	Stock  float64 `json:"stock"`
	Demand float64 `json:"demand"`
	Gap    float64 `json:"gap"`
}

// SeriesSummary は需要比較グラフの数値を集計したものです。
type SeriesSummary struct {
	Items         int         `json:"items"`
	TotalStock    float64     `json:"totalStock"`
	TotalDemand   float64     `json:"totalDemand"`
	CoverageRatio float64     `json:"coverageRatio"`
	MeanGap       float64     `json:"meanGap"`
	GapStdDev     float64     `json:"gapStdDev"`
	Shortfalls    []Shortfall `json:"shortfalls"`
}

// SummarizeSeries は在庫と予測需要の差（需要 − 在庫）を集計します。
// 有限でない値を含む品目は集計から除きます。不足品目は不足量の大きい順です。
func SummarizeSeries(cs ChartSeries) SeriesSummary {
	summary := SeriesSummary{Items: cs.Len(), Shortfalls: []Shortfall{}}
	gaps := make([]float64, 0, cs.Len())
	for _, row := range cs.Rows() {
		if !finite(row.Stock) || !finite(row.Demand) {
			continue
		}
		summary.TotalStock += row.Stock
		summary.TotalDemand += row.Demand
		gap := row.Demand - row.Stock
		gaps = append(gaps, gap)
		if gap > 0 {
			summary.Shortfalls = append(summary.Shortfalls, Shortfall{Name: row.Label, Stock: row.Stock, Demand: row.Demand, Gap: gap})
		}
	}
	if summary.TotalDemand > 0 {
		summary.CoverageRatio = summary.TotalStock / summary.TotalDemand
	}
	summary.MeanGap = calculateMean(gaps)
	summary.GapStdDev = calculateStandardDeviation(gaps)

	sort.SliceStable(summary.Shortfalls, func(i, j int) bool {
		return summary.Shortfalls[i].Gap > summary.Shortfalls[j].Gap
	})
	return summary
}

// calculateMean 平均値を計算
func calculateMean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// calculateStandardDeviation 母標準偏差を計算
func calculateStandardDeviation(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean := calculateMean(values)
	sumSquaredDiff := 0.0
	for _, v := range values {
		diff := v - mean
		sumSquaredDiff += diff * diff
	}
	return math.Sqrt(sumSquaredDiff / float64(len(values)))
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
