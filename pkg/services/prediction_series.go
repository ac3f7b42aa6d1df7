package services

import "relief-dashboard-api/pkg/models"

// ChartSeries は予測セットから作る並列配列です。i番目は3配列とも同じ品目を指します。
type ChartSeries struct {
	Names  []string  `json:"names"`
	Stock  []float64 `json:"stock"`
	Demand []float64 `json:"demand"`
}

// SeriesRow 1品目分の (ラベル, 在庫, 需要)
type SeriesRow struct {
	Label  string  `json:"label"`
	Stock  float64 `json:"stock"`
	Demand float64 `json:"demand"`
}

// ExtractSeries は予測セットのキー順に品目名・現在在庫・予測需要を取り出します。
// 値の検証や補正は行いません。
func ExtractSeries(set *models.PredictionSet) ChartSeries {
	n := set.Len()
	series := ChartSeries{
		Names:  make([]string, 0, n),
		Stock:  make([]float64, 0, n),
		Demand: make([]float64, 0, n),
	}
	for _, key := range set.Keys() {
		item, _ := set.Get(key)
		series.Names = append(series.Names, item.ItemName)
		series.Stock = append(series.Stock, item.CurrentStock)
		series.Demand = append(series.Demand, item.PredictedDemand)
	}
	return series
}

// Len 品目数
func (cs ChartSeries) Len() int {
	return len(cs.Names)
}

// Rows は3配列を行単位にまとめて返します。
func (cs ChartSeries) Rows() []SeriesRow {
	rows := make([]SeriesRow, 0, len(cs.Names))
	for i, name := range cs.Names {
		rows = append(rows, SeriesRow{Label: name, Stock: cs.Stock[i], Demand: cs.Demand[i]})
	}
	return rows
}
