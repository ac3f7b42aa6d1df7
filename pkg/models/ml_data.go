package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ItemPrediction 品目ごとの在庫と需要予測
type ItemPrediction struct {
	ItemName        string  `json:"item_name"`
	CurrentStock    float64 `json:"current_stock"`
	PredictedDemand float64 `json:"predicted_demand"`
}

// PredictionSet は品目IDから予測レコードへの順序付きマップです。
// キーの順序はJSONドキュメント上の出現順で、グラフのラベル順にそのまま使われます。
type PredictionSet struct {
	keys  []string
	items map[string]ItemPrediction
}

// NewPredictionSet 空の予測セットを作成
func NewPredictionSet() *PredictionSet {
	return &PredictionSet{items: make(map[string]ItemPrediction)}
}

// Set はキーに対応するレコードを登録します。既存キーの場合は位置を保ったまま値だけを置き換えます。
func (ps *PredictionSet) Set(key string, item ItemPrediction) {
	if ps.items == nil {
		ps.items = make(map[string]ItemPrediction)
	}
	if _, exists := ps.items[key]; !exists {
		ps.keys = append(ps.keys, key)
	}
	ps.items[key] = item
}

// Get キーに対応するレコードを取得
func (ps *PredictionSet) Get(key string) (ItemPrediction, bool) {
	if ps == nil {
		return ItemPrediction{}, false
	}
	item, ok := ps.items[key]
	return item, ok
}

// Keys は挿入順のキー一覧のコピーを返します。
func (ps *PredictionSet) Keys() []string {
	if ps == nil {
		return []string{}
	}
	keys := make([]string, len(ps.keys))
	copy(keys, ps.keys)
	return keys
}

// Len 品目数
func (ps *PredictionSet) Len() int {
	if ps == nil {
		return 0
	}
	return len(ps.keys)
}

// UnmarshalJSON はキーの出現順を保持したままデコードします。
// 重複キーは最初の位置に最後の値が入ります（JavaScriptのオブジェクトと同じ挙動）。
func (ps *PredictionSet) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("demand_predictions の解析に失敗: %w", err)
	}
	if tok == nil {
		*ps = PredictionSet{items: make(map[string]ItemPrediction)}
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("demand_predictions はオブジェクトである必要があります: %v", tok)
	}

	next := PredictionSet{items: make(map[string]ItemPrediction)}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("demand_predictions のキー解析に失敗: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("demand_predictions のキーが文字列ではありません: %v", keyTok)
		}

		var item ItemPrediction
		if err := dec.Decode(&item); err != nil {
			return fmt.Errorf("demand_predictions[%q] の解析に失敗: %w", key, err)
		}
		next.Set(key, item)
	}

	// 閉じ括弧
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("demand_predictions の解析に失敗: %w", err)
	}

	*ps = next
	return nil
}

// MarshalJSON はキー順を保ったままエンコードします。
func (ps PredictionSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range ps.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(ps.items[key])
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// RiskAssessment リスク評価
type RiskAssessment struct {
	RiskScore float64 `json:"risk_score"` // 慣例上 0〜100
	RiskLevel string  `json:"risk_level"` // "High" / "Medium" / "Low"（大文字小文字を区別）
}

// MLData はページに埋め込まれるML出力のペイロードです。
// どちらのフィールドも省略可能で、欠けている方のグラフだけが描画されません。
type MLData struct {
	DemandPredictions *PredictionSet  `json:"demand_predictions,omitempty"`
	RiskAssessment    *RiskAssessment `json:"risk_assessment,omitempty"`
}
