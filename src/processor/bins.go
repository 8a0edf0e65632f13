package processor

// Unclassified 不落在任何区间内的值
const Unclassified = "Unclassified"

// MinClusterSupport 天气-温度组合至少需要的天数
const MinClusterSupport = 10

// Bin 左开右闭区间 (Lower, Upper]
type Bin struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Label string  `json:"label"`
}

func (b Bin) Contains(v float64) bool {
	return v > b.Lower && v <= b.Upper
}

// BinTable 按严重程度排列的一组区间
type BinTable []Bin

// Classify 返回 v 所在区间的标签，不在任何区间时 ok 为 false
func (t BinTable) Classify(v float64) (label string, ok bool) {
	for _, b := range t {
		if b.Contains(v) {
			return b.Label, true
		}
	}
	return "", false
}

// Label 与 Classify 相同，但未分类时返回 Unclassified
func (t BinTable) Label(v float64) string {
	if label, ok := t.Classify(v); ok {
		return label
	}
	return Unclassified
}

// Rank 标签在表中的位置，未知标签排在最后
func (t BinTable) Rank(label string) int {
	for i, b := range t {
		if b.Label == label {
			return i
		}
	}
	return len(t)
}

func (t BinTable) Labels() []string {
	labels := make([]string, len(t))
	for i, b := range t {
		labels[i] = b.Label
	}
	return labels
}

// 固定的分箱配置
var (
	UsageBins = BinTable{
		{Lower: 0, Upper: 50, Label: "Low"},
		{Lower: 50, Upper: 150, Label: "Medium"},
		{Lower: 150, Upper: 250, Label: "High"},
		{Lower: 250, Upper: 500, Label: "Very High"},
	}
	TemperatureBins = BinTable{
		{Lower: 0, Upper: 0.25, Label: "Cold"},
		{Lower: 0.25, Upper: 0.5, Label: "Cool"},
		{Lower: 0.5, Upper: 0.75, Label: "Warm"},
		{Lower: 0.75, Upper: 1.0, Label: "Hot"},
	}
	HumidityBins = BinTable{
		{Lower: 0, Upper: 0.5, Label: "Low"},
		{Lower: 0.5, Upper: 0.7, Label: "Medium"},
		{Lower: 0.7, Upper: 1.0, Label: "High"},
	}
	CompositionBins = BinTable{
		{Lower: 0, Upper: 0.6, Label: "Mostly Casual"},
		{Lower: 0.6, Upper: 0.75, Label: "Mixed"},
		{Lower: 0.75, Upper: 0.9, Label: "Mostly Registered"},
		{Lower: 0.9, Upper: 1.0, Label: "Almost All Registered"},
	}
)
