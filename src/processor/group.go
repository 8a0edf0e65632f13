package processor

import "fmt"

// Warning 聚合过程中的非致命问题(空输入、分母为零、无法分类的值)
type Warning struct {
	Pipeline string `json:"pipeline"`
	Reason   string `json:"reason"`
}

func (w Warning) Error() string {
	return w.Pipeline + ": " + w.Reason
}

func warnf(pipeline, format string, args ...interface{}) Warning {
	return Warning{Pipeline: pipeline, Reason: fmt.Sprintf(format, args...)}
}

func emptyInput(pipeline string) []Warning {
	return []Warning{{Pipeline: pipeline, Reason: "empty input"}}
}

// group 按首次出现顺序保存的分组
type group[T any] struct {
	key  string
	rows []T
}

// groupBy 保持分组首次出现的顺序，之后的稳定排序依赖这一点
func groupBy[T any](rows []T, key func(T) string) []group[T] {
	index := make(map[string]int)
	var groups []group[T]
	for _, row := range rows {
		k := key(row)
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, group[T]{key: k})
		}
		groups[i].rows = append(groups[i].rows, row)
	}
	return groups
}

func sumOf[T any](rows []T, value func(T) int) int {
	total := 0
	for _, row := range rows {
		total += value(row)
	}
	return total
}

func meanOf[T any](rows []T, value func(T) float64) float64 {
	if len(rows) == 0 {
		return 0
	}
	total := 0.0
	for _, row := range rows {
		total += value(row)
	}
	return total / float64(len(rows))
}
