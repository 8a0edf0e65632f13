package dataset

import "fmt"

// LoadError 数据集加载失败，不会返回部分数据
type LoadError struct {
	Path   string
	Row    int // 数据行号(从1开始)，0 表示与具体行无关
	Column string
	Reason string
	Err    error
}

func (e *LoadError) Error() string {
	msg := "load error"
	if e.Path != "" {
		msg += " for " + e.Path
	}
	if e.Row > 0 {
		msg += fmt.Sprintf(" (row %d", e.Row)
		if e.Column != "" {
			msg += ", column " + e.Column
		}
		msg += ")"
	} else if e.Column != "" {
		msg += " (column " + e.Column + ")"
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// FilterError 过滤条件不合法
type FilterError struct {
	Start  Date
	End    Date
	Reason string
}

func (e *FilterError) Error() string {
	return fmt.Sprintf("filter error [%s, %s]: %s", e.Start, e.End, e.Reason)
}
