package utils

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/xuri/excelize/v2"
)

// Excel 日期序列号的起点(已包含 1900 闰年问题的偏移)
var excelEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

// 工作表名称不允许的字符
var sheetNameReplacer = strings.NewReplacer(
	":", "_", "\\", "_", "/", "_", "?", "_", "*", "_", "[", "(", "]", ")",
)

func Contains[T comparable](slice []T, item T) bool {
	for _, v := range slice {
		if v == item {
			return true
		}
	}
	return false
}

// 辅助函数：判断DataFrame是否有某列
func HasColumn(df dataframe.DataFrame, name string) bool {
	for _, n := range df.Names() {
		if n == name {
			return true
		}
	}
	return false
}

// ExcelSerialToTime 把 Excel 日期序列号(如 40544)转换为时间
func ExcelSerialToTime(serial float64) time.Time {
	days := int(serial)
	fraction := serial - float64(days)
	return excelEpoch.AddDate(0, 0, days).
		Add(time.Duration(86400 * fraction * float64(time.Second)).Round(time.Second))
}

// NormalizeExcelDate 数值形式的日期转成 2006-01-02，其他原样返回
func NormalizeExcelDate(raw string) string {
	serial, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || serial <= 0 {
		return raw
	}
	t := ExcelSerialToTime(serial)
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 {
		return t.Format("2006-01-02")
	}
	return t.Format("2006-01-02 15:04:05")
}

// NamedTable 导出到工作簿的一张表
type NamedTable struct {
	Name string
	Data dataframe.DataFrame
}

// SaveToExcel 每张表写入一个工作表并保存
func SaveToExcel(tables []NamedTable, filePath string) error {
	f, err := buildWorkbook(tables)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(filePath); err != nil {
		return fmt.Errorf("保存Excel文件失败: %w", err)
	}
	return nil
}

// WriteExcelToBuffer 与 SaveToExcel 相同，但写入内存
func WriteExcelToBuffer(tables []NamedTable) (*bytes.Buffer, error) {
	f, err := buildWorkbook(tables)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("生成Excel失败: %w", err)
	}
	return buf, nil
}

func buildWorkbook(tables []NamedTable) (*excelize.File, error) {
	f := excelize.NewFile()
	if len(tables) == 0 {
		return f, nil
	}

	for i, table := range tables {
		name := SheetName(table.Name)
		if i == 0 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				f.Close()
				return nil, fmt.Errorf("设置工作表名称失败: %w", err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			f.Close()
			return nil, fmt.Errorf("创建工作表 %s 失败: %w", name, err)
		}
		if err := writeDataFrame(f, name, table.Data); err != nil {
			f.Close()
			return nil, err
		}
	}
	f.SetActiveSheet(0)
	return f, nil
}

func writeDataFrame(f *excelize.File, sheetName string, df dataframe.DataFrame) error {
	// 写入列名
	colNames := df.Names()
	for i, name := range colNames {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheetName, cell, name); err != nil {
			return fmt.Errorf("写入表头失败: %w", err)
		}
	}

	// 写入数据
	for colIdx, colName := range colNames {
		col := df.Col(colName)
		for rowIdx := 0; rowIdx < df.Nrow(); rowIdx++ {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err := f.SetCellValue(sheetName, cell, col.Val(rowIdx)); err != nil {
				return fmt.Errorf("写入单元格 %s 失败: %w", cell, err)
			}
		}
	}
	return nil
}

// SheetName 去掉非法字符并截断到 31 个字符
func SheetName(name string) string {
	name = sheetNameReplacer.Replace(strings.TrimSpace(name))
	if name == "" {
		name = "Sheet1"
	}
	if r := []rune(name); len(r) > 31 {
		name = string(r[:31])
	}
	return name
}
