// reader.go
package file

import (
	"BikeSharingInsight/src/utils"
	"bufio"
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/tealeg/xlsx"
)

// 列名包含这些关键字时视为日期列
var dateKeywords = []string{"日期", "date", "dteday"}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadCSVToDataFrame 读取 CSV，所有列按字符串读入，类型转换交给加载器
func ReadCSVToDataFrame(filePath string) (dataframe.DataFrame, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("failed to open csv file: %w", err)
	}
	defer f.Close()

	// Excel 另存的 "CSV UTF-8" 带 BOM，不去掉会污染第一列列名
	r := bufio.NewReader(f)
	if bom, err := r.Peek(3); err == nil && bytes.Equal(bom, utf8BOM) {
		r.Discard(3)
	}

	df := dataframe.ReadCSV(r,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
	)
	if df.Err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("failed to parse csv file: %w", df.Err)
	}
	return df, nil
}

// ReadXLSXToDataFrame 读取工作表；sheetName 为空时取第一个工作表。
// dateColumns 指定需要把 Excel 序列号转换为日期的列，为空时按列名关键字推断
func ReadXLSXToDataFrame(filePath, sheetName string, dateColumns ...string) (dataframe.DataFrame, error) {
	df, err := ReadXLSX(filePath, sheetName, dateColumns...)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("failed to open xlsx file: %w", err)
	}

	return df, nil
}

func ReadXLSX(filePath, sheetName string, dateColumns ...string) (dataframe.DataFrame, error) {
	// 1. 使用tealeg/xlsx打开Excel文件
	xlFile, err := xlsx.OpenFile(filePath)
	if err != nil {
		return dataframe.New(), fmt.Errorf("xlsx open file false: %w", err)
	}

	// 2. 获取工作表
	if len(xlFile.Sheets) == 0 {
		return dataframe.New(), fmt.Errorf("excel文件中没有工作表")
	}
	sheet := xlFile.Sheets[0]
	if sheetName != "" {
		var ok bool
		if sheet, ok = xlFile.Sheet[sheetName]; !ok {
			return dataframe.New(), fmt.Errorf("工作表 %s 不存在", sheetName)
		}
	}

	// 3. 转换为Gota DataFrame
	return convertSheetToDataFrame(sheet, dateColumns), nil
}

// convertSheetToDataFrame 将xlsx.Sheet转换为dataframe.DataFrame，第一个非空行为标题行
func convertSheetToDataFrame(sheet *xlsx.Sheet, dateColumns []string) dataframe.DataFrame {
	headerIdx := -1
	for i, row := range sheet.Rows {
		if row != nil && !isEmptyRow(row) {
			headerIdx = i
			break
		}
	}
	if headerIdx < 0 {
		return dataframe.New()
	}

	var headers []string
	for _, cell := range sheet.Rows[headerIdx].Cells {
		headers = append(headers, strings.TrimSpace(cell.Value))
	}
	// 去掉尾部的空表头
	for len(headers) > 0 && headers[len(headers)-1] == "" {
		headers = headers[:len(headers)-1]
	}

	if len(dateColumns) == 0 {
		dateColumns = findDateColumns(headers)
	}
	isDate := make([]bool, len(headers))
	for i, h := range headers {
		isDate[i] = utils.Contains(dateColumns, h)
	}

	// 准备数据列
	columns := make([][]string, len(headers))
	for _, row := range sheet.Rows[headerIdx+1:] {
		if row == nil || isEmptyRow(row) {
			continue
		}
		for i := range headers {
			value := ""
			if i < len(row.Cells) {
				value = strings.TrimSpace(row.Cells[i].Value)
			}
			if isDate[i] {
				value = utils.NormalizeExcelDate(value)
			}
			columns[i] = append(columns[i], value)
		}
	}

	seriesList := make([]series.Series, len(headers))
	for i, colName := range headers {
		seriesList[i] = series.New(columns[i], series.String, colName)
	}

	return dataframe.New(seriesList...)
}

func isEmptyRow(row *xlsx.Row) bool {
	for _, cell := range row.Cells {
		if strings.TrimSpace(cell.Value) != "" {
			return false
		}
	}
	return true
}

// 辅助函数：查找可能是日期类型的列
func findDateColumns(headers []string) []string {
	var dateCols []string
	for _, col := range headers {
		lower := strings.ToLower(col)
		for _, kw := range dateKeywords {
			if strings.Contains(lower, kw) {
				dateCols = append(dateCols, col)
				break
			}
		}
	}
	return dateCols
}
