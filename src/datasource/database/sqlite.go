package database

import (
	"database/sql"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	_ "modernc.org/sqlite"
)

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Open 打开已存在的 SQLite 数据文件
func Open(path string) (*sql.DB, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("无法连接数据库 %s: %w", path, err)
	}
	return db, nil
}

// ReadSQLiteToDataFrame 读取整张表，所有值转为字符串
func ReadSQLiteToDataFrame(path, table string) (dataframe.DataFrame, error) {
	if !tableNamePattern.MatchString(table) {
		return dataframe.DataFrame{}, fmt.Errorf("非法表名: %q", table)
	}

	db, err := Open(path)
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	defer db.Close()

	rows, err := db.Query("SELECT * FROM " + table)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("查询表 %s 失败: %w", table, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return dataframe.DataFrame{}, err
	}

	records := [][]string{cols}
	values := make([]interface{}, len(cols))
	ptrs := make([]interface{}, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return dataframe.DataFrame{}, fmt.Errorf("读取表 %s 失败: %w", table, err)
		}
		record := make([]string, len(cols))
		for i, v := range values {
			record[i] = formatValue(v)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return dataframe.DataFrame{}, err
	}

	if len(records) == 1 {
		// 只有表头时 gota 无法建表
		seriesList := make([]series.Series, len(cols))
		for i, c := range cols {
			seriesList[i] = series.New([]string{}, series.String, c)
		}
		return dataframe.New(seriesList...), nil
	}

	df := dataframe.LoadRecords(records,
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
	)
	if df.Err != nil {
		return dataframe.DataFrame{}, df.Err
	}
	return df, nil
}

func formatValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case []byte:
		return string(val)
	case string:
		return val
	case time.Time:
		return val.Format("2006-01-02 15:04:05")
	default:
		return fmt.Sprint(val)
	}
}
