package web

import (
	"BikeSharingInsight/src/dataset"
	"BikeSharingInsight/src/processor"
	"BikeSharingInsight/src/service"
	"BikeSharingInsight/src/storage"
	"BikeSharingInsight/src/utils"
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc      *service.Service
	sessions *service.SessionStore
	logger   *storage.Logger
}

// GET /health
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"dataset": h.svc.DatasetPath(),
	})
}

// GET /api/v1/options
func (h *Handler) Options(c *gin.Context) {
	opts, err := h.svc.Options()
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	Success(c, opts)
}

// GET /api/v1/dashboard?start=&end=&season=&weather=
func (h *Handler) Dashboard(c *gin.Context) {
	d, ok := h.apply(c)
	if !ok {
		return
	}
	Success(c, d)
}

// GET /api/v1/tables
func (h *Handler) TableNames(c *gin.Context) {
	Success(c, processor.TableNames())
}

// GET /api/v1/tables/:name?format=json|csv
func (h *Handler) Table(c *gin.Context) {
	name := c.Param("name")
	if !utils.Contains(processor.TableNames(), name) {
		Error(c, http.StatusNotFound, fmt.Sprintf("unknown table %q", name), nil)
		return
	}

	d, ok := h.apply(c)
	if !ok {
		return
	}
	df, _ := d.Table(name)

	switch c.DefaultQuery("format", "json") {
	case "csv":
		var buf bytes.Buffer
		if err := df.WriteCSV(&buf); err != nil {
			Error(c, http.StatusInternalServerError, err.Error(), nil)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.csv", name))
		c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
	case "json":
		Success(c, df.Maps())
	default:
		Error(c, http.StatusBadRequest, "format must be json or csv", nil)
	}
}

// GET /api/v1/export 全部结果表导出为 xlsx，每张表一个工作表
func (h *Handler) Export(c *gin.Context) {
	d, ok := h.apply(c)
	if !ok {
		return
	}
	buf, err := utils.WriteExcelToBuffer(d.Tables())
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	filename := fmt.Sprintf("bike_dashboard_%s.xlsx", time.Now().Format("20060102_150405"))
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

// GET /logs 实时日志
func (h *Handler) Logs(c *gin.Context) {
	logChan := h.logger.Subscribe()
	defer h.logger.Unsubscribe(logChan)

	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.Stream(func(w io.Writer) bool {
		select {
		case msg, ok := <-logChan:
			if !ok {
				return false
			}
			_, err := fmt.Fprint(w, msg)
			return err == nil
		case <-c.Request.Context().Done():
			return false
		}
	})
}

// apply 解析过滤条件并在当前会话上计算；失败时已写出响应
func (h *Handler) apply(c *gin.Context) (*processor.Dashboard, bool) {
	session := h.sessions.Get(c.GetHeader(SessionHeader))
	c.Header(SessionHeader, session.ID)

	criteria, err := ParseCriteria(c)
	if err != nil {
		prev, _ := session.Current()
		h.fail(c, err, prev)
		return nil, false
	}

	d, err := session.Apply(h.svc, criteria)
	if err != nil {
		h.fail(c, err, d)
		return nil, false
	}
	return d, true
}

// fail FilterError 返回 400 和上一次有效结果，加载失败返回 500
func (h *Handler) fail(c *gin.Context, err error, prev *processor.Dashboard) {
	var fe *dataset.FilterError
	if errors.As(err, &fe) {
		var data interface{}
		if prev != nil {
			data = prev
		}
		Error(c, http.StatusBadRequest, err.Error(), data)
		return
	}
	h.logger.Error("请求处理失败: " + err.Error())
	Error(c, http.StatusInternalServerError, err.Error(), nil)
}

// ParseCriteria 读取 start、end、season、weather 查询参数；
// season/weather 可重复，也可用逗号分隔
func ParseCriteria(c *gin.Context) (dataset.FilterCriteria, error) {
	var criteria dataset.FilterCriteria
	for _, p := range []struct {
		name string
		dst  *dataset.Date
	}{
		{"start", &criteria.Start},
		{"end", &criteria.End},
	} {
		raw := strings.TrimSpace(c.Query(p.name))
		if raw == "" {
			continue
		}
		d, err := dataset.ParseDate(raw)
		if err != nil {
			return criteria, &dataset.FilterError{Reason: fmt.Sprintf("invalid %s date %q", p.name, raw)}
		}
		*p.dst = d
	}
	criteria.Seasons = splitValues(c.QueryArray("season"))
	criteria.Weathers = splitValues(c.QueryArray("weather"))
	return criteria, nil
}

func splitValues(raw []string) []string {
	var out []string
	for _, r := range raw {
		for _, v := range strings.Split(r, ",") {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}

// requestLogger 请求日志写入应用日志
func requestLogger(logger *storage.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if c.FullPath() == "/logs" {
			return
		}
		logger.Debug(fmt.Sprintf("%s %s %d %s", c.Request.Method, c.Request.URL.RequestURI(),
			c.Writer.Status(), time.Since(start).Round(time.Microsecond)))
	}
}
