package service

import (
	"BikeSharingInsight/src/config"
	"BikeSharingInsight/src/datapush"
	"BikeSharingInsight/src/dataset"
	"BikeSharingInsight/src/datasource/email"
	"BikeSharingInsight/src/processor"
	"BikeSharingInsight/src/storage"
	"BikeSharingInsight/src/utils"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Pusher 推送报表摘要
type Pusher interface {
	PushMarkdown(ctx context.Context, title, text string) error
}

// Mailer 发送报表邮件
type Mailer func(cfg *config.Config, subject, body, attachmentPath string) error

// Reporter 定时导出全量报表，并推送摘要、发送邮件
type Reporter struct {
	cfg    *config.Config
	svc    *Service
	logger *storage.Logger
	Pusher Pusher // 为 nil 时不推送
	Mailer Mailer // 为 nil 时不发邮件
	now    func() time.Time
}

func NewReporter(cfg *config.Config, svc *Service, logger *storage.Logger) *Reporter {
	r := &Reporter{
		cfg:    cfg,
		svc:    svc,
		logger: logger,
		now:    time.Now,
	}
	if cfg.Report.WebhookURL != "" {
		r.Pusher = datapush.NewRobotPusher(cfg.Report.WebhookURL, cfg.Report.WebhookSecret)
	}
	if len(cfg.SendEmail.To) > 0 {
		r.Mailer = email.SendReport
	}
	return r
}

// Run 计算无过滤条件的结果并导出工作簿，返回导出文件路径。
// 推送和邮件失败会合并返回，但不影响导出
func (r *Reporter) Run(ctx context.Context) (string, error) {
	d, err := r.svc.Compute(dataset.FilterCriteria{})
	if err != nil {
		return "", fmt.Errorf("计算报表失败: %w", err)
	}

	if err := os.MkdirAll(r.cfg.Report.ExportDir, 0755); err != nil {
		return "", fmt.Errorf("创建导出目录失败: %w", err)
	}
	path := filepath.Join(r.cfg.Report.ExportDir, fmt.Sprintf("bike_report_%s.xlsx", r.now().Format("20060102_150405")))
	if err := utils.SaveToExcel(d.Tables(), path); err != nil {
		return "", fmt.Errorf("导出报表失败: %w", err)
	}
	r.logger.Info("报表已导出: " + path)

	title := "共享单车日报 " + r.now().Format("2006-01-02")
	text := FormatSummary(d)

	var result error
	if r.Pusher != nil {
		if err := r.Pusher.PushMarkdown(ctx, title, "### "+title+"\n\n"+text); err != nil {
			result = multierror.Append(result, fmt.Errorf("钉钉推送失败: %w", err))
		} else {
			r.logger.Info("报表摘要已推送")
		}
	}
	if r.Mailer != nil {
		if err := r.Mailer(r.cfg, title, text, path); err != nil {
			result = multierror.Append(result, err)
		} else {
			r.logger.Info("报表邮件已发送")
		}
	}
	return path, result
}

// FormatSummary 生成 markdown 摘要，数字按千分位分组
func FormatSummary(d *processor.Dashboard) string {
	p := message.NewPrinter(language.English)
	m := d.Metrics

	var sb strings.Builder
	sb.WriteString(p.Sprintf("- 日期: %s ~ %s\n", d.Criteria.Start, d.Criteria.End))
	sb.WriteString(p.Sprintf("- 总租借量: %d\n", m.TotalRentals))
	sb.WriteString(p.Sprintf("- 日均租借量: %.0f\n", m.MeanDailyRentals))
	sb.WriteString(p.Sprintf("- 单日最高: %d\n", m.MaxDailyRentals))
	sb.WriteString(p.Sprintf("- 天数: %d\n", m.Days))
	if len(d.Seasonal) > 0 {
		top := d.Seasonal[0]
		sb.WriteString(p.Sprintf("- 租借最多的季节: %s (%d)\n", top.Season, top.Sum))
	}
	if len(d.Warnings) > 0 {
		sb.WriteString(p.Sprintf("- 警告: %d 条\n", len(d.Warnings)))
	}
	return sb.String()
}
