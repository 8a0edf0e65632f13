package service

import (
	"BikeSharingInsight/src/config"
	"BikeSharingInsight/src/dataset"
	"BikeSharingInsight/src/processor"
	"BikeSharingInsight/src/storage"
	"fmt"
	"strings"
)

// Service 串起数据集缓存、过滤与聚合，HTTP 和定时任务共用
type Service struct {
	cfg    *config.Config
	opts   dataset.LoadOptions
	cache  *storage.DatasetCache
	proc   *processor.DataProcessor
	logger *storage.Logger
}

func NewService(cfg *config.Config, dcfg *config.DataConfig, logger *storage.Logger) *Service {
	if dcfg == nil {
		dcfg = config.DefaultDataConfig()
	}
	s := &Service{
		cfg: cfg,
		opts: dataset.LoadOptions{
			Columns:   dataset.ColumnMap(dcfg.ColumnMap()),
			SheetName: cfg.Dataset.SheetName,
			Table:     cfg.Dataset.Table,
		},
		proc:   processor.NewDataProcessor(dcfg),
		logger: logger,
	}
	s.cache = storage.NewDatasetCache(s.Load, logger)
	return s
}

func (s *Service) DatasetPath() string {
	return s.cfg.Dataset.Path
}

// Load 按配置的列映射直接读取文件，不经过缓存
func (s *Service) Load(path string) (*dataset.Dataset, error) {
	return dataset.LoadFile(path, s.opts)
}

// ValidateDataset 检查文件能否作为数据集加载
func (s *Service) ValidateDataset(path string) error {
	_, err := s.Load(path)
	return err
}

// Dataset 返回缓存中的数据集，首次访问或文件变化时加载
func (s *Service) Dataset() (*dataset.Dataset, error) {
	return s.cache.Get(s.cfg.Dataset.Path)
}

func (s *Service) Options() (dataset.Options, error) {
	ds, err := s.Dataset()
	if err != nil {
		return dataset.Options{}, err
	}
	return ds.Options(), nil
}

// Compute 过滤并计算全部结果；条件非法时返回 *dataset.FilterError
func (s *Service) Compute(c dataset.FilterCriteria) (*processor.Dashboard, error) {
	ds, err := s.Dataset()
	if err != nil {
		return nil, err
	}
	view, err := ds.Filter(c)
	if err != nil {
		return nil, err
	}

	d := s.proc.Process(view)
	if s.logger != nil {
		s.logger.Debug(fmt.Sprintf("计算完成 %s~%s: %s", view.Criteria.Start, view.Criteria.End, d.Summary()))
		if len(d.Warnings) > 0 {
			reasons := make([]string, len(d.Warnings))
			for i, w := range d.Warnings {
				reasons[i] = w.Error()
			}
			s.logger.Debug("聚合警告: " + strings.Join(reasons, "; "))
		}
	}
	return d, nil
}

// Invalidate 丢弃缓存，下次访问重新加载
func (s *Service) Invalidate() {
	s.cache.InvalidateAll()
}
