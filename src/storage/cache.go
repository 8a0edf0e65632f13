package storage

import (
	"BikeSharingInsight/src/dataset"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// DatasetLoader 由调用方决定如何从路径加载数据集
type DatasetLoader func(path string) (*dataset.Dataset, error)

// 数据源标识：路径 + 大小 + 修改时间，任一变化即重新加载
type sourceIdentity struct {
	size    int64
	modTime time.Time
}

type cacheEntry struct {
	identity sourceIdentity
	ds       *dataset.Dataset
}

// DatasetCache 进程内的数据集缓存。数据集加载后只读，
// 锁只保护缓存表本身和加载过程
type DatasetCache struct {
	mu      sync.Mutex
	load    DatasetLoader
	logger  *Logger
	entries map[string]*cacheEntry
}

func NewDatasetCache(load DatasetLoader, logger *Logger) *DatasetCache {
	return &DatasetCache{
		load:    load,
		logger:  logger,
		entries: make(map[string]*cacheEntry),
	}
}

// Get 首次访问或数据源变化时加载，否则返回缓存的数据集
func (c *DatasetCache) Get(path string) (*dataset.Dataset, error) {
	key, err := filepath.Abs(path)
	if err != nil {
		key = path
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, &dataset.LoadError{Path: path, Reason: "file not found", Err: err}
	}
	id := sourceIdentity{size: info.Size(), modTime: info.ModTime()}

	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.entries[key]; ok && entry.identity == id {
		return entry.ds, nil
	}

	start := time.Now()
	ds, err := c.load(path)
	if err != nil {
		c.log(ERROR, fmt.Sprintf("加载数据集 %s 失败: %v", path, err))
		return nil, err
	}
	c.entries[key] = &cacheEntry{identity: id, ds: ds}

	c.log(INFO, fmt.Sprintf("数据集 %s 已加载: %d 条小时记录, %d 天, 耗时 %s",
		path, len(ds.Hourly), len(ds.Daily), time.Since(start).Round(time.Millisecond)))
	if len(ds.Warnings) > 0 {
		c.log(WARNING, fmt.Sprintf("数据集 %s 有 %d 条加载警告", path, len(ds.Warnings)))
		for _, w := range ds.Warnings {
			c.log(DEBUG, w)
		}
	}
	return ds, nil
}

// Invalidate 删除某个数据源的缓存
func (c *DatasetCache) Invalidate(path string) {
	key, err := filepath.Abs(path)
	if err != nil {
		key = path
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; ok {
		delete(c.entries, key)
		c.log(INFO, "数据集缓存已失效: "+path)
	}
}

// InvalidateAll 清空缓存，收到 SIGHUP 时调用
func (c *DatasetCache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*cacheEntry)
}

func (c *DatasetCache) log(level LogLevel, msg string) {
	if c.logger != nil {
		c.logger.Log(level, msg)
	}
}
