// monitor.go
package file

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// FileMonitor 监听数据集文件的变化。监听的是所在目录，
// 这样编辑器先删后建、邮件附件覆盖等写法都能收到事件
type FileMonitor struct {
	target  string
	watcher *fsnotify.Watcher
	lastMod time.Time
	mu      sync.Mutex
}

func NewFileMonitor(path string) (*FileMonitor, error) {
	target, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := watcher.Add(filepath.Dir(target)); err != nil {
		watcher.Close()
		return nil, err
	}

	return &FileMonitor{
		target:  target,
		watcher: watcher,
	}, nil
}

// Watch 阻塞直到 ctx 结束或 watcher 出错；文件被写入、创建或删除时调用 handler
func (m *FileMonitor) Watch(ctx context.Context, handler func(string)) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-m.watcher.Events:
			if !ok {
				return nil
			}
			name, err := filepath.Abs(event.Name)
			if err != nil || name != m.target {
				continue
			}

			switch {
			case event.Has(fsnotify.Write), event.Has(fsnotify.Create):
				info, err := os.Stat(name)
				if err != nil {
					continue
				}

				m.mu.Lock()
				if !info.ModTime().Equal(m.lastMod) {
					m.lastMod = info.ModTime()
					handler(name)
				}
				m.mu.Unlock()
			case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
				m.mu.Lock()
				m.lastMod = time.Time{}
				m.mu.Unlock()
				handler(name)
			}
		case err, ok := <-m.watcher.Errors:
			if !ok {
				return nil
			}
			return err
		}
	}
}

func (m *FileMonitor) Close() error {
	return m.watcher.Close()
}
