// email_handler.go
package email

import (
	"BikeSharingInsight/src/storage"
	"BikeSharingInsight/src/utils"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// 可作为数据集的附件类型
var datasetExts = []string{".csv", ".xlsx"}

// ====================== 邮件处理器实现 ======================

// DatasetAttachmentHandler 把目标邮件中的数据集附件保存到 DataDir，
// 与当前数据集同类型的附件校验通过后替换数据集文件
type DatasetAttachmentHandler struct {
	TargetSubject string                  // 目标邮件主题关键词
	DataDir       string                  // 附件保存目录
	DatasetPath   string                  // 当前数据集文件
	Validate      func(path string) error // 替换前校验，nil 表示不校验
	processedUIDs map[uint32]bool         // 已处理邮件UID记录
	mu            sync.RWMutex            // 保护processedUIDs的读写锁
}

func NewDatasetAttachmentHandler(subject, dataDir, datasetPath string, validate func(string) error) *DatasetAttachmentHandler {
	return &DatasetAttachmentHandler{
		TargetSubject: subject,
		DataDir:       dataDir,
		DatasetPath:   datasetPath,
		Validate:      validate,
		processedUIDs: make(map[uint32]bool),
	}
}

// IsProcessed 检查邮件是否已处理过（线程安全）
func (h *DatasetAttachmentHandler) IsProcessed(uid uint32) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.processedUIDs[uid]
}

func (h *DatasetAttachmentHandler) markAsProcessed(uid uint32) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.processedUIDs[uid] = true
}

// Handle 保存附件，返回被替换的数据集路径；没有替换时返回空字符串
func (h *DatasetAttachmentHandler) Handle(e *Email, logger *storage.Logger) (string, error) {
	if e == nil || h.IsProcessed(e.UID) {
		return "", nil
	}
	if !strings.Contains(e.Subject, h.TargetSubject) {
		logger.Debug("跳过主题不匹配的邮件: " + e.Subject)
		return "", nil
	}

	logger.Info(fmt.Sprintf("处理邮件: %s 发件人: %s 日期: %s",
		e.Subject, e.From, e.Date.Format("2006-01-02 15:04:05")))

	if err := os.MkdirAll(h.DataDir, 0755); err != nil {
		return "", fmt.Errorf("创建目录失败: %w", err)
	}

	replaced := ""
	datasetExt := strings.ToLower(filepath.Ext(h.DatasetPath))
	for _, attachment := range e.Attachments {
		// 去掉附件名中的目录部分
		name := filepath.Base(attachment.Filename)
		ext := strings.ToLower(filepath.Ext(name))
		if !utils.Contains(datasetExts, ext) {
			continue
		}

		filePath := filepath.Join(h.DataDir, name)
		if err := os.WriteFile(filePath, attachment.Content, 0644); err != nil {
			return "", fmt.Errorf("保存附件失败: %w", err)
		}
		logger.Info("附件已保存到: " + filePath)

		if replaced == "" && ext == datasetExt && h.DatasetPath != "" {
			if err := h.replaceDataset(attachment.Content, ext); err != nil {
				logger.Error(fmt.Sprintf("附件 %s 未替换数据集: %v", name, err))
				continue
			}
			replaced = h.DatasetPath
			logger.Info("数据集已更新: " + h.DatasetPath)
		}
	}

	h.markAsProcessed(e.UID)
	return replaced, nil
}

// replaceDataset 先写临时文件并校验，再原子替换，校验失败时保留旧数据集
func (h *DatasetAttachmentHandler) replaceDataset(content []byte, ext string) error {
	dir := filepath.Dir(h.DatasetPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".incoming-*"+ext)
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if h.Validate != nil {
		if err := h.Validate(tmpPath); err != nil {
			return fmt.Errorf("数据校验失败: %w", err)
		}
	}
	return os.Rename(tmpPath, h.DatasetPath)
}

// Poll 检查一次邮箱并处理目标邮件，供定时任务调用
func (h *DatasetAttachmentHandler) Poll(mailService MailService, logger *storage.Logger) (string, error) {
	e, err := CheckAndProcessEmails(mailService, h.TargetSubject, logger)
	if err != nil {
		return "", err
	}
	if e == nil {
		return "", nil
	}
	replaced, err := h.Handle(e, logger)
	if err != nil {
		return "", fmt.Errorf("处理邮件失败(UID:%d): %w", e.UID, err)
	}
	return replaced, nil
}
