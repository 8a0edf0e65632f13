package main

import (
	"BikeSharingInsight/src/config"
	"BikeSharingInsight/src/datasource/email"
	"BikeSharingInsight/src/datasource/file"
	"BikeSharingInsight/src/service"
	"BikeSharingInsight/src/storage"
	"BikeSharingInsight/src/web"
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/robfig/cron"
)

func main() {
	jsonFolder := getEnv("BIKE_CONFIG_DIR", "./config")
	jsonFile := getEnv("BIKE_CONFIG_FILE", "config.json")
	dataJsonFile := getEnv("BIKE_DATA_CONFIG_FILE", "dataconfig.json")
	cfg, dcfg, err := config.LoadConfig(jsonFolder, jsonFile, dataJsonFile)
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	// 初始化日志系统
	logger, err := storage.NewLogger(cfg.LogName)
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}

	svc := service.NewService(cfg, dcfg, logger)
	// 启动时加载失败直接退出
	if _, err := svc.Dataset(); err != nil {
		logger.Fatal("数据集加载失败: " + err.Error())
		logger.Close()
		os.Exit(1)
	}
	sessions := service.NewSessionStore(time.Duration(cfg.SessionIdle))

	if err := writePidFile(cfg.PidFile); err != nil {
		logger.Warning("写入 pid 文件失败: " + err.Error())
	}
	defer os.Remove(cfg.PidFile)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Dataset.Watch {
		go watchDataset(ctx, cfg.Dataset.Path, svc, logger)
	}

	// 设置定时任务
	c := cron.New()
	if err := scheduleJobs(c, cfg, svc, sessions, logger); err != nil {
		logger.Error("创建定时任务失败: " + err.Error())
		return
	}
	c.Start()
	defer c.Stop()

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: web.SetupRouter(svc, sessions, logger),
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP 服务异常退出: " + err.Error())
			cancel()
		}
	}()
	logger.Info(fmt.Sprintf("看板服务已启动: %s，数据集: %s", cfg.Server.Addr, cfg.Dataset.Path))

	waitForShutdown(ctx, srv, svc, logger)
}

// scheduleJobs 注册邮件轮询、定时报表和例行维护任务
func scheduleJobs(c *cron.Cron, cfg *config.Config, svc *service.Service, sessions *service.SessionStore, logger *storage.Logger) error {
	if cfg.Email.Server != "" {
		emailClient := email.NewEmailClient(cfg.Email.Server, cfg.Email.Username, cfg.Email.Password)
		handler := email.NewDatasetAttachmentHandler(cfg.Email.TargetSubject, cfg.DataDir, cfg.Dataset.Path, svc.ValidateDataset)

		// 使用配置中的检查间隔
		interval := time.Duration(cfg.Email.CheckInterval)
		if interval <= 0 {
			interval = 5 * time.Minute
		}
		cronSpec := fmt.Sprintf("@every %s", interval)
		err := c.AddFunc(cronSpec, func() {
			replaced, err := handler.Poll(emailClient, logger)
			if err != nil {
				logger.Error("检查处理邮件失败: " + err.Error())
				return
			}
			if replaced != "" {
				svc.Invalidate()
			}
		})
		if err != nil {
			return fmt.Errorf("邮件任务: %w", err)
		}
		logger.Info(fmt.Sprintf("邮件监控已启用(检查间隔: %v)", interval))
	}

	if cfg.Report.CronSpec != "" {
		reporter := service.NewReporter(cfg, svc, logger)
		err := c.AddFunc(cfg.Report.CronSpec, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()
			if _, err := reporter.Run(ctx); err != nil {
				logger.Error("定时报表失败: " + err.Error())
			}
		})
		if err != nil {
			return fmt.Errorf("报表任务 %q: %w", cfg.Report.CronSpec, err)
		}
	}

	return c.AddFunc("@every 1m", func() {
		if n := sessions.Evict(); n > 0 {
			logger.Debug(fmt.Sprintf("清除空闲会话 %d 个", n))
		}
		if err := logger.CheckRotate(cfg); err != nil {
			logger.Error("日志轮转失败: " + err.Error())
		}
	})
}

// watchDataset 数据集文件变化时丢弃缓存
func watchDataset(ctx context.Context, path string, svc *service.Service, logger *storage.Logger) {
	monitor, err := file.NewFileMonitor(path)
	if err != nil {
		logger.Error("文件监控启动失败: " + err.Error())
		return
	}
	defer monitor.Close()

	err = monitor.Watch(ctx, func(name string) {
		logger.Info("数据集文件已变化: " + name)
		svc.Invalidate()
	})
	if err != nil {
		logger.Error("文件监控异常: " + err.Error())
	}
}

// handleSignal SIGHUP 重新打开日志并重新加载数据集，返回 true 表示应退出
func handleSignal(sig os.Signal, svc *service.Service, logger *storage.Logger) bool {
	if sig != syscall.SIGHUP {
		return true
	}
	if err := logger.Reopen(); err != nil {
		logger.Error("重新打开日志失败: " + err.Error())
	}
	svc.Invalidate()
	logger.Info("收到 SIGHUP，数据集缓存已清空")
	return false
}

func waitForShutdown(ctx context.Context, srv *http.Server, svc *service.Service, logger *storage.Logger) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigChan)

	for {
		select {
		case sig := <-sigChan:
			if !handleSignal(sig, svc, logger) {
				continue
			}
			logger.Info("Received signal: " + sig.String() + ", shutting down...")
		case <-ctx.Done():
		}
		break
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP 服务关闭失败: " + err.Error())
	}
	logger.Close()
}

func writePidFile(path string) error {
	if path == "" {
		return nil
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0644)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
