package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config 结构体定义了应用程序的配置结构
type Config struct {
	Dataset struct {
		Path      string `json:"path" yaml:"path"`             // 数据集文件路径(.csv/.xlsx/.db)
		SheetName string `json:"sheet_name" yaml:"sheet_name"` // xlsx 数据所在工作表
		Table     string `json:"table" yaml:"table"`           // sqlite 数据表名
		Watch     bool   `json:"watch" yaml:"watch"`           // 是否监控文件变化
	} `json:"dataset" yaml:"dataset"`

	Server struct {
		Addr string `json:"addr" yaml:"addr"` // HTTP 监听地址
	} `json:"server" yaml:"server"`

	Email struct {
		Server        string   `json:"server" yaml:"server"`                 // 邮件服务器地址
		Username      string   `json:"username" yaml:"username"`             // 邮箱用户名
		Password      string   `json:"password" yaml:"password"`             // 邮箱密码
		TargetSubject string   `json:"target_subject" yaml:"target_subject"` // 需要匹配的邮件主题
		CheckInterval Duration `json:"check_interval" yaml:"check_interval"` // 检查新邮件的间隔时间
	} `json:"email" yaml:"email"`

	Report struct {
		CronSpec      string `json:"cron_spec" yaml:"cron_spec"`           // 定时报表 cron 表达式
		ExportDir     string `json:"export_dir" yaml:"export_dir"`         // 报表导出目录
		WebhookURL    string `json:"webhook_url" yaml:"webhook_url"`       // 钉钉机器人 webhook
		WebhookSecret string `json:"webhook_secret" yaml:"webhook_secret"` // 机器人加签密钥，为空时不签名
	} `json:"report" yaml:"report"`

	DataDir     string   `json:"data_dir" yaml:"data_dir"` // 应用程序数据存储目录
	LogName     string   `json:"log_name" yaml:"log_name"`
	LogMaxSize  string   `json:"log_max_size" yaml:"log_max_size"`
	PidFile     string   `json:"pid_file" yaml:"pid_file"`
	SessionIdle Duration `json:"session_idle" yaml:"session_idle"`
	SendEmail   struct {
		Server   string   `json:"server" yaml:"server"`     // 邮件服务器地址
		Username string   `json:"username" yaml:"username"` // 邮箱用户名
		Password string   `json:"password" yaml:"password"` // 邮箱密码
		To       []string `json:"to" yaml:"to"`             // 报表收件人
	} `json:"send_email" yaml:"send_email"`
}

// DataConfig 数据列映射与展示标签
type DataConfig struct {
	Columns        map[string]string `json:"columns" yaml:"columns"`
	UserTypeLabels map[string]string `json:"user_type_labels" yaml:"user_type_labels"`
}

var (
	once               sync.Once
	instance           *Config
	dataConfigInstance *DataConfig
	mu                 sync.RWMutex
)

// LoadConfig 只加载一次配置，之后返回同一个实例
func LoadConfig(jsonFolder, jsonFile, dataJsonFile string) (*Config, *DataConfig, error) {
	var err error
	once.Do(func() {
		// .env 不存在不算错误
		_ = godotenv.Load(filepath.Join(jsonFolder, ".env"))
		instance, dataConfigInstance, err = loadConfigs(jsonFolder, jsonFile, dataJsonFile)
	})
	return instance, dataConfigInstance, err
}

func loadConfigs(jsonFolder, jsonFile, dataJsonFile string) (*Config, *DataConfig, error) {
	configFile := filepath.Join(jsonFolder, jsonFile)
	dataConfigFile := filepath.Join(jsonFolder, dataJsonFile)

	configData, err := readFile(configFile)
	if err != nil {
		return nil, nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	// 数据配置可选，缺省时使用默认列名
	var dataConfigData []byte
	if _, statErr := os.Stat(dataConfigFile); statErr == nil {
		if dataConfigData, err = readFile(dataConfigFile); err != nil {
			return nil, nil, fmt.Errorf("读取数据配置文件失败: %w", err)
		}
	}

	cfgChan := make(chan *Config, 1)
	dcfgChan := make(chan *DataConfig, 1)
	errChan := make(chan error, 2)

	go parseConfig(configData, isYAML(configFile), cfgChan, errChan)
	go parseDataConfig(dataConfigData, isYAML(dataConfigFile), dcfgChan, errChan)

	cfg, dcfg, err := waitForResults(cfgChan, dcfgChan, errChan)
	if err != nil {
		return nil, nil, err
	}

	cfg.applyEnvironmentVariables()
	cfg.applyDefaults()
	dcfg.applyDefaults()

	return cfg, dcfg, nil
}

func readFile(filePath string) ([]byte, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("无法读取文件 %s: %w", filePath, err)
	}
	return data, nil
}

func isYAML(filePath string) bool {
	ext := strings.ToLower(filepath.Ext(filePath))
	return ext == ".yaml" || ext == ".yml"
}

func unmarshal(data []byte, asYAML bool, v interface{}) error {
	if asYAML {
		return yaml.Unmarshal(data, v)
	}
	return json.Unmarshal(data, v)
}

func parseConfig(data []byte, asYAML bool, resultChan chan<- *Config, errChan chan<- error) {
	var cfg Config
	if err := unmarshal(data, asYAML, &cfg); err != nil {
		errChan <- fmt.Errorf("解析Config失败: %w", err)
		return
	}
	resultChan <- &cfg
}

func parseDataConfig(data []byte, asYAML bool, resultChan chan<- *DataConfig, errChan chan<- error) {
	var dcfg DataConfig
	if len(data) > 0 {
		if err := unmarshal(data, asYAML, &dcfg); err != nil {
			errChan <- fmt.Errorf("解析DataConfig失败: %w", err)
			return
		}
	}
	resultChan <- &dcfg
}

func waitForResults(
	cfgChan <-chan *Config,
	dcfgChan <-chan *DataConfig,
	errChan <-chan error,
) (*Config, *DataConfig, error) {
	var (
		cfg    *Config
		dcfg   *DataConfig
		errors []error
	)

	for i := 0; i < 2; i++ {
		select {
		case c := <-cfgChan:
			cfg = c
		case d := <-dcfgChan:
			dcfg = d
		case err := <-errChan:
			errors = append(errors, err)
		}
	}

	if len(errors) > 0 {
		return nil, nil, combineErrors(errors)
	}

	if cfg == nil || dcfg == nil {
		return nil, nil, fmt.Errorf("部分配置未加载成功")
	}

	return cfg, dcfg, nil
}

func combineErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}

	msg := "配置加载遇到多个错误:"
	for _, err := range errs {
		msg = fmt.Sprintf("%s\n- %v", msg, err)
	}
	return fmt.Errorf("%s", msg)
}

// applyEnvironmentVariables 环境变量覆盖配置文件
func (c *Config) applyEnvironmentVariables() {
	if val := os.Getenv("BIKE_DATASET_PATH"); val != "" {
		c.Dataset.Path = val
	}
	if val := os.Getenv("BIKE_SERVER_ADDR"); val != "" {
		c.Server.Addr = val
	}
	if val := os.Getenv("BIKE_DATA_DIR"); val != "" {
		c.DataDir = val
	}
	if val := os.Getenv("BIKE_LOG_NAME"); val != "" {
		c.LogName = val
	}
	if val := os.Getenv("BIKE_EMAIL_PASSWORD"); val != "" {
		c.Email.Password = val
	}
	if val := os.Getenv("BIKE_SEND_EMAIL_PASSWORD"); val != "" {
		c.SendEmail.Password = val
	}
	if val := os.Getenv("BIKE_WEBHOOK_URL"); val != "" {
		c.Report.WebhookURL = val
	}
	if val := os.Getenv("BIKE_WEBHOOK_SECRET"); val != "" {
		c.Report.WebhookSecret = val
	}
}

func (c *Config) applyDefaults() {
	if c.Dataset.Path == "" {
		c.Dataset.Path = filepath.Join("data", "combined.csv")
	}
	if c.Dataset.Table == "" {
		c.Dataset.Table = "hour"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.DataDir == "" {
		c.DataDir = "data"
	}
	if c.LogName == "" {
		c.LogName = "app.log"
	}
	if c.LogMaxSize == "" {
		c.LogMaxSize = "10 * 1024 * 1024"
	}
	if c.PidFile == "" {
		c.PidFile = "bikeshare.pid"
	}
	if c.Report.ExportDir == "" {
		c.Report.ExportDir = "export"
	}
	if c.SessionIdle == 0 {
		c.SessionIdle = Duration(30 * time.Minute)
	}
}

// 默认列名沿用 UCI Bike Sharing 数据集
var defaultColumns = map[string]string{
	"date":       "dteday",
	"hour":       "hr",
	"season":     "season",
	"year":       "yr",
	"month":      "mnth",
	"holiday":    "holiday",
	"weekday":    "weekday",
	"workingday": "workingday",
	"weather":    "weathersit",
	"temp":       "temp",
	"atemp":      "atemp",
	"humidity":   "hum",
	"windspeed":  "windspeed",
	"casual":     "casual",
	"registered": "registered",
	"total":      "cnt",
}

var defaultUserTypeLabels = map[string]string{
	"casual":     "Casual Users",
	"registered": "Registered Users",
	"total":      "Total Rentals",
}

// DefaultDataConfig 返回默认列映射与标签
func DefaultDataConfig() *DataConfig {
	dc := &DataConfig{}
	dc.applyDefaults()
	return dc
}

func (dc *DataConfig) applyDefaults() {
	mu.Lock()
	defer mu.Unlock()
	if dc.Columns == nil {
		dc.Columns = make(map[string]string)
	}
	for k, v := range defaultColumns {
		if _, ok := dc.Columns[k]; !ok {
			dc.Columns[k] = v
		}
	}
	if dc.UserTypeLabels == nil {
		dc.UserTypeLabels = make(map[string]string)
	}
	for k, v := range defaultUserTypeLabels {
		if _, ok := dc.UserTypeLabels[k]; !ok {
			dc.UserTypeLabels[k] = v
		}
	}
}

// Duration 是time.Duration的自定义包装类型
// 用于支持JSON序列化和反序列化
type Duration time.Duration

// UnmarshalJSON 实现json.Unmarshaler接口
// 用于从JSON字符串解析Duration
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

// UnmarshalYAML 支持 yaml 中的 "5m" 写法
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	dur, err := time.ParseDuration(value.Value)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

// MarshalJSON 实现json.Marshaler接口
// 用于将Duration序列化为JSON字符串
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (dc *DataConfig) GetColumn(name string) string {
	mu.RLock()
	defer mu.RUnlock()
	return dc.Columns[name]
}

func (dc *DataConfig) SetColumn(name, value string) {
	mu.Lock()
	defer mu.Unlock()
	dc.Columns[name] = value
}

// ColumnMap 返回列映射的副本
func (dc *DataConfig) ColumnMap() map[string]string {
	mu.RLock()
	defer mu.RUnlock()
	out := make(map[string]string, len(dc.Columns))
	for k, v := range dc.Columns {
		out[k] = v
	}
	return out
}

func (dc *DataConfig) GetUserTypeLabel(userType string) string {
	mu.RLock()
	defer mu.RUnlock()
	return dc.UserTypeLabels[userType]
}

// UserTypeLabelMap 返回用户类型标签的副本
func (dc *DataConfig) UserTypeLabelMap() map[string]string {
	mu.RLock()
	defer mu.RUnlock()
	out := make(map[string]string, len(dc.UserTypeLabels))
	for k, v := range dc.UserTypeLabels {
		out[k] = v
	}
	return out
}
