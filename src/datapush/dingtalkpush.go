package datapush

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// 常量定义
const (
	RETRY_TIMES    = 3
	RETRY_INTERVAL = 2 * time.Second
	REQUEST_LIMIT  = 10 * time.Second
)

// 钉钉 API 响应结构体
type DingTalkResponse struct {
	ErrCode int    `json:"errcode"`
	ErrMsg  string `json:"errmsg"`
}

// markdownMessage 机器人 markdown 消息体
type markdownMessage struct {
	MsgType  string `json:"msgtype"`
	Markdown struct {
		Title string `json:"title"`
		Text  string `json:"text"`
	} `json:"markdown"`
}

// RobotPusher 钉钉自定义机器人推送
type RobotPusher struct {
	WebhookURL    string
	Secret        string // 加签密钥，为空时不签名
	Client        *http.Client
	RetryTimes    int
	RetryInterval time.Duration
	now           func() time.Time
}

func NewRobotPusher(webhookURL, secret string) *RobotPusher {
	return &RobotPusher{
		WebhookURL:    webhookURL,
		Secret:        secret,
		Client:        &http.Client{Timeout: REQUEST_LIMIT},
		RetryTimes:    RETRY_TIMES,
		RetryInterval: RETRY_INTERVAL,
		now:           time.Now,
	}
}

// sign 生成 timestamp 与 sign 参数，算法为 HmacSHA256(timestamp+"\n"+secret) 后 base64
func sign(timestamp int64, secret string) string {
	toSign := strconv.FormatInt(timestamp, 10) + "\n" + secret
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(toSign))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// signedURL 在 webhook 上追加签名参数
func (p *RobotPusher) signedURL() (string, error) {
	if p.Secret == "" {
		return p.WebhookURL, nil
	}
	u, err := url.Parse(p.WebhookURL)
	if err != nil {
		return "", fmt.Errorf("webhook 地址无效: %v", err)
	}
	ts := p.now().UnixMilli()
	q := u.Query()
	q.Set("timestamp", strconv.FormatInt(ts, 10))
	q.Set("sign", sign(ts, p.Secret))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// PushMarkdown 推送一条 markdown 消息，失败时按 RetryTimes 重试
func (p *RobotPusher) PushMarkdown(ctx context.Context, title, text string) error {
	if p.WebhookURL == "" {
		return fmt.Errorf("未配置 webhook 地址")
	}

	var msg markdownMessage
	msg.MsgType = "markdown"
	msg.Markdown.Title = title
	msg.Markdown.Text = text
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("序列化请求体失败: %v", err)
	}

	return retry(ctx, func() error {
		return p.post(ctx, payload)
	}, p.RetryTimes, p.RetryInterval)
}

func (p *RobotPusher) post(ctx context.Context, payload []byte) error {
	target, err := p.signedURL()
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("创建请求失败: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("发送请求失败: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("读取响应失败: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("推送失败: HTTP %d", resp.StatusCode)
	}

	var result DingTalkResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return fmt.Errorf("解析响应失败: %v", err)
	}
	if result.ErrCode != 0 {
		return fmt.Errorf("推送失败: %s", result.ErrMsg)
	}
	return nil
}

// 重试函数
func retry(ctx context.Context, fn func() error, times int, interval time.Duration) error {
	if times < 1 {
		times = 1
	}
	var err error
	for i := 0; i < times; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if i < times-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(interval):
			}
		}
	}
	return fmt.Errorf("重试 %d 次后失败: %v", times, err)
}
