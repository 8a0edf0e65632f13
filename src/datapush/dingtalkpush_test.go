package datapush

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPushMarkdownSigned(t *testing.T) {
	var got markdownMessage
	var query map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = map[string]string{
			"timestamp": r.URL.Query().Get("timestamp"),
			"sign":      r.URL.Query().Get("sign"),
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"errcode":0,"errmsg":"ok"}`))
	}))
	defer srv.Close()

	p := NewRobotPusher(srv.URL+"/robot/send?access_token=abc", "SECret")
	p.now = func() time.Time { return time.UnixMilli(1700000000000) }

	require.NoError(t, p.PushMarkdown(context.Background(), "日报", "days=2"))
	assert.Equal(t, "markdown", got.MsgType)
	assert.Equal(t, "日报", got.Markdown.Title)
	assert.Equal(t, "days=2", got.Markdown.Text)
	assert.Equal(t, "1700000000000", query["timestamp"])
	assert.Equal(t, sign(1700000000000, "SECret"), query["sign"])
}

func TestPushMarkdownRetries(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 2 {
			w.Write([]byte(`{"errcode":310000,"errmsg":"sign not match"}`))
			return
		}
		w.Write([]byte(`{"errcode":0,"errmsg":"ok"}`))
	}))
	defer srv.Close()

	p := NewRobotPusher(srv.URL, "")
	p.RetryInterval = time.Millisecond

	require.NoError(t, p.PushMarkdown(context.Background(), "t", "x"))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestPushMarkdownFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := NewRobotPusher(srv.URL, "")
	p.RetryTimes = 2
	p.RetryInterval = time.Millisecond

	err := p.PushMarkdown(context.Background(), "t", "x")
	assert.ErrorContains(t, err, "重试 2 次后失败")

	assert.Error(t, NewRobotPusher("", "").PushMarkdown(context.Background(), "t", "x"))
}

func TestSignIsDeterministic(t *testing.T) {
	assert.Equal(t, sign(1, "k"), sign(1, "k"))
	assert.NotEqual(t, sign(1, "k"), sign(2, "k"))
}
