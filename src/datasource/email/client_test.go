package email

import (
	"BikeSharingInsight/src/config"
	"BikeSharingInsight/src/storage"
	"errors"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/simplifiedchinese"
)

type fakeMailService struct {
	emails       []*Email
	connectErr   error
	fetchErr     error
	disconnected bool
}

func (f *fakeMailService) Connect() error { return f.connectErr }
func (f *fakeMailService) Disconnect()    { f.disconnected = true }
func (f *fakeMailService) FetchUnreadEmails() ([]*Email, error) {
	return f.emails, f.fetchErr
}

func newTestLogger(t *testing.T) *storage.Logger {
	t.Helper()
	logger, err := storage.NewLogger(filepath.Join(t.TempDir(), "app.log"))
	require.NoError(t, err)
	t.Cleanup(func() { logger.Close() })
	return logger
}

const rawMessage = "From: ops@example.com\r\n" +
	"To: bikes@example.com\r\n" +
	"Subject: %s\r\n" +
	"Date: Mon, 02 Jan 2012 08:00:00 +0000\r\n" +
	"MIME-Version: 1.0\r\n" +
	"Content-Type: multipart/mixed; boundary=\"XYZ\"\r\n" +
	"\r\n" +
	"--XYZ\r\n" +
	"Content-Type: text/plain; charset=utf-8\r\n" +
	"\r\n" +
	"see attachment\r\n" +
	"--XYZ\r\n" +
	"Content-Type: text/csv\r\n" +
	"Content-Disposition: attachment; filename=\"hour.csv\"\r\n" +
	"\r\n" +
	"dteday,hr\r\n" +
	"--XYZ--\r\n"

func TestParseMessage(t *testing.T) {
	raw := strings.Replace(rawMessage, "%s", "bike data", 1)

	e, err := ParseMessage(strings.NewReader(raw))
	require.NoError(t, err)

	assert.Equal(t, "bike data", e.Subject)
	assert.Equal(t, "ops@example.com", e.From)
	assert.Equal(t, 2012, e.Date.Year())
	require.Len(t, e.Attachments, 1)
	assert.Equal(t, "hour.csv", e.Attachments[0].Filename)
	assert.Contains(t, string(e.Attachments[0].Content), "dteday,hr")
}

func TestDecodeHeaderGBK(t *testing.T) {
	gbk, err := simplifiedchinese.GBK.NewEncoder().String("共享单车数据")
	require.NoError(t, err)
	encoded := mime.BEncoding.Encode("gbk", gbk)

	assert.Equal(t, "共享单车数据", decodeHeader(encoded))
	assert.Equal(t, "plain subject", decodeHeader("plain subject"))
}

func TestFilterLatestTargetEmail(t *testing.T) {
	base := time.Date(2012, 1, 1, 0, 0, 0, 0, time.UTC)
	emails := []*Email{
		{UID: 1, Subject: "bike data v1", Date: base},
		{UID: 2, Subject: "other", Date: base.Add(3 * time.Hour)},
		{UID: 3, Subject: "bike data v2", Date: base.Add(2 * time.Hour)},
	}

	got := filterLatestTargetEmail(emails, "bike data")
	require.NotNil(t, got)
	assert.Equal(t, uint32(3), got.UID)

	assert.Nil(t, filterLatestTargetEmail(emails, "missing"))
}

func TestCheckAndProcessEmails(t *testing.T) {
	logger := newTestLogger(t)

	svc := &fakeMailService{emails: []*Email{{UID: 7, Subject: "bike data"}}}
	got, err := CheckAndProcessEmails(svc, "bike", logger)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, uint32(7), got.UID)
	assert.True(t, svc.disconnected)

	empty := &fakeMailService{}
	got, err = CheckAndProcessEmails(empty, "bike", logger)
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = CheckAndProcessEmails(&fakeMailService{connectErr: errors.New("refused")}, "bike", logger)
	assert.ErrorContains(t, err, "refused")

	_, err = CheckAndProcessEmails(&fakeMailService{fetchErr: errors.New("timeout")}, "bike", logger)
	assert.ErrorContains(t, err, "timeout")
}

func TestBuildReportEmail(t *testing.T) {
	cfg := &config.Config{}
	cfg.SendEmail.Username = "report@example.com"

	_, err := BuildReportEmail(cfg, "s", "b", "")
	assert.Error(t, err, "no recipients")

	cfg.SendEmail.To = []string{"a@example.com"}
	_, err = BuildReportEmail(cfg, "s", "b", filepath.Join(t.TempDir(), "missing.xlsx"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "report.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("xlsx"), 0644))

	e, err := BuildReportEmail(cfg, "daily report", "days=2", path)
	require.NoError(t, err)
	assert.Equal(t, []string{"a@example.com"}, e.To)
	assert.Equal(t, "daily report", e.Subject)
	assert.Contains(t, e.From, "report@example.com")
	require.Len(t, e.Attachments, 1)
	assert.Equal(t, "report.xlsx", e.Attachments[0].Filename)
}
