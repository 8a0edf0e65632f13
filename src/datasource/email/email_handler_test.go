package email

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHandler(t *testing.T, validate func(string) error) (*DatasetAttachmentHandler, string) {
	t.Helper()
	dir := t.TempDir()
	datasetPath := filepath.Join(dir, "hour.csv")
	require.NoError(t, os.WriteFile(datasetPath, []byte("old"), 0644))
	return NewDatasetAttachmentHandler("bike data", filepath.Join(dir, "inbox"), datasetPath, validate), datasetPath
}

func TestHandleReplacesDataset(t *testing.T) {
	logger := newTestLogger(t)
	h, datasetPath := newHandler(t, nil)

	e := &Email{UID: 1, Subject: "bike data 2012", Attachments: []*Attachment{
		{Filename: "../../evil/hour.csv", Content: []byte("new")},
		{Filename: "notes.txt", Content: []byte("skip")},
	}}

	replaced, err := h.Handle(e, logger)
	require.NoError(t, err)
	assert.Equal(t, datasetPath, replaced)

	data, err := os.ReadFile(datasetPath)
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))

	// 附件名中的目录被去掉
	_, err = os.Stat(filepath.Join(h.DataDir, "hour.csv"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(h.DataDir, "notes.txt"))
	assert.True(t, os.IsNotExist(err))

	assert.True(t, h.IsProcessed(1))
	replaced, err = h.Handle(e, logger)
	require.NoError(t, err)
	assert.Empty(t, replaced)
}

func TestHandleKeepsDatasetWhenInvalid(t *testing.T) {
	logger := newTestLogger(t)
	h, datasetPath := newHandler(t, func(path string) error {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if !strings.HasPrefix(string(data), "dteday") {
			return errors.New("missing header")
		}
		return nil
	})

	e := &Email{UID: 2, Subject: "bike data", Attachments: []*Attachment{
		{Filename: "hour.csv", Content: []byte("garbage")},
	}}
	replaced, err := h.Handle(e, logger)
	require.NoError(t, err)
	assert.Empty(t, replaced)

	data, err := os.ReadFile(datasetPath)
	require.NoError(t, err)
	assert.Equal(t, "old", string(data))

	// 临时文件不残留
	matches, err := filepath.Glob(filepath.Join(filepath.Dir(datasetPath), ".incoming-*"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestHandleSkipsOtherSubjects(t *testing.T) {
	logger := newTestLogger(t)
	h, _ := newHandler(t, nil)

	replaced, err := h.Handle(&Email{UID: 3, Subject: "newsletter"}, logger)
	require.NoError(t, err)
	assert.Empty(t, replaced)
	assert.False(t, h.IsProcessed(3))
}

func TestPoll(t *testing.T) {
	logger := newTestLogger(t)
	h, datasetPath := newHandler(t, nil)

	svc := &fakeMailService{emails: []*Email{
		{UID: 9, Subject: "bike data", Attachments: []*Attachment{{Filename: "hour.csv", Content: []byte("polled")}}},
	}}
	replaced, err := h.Poll(svc, logger)
	require.NoError(t, err)
	assert.Equal(t, datasetPath, replaced)

	replaced, err = h.Poll(&fakeMailService{}, logger)
	require.NoError(t, err)
	assert.Empty(t, replaced)
}
