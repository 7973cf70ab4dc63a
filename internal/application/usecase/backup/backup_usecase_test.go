package backup

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khoahotran/blog-search/pkg/logger"
)

type stubSnapshots struct {
	data []byte
	err  error
}

func (s stubSnapshots) Load(ctx context.Context) ([]byte, error) { return s.data, s.err }
func (s stubSnapshots) Save(ctx context.Context, data []byte) error { return nil }

type recordingUploader struct {
	folder, publicID string
	body             []byte
	err              error
}

func (r *recordingUploader) Upload(ctx context.Context, file io.Reader, folder, publicID string) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	r.folder, r.publicID = folder, publicID
	body, err := io.ReadAll(file)
	r.body = body
	return "https://cdn.example/" + folder + "/" + publicID, err
}

func (r *recordingUploader) Delete(ctx context.Context, publicID string) error { return nil }

func TestBackupSnapshot_Uploads(t *testing.T) {
	up := &recordingUploader{}
	uc := NewBackupSnapshotUseCase(stubSnapshots{data: []byte(`{"version":1}`)}, up, logger.NewNop())
	uc.now = func() time.Time { return time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC) }

	out, err := uc.Execute(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "backups/search", up.folder)
	assert.Equal(t, "index-2026-03-04_05-06-07.json", up.publicID)
	assert.Equal(t, `{"version":1}`, string(up.body))
	assert.Equal(t, "backups/search/index-2026-03-04_05-06-07.json", out.PublicID)
	assert.Equal(t, 13, out.Bytes)
	assert.False(t, out.Skipped)
}

func TestBackupSnapshot_SkipsWhenEmpty(t *testing.T) {
	up := &recordingUploader{}
	uc := NewBackupSnapshotUseCase(stubSnapshots{}, up, logger.NewNop())

	out, err := uc.Execute(context.Background())

	require.NoError(t, err)
	assert.True(t, out.Skipped)
	assert.Empty(t, up.publicID)
}

func TestBackupSnapshot_Errors(t *testing.T) {
	boom := errors.New("boom")

	_, err := NewBackupSnapshotUseCase(stubSnapshots{err: boom}, &recordingUploader{}, logger.NewNop()).Execute(context.Background())
	assert.ErrorIs(t, err, boom)

	_, err = NewBackupSnapshotUseCase(stubSnapshots{data: []byte("x")}, &recordingUploader{err: boom}, logger.NewNop()).Execute(context.Background())
	assert.ErrorIs(t, err, boom)
}
