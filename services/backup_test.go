package services

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePutter struct {
	key  string
	body []byte
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.key = aws.ToString(in.Key)
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.body = data
	return &s3.PutObjectOutput{}, nil
}

func TestBackupKey(t *testing.T) {
	at := time.Date(2024, time.May, 3, 22, 15, 0, 0, time.UTC)
	assert.Equal(t, "backups/2024/05/chess_students-20240503T221500Z.xlsx", BackupKey("/data/chess_students.xlsx", at))
}

func TestBackupRunUploadsWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chess_students.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("workbook"), 0o644))

	putter := &fakePutter{}
	bs := NewBackupServiceWithClient(putter, "chess", path)
	bs.now = func() time.Time { return time.Date(2024, time.May, 3, 22, 15, 0, 0, time.UTC) }

	key, err := bs.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "backups/2024/05/chess_students-20240503T221500Z.xlsx", key)
	assert.Equal(t, key, putter.key)
	assert.Equal(t, []byte("workbook"), putter.body)
}

func TestBackupStartRejectsBadSchedule(t *testing.T) {
	bs := NewBackupServiceWithClient(&fakePutter{}, "chess", "missing.xlsx")
	assert.Error(t, bs.Start("not a schedule"))

	require.NoError(t, bs.Start("0 3 * * *"))
	bs.Stop()
}
