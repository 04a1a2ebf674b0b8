package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/johnquangdev/levelus/errors"
)

type fakeObjectStore struct {
	exists    bool
	existsErr error
	made      []string
	putErr    error
	objects   map[string][]byte
	opts      map[string]minio.PutObjectOptions
	listed    []minio.ObjectInfo
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{
		objects: make(map[string][]byte),
		opts:    make(map[string]minio.PutObjectOptions),
	}
}

func (f *fakeObjectStore) BucketExists(_ context.Context, _ string) (bool, error) {
	return f.exists, f.existsErr
}

func (f *fakeObjectStore) MakeBucket(_ context.Context, bucket string, _ minio.MakeBucketOptions) error {
	f.made = append(f.made, bucket)
	return nil
}

func (f *fakeObjectStore) PutObject(_ context.Context, _, key string, r io.Reader, _ int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	if f.putErr != nil {
		return minio.UploadInfo{}, f.putErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return minio.UploadInfo{}, err
	}
	f.objects[key] = data
	f.opts[key] = opts
	return minio.UploadInfo{Key: key, Size: int64(len(data))}, nil
}

func (f *fakeObjectStore) ListObjects(_ context.Context, _ string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo {
	ch := make(chan minio.ObjectInfo, len(f.listed))
	for _, o := range f.listed {
		if o.Err != nil || strings.HasPrefix(o.Key, opts.Prefix) {
			ch <- o
		}
	}
	close(ch)
	return ch
}

func fixedArchive(store *fakeObjectStore) *RecordingArchive {
	a := newRecordingArchive(store, "levelus-recordings", nil)
	a.now = func() time.Time { return time.Date(2025, 3, 4, 10, 30, 0, 0, time.UTC) }
	return a
}

func TestEnsureBucket(t *testing.T) {
	t.Run("creates missing bucket", func(t *testing.T) {
		store := newFakeObjectStore()
		require.NoError(t, fixedArchive(store).ensureBucket(context.Background()))
		assert.Equal(t, []string{"levelus-recordings"}, store.made)
	})

	t.Run("keeps existing bucket", func(t *testing.T) {
		store := newFakeObjectStore()
		store.exists = true
		require.NoError(t, fixedArchive(store).ensureBucket(context.Background()))
		assert.Empty(t, store.made)
	})

	t.Run("storage error", func(t *testing.T) {
		store := newFakeObjectStore()
		store.existsErr = errors.New("connection refused")
		err := fixedArchive(store).ensureBucket(context.Background())
		assert.True(t, appErrors.HasCode(err, appErrors.ErrorCode_STORAGE_FAILED))
	})
}

func TestPutRecording(t *testing.T) {
	store := newFakeObjectStore()
	archive := fixedArchive(store)

	key, err := archive.PutRecording(context.Background(), "m1", "Call.WAV", "audio/wav", strings.NewReader("RIFF"), 4)

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "recordings/m1/20250304T103000Z-"), key)
	assert.True(t, strings.HasSuffix(key, ".wav"), key)
	assert.Equal(t, []byte("RIFF"), store.objects[key])
	assert.Equal(t, "audio/wav", store.opts[key].ContentType)
	assert.Equal(t, "Call.WAV", store.opts[key].UserMetadata["original-name"])
}

func TestPutRecording_Defaults(t *testing.T) {
	store := newFakeObjectStore()

	key, err := fixedArchive(store).PutRecording(context.Background(), "a/b", "", "", strings.NewReader("x"), 1)

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "recordings/a_b/"), key)
	assert.True(t, strings.HasSuffix(key, ".bin"), key)
	assert.Equal(t, "application/octet-stream", store.opts[key].ContentType)
}

func TestPutRecording_Failure(t *testing.T) {
	store := newFakeObjectStore()
	store.putErr = errors.New("bucket gone")

	_, err := fixedArchive(store).PutRecording(context.Background(), "m1", "a.wav", "audio/wav", strings.NewReader("x"), 1)

	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrorCode_STORAGE_FAILED))
	assert.Contains(t, err.Error(), "bucket gone")
}

func TestListRecordings(t *testing.T) {
	store := newFakeObjectStore()
	store.listed = []minio.ObjectInfo{
		{Key: "recordings/m1/a.wav", Size: 10},
		{Key: "recordings/m2/b.wav", Size: 20},
	}

	recordings, err := fixedArchive(store).ListRecordings(context.Background(), "m1")

	require.NoError(t, err)
	require.Len(t, recordings, 1)
	assert.Equal(t, "recordings/m1/a.wav", recordings[0].Key)
	assert.Equal(t, int64(10), recordings[0].Size)

	store.listed = append(store.listed, minio.ObjectInfo{Err: errors.New("denied")})
	_, err = fixedArchive(store).ListRecordings(context.Background(), "m1")
	assert.True(t, appErrors.HasCode(err, appErrors.ErrorCode_STORAGE_FAILED))
}
