package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	appErrors "github.com/johnquangdev/levelus/errors"
	"github.com/johnquangdev/levelus/pkg/config"
)

const recordingsPrefix = "recordings"

// objectStore is the subset of *minio.Client the archive uses
type objectStore interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo
}

// Recording describes an archived upload
type Recording struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	ContentType  string    `json:"contentType,omitempty"`
	LastModified time.Time `json:"lastModified"`
}

// RecordingArchive stores meeting audio in a MinIO bucket under recordings/{meeting id}/
type RecordingArchive struct {
	client objectStore
	bucket string
	now    func() time.Time
	logger *zap.Logger
}

// NewRecordingArchive connects to MinIO and makes sure the bucket exists
func NewRecordingArchive(ctx context.Context, cfg *config.StorageConfig, logger *zap.Logger) (*RecordingArchive, error) {
	minioClient, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	archive := newRecordingArchive(minioClient, cfg.BucketName, logger)
	if err := archive.ensureBucket(ctx); err != nil {
		return nil, err
	}
	return archive, nil
}

func newRecordingArchive(client objectStore, bucket string, logger *zap.Logger) *RecordingArchive {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecordingArchive{
		client: client,
		bucket: bucket,
		now:    time.Now,
		logger: logger,
	}
}

// ensureBucket creates the bucket when missing. Recordings stay private.
func (a *RecordingArchive) ensureBucket(ctx context.Context) error {
	exists, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil {
		return appErrors.ErrStorageFailed("check bucket", err)
	}
	if exists {
		return nil
	}
	if err := a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{}); err != nil {
		return appErrors.ErrStorageFailed("create bucket", err)
	}
	a.logger.Info("🪣 Created recordings bucket", zap.String("bucket", a.bucket))
	return nil
}

// PutRecording uploads data and returns its object key
func (a *RecordingArchive) PutRecording(ctx context.Context, meetingID, fileName, contentType string, data io.Reader, size int64) (string, error) {
	key := a.objectKey(meetingID, fileName)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err := a.client.PutObject(ctx, a.bucket, key, data, size, minio.PutObjectOptions{
		ContentType: contentType,
		UserMetadata: map[string]string{
			"meeting-id":    meetingID,
			"original-name": fileName,
		},
	})
	if err != nil {
		return "", appErrors.ErrStorageFailed("upload recording", err).WithDetail("object_key", key)
	}
	return key, nil
}

// ListRecordings returns the archived recordings of a meeting
func (a *RecordingArchive) ListRecordings(ctx context.Context, meetingID string) ([]Recording, error) {
	recordings := make([]Recording, 0)
	for object := range a.client.ListObjects(ctx, a.bucket, minio.ListObjectsOptions{
		Prefix:    meetingPrefix(meetingID),
		Recursive: true,
	}) {
		if object.Err != nil {
			return nil, appErrors.ErrStorageFailed("list recordings", object.Err)
		}
		recordings = append(recordings, Recording{
			Key:          object.Key,
			Size:         object.Size,
			ContentType:  object.ContentType,
			LastModified: object.LastModified,
		})
	}
	return recordings, nil
}

func (a *RecordingArchive) objectKey(meetingID, fileName string) string {
	ext := strings.ToLower(path.Ext(path.Base(strings.ReplaceAll(fileName, "\\", "/"))))
	if ext == "" || len(ext) > 8 {
		ext = ".bin"
	}
	stamp := a.now().UTC().Format("20060102T150405Z")
	return meetingPrefix(meetingID) + stamp + "-" + uuid.NewString() + ext
}

func meetingPrefix(meetingID string) string {
	id := strings.Trim(strings.ReplaceAll(meetingID, "/", "_"), " ")
	if id == "" {
		id = "unknown"
	}
	return recordingsPrefix + "/" + id + "/"
}
