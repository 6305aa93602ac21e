package app

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type ClientMinio interface {
	ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo
	GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (*minio.Object, error)
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (info minio.UploadInfo, err error)
	StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
}

// ObjectEntry is the subset of object metadata the indexing pipeline needs.
type ObjectEntry struct {
	Key          string
	ETag         string
	Size         int64
	LastModified time.Time
}

// ObjectStore is the storage surface consumed by the extractor and the
// date index. MinioS3Client is the production implementation.
type ObjectStore interface {
	ListEntries(prefix string) ([]ObjectEntry, error)
	Fetch(key string) ([]byte, error)
	FetchRange(key string, length int64) ([]byte, error)
	Upload(key string, data []byte, contentType string) error
	Exists(key string) (bool, error)
}

type MinioS3Client struct {
	endpoint        string
	accessKeyID     string
	secretAccessKey string
	useSSL          bool
	bucketName      string
	client          ClientMinio
}

const defaultContentType = "application/octet-stream"

// NewMinioS3Client creates a new MinioS3Client instance.
func NewMinioS3Client(endpoint, accessKeyID, secretAccessKey, bucketName string, useSSL bool) (*MinioS3Client, error) {

	minioClient, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKeyID, secretAccessKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		log.Printf("can not create minio client %v for endpoint %s", err, endpoint)
		return nil, fmt.Errorf("failed to create Minio S3 client: %v", err)
	}

	return &MinioS3Client{
		endpoint:        endpoint,
		accessKeyID:     accessKeyID,
		secretAccessKey: secretAccessKey,
		useSSL:          useSSL,
		bucketName:      bucketName,
		client:          minioClient,
	}, nil
}

// ListEntries enumerates every object under the given prefix.
func (s3 *MinioS3Client) ListEntries(prefix string) ([]ObjectEntry, error) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	result := make([]ObjectEntry, 0)

	objectCh := s3.client.ListObjects(ctx, s3.bucketName, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	})
	for object := range objectCh {
		if object.Err != nil {
			log.Printf("%v", object.Err)
			return result, object.Err
		}
		result = append(result, ObjectEntry{
			Key:          object.Key,
			ETag:         object.ETag,
			Size:         object.Size,
			LastModified: object.LastModified,
		})
	}
	return result, nil
}

// Fetch downloads the whole object body.
func (s3 *MinioS3Client) Fetch(key string) ([]byte, error) {
	object, err := s3.client.GetObject(context.Background(), s3.bucketName, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("can not fetch %s: %v", key, err)
	}
	defer object.Close()
	data, err := io.ReadAll(object)
	if err != nil {
		return nil, fmt.Errorf("can not read %s: %v", key, err)
	}
	return data, nil
}

// FetchRange downloads at most length leading bytes of the object.
func (s3 *MinioS3Client) FetchRange(key string, length int64) ([]byte, error) {
	opts := minio.GetObjectOptions{}
	if err := opts.SetRange(0, length-1); err != nil {
		return nil, fmt.Errorf("bad range for %s: %v", key, err)
	}
	object, err := s3.client.GetObject(context.Background(), s3.bucketName, key, opts)
	if err != nil {
		return nil, fmt.Errorf("can not fetch %s: %v", key, err)
	}
	defer object.Close()
	data, err := io.ReadAll(io.LimitReader(object, length))
	if err != nil {
		return nil, fmt.Errorf("can not read %s: %v", key, err)
	}
	return data, nil
}

// Upload writes data under the given key, overwriting any previous object.
func (s3 *MinioS3Client) Upload(key string, data []byte, contentType string) error {
	if contentType == "" {
		contentType = defaultContentType
	}
	_, err := s3.client.PutObject(context.Background(),
		s3.bucketName,
		key,
		bytes.NewReader(data),
		int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("can not upload %s: %v", key, err)
	}
	return nil
}

// Exists reports whether the key currently has a backing object.
func (s3 *MinioS3Client) Exists(key string) (bool, error) {
	_, err := s3.client.StatObject(context.Background(), s3.bucketName, key, minio.StatObjectOptions{})
	if err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" || resp.StatusCode == 404 {
			return false, nil
		}
		return false, err
	}
	return true, nil
}


func (s3 *MinioS3Client) DeleteFile(fileName string) error {
	opts := minio.RemoveObjectOptions{}
	err := s3.client.RemoveObject(context.Background(), s3.bucketName, fileName, opts)
	if err != nil {
		log.Printf("remove %s/%s failed: %v", s3.bucketName, fileName, err)
		return fmt.Errorf("can not delete %s: %v", fileName, err)
	}
	return nil
}

// DeleteResult reports the outcome of one key in a bulk delete.
type DeleteResult struct {
	Key   string `json:"key"`
	Ok    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// DeleteMany removes every key in the list, one call per key, and reports
// per-key success or failure. It never stops early.
func (s3 *MinioS3Client) DeleteMany(keys []string) []DeleteResult {
	results := make([]DeleteResult, 0, len(keys))
	for _, key := range keys {
		err := s3.client.RemoveObject(context.Background(), s3.bucketName, key, minio.RemoveObjectOptions{})
		if err != nil {
			resp := minio.ToErrorResponse(err)
			code := resp.Code
			if code == "" {
				code = err.Error()
			}
			results = append(results, DeleteResult{Key: key, Ok: false, Error: code})
			continue
		}
		results = append(results, DeleteResult{Key: key, Ok: true})
	}
	return results
}
