package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/dshills/pipeline-go/graph"
)

// MinioConfig locates the bucket reports are uploaded to.
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Region    string
	UseSSL    bool
	Bucket    string
	Prefix    string
}

// Validate reports the first missing required field.
func (c MinioConfig) Validate() error {
	if strings.TrimSpace(c.Endpoint) == "" {
		return errors.New("endpoint is required")
	}
	if strings.TrimSpace(c.AccessKey) == "" {
		return errors.New("access key is required")
	}
	if strings.TrimSpace(c.SecretKey) == "" {
		return errors.New("secret key is required")
	}
	if strings.TrimSpace(c.Bucket) == "" {
		return errors.New("bucket is required")
	}
	return nil
}

// objectClient is the part of *minio.Client the archiver uses.
type objectClient interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucket, key string, r io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// MinioArchiver uploads reports to a MinIO or S3 bucket as
// <Prefix>/<runID>.json.
type MinioArchiver struct {
	client objectClient
	cfg    MinioConfig
}

// NewMinioArchiver connects to the configured endpoint. The bucket is
// created on first upload when it does not exist.
func NewMinioArchiver(cfg MinioConfig) (*MinioArchiver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("minio archive: %w", err)
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:     credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:    cfg.UseSSL,
		Region:    cfg.Region,
		Transport: newTransport(),
	})
	if err != nil {
		return nil, fmt.Errorf("minio archive: %w", err)
	}
	return &MinioArchiver{client: client, cfg: cfg}, nil
}

// Archive uploads the report and returns its s3://bucket/key location.
func (m *MinioArchiver) Archive(ctx context.Context, report *graph.RunReport) (string, error) {
	data, err := encodeReport(report)
	if err != nil {
		return "", err
	}
	if err := m.ensureBucket(ctx); err != nil {
		return "", fmt.Errorf("ensure bucket %s: %w", m.cfg.Bucket, err)
	}

	key := ObjectKey(m.cfg.Prefix, report.RunID)
	_, err = m.client.PutObject(ctx, m.cfg.Bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	return fmt.Sprintf("s3://%s/%s", m.cfg.Bucket, key), nil
}

func (m *MinioArchiver) ensureBucket(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.cfg.Bucket)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return m.client.MakeBucket(ctx, m.cfg.Bucket, minio.MakeBucketOptions{Region: m.cfg.Region})
}

func newTransport() *http.Transport {
	dialer := &net.Dialer{
		Timeout:   5 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}
