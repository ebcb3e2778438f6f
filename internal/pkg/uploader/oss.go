package uploader

import (
	"context"
	"fmt"
	"mime/multipart"
	"time"

	"socialhub/internal/pkg/config"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
)

type AliyunOSSUploader struct {
	bucket *oss.Bucket
	config config.OSSConfig
}

func NewAliyunOSSUploader(cfg config.OSSConfig) (*AliyunOSSUploader, error) {
	client, err := oss.New(cfg.Endpoint, cfg.AccessKeyID, cfg.AccessKeySecret)
	if err != nil {
		return nil, err
	}

	bucket, err := client.Bucket(cfg.BucketName)
	if err != nil {
		return nil, err
	}

	return &AliyunOSSUploader{
		bucket: bucket,
		config: cfg,
	}, nil
}

func (u *AliyunOSSUploader) UploadFile(ctx context.Context, file *multipart.FileHeader) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	key := objectKey(file.Filename, time.Now())
	opts := []oss.Option{oss.WithContext(ctx)}
	if ct, ok := ContentType(file.Filename); ok {
		opts = append(opts, oss.ContentType(ct))
	}

	if err := u.bucket.PutObject(key, src, opts...); err != nil {
		return "", fmt.Errorf("oss put %s: %w", key, err)
	}

	// bucket 为 public-read 或挂 CDN
	return fmt.Sprintf("https://%s.%s/%s", u.config.BucketName, u.config.Endpoint, key), nil
}
