package uploader

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"
	"time"

	"socialhub/internal/pkg/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Uploader S3 兼容存储 (AWS S3 / Cloudflare R2)
type S3Uploader struct {
	client *s3.Client
	config config.S3Config
}

func NewS3Uploader(cfg config.S3Config) (*S3Uploader, error) {
	if cfg.BucketName == "" || cfg.AccessKeyID == "" {
		return nil, errors.New("s3 config is missing")
	}
	region := cfg.Region
	if region == "" {
		region = "auto"
	}

	opts := s3.Options{
		Credentials: credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		),
		Region: region,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
		opts.UsePathStyle = true
	}

	return &S3Uploader{
		client: s3.New(opts),
		config: cfg,
	}, nil
}

func (u *S3Uploader) UploadFile(ctx context.Context, file *multipart.FileHeader) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	key := objectKey(file.Filename, time.Now())
	input := &s3.PutObjectInput{
		Bucket: aws.String(u.config.BucketName),
		Key:    aws.String(key),
		Body:   src,
	}
	if ct, ok := ContentType(file.Filename); ok {
		input.ContentType = aws.String(ct)
	}

	if _, err := u.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("s3 put %s: %w", key, err)
	}
	return u.publicURL(key), nil
}

func (u *S3Uploader) publicURL(key string) string {
	if u.config.PublicURL != "" {
		return strings.TrimRight(u.config.PublicURL, "/") + "/" + key
	}
	if u.config.Endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", strings.TrimRight(u.config.Endpoint, "/"), u.config.BucketName, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", u.config.BucketName, u.config.Region, key)
}
