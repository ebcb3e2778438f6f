package uploader

import (
	"context"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"socialhub/internal/pkg/config"

	"github.com/google/uuid"
)

type Uploader interface {
	UploadFile(ctx context.Context, file *multipart.FileHeader) (string, error)
}

// 允许上传的图片类型
var allowedExt = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".heic": "image/heic",
}

// ContentType 返回扩展名对应的 MIME 类型，不支持的类型返回 false
func ContentType(filename string) (string, bool) {
	ct, ok := allowedExt[strings.ToLower(filepath.Ext(filename))]
	return ct, ok
}

// objectKey YYYYMMDD/uuid.ext
func objectKey(filename string, now time.Time) string {
	ext := strings.ToLower(filepath.Ext(filename))
	return fmt.Sprintf("%s/%s%s", now.Format("20060102"), uuid.New().String(), ext)
}

// GlobalUploader instance
var GlobalUploader Uploader

// InitUploader 按 storage.provider 选择存储后端
func InitUploader() error {
	var (
		u   Uploader
		err error
	)
	switch config.GlobalConfig.Storage.Provider {
	case "s3":
		u, err = NewS3Uploader(config.GlobalConfig.S3)
	default:
		u, err = NewAliyunOSSUploader(config.GlobalConfig.OSS)
	}
	if err != nil {
		return err
	}
	GlobalUploader = u
	return nil
}
