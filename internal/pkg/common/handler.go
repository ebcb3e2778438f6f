package handler

import (
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"sync"

	"socialhub/internal/pkg/uploader"
	"socialhub/pkg/logger"
	"socialhub/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	// 单次请求最多文件数与并发上传数
	MaxFiles       = 9
	MaxConcurrency = 5
	MaxFileSize    = 10 << 20
)

type UploadHandler struct {
	uploader uploader.Uploader
}

func NewUploadHandler(u uploader.Uploader) *UploadHandler {
	return &UploadHandler{uploader: u}
}

// UploadFile 上传文件 (支持批量)
// @Summary 上传图片 (支持批量，按请求顺序返回 URL)
// @Tags Common
// @Accept multipart/form-data
// @Produce json
// @Param files formData file true "Files"
// @Success 200 {object} response.Response{data=[]string} "URLs"
// @Router /upload [post]
func (h *UploadHandler) UploadFile(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, "Invalid form data")
		return
	}

	files := form.File["files"]
	if len(files) == 0 {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, "No files uploaded")
		return
	}
	if len(files) > MaxFiles {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, fmt.Sprintf("At most %d files per request", MaxFiles))
		return
	}
	for _, f := range files {
		if _, ok := uploader.ContentType(f.Filename); !ok {
			response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, "Unsupported file type: "+f.Filename)
			return
		}
		if f.Size > MaxFileSize {
			response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, "File too large: "+f.Filename)
			return
		}
	}

	if h.uploader == nil {
		response.Error(c, http.StatusServiceUnavailable, response.ErrUnavailable, "Uploader not initialized")
		return
	}

	urls, err := h.uploadAll(c.Request.Context(), files)
	if err != nil {
		logger.Log.Error("upload failed", zap.Int("files", len(files)), zap.Error(err))
		response.Error(c, http.StatusServiceUnavailable, response.ErrUnavailable, "Upload failed, please retry")
		return
	}
	response.Success(c, urls)
}

// uploadAll 最多 MaxConcurrency 个并发，结果按下标写入保证顺序，首个错误取消其余上传
func (h *UploadHandler) uploadAll(ctx context.Context, files []*multipart.FileHeader) ([]string, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	urls := make([]string, len(files))
	var (
		wg        sync.WaitGroup
		errOnce   sync.Once
		uploadErr error
	)
	sem := make(chan struct{}, MaxConcurrency)

	for i, file := range files {
		wg.Add(1)
		go func(index int, f *multipart.FileHeader) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			if ctx.Err() != nil {
				return
			}

			url, err := h.uploader.UploadFile(ctx, f)
			if err != nil {
				errOnce.Do(func() {
					uploadErr = err
					cancel()
				})
				return
			}
			urls[index] = url
		}(i, file)
	}

	wg.Wait()
	if uploadErr != nil {
		return nil, uploadErr
	}
	return urls, nil
}
