package common

import (
	userRepo "socialhub/internal/domain/user/repository"
	userService "socialhub/internal/domain/user/service"
	commonHandler "socialhub/internal/pkg/common"
	"socialhub/internal/pkg/middleware"
	"socialhub/internal/pkg/registry"
	"socialhub/internal/pkg/uploader"
)

// CommonModule 通用功能模块
type CommonModule struct{}

func init() {
	registry.Register(&CommonModule{})
}

func (m *CommonModule) Name() string {
	return "common"
}

func (m *CommonModule) Priority() int {
	return 100 // 最后初始化
}

func (m *CommonModule) Init(ctx *registry.ModuleContext) error {
	h := commonHandler.NewUploadHandler(uploader.GlobalUploader)
	roles := userService.NewRoleResolver(userRepo.NewUserRepository(ctx.DB))

	// 文件上传接口
	ctx.Router.POST("/upload", ctx.Auth, middleware.RequireActive(roles), h.UploadFile)
	return nil
}
