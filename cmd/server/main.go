package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/reflexions/internal/config"
	"github.com/reflexions/internal/db"
	"github.com/reflexions/internal/router"
)

func main() {
	cfg := config.Load()
	gin.SetMode(cfg.GinMode)

	// 初始化数据库
	if err := db.Init(cfg.DatabasePath); err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	// 创建管理员账号（仅当配置了邮箱和密码时）
	if err := db.EnsureUser(db.DB, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		log.Fatalf("failed to ensure admin user: %v", err)
	}

	// 设置并运行 Gin 服务器
	r := router.SetupRouter(cfg.SessionSecret, cfg.UploadDir, cfg.UploadURLPath, cfg.TemplateGlob)
	if err := r.Run(cfg.ListenAddr); err != nil {
		log.Fatalf("failed to run server: %v", err)
	}
}
