package router

import (
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/reflexions/internal/db"
	"github.com/reflexions/internal/handler"
)

// SetupRouter 配置 Gin 引擎和路由
// templateGlob may be empty, in which case no HTML templates are loaded
// (handlers under test provide their own render stub).
func SetupRouter(sessionSecret, uploadDir, uploadURL, templateGlob string) *gin.Engine {
	r := gin.Default()

	// 配置会话中间件
	store := cookie.NewStore([]byte(sessionSecret))
	r.Use(sessions.Sessions("reflexions_session", store))

	// 加载模板并添加自定义函数
	r.SetFuncMap(template.FuncMap{
		"formatDate": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("2006-01-02")
		},
		"relativeTime": func(t time.Time) string {
			return formatRelativeTime(time.Now(), t)
		},
		"eq": func(a, b interface{}) bool {
			return a == b
		},
	})
	if templateGlob != "" {
		r.LoadHTMLGlob(templateGlob)
	}

	// 静态文件服务
	r.Static("/uploads", uploadDir)

	r.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/admin")
	})

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	api := handler.NewAPI(db.DB, uploadDir, uploadURL)

	// 后台管理路由
	admin := r.Group("/admin")
	{
		admin.GET("/login", handler.ShowLoginPage)
		admin.POST("/login", handler.Login)
		admin.GET("/logout", handler.Logout)

		// 需要认证的后台路由
		auth := admin.Group("")
		auth.Use(handler.AuthRequired())
		{
			auth.GET("", api.ShowPostList)
			auth.GET("/posts/new", api.ShowPostEditor)
			auth.GET("/posts/:id", api.ShowPost)
			auth.GET("/posts/:id/edit", api.ShowPostEditor)

			// API路由
			apiGroup := auth.Group("/api")
			{
				apiGroup.GET("/posts", api.GetPosts)
				apiGroup.GET("/posts/:id", api.GetPost)
				apiGroup.POST("/posts", api.CreatePost)
				apiGroup.PUT("/posts/:id", api.UpdatePost)
				apiGroup.DELETE("/posts/:id", api.DeletePost)
				apiGroup.POST("/posts/:id/toggle-publish", api.TogglePublishPost)

				apiGroup.GET("/posts/:id/translations/:lang", api.GetTranslation)
				apiGroup.POST("/posts/:id/translations/:lang", api.CreateTranslation)
				apiGroup.PUT("/translations/:id", api.UpdateTranslation)
				apiGroup.DELETE("/translations/:id", api.DeleteTranslation)

				apiGroup.GET("/keywords", api.GetKeywords)
				apiGroup.GET("/keywords/search", api.SearchKeywords)
				apiGroup.GET("/keywords/:id", api.GetKeyword)

				apiGroup.GET("/images", api.GetImages)
				apiGroup.POST("/upload", api.UploadImage)
				apiGroup.DELETE("/images/:id", api.DeleteImage)

				apiGroup.POST("/preview", api.PreviewMarkdown)
			}
		}
	}

	return r
}

// formatRelativeTime renders a short relative timestamp for list views.
func formatRelativeTime(now, t time.Time) string {
	if t.IsZero() {
		return ""
	}

	diff := now.Sub(t)
	switch {
	case diff < time.Minute:
		return "ara mateix"
	case diff < time.Hour:
		return fmt.Sprintf("fa %d min", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("fa %d h", int(diff.Hours()))
	case diff < 30*24*time.Hour:
		return fmt.Sprintf("fa %d dies", int(diff.Hours()/24))
	case diff < 365*24*time.Hour:
		return fmt.Sprintf("fa %d mesos", int(diff.Hours()/(24*30)))
	default:
		return fmt.Sprintf("fa %d anys", int(diff.Hours()/(24*365)))
	}
}
