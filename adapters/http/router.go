package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/khoahotran/blog-search/pkg/auth"
	"github.com/khoahotran/blog-search/pkg/logger"
)

type RouterDeps struct {
	ServiceName   string
	Logger        logger.Logger
	JWT           *auth.JWTService
	SearchHandler *SearchHandler
	IndexHandler  *IndexHandler
}

func NewRouter(d RouterDeps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), otelgin.Middleware(d.ServiceName), ErrorMiddleware(d.Logger))

	api := router.Group("/api")
	{
		api.GET("/health", d.SearchHandler.Health)
		api.GET("/search", d.SearchHandler.Search)

		admin := api.Group("/admin")
		admin.Use(AuthMiddleware(d.JWT), RequireRole(auth.RoleAdmin))
		{
			index := admin.Group("/search")
			index.PUT("/posts/:id", d.IndexHandler.UpsertDocument)
			index.DELETE("/posts/:id", d.IndexHandler.DeleteDocument)
			index.POST("/rebuild", d.IndexHandler.Rebuild)
			index.POST("/backup", d.IndexHandler.Backup)
		}
	}

	return router
}
