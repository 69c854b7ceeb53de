package router

import (
	"Go_Attach/config"
	"Go_Attach/internal/handler"
	"Go_Attach/utils"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	bucketPath     = "/buckets/:bid"
	collectionPath = bucketPath + "/collections/:cid"
	recordPath     = collectionPath + "/records/:id"
)

// InitRouter builds API routes.
func InitRouter(h *handler.Handler, cfg config.Config, gatherer prometheus.Gatherer) *gin.Engine {
	r := gin.Default()
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	api := r.Group("/" + cfg.RoutePrefix)
	{
		api.GET("/", h.ServerInfo)
		api.GET("/__heartbeat__", h.Heartbeat)
		api.GET("/__lbheartbeat__", h.LBHeartbeat)
		api.POST("/login", h.Login)
		api.GET(recordPath, h.GetRecord)

		auth := api.Group("")
		auth.Use(utils.AuthMiddleware(cfg.JWTSecret), utils.ReadOnlyMiddleware(cfg.ReadOnly))
		{
			auth.POST("/accounts", h.CreateAccount)

			auth.PUT(bucketPath, h.PutBucket)
			auth.DELETE(bucketPath, h.DeleteBucket)
			auth.PUT(collectionPath, h.PutCollection)
			auth.DELETE(collectionPath, h.DeleteCollection)
			auth.POST(collectionPath+"/records", h.CreateRecord)
			auth.PUT(recordPath, h.PutRecord)
			auth.PATCH(recordPath, h.PatchRecord)
			auth.DELETE(recordPath, h.DeleteRecord)

			attachment := auth.Group(recordPath + "/attachment")
			attachment.Use(utils.RateLimitMiddleware(cfg.UploadRate, cfg.UploadBurst))
			attachment.POST("", h.PostAttachment)
			attachment.DELETE("", h.DeleteAttachment)
		}
	}
	return r
}
