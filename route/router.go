package route

import (
	"support-agent/api"
	"support-agent/service"

	"github.com/gin-gonic/gin"
)

func Register(r *gin.Engine, chatSvc *service.ChatService) {

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// 聊天接口
	r.POST("/chat", api.ChatHandler(chatSvc))

	// 会话管理分组
	sessionGroup := r.Group("/session")
	{
		sessionGroup.POST("/clear", api.ClearSessionHandler(chatSvc))
		sessionGroup.GET("/:id", api.SessionInfoHandler(chatSvc))
	}

	// 人工工单
	r.POST("/ticket", api.CreateTicketHandler(chatSvc))
}
