package route

import (
	"github.com/gin-gonic/gin"

	"sid-assistant/api"
	"sid-assistant/service"
)

func Register(r *gin.Engine, chatSvc *service.ChatService) {

	// 健康检查
	r.GET("/health", api.HealthHandler(chatSvc))

	// 聊天接口分组
	chatGroup := r.Group("/chat")
	{
		chatGroup.POST("", api.ChatHandler(chatSvc)) // POST /chat
		chatGroup.POST("/answer", api.AnswerHandler(chatSvc))
		chatGroup.POST("/intents", api.IntentRecognitionHandler(chatSvc))
		chatGroup.POST("/assistant", api.AssistantHandler(chatSvc))
		chatGroup.GET("/steps/:step/greeting", api.GreetingHandler(chatSvc))
		chatGroup.GET("/sessions/:id", api.GetSessionHandler(chatSvc))
		chatGroup.DELETE("/sessions/:id", api.ResetSessionHandler(chatSvc))
	}

	// 工单
	ticketGroup := r.Group("/tickets")
	{
		ticketGroup.POST("", api.CreateTicketHandler(chatSvc))
		ticketGroup.GET("/:id", api.GetTicketHandler(chatSvc))
	}
}
