package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"sid-assistant/model"
	"sid-assistant/service"
)

type GreetingResponse struct {
	Step     string `json:"step"`
	Greeting string `json:"greeting"`
}

// AnswerHandler looks a question up in the FAQ knowledge base.
func AnswerHandler(chatSvc *service.ChatService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req model.AnswerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		resp, err := chatSvc.FindAnswer(c.Request.Context(), req)
		if err != nil {
			writeError(c, err)
			return
		}

		c.JSON(http.StatusOK, resp)
	}
}

func IntentRecognitionHandler(chatSvc *service.ChatService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req model.IntentRecognitionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, chatSvc.RecognizeIntent(c.Request.Context(), req))
	}
}

func GreetingHandler(chatSvc *service.ChatService) gin.HandlerFunc {
	return func(c *gin.Context) {
		step := c.Param("step")
		greeting, ok := chatSvc.Greeting(step)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "no greeting for step " + step})
			return
		}

		c.JSON(http.StatusOK, GreetingResponse{Step: step, Greeting: greeting})
	}
}
