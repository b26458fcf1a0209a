package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"sid-assistant/dao"
	"sid-assistant/model"
	"sid-assistant/service"
	"sid-assistant/service/assistant"
)

// writeError maps service errors to HTTP status codes.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, assistant.ErrInvalidProfile):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrAssistantDisabled):
		status = http.StatusServiceUnavailable
	case errors.Is(err, dao.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, dao.ErrInvalidParam), errors.Is(err, dao.ErrInvalidSession):
		status = http.StatusBadRequest
	case errors.Is(err, dao.ErrMaxRetries):
		status = http.StatusConflict
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func ChatHandler(chatSvc *service.ChatService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req model.ChatRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		resp, err := chatSvc.HandleMessage(c.Request.Context(), req)
		if err != nil {
			writeError(c, err)
			return
		}

		c.JSON(http.StatusOK, resp)
	}
}

func GetSessionHandler(chatSvc *service.ChatService) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := chatSvc.GetSession(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}

		c.JSON(http.StatusOK, session)
	}
}

func ResetSessionHandler(chatSvc *service.ChatService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := chatSvc.ResetSession(c.Request.Context(), c.Param("id")); err != nil {
			writeError(c, err)
			return
		}

		c.Status(http.StatusNoContent)
	}
}

func AssistantHandler(chatSvc *service.ChatService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req model.AssistantRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		resp, err := chatSvc.AskAssistant(c.Request.Context(), req)
		if err != nil {
			writeError(c, err)
			return
		}

		c.JSON(http.StatusOK, resp)
	}
}

func CreateTicketHandler(chatSvc *service.ChatService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req model.CreateTicketRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ticket, err := chatSvc.CreateTicket(c.Request.Context(), req.UserID, req.SessionID, req.Description)
		if err != nil {
			writeError(c, err)
			return
		}

		c.JSON(http.StatusCreated, ticket)
	}
}

func GetTicketHandler(chatSvc *service.ChatService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ticket, err := chatSvc.GetTicket(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}

		c.JSON(http.StatusOK, ticket)
	}
}

// HealthHandler reports the session store status.
func HealthHandler(chatSvc *service.ChatService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := chatSvc.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
