package api

import (
	"errors"                         // Error matching
	"net/http"                       // HTTP status codes
	"shaadi_planner/internal/invite" // AI text generation

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
)

// MessageRequest asks for a WhatsApp message template
type MessageRequest struct {
	Prompt string `json:"prompt"` // What the message should say
}

// writeAIError maps generator errors to status codes
func writeAIError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, invite.ErrNotConfigured):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "AI generation is not configured"})
	case errors.Is(err, invite.ErrMissingNames), errors.Is(err, invite.ErrEmptyPrompt):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		logrus.WithField("error", err.Error()).Error("AI generation failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "AI generation failed, please try again"})
	}
}

// InvitationHandler writes a wedding invitation
func InvitationHandler(gen invite.Generator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req invite.InvitationRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		text, err := invite.Invitation(c.Request.Context(), gen, req)
		if err != nil {
			writeAIError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"text": text})
	}
}

// MessageHandler writes a short WhatsApp message template
func MessageHandler(gen invite.Generator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req MessageRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		text, err := invite.Message(c.Request.Context(), gen, req.Prompt)
		if err != nil {
			writeAIError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"text": text})
	}
}
