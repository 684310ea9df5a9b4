package http

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/layer-3/dapptober/catalog"
	"github.com/layer-3/dapptober/core"
	"github.com/layer-3/dapptober/service"
	"go.uber.org/zap"
)

// SocialHandlers serves the prompt catalog, profiles and community activity
type SocialHandlers struct {
	social *service.SocialService
	logger *zap.Logger
}

func NewSocialHandlers(social *service.SocialService, logger *zap.Logger) *SocialHandlers {
	return &SocialHandlers{social: social, logger: logger}
}

func dayParam(c *gin.Context) (int, error) {
	day, err := strconv.Atoi(c.Param("day"))
	if err != nil {
		return 0, fmt.Errorf("day must be a number: %w", core.ErrInvalidRequest)
	}
	return day, nil
}

func (h *SocialHandlers) ListPrompts(c *gin.Context) {
	prompts, err := catalog.All()
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, prompts)
}

func (h *SocialHandlers) GetPrompt(c *gin.Context) {
	day, err := dayParam(c)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	prompt, err := catalog.Get(day)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, prompt)
}

func (h *SocialHandlers) ListComments(c *gin.Context) {
	day, err := dayParam(c)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	comments, err := h.social.ListComments(c.Request.Context(), day)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, comments)
}

// LikeStatus reports the like count, and whether the caller liked when a bearer token is present
func (h *SocialHandlers) LikeStatus(c *gin.Context) {
	day, err := dayParam(c)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	state, err := h.social.LikeStatus(c.Request.Context(), c.GetString(ContextAddressKey), day)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (h *SocialHandlers) Showcase(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative number"})
			return
		}
		limit = n
	}

	entries, err := h.social.Showcase(c.Request.Context(), limit)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (h *SocialHandlers) GetProfile(c *gin.Context) {
	ctx := c.Request.Context()
	address := c.Param("address")

	profile, err := h.social.GetProfile(ctx, address)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	stats, err := h.social.ProfileStats(ctx, address)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": profile, "stats": stats})
}

func (h *SocialHandlers) ListProfileSubmissions(c *gin.Context) {
	subs, err := h.social.ListProfileSubmissions(c.Request.Context(), c.Param("address"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, subs)
}

func (h *SocialHandlers) UpdateProfile(c *gin.Context) {
	var update core.ProfileUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	address := c.GetString(ContextAddressKey)
	profile, err := h.social.UpdateProfile(c.Request.Context(), address, address, update)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *SocialHandlers) ToggleLike(c *gin.Context) {
	day, err := dayParam(c)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	state, err := h.social.ToggleLike(c.Request.Context(), c.GetString(ContextAddressKey), day)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (h *SocialHandlers) AddComment(c *gin.Context) {
	day, err := dayParam(c)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	var req struct {
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	comment, err := h.social.AddComment(c.Request.Context(), c.GetString(ContextAddressKey), day, req.Content)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

func (h *SocialHandlers) DeleteComment(c *gin.Context) {
	if err := h.social.DeleteComment(c.Request.Context(), c.GetString(ContextAddressKey), c.Param("id")); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *SocialHandlers) Submit(c *gin.Context) {
	var req struct {
		Day int `json:"day"`
		service.SubmissionInput
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	sub, err := h.social.SubmitDapp(c.Request.Context(), c.GetString(ContextAddressKey), req.Day, req.SubmissionInput)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, sub)
}
