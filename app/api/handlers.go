package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/podbrief/podbrief/app/cfg"
	"github.com/podbrief/podbrief/app/database"
	"github.com/podbrief/podbrief/app/feed"
	"github.com/podbrief/podbrief/app/prefs"
	"github.com/podbrief/podbrief/app/topics"
)

// feedItemLimit caps the public feed at the newest episodes.
const feedItemLimit = 50

const resolveTimeout = 10 * time.Second

func NewHandler(accountRepo database.AccountRepository, episodeRepo database.EpisodeRepository,
	weightRepo database.WeightRepository, queueRepo database.QueueRepository,
	pushRepo database.PushRepository, resolver ResolverInterface,
	workerClient WorkerInterface, catalog *topics.Catalog) *Handler {
	return &Handler{
		accountRepo: accountRepo,
		episodeRepo: episodeRepo,
		weightRepo:  weightRepo,
		queueRepo:   queueRepo,
		pushRepo:    pushRepo,
		generator:   feed.NewGenerator(),
		resolver:    resolver,
		worker:      workerClient,
		catalog:     catalog,
	}
}

// GetFeed serves the public podcast feed for a feed token. The not-found
// response is constant-shape: it does not reveal whether the token is
// malformed or simply unassigned.
func (h *Handler) GetFeed(c *gin.Context) {
	token := c.Param("token")
	if token == "" {
		c.String(http.StatusNotFound, "feed not found")
		return
	}

	account, err := h.accountRepo.GetByFeedToken(token)
	if err != nil {
		slog.Error("Database error", "operation", "get_account_by_feed_token", "error", err)
		c.String(http.StatusInternalServerError, "internal error")
		return
	}

	if account == nil {
		c.String(http.StatusNotFound, "feed not found")
		return
	}

	episodes, err := h.episodeRepo.GetRecentByAccount(account.ID, feedItemLimit)
	if err != nil {
		slog.Error("Database error", "operation", "get_recent_episodes", "account", account.ID, "error", err)
		c.String(http.StatusInternalServerError, "internal error")
		return
	}

	rss, err := h.generator.Run(*account, episodes)
	if err != nil {
		slog.Error("Feed generation error", "account", account.ID, "error", err)
		c.String(http.StatusInternalServerError, "internal error")
		return
	}

	c.Header("Content-Type", "application/rss+xml; charset=utf-8")
	c.Header("Cache-Control", "public, max-age=300")

	c.String(http.StatusOK, rss)
}

func (h *Handler) GetSignalWeights(c *gin.Context) {
	account := accountFromContext(c)

	weights, err := h.weightRepo.Get(account.ID)
	if err != nil {
		slog.Error("Database error", "operation", "get_weights", "account", account.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"weights": weights})
}

type updateWeightsRequest struct {
	Weights map[string]any `json:"weights"`
}

// UpdateSignalWeights replaces the caller's full weight mapping. Validation
// runs over the entire payload before the single upsert; an invalid entry
// leaves the stored mapping untouched.
func (h *Handler) UpdateSignalWeights(c *gin.Context) {
	account := accountFromContext(c)

	var req updateWeightsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "weights must be an object of topic to number"})
		return
	}
	if req.Weights == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "weights must be an object of topic to number"})
		return
	}

	weights, err := prefs.ParseWeights(req.Weights)
	if err != nil {
		var vErr *prefs.ValidationError
		if errors.As(err, &vErr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.weightRepo.Replace(account.ID, weights, time.Now().UTC()); err != nil {
		slog.Error("Database error", "operation", "replace_weights", "account", account.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

type episodeResponse struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Summary         string    `json:"summary,omitempty"`
	AudioURL        string    `json:"audio_url"`
	DurationSeconds *int      `json:"duration_seconds,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

func (h *Handler) ListEpisodes(c *gin.Context) {
	account := accountFromContext(c)

	episodes, err := h.episodeRepo.GetRecentByAccount(account.ID, feedItemLimit)
	if err != nil {
		slog.Error("Database error", "operation", "list_episodes", "account", account.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	response := lo.Map(episodes, func(episode database.Episode, _ int) episodeResponse {
		return episodeResponse{
			ID:              episode.ID,
			Title:           episode.Title,
			Summary:         episode.Summary,
			AudioURL:        episode.AudioURL,
			DurationSeconds: episode.DurationSeconds,
			CreatedAt:       episode.CreatedAt,
		}
	})

	c.JSON(http.StatusOK, gin.H{
		"episodes": response,
		"total":    len(response),
	})
}

type createQueueItemRequest struct {
	URL  string `json:"url" binding:"required"`
	Kind string `json:"kind"`
}

func (h *Handler) CreateQueueItem(c *gin.Context) {
	account := accountFromContext(c)

	var req createQueueItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url is required"})
		return
	}

	if req.Kind == "" {
		req.Kind = "article"
	}
	if req.Kind != "article" && req.Kind != "video" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "kind must be article or video"})
		return
	}

	item := database.QueueItem{
		ID:        uuid.NewString(),
		AccountID: account.ID,
		URL:       req.URL,
		Kind:      req.Kind,
		Status:    "pending",
		CreatedAt: time.Now().UTC(),
	}

	// Metadata resolution is best effort; the queue accepts the URL as-is
	// when the page cannot be fetched or parsed.
	resolveCtx, cancel := context.WithTimeout(c.Request.Context(), resolveTimeout)
	defer cancel()

	if meta, err := h.resolver.Run(resolveCtx, req.URL); err != nil {
		slog.Warn("Queue item metadata resolution failed", "url", req.URL, "error", err)
	} else {
		item.Title = meta.Title
		item.Excerpt = meta.Excerpt
	}

	if err := h.queueRepo.Insert(item); err != nil {
		slog.Error("Database error", "operation", "insert_queue_item", "account", account.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"item": queueItemResponseFrom(item),
	})
}

type queueItemResponse struct {
	ID          string     `json:"id"`
	URL         string     `json:"url"`
	Kind        string     `json:"kind"`
	Title       string     `json:"title,omitempty"`
	Excerpt     string     `json:"excerpt,omitempty"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
}

func queueItemResponseFrom(item database.QueueItem) queueItemResponse {
	return queueItemResponse{
		ID:          item.ID,
		URL:         item.URL,
		Kind:        item.Kind,
		Title:       item.Title,
		Excerpt:     item.Excerpt,
		Status:      item.Status,
		CreatedAt:   item.CreatedAt,
		ProcessedAt: item.ProcessedAt,
	}
}

func (h *Handler) ListQueue(c *gin.Context) {
	account := accountFromContext(c)

	items, err := h.queueRepo.ListByAccount(account.ID)
	if err != nil {
		slog.Error("Database error", "operation", "list_queue", "account", account.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	response := lo.Map(items, func(item database.QueueItem, _ int) queueItemResponse {
		return queueItemResponseFrom(item)
	})

	c.JSON(http.StatusOK, gin.H{
		"items": response,
		"total": len(response),
	})
}

func (h *Handler) DeleteQueueItem(c *gin.Context) {
	account := accountFromContext(c)

	itemID := c.Param("id")
	deleted, err := h.queueRepo.Delete(account.ID, itemID)
	if err != nil {
		slog.Error("Database error", "operation", "delete_queue_item", "account", account.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "queue item not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// RequestGeneration proxies a digest request to the external worker.
func (h *Handler) RequestGeneration(c *gin.Context) {
	account := accountFromContext(c)

	if !h.worker.Configured() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "digest generation is not available"})
		return
	}

	jobID, err := h.worker.RequestGeneration(c.Request.Context(), account.ID)
	if err != nil {
		slog.Error("Worker request failed", "account", account.ID, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "digest generation failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"job_id":  jobID,
	})
}

// RotateFeedToken replaces the caller's feed token. The previous feed URL
// stops working immediately.
func (h *Handler) RotateFeedToken(c *gin.Context) {
	account := accountFromContext(c)

	token, err := h.accountRepo.RotateFeedToken(account.ID)
	if err != nil {
		slog.Error("Database error", "operation", "rotate_feed_token", "account", account.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"feed_token": token,
		"feed_url":   cfg.Get().BaseUrl + "/feed/" + token,
	})
}

type pushSubscriptionRequest struct {
	Endpoint string `json:"endpoint" binding:"required"`
	Keys     struct {
		P256dh string `json:"p256dh"`
		Auth   string `json:"auth"`
	} `json:"keys"`
}

func (h *Handler) SubscribePush(c *gin.Context) {
	account := accountFromContext(c)

	var req pushSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "endpoint is required"})
		return
	}

	sub := database.PushSubscription{
		ID:        uuid.NewString(),
		AccountID: account.ID,
		Endpoint:  req.Endpoint,
		P256dh:    req.Keys.P256dh,
		Auth:      req.Keys.Auth,
		CreatedAt: time.Now().UTC(),
	}

	if err := h.pushRepo.Upsert(sub); err != nil {
		slog.Error("Database error", "operation", "upsert_push_subscription", "account", account.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true})
}

type pushUnsubscribeRequest struct {
	Endpoint string `json:"endpoint" binding:"required"`
}

func (h *Handler) UnsubscribePush(c *gin.Context) {
	account := accountFromContext(c)

	var req pushUnsubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "endpoint is required"})
		return
	}

	deleted, err := h.pushRepo.DeleteByEndpoint(account.ID, req.Endpoint)
	if err != nil {
		slog.Error("Database error", "operation", "delete_push_subscription", "account", account.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "subscription not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) GetTopics(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"topics": h.catalog.Topics(),
		"total":  h.catalog.Count(),
	})
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if accountCount, err := h.accountRepo.GetAccountCount(); err == nil {
		health["accounts"] = accountCount
	}

	if episodeCount, err := h.episodeRepo.GetEpisodeCount(); err == nil {
		health["episodes"] = episodeCount
	}

	health["topics"] = h.catalog.Count()

	c.JSON(http.StatusOK, health)
}

type workerEpisodeRequest struct {
	AccountID       string `json:"account_id" binding:"required"`
	Title           string `json:"title" binding:"required"`
	Summary         string `json:"summary"`
	AudioURL        string `json:"audio_url" binding:"required"`
	DurationSeconds *int   `json:"duration_seconds"`
}

// WorkerCreateEpisode receives a finished episode from the generation worker.
func (h *Handler) WorkerCreateEpisode(c *gin.Context) {
	var req workerEpisodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "account_id, title and audio_url are required"})
		return
	}

	account, err := h.accountRepo.GetByID(req.AccountID)
	if err != nil {
		slog.Error("Database error", "operation", "get_account", "account", req.AccountID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if account == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "account not found"})
		return
	}

	episode := database.Episode{
		ID:              uuid.NewString(),
		AccountID:       account.ID,
		Title:           req.Title,
		Summary:         req.Summary,
		AudioURL:        req.AudioURL,
		DurationSeconds: req.DurationSeconds,
		CreatedAt:       time.Now().UTC(),
	}

	if err := h.episodeRepo.Insert(episode); err != nil {
		slog.Error("Database error", "operation", "insert_episode", "account", account.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":    true,
		"episode_id": episode.ID,
	})
}
