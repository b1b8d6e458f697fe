package httpapi

import (
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"communityhub/internal/analytics"
	"communityhub/internal/announcements"
	"communityhub/internal/assistant"
	"communityhub/internal/auth"
	"communityhub/internal/awards"
	"communityhub/internal/cloudinary"
	"communityhub/internal/community"
	"communityhub/internal/metrics"
	"communityhub/internal/notifications"
	"communityhub/internal/users"
	"communityhub/internal/workshops"
)

// Handler exposes the domain services over HTTP.
type Handler struct {
	users         *users.Service
	userRepo      *users.Repository
	workshops     *workshops.Service
	workshopRepo  *workshops.Repository
	announcements *announcements.Repository
	awards        *awards.Service
	notifs        *notifications.Service
	analytics     *analytics.Service
	assistant     *assistant.Client
	cloud         *cloudinary.Client // nil when Cloudinary is not configured
}

// New creates a handler over the given services.
func New(
	userSvc *users.Service,
	userRepo *users.Repository,
	workshopSvc *workshops.Service,
	workshopRepo *workshops.Repository,
	announcementRepo *announcements.Repository,
	awardSvc *awards.Service,
	notifSvc *notifications.Service,
	analyticsSvc *analytics.Service,
	assistantClient *assistant.Client,
	cloud *cloudinary.Client,
) *Handler {
	return &Handler{
		users:         userSvc,
		userRepo:      userRepo,
		workshops:     workshopSvc,
		workshopRepo:  workshopRepo,
		announcements: announcementRepo,
		awards:        awardSvc,
		notifs:        notifSvc,
		analytics:     analyticsSvc,
		assistant:     assistantClient,
		cloud:         cloud,
	}
}

// canManage reports whether the caller may manage resources of the given
// organization: admins always, officers only within their own organization.
func canManage(claims auth.Claims, org community.Organization) bool {
	if claims.Role == string(users.RoleAdmin) {
		return true
	}
	return claims.Role == string(users.RoleOfficer) && claims.OfficerOrg == string(org)
}

// Upload stores a multipart file in object storage and returns its public URL.
// On failure the caller keeps its previous asset reference.
func (h *Handler) Upload(c *gin.Context) {
	if h.cloud == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "asset storage not configured"})
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file field required"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "read file failed"})
		return
	}

	result, err := h.cloud.UploadBytes(data, header.Filename)
	if err != nil {
		log.Printf("asset upload failed: %v", err)
		metrics.UploadsFailed.Inc()
		c.JSON(http.StatusBadGateway, gin.H{"error": "asset upload failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": result.SecureURL, "public_id": result.PublicID, "bytes": result.Bytes})
}

// Overview serves the cached analytics aggregate.
func (h *Handler) Overview(c *gin.Context) {
	overview, err := h.analytics.Overview(c.Request.Context(), time.Now().UTC())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, overview)
}

// AssistantChat relays a conversation turn to the generative-text service.
// The reply is always best-effort; a backend failure yields a canned answer.
func (h *Handler) AssistantChat(c *gin.Context) {
	var req struct {
		History []assistant.Turn `json:"history"`
		Message string           `json:"message" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	reply := h.assistant.Reply(c.Request.Context(), req.History, req.Message)
	c.JSON(http.StatusOK, gin.H{"reply": reply})
}

// DescribeWorkshop generates a short promotional description for a draft
// workshop or announcement.
func (h *Handler) DescribeWorkshop(c *gin.Context) {
	var req struct {
		Title string                 `json:"title" binding:"required"`
		Org   community.Organization `json:"org" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !req.Org.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown organization"})
		return
	}
	description := h.assistant.Describe(c.Request.Context(), req.Title, string(req.Org))
	c.JSON(http.StatusOK, gin.H{"description": description})
}
