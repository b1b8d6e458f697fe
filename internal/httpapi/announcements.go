package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"communityhub/internal/announcements"
	"communityhub/internal/auth"
	"communityhub/internal/community"
)

type announcementRequest struct {
	Title    string                 `json:"title" binding:"required"`
	Content  string                 `json:"content" binding:"required"`
	ImageURL string                 `json:"image_url"`
	Org      community.Organization `json:"org" binding:"required"`
}

// ListAnnouncements returns the feed, optionally filtered by ?org=.
func (h *Handler) ListAnnouncements(c *gin.Context) {
	org := community.Organization(c.Query("org"))
	if org != "" && !org.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown organization"})
		return
	}
	list, err := h.announcements.List(c.Request.Context(), org)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"announcements": list})
}

// GetAnnouncement returns one announcement with likes and comments.
func (h *Handler) GetAnnouncement(c *gin.Context) {
	a, err := h.announcements.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, announcements.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, a)
}

// CreateAnnouncement posts to the feed with the caller's display snapshot.
func (h *Handler) CreateAnnouncement(c *gin.Context) {
	var req announcementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !req.Org.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown organization"})
		return
	}

	claims := auth.FromContext(c)
	if !canManage(claims, req.Org) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not an officer of this organization"})
		return
	}

	author, err := h.userRepo.GetByID(c.Request.Context(), claims.Subject)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	a, err := h.announcements.Create(c.Request.Context(), announcements.Announcement{
		Title:        req.Title,
		Content:      req.Content,
		ImageURL:     req.ImageURL,
		Org:          req.Org,
		AuthorID:     author.ID,
		AuthorName:   author.Name,
		AuthorRole:   string(author.Role),
		AuthorAvatar: author.AvatarURL,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.analytics.InvalidateOverview(c.Request.Context())
	c.JSON(http.StatusCreated, a)
}

// UpdateAnnouncement rewrites the mutable fields of a post.
func (h *Handler) UpdateAnnouncement(c *gin.Context) {
	var req announcementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !req.Org.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown organization"})
		return
	}

	existing, err := h.announcements.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, announcements.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	claims := auth.FromContext(c)
	if !canManage(claims, existing.Org) || !canManage(claims, req.Org) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not an officer of this organization"})
		return
	}

	updated := existing
	updated.Title = req.Title
	updated.Content = req.Content
	updated.ImageURL = req.ImageURL
	updated.Org = req.Org

	if err := h.announcements.Update(c.Request.Context(), updated); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.analytics.InvalidateOverview(c.Request.Context())
	c.JSON(http.StatusOK, updated)
}

// DeleteAnnouncement removes a post; likes and comments go with it.
func (h *Handler) DeleteAnnouncement(c *gin.Context) {
	existing, err := h.announcements.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, announcements.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if !canManage(auth.FromContext(c), existing.Org) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not an officer of this organization"})
		return
	}

	if err := h.announcements.Delete(c.Request.Context(), existing.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.analytics.InvalidateOverview(c.Request.Context())
	c.Status(http.StatusNoContent)
}

// ToggleLike flips the caller's like on an announcement.
func (h *Handler) ToggleLike(c *gin.Context) {
	id := c.Param("id")
	if _, err := h.announcements.Get(c.Request.Context(), id); err != nil {
		if errors.Is(err, announcements.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	claims := auth.FromContext(c)
	liked, err := h.announcements.ToggleLike(c.Request.Context(), id, claims.Subject)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"liked": liked})
}

// ListAnnouncementComments returns a post's comments.
func (h *Handler) ListAnnouncementComments(c *gin.Context) {
	list, err := h.announcements.ListComments(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"comments": list})
}

// AddAnnouncementComment appends a comment by the caller.
func (h *Handler) AddAnnouncementComment(c *gin.Context) {
	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id := c.Param("id")
	if _, err := h.announcements.Get(c.Request.Context(), id); err != nil {
		if errors.Is(err, announcements.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	claims := auth.FromContext(c)
	comment, err := h.announcements.AddComment(c.Request.Context(), id, claims.Subject, req.Content)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, comment)
}
