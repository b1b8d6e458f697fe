package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"communityhub/internal/auth"
	"communityhub/internal/community"
	"communityhub/internal/workshops"
)

type workshopRequest struct {
	Title          string                 `json:"title" binding:"required"`
	Description    string                 `json:"description"`
	Date           time.Time              `json:"date" binding:"required"`
	Org            community.Organization `json:"org" binding:"required"`
	BannerURL      string                 `json:"banner_url"`
	BadgeURL       string                 `json:"badge_url"`
	CertificateURL string                 `json:"certificate_url"`
	SeatLimit      int                    `json:"seat_limit"`
}

// ListWorkshops returns workshops, optionally filtered by ?org=.
func (h *Handler) ListWorkshops(c *gin.Context) {
	org := community.Organization(c.Query("org"))
	if org != "" && !org.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown organization"})
		return
	}
	list, err := h.workshopRepo.List(c.Request.Context(), org)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"workshops": list})
}

// GetWorkshop returns one workshop.
func (h *Handler) GetWorkshop(c *gin.Context) {
	w, err := h.workshopRepo.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, workshops.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, w)
}

// CreateWorkshop creates a workshop for the caller's organization.
func (h *Handler) CreateWorkshop(c *gin.Context) {
	var req workshopRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	claims := auth.FromContext(c)
	if !canManage(claims, req.Org) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not an officer of this organization"})
		return
	}

	w, err := h.workshops.Create(c.Request.Context(), workshops.Workshop{
		Title:          req.Title,
		Description:    req.Description,
		Date:           req.Date,
		Org:            req.Org,
		BannerURL:      req.BannerURL,
		BadgeURL:       req.BadgeURL,
		CertificateURL: req.CertificateURL,
		SeatLimit:      req.SeatLimit,
		CreatedBy:      claims.Subject,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.analytics.InvalidateOverview(c.Request.Context())
	c.JSON(http.StatusCreated, w)
}

// UpdateWorkshop rewrites a workshop.
func (h *Handler) UpdateWorkshop(c *gin.Context) {
	var req workshopRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	existing, err := h.workshopRepo.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, workshops.ErrNotFound) {
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
	updated.Description = req.Description
	updated.Date = req.Date
	updated.Org = req.Org
	updated.BannerURL = req.BannerURL
	updated.BadgeURL = req.BadgeURL
	updated.CertificateURL = req.CertificateURL
	updated.SeatLimit = req.SeatLimit

	if err := h.workshops.Update(c.Request.Context(), updated); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.analytics.InvalidateOverview(c.Request.Context())
	c.JSON(http.StatusOK, updated)
}

// DeleteWorkshop removes a workshop.
func (h *Handler) DeleteWorkshop(c *gin.Context) {
	existing, err := h.workshopRepo.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, workshops.ErrNotFound) {
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

	if err := h.workshopRepo.Delete(c.Request.Context(), existing.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.analytics.InvalidateOverview(c.Request.Context())
	c.Status(http.StatusNoContent)
}

// JoinWorkshop adds the caller as a participant.
func (h *Handler) JoinWorkshop(c *gin.Context) {
	claims := auth.FromContext(c)
	user, err := h.userRepo.GetByID(c.Request.Context(), claims.Subject)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	err = h.workshops.Join(c.Request.Context(), c.Param("id"), workshops.Participant{
		UserID:    user.ID,
		Name:      user.Name,
		Email:     user.Email,
		AvatarURL: user.AvatarURL,
	}, time.Now().UTC())
	switch {
	case err == nil:
	case errors.Is(err, workshops.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	case errors.Is(err, workshops.ErrExpired), errors.Is(err, workshops.ErrFull), errors.Is(err, workshops.ErrAlreadyJoined):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.analytics.InvalidateOverview(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"joined": true})
}

// LeaveWorkshop removes the caller's participation.
func (h *Handler) LeaveWorkshop(c *gin.Context) {
	claims := auth.FromContext(c)
	if err := h.workshops.Leave(c.Request.Context(), c.Param("id"), claims.Subject); err != nil {
		if errors.Is(err, workshops.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.analytics.InvalidateOverview(c.Request.Context())
	c.Status(http.StatusNoContent)
}

// ListParticipants returns a workshop's participants.
func (h *Handler) ListParticipants(c *gin.Context) {
	list, err := h.workshopRepo.ListParticipants(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"participants": list})
}

// ListWorkshopComments returns a workshop's comments.
func (h *Handler) ListWorkshopComments(c *gin.Context) {
	list, err := h.workshopRepo.ListComments(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"comments": list})
}

// AddWorkshopComment appends a comment by the caller.
func (h *Handler) AddWorkshopComment(c *gin.Context) {
	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if _, err := h.workshopRepo.Get(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, workshops.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	claims := auth.FromContext(c)
	comment, err := h.workshopRepo.AddComment(c.Request.Context(), c.Param("id"), claims.Subject, req.Content)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, comment)
}
