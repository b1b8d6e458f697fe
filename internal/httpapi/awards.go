package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"communityhub/internal/auth"
	"communityhub/internal/awards"
	"communityhub/internal/workshops"
)

// IssueAward issues a badge and certificate for one workshop participant.
func (h *Handler) IssueAward(c *gin.Context) {
	var req struct {
		UserID     string `json:"user_id" binding:"required"`
		WorkshopID string `json:"workshop_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	w, err := h.workshopRepo.Get(c.Request.Context(), req.WorkshopID)
	if err != nil {
		if errors.Is(err, workshops.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if !canManage(auth.FromContext(c), w.Org) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not an officer of this organization"})
		return
	}

	badge, cert, err := h.awards.Issue(c.Request.Context(), awards.IssueInput{
		UserID:         req.UserID,
		WorkshopID:     w.ID,
		WorkshopTitle:  w.Title,
		Org:            w.Org,
		BadgeURL:       w.BadgeURL,
		CertificateURL: w.CertificateURL,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.analytics.InvalidateOverview(c.Request.Context())
	c.JSON(http.StatusCreated, gin.H{"badge": badge, "certificate": cert})
}

// BulkIssueAwards issues awards to many participants at once. Each user id
// gets an independent outcome in the response.
func (h *Handler) BulkIssueAwards(c *gin.Context) {
	var req struct {
		UserIDs    []string `json:"user_ids" binding:"required,min=1"`
		WorkshopID string   `json:"workshop_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	w, err := h.workshopRepo.Get(c.Request.Context(), req.WorkshopID)
	if err != nil {
		if errors.Is(err, workshops.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if !canManage(auth.FromContext(c), w.Org) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not an officer of this organization"})
		return
	}

	outcomes := h.awards.BulkIssue(c.Request.Context(), req.UserIDs, awards.IssueInput{
		WorkshopID:     w.ID,
		WorkshopTitle:  w.Title,
		Org:            w.Org,
		BadgeURL:       w.BadgeURL,
		CertificateURL: w.CertificateURL,
	})

	h.analytics.InvalidateOverview(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"outcomes": outcomes})
}

// RevokeAwards removes the badges and certificates one user earned from a
// workshop.
func (h *Handler) RevokeAwards(c *gin.Context) {
	var req struct {
		UserID     string `json:"user_id" binding:"required"`
		WorkshopID string `json:"workshop_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	w, err := h.workshopRepo.Get(c.Request.Context(), req.WorkshopID)
	if err != nil {
		if errors.Is(err, workshops.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if !canManage(auth.FromContext(c), w.Org) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not an officer of this organization"})
		return
	}

	removed, err := h.awards.Revoke(c.Request.Context(), req.UserID, req.WorkshopID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.analytics.InvalidateOverview(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}
