package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lexfirma/lexfirma/backend/go-services/internal/document/repository"
	"github.com/lexfirma/lexfirma/backend/go-services/internal/document/service"
	"github.com/lexfirma/lexfirma/backend/go-services/pkg/middleware"
)

// Review exposes the lawyer-side endpoints: claiming a freshly requested
// document and publishing the reviewed draft back to the client.
type Review struct {
	Service service.Service
}

// RegisterReviewRoutes registers the reviewer endpoints behind token auth.
func RegisterReviewRoutes(r *gin.Engine, rev Review, ver middleware.Verifier) {
	grp := r.Group("/api/review", middleware.AuthMiddleware(ver))
	grp.POST("/:token/claim", rev.claim)
	grp.POST("/:token/complete", rev.complete)
}

func (rev Review) claim(c *gin.Context) {
	doc, err := rev.Service.GetByToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		respondLookupError(c, err)
		return
	}
	updated, err := rev.Service.BeginReview(c.Request.Context(), doc.ID)
	if err != nil {
		respondTransitionError(c, err, "document is not awaiting review")
		return
	}
	c.JSON(http.StatusOK, documentView(updated))
}

func (rev Review) complete(c *gin.Context) {
	doc, err := rev.Service.GetByToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		respondLookupError(c, err)
		return
	}
	var req struct {
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Content) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "content is required"})
		return
	}
	updated, err := rev.Service.CompleteReview(c.Request.Context(), doc.ID, req.Content)
	if err != nil {
		respondTransitionError(c, err, "document is not under review")
		return
	}
	c.JSON(http.StatusOK, documentView(updated))
}

func respondLookupError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "document not found"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
}

func respondTransitionError(c *gin.Context, err error, conflictMsg string) {
	if errors.Is(err, repository.ErrConflict) || isInvalidTransition(err) {
		c.JSON(http.StatusConflict, gin.H{"error": conflictMsg})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
}
