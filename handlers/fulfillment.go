package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lexfirma/lexfirma/backend/go-services/internal/artifact"
	"github.com/lexfirma/lexfirma/backend/go-services/internal/document"
	"github.com/lexfirma/lexfirma/backend/go-services/internal/document/repository"
	"github.com/lexfirma/lexfirma/backend/go-services/internal/document/service"
	"github.com/lexfirma/lexfirma/backend/go-services/internal/payment"
)

// Fulfillment wires the client-facing fulfillment endpoints: token lookup,
// the observation loop, checkout, both payment confirmation channels and
// the final download.
type Fulfillment struct {
	Service    service.Service
	Initiator  *payment.Initiator
	Reconciler *payment.Reconciler
	Finalizer  *artifact.Finalizer
}

// RegisterFulfillmentRoutes registers the public token-keyed endpoints.
func RegisterFulfillmentRoutes(r *gin.Engine, f Fulfillment) {
	r.GET("/api/fulfillment/:token", f.getDocument)
	r.POST("/api/fulfillment/:token/observations", f.submitObservations)
	r.POST("/api/fulfillment/:token/payment/session", f.openPaymentSession)
	r.GET("/api/fulfillment/:token/payment/return", f.paymentReturn)
	r.POST("/api/fulfillment/:token/payment/reconcile", f.reconcilePayment)
	r.GET("/api/fulfillment/:token/download", f.download)
}

func documentView(d *document.Document) gin.H {
	view := gin.H{
		"id":           d.ID,
		"token":        d.Token,
		"documentType": d.DocumentType,
		"price":        d.Price,
		"status":       d.Status,
		"createdAt":    d.CreatedAt,
		"updatedAt":    d.UpdatedAt,
	}
	// the draft is only visible once it reaches the client
	switch d.Status {
	case document.StatusInClientReview, document.StatusPaid, document.StatusDownloaded:
		view["content"] = d.Content
	}
	if d.UserObservations != "" {
		view["userObservations"] = d.UserObservations
		view["userObservationDate"] = d.UserObservationDate
	}
	return view
}

func (f Fulfillment) resolve(c *gin.Context) (*document.Document, bool) {
	doc, err := f.Service.GetByToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "document not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		}
		return nil, false
	}
	return doc, true
}

func (f Fulfillment) getDocument(c *gin.Context) {
	doc, ok := f.resolve(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, documentView(doc))
}

func (f Fulfillment) submitObservations(c *gin.Context) {
	doc, ok := f.resolve(c)
	if !ok {
		return
	}
	var req struct {
		Observations string `json:"observations"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	updated, err := f.Service.SubmitObservations(c.Request.Context(), doc.ID, req.Observations)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyObservation):
			c.JSON(http.StatusBadRequest, gin.H{"error": "observations must not be empty"})
		case errors.Is(err, repository.ErrConflict), isInvalidTransition(err):
			c.JSON(http.StatusConflict, gin.H{"error": "document is not awaiting your review"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not submit observations"})
		}
		return
	}
	c.JSON(http.StatusOK, documentView(updated))
}

func (f Fulfillment) openPaymentSession(c *gin.Context) {
	doc, ok := f.resolve(c)
	if !ok {
		return
	}
	if doc.Free() {
		updated, err := f.Service.ApproveFree(c.Request.Context(), doc.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not approve document"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"document": documentView(updated)})
		return
	}
	cfg, err := f.Initiator.Open(c.Request.Context(), doc)
	if err != nil {
		switch {
		case isInvalidTransition(err):
			c.JSON(http.StatusConflict, gin.H{"error": "document is not ready for payment"})
		case errors.Is(err, payment.ErrConfiguration):
			c.JSON(http.StatusBadGateway, gin.H{"error": "payment system could not initialize, please reload"})
		case errors.Is(err, payment.ErrGatewayUnavailable):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "payment gateway unavailable, please retry"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not open payment session"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"checkout": cfg, "document": documentView(doc)})
}

func (f Fulfillment) paymentReturn(c *gin.Context) {
	doc, ok := f.resolve(c)
	if !ok {
		return
	}
	params := payment.RedirectParams{
		OrderID:           c.Query("orderId"),
		TransactionStatus: c.Query("transactionStatus"),
	}
	updated, err := f.Reconciler.ConfirmRedirect(c.Request.Context(), doc.ID, params)
	if err != nil {
		switch {
		case errors.Is(err, payment.ErrStillPending):
			c.JSON(http.StatusAccepted, gin.H{"status": "pending", "document": documentView(doc)})
		case errors.Is(err, repository.ErrConflict):
			c.JSON(http.StatusConflict, gin.H{"error": "document is not awaiting payment"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not confirm payment"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"document": documentView(updated)})
}

func (f Fulfillment) reconcilePayment(c *gin.Context) {
	doc, ok := f.resolve(c)
	if !ok {
		return
	}
	var req struct {
		OrderID string `json:"orderId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.OrderID) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "orderId is required"})
		return
	}
	if sess, err := f.Initiator.Resolve(c.Request.Context(), req.OrderID); err == nil && sess != nil && sess.DocumentID != doc.ID {
		c.JSON(http.StatusConflict, gin.H{"error": "order does not belong to this document"})
		return
	}
	// the loop is bounded and dies with the request context, so a closed
	// browser tab tears the polling down
	updated, err := f.Reconciler.Poll(c.Request.Context(), doc.ID, req.OrderID)
	if err != nil {
		switch {
		case errors.Is(err, payment.ErrStillPending):
			c.JSON(http.StatusAccepted, gin.H{"status": "pending", "document": documentView(doc)})
		case errors.Is(err, repository.ErrConflict):
			c.JSON(http.StatusConflict, gin.H{"error": "document is not awaiting payment"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not reconcile payment"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"document": documentView(updated)})
}

func (f Fulfillment) download(c *gin.Context) {
	doc, ok := f.resolve(c)
	if !ok {
		return
	}
	delivery, updated, err := f.Finalizer.Finalize(c.Request.Context(), doc)
	if err != nil {
		if isInvalidTransition(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "document is not paid yet"})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": "could not produce the document, please retry"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"document": documentView(updated), "download": delivery})
}

func isInvalidTransition(err error) bool {
	var ite *document.InvalidTransitionError
	return errors.As(err, &ite)
}
