package artifact

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lexfirma/lexfirma/backend/go-services/internal/document"
	"github.com/lexfirma/lexfirma/backend/go-services/internal/document/repository"
	"github.com/lexfirma/lexfirma/backend/go-services/pkg/logger"
	"github.com/lexfirma/lexfirma/backend/go-services/pkg/metrics"
)

// Delivery describes a successfully produced and stored artifact.
type Delivery struct {
	Key         string `json:"key"`
	URL         string `json:"url"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
	Filename    string `json:"filename"`
}

// Finalizer delivers the paid artifact and records the paid -> downloaded
// transition. Delivery happens before the status write: failing the other
// way around would strand the user on a paid document they cannot fetch.
type Finalizer struct {
	repo       repository.Repository
	renderer   Renderer
	objects    ObjectStore
	meta       *MetadataStore
	presignTTL time.Duration
}

// NewFinalizer builds a Finalizer. meta may be nil; presignTTL of zero
// means 15 minutes.
func NewFinalizer(repo repository.Repository, renderer Renderer, objects ObjectStore, meta *MetadataStore, presignTTL time.Duration) *Finalizer {
	if presignTTL <= 0 {
		presignTTL = 15 * time.Minute
	}
	return &Finalizer{repo: repo, renderer: renderer, objects: objects, meta: meta, presignTTL: presignTTL}
}

// Finalize renders and delivers the artifact, then (first time only)
// conditionally marks the document downloaded. Calling it on an already
// downloaded document re-delivers without writing; users may re-download
// freely. Delivery failure leaves the status at paid so the user retries.
func (f *Finalizer) Finalize(ctx context.Context, doc *document.Document) (*Delivery, *document.Document, error) {
	if doc.Status != document.StatusPaid && doc.Status != document.StatusDownloaded {
		return nil, nil, &document.InvalidTransitionError{From: doc.Status, To: document.StatusDownloaded}
	}

	rendered, err := f.renderer.Render(doc.DocumentType, doc.Content)
	if err != nil {
		metrics.ArtifactDeliveries.WithLabelValues("render_error").Inc()
		return nil, nil, fmt.Errorf("render artifact: %w", err)
	}
	key := "artifacts/" + doc.ID + "/" + rendered.Filename
	if err := f.objects.Upload(ctx, key, rendered.Data, rendered.ContentType); err != nil {
		metrics.ArtifactDeliveries.WithLabelValues("upload_error").Inc()
		return nil, nil, fmt.Errorf("store artifact: %w", err)
	}
	downloadURL, err := f.objects.PresignedURL(ctx, key, f.presignTTL)
	if err != nil {
		metrics.ArtifactDeliveries.WithLabelValues("presign_error").Inc()
		return nil, nil, fmt.Errorf("presign artifact: %w", err)
	}

	if err := f.meta.Save(ctx, &Metadata{
		DocumentID:  doc.ID,
		Key:         key,
		ContentType: rendered.ContentType,
		Size:        int64(len(rendered.Data)),
		RenderedAt:  time.Now().UTC(),
	}); err != nil {
		// metadata is bookkeeping; delivery already succeeded
		logger.Warnf("artifact: save metadata for %s: %v", doc.ID, err)
	}

	delivery := &Delivery{
		Key:         key,
		URL:         downloadURL,
		ContentType: rendered.ContentType,
		Size:        int64(len(rendered.Data)),
		Filename:    rendered.Filename,
	}

	current := doc
	if doc.Status == document.StatusPaid {
		expected := document.StatusPaid
		updated, err := f.repo.UpdateStatus(ctx, doc.ID, &expected, document.StatusDownloaded, nil)
		switch {
		case err == nil:
			current = updated
		case errors.Is(err, repository.ErrConflict):
			// someone else finalized first; that is fine
			cur, ferr := f.repo.FindByID(ctx, doc.ID)
			if ferr != nil {
				return nil, nil, ferr
			}
			current = cur
		default:
			return nil, nil, err
		}
	}

	metrics.ArtifactDeliveries.WithLabelValues("success").Inc()
	logger.Infof("artifact: delivered %s for document %s", key, doc.ID)
	return delivery, current, nil
}
