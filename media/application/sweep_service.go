package application

import (
	"context"
	"sync"

	"github.com/dfryer1193/mediasweep/internal/metrics"
	"github.com/dfryer1193/mediasweep/media/domain"
	"github.com/rs/zerolog/log"
)

// DeleteReport lists the outcome of every requested deletion. Skipped holds images that were
// referenced again when rechecked right before deletion.
type DeleteReport struct {
	Deleted []int64
	Skipped []int64
	Failed  []ImageError
}

// SweepService runs scans and deletions. Deletions hold an exclusive lock so they never
// overlap a scan that may still be reading the same attachments.
type SweepService struct {
	collector *Collector
	repo      domain.AttachmentRepository
	mu        sync.RWMutex
}

func NewSweepService(collector *Collector, repo domain.AttachmentRepository) *SweepService {
	return &SweepService{
		collector: collector,
		repo:      repo,
	}
}

// Scan collects the unused images without modifying anything
func (s *SweepService) Scan(ctx context.Context) (ScanResult, error) {
	return s.ScanWithProgress(ctx, nil)
}

func (s *SweepService) ScanWithProgress(ctx context.Context, onProgress func(Progress)) (ScanResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.collector.Collect(ctx, onProgress)
}

// Sweep scans fully and, when deleteUnused is set, deletes every unused image found
func (s *SweepService) Sweep(ctx context.Context, deleteUnused bool) (ScanResult, DeleteReport, error) {
	result, err := s.Scan(ctx)
	if err != nil {
		return ScanResult{}, DeleteReport{}, err
	}

	if !deleteUnused {
		return result, DeleteReport{}, nil
	}

	return result, s.Delete(ctx, result.Unused), nil
}

// Delete removes each attachment and reports per-image outcomes. Once ctx is done the
// remaining attachments are reported as failed without being attempted.
func (s *SweepService) Delete(ctx context.Context, attachments []domain.Attachment) DeleteReport {
	return s.delete(ctx, attachments, false)
}

// DeleteUnused is Delete for a result that may be stale: each image is checked against the
// scanner again under the delete lock and skipped if it is referenced now.
func (s *SweepService) DeleteUnused(ctx context.Context, attachments []domain.Attachment) DeleteReport {
	return s.delete(ctx, attachments, true)
}

func (s *SweepService) delete(ctx context.Context, attachments []domain.Attachment, recheck bool) DeleteReport {
	s.mu.Lock()
	defer s.mu.Unlock()

	report := DeleteReport{Deleted: make([]int64, 0, len(attachments))}
	for i, att := range attachments {
		if err := ctx.Err(); err != nil {
			for _, rest := range attachments[i:] {
				report.Failed = append(report.Failed, ImageError{AttachmentID: rest.ID, Err: err})
			}
			break
		}

		if recheck {
			unused, err := s.collector.Recheck(ctx, att)
			if err != nil {
				log.Warn().Err(err).Int64("attachmentID", att.ID).Msg("Failed to recheck image, keeping it")
				report.Failed = append(report.Failed, ImageError{AttachmentID: att.ID, Err: err})
				continue
			}
			if !unused {
				report.Skipped = append(report.Skipped, att.ID)
				continue
			}
		}

		err := s.repo.DeleteAttachment(ctx, att)
		metrics.ObserveDeletion(err)
		if err != nil {
			log.Error().Err(err).Int64("attachmentID", att.ID).Msg("Failed to delete attachment")
			report.Failed = append(report.Failed, ImageError{AttachmentID: att.ID, Err: err})
			continue
		}

		log.Info().Int64("attachmentID", att.ID).Str("file", att.File).Msg("Deleted unused image")
		report.Deleted = append(report.Deleted, att.ID)
	}

	return report
}
