package application

import (
	"context"
	"fmt"
	"time"

	"github.com/dfryer1193/mediasweep/internal/metrics"
	"github.com/dfryer1193/mediasweep/media/domain"
	"github.com/rs/zerolog/log"
)

const (
	DefaultChecks   = 3
	DefaultPageSize = 500
)

type CollectorConfig struct {
	// Checks is how many times a negative result is evaluated before it is accepted
	Checks int
	// RecheckDelay is waited between repeated evaluations of the same attachment
	RecheckDelay time.Duration
	// PageSize bounds how many attachments are loaded at once; <= 0 loads all in one query
	PageSize int
}

// Progress reports how far a collection pass has come
type Progress struct {
	Total   int
	Checked int
	Unused  int
	Unknown int
}

// ImageError records an attachment that could not be classified or deleted
type ImageError struct {
	AttachmentID int64
	Err          error
}

// ScanResult is the outcome of one collection pass
type ScanResult struct {
	Checked int
	// Unused holds unreferenced attachments in enumeration order
	Unused []domain.Attachment
	// Unknown holds attachments whose checks failed; they are never considered unused
	Unknown []ImageError
}

// UnusedIDs returns the IDs of the unused attachments in enumeration order
func (r ScanResult) UnusedIDs() []int64 {
	ids := make([]int64, 0, len(r.Unused))
	for _, att := range r.Unused {
		ids = append(ids, att.ID)
	}
	return ids
}

// Collector enumerates every image attachment and collects the ones no predicate references
type Collector struct {
	lister  domain.AttachmentLister
	scanner *Scanner
	cfg     CollectorConfig
}

func NewCollector(lister domain.AttachmentLister, scanner *Scanner, cfg CollectorConfig) *Collector {
	if cfg.Checks <= 0 {
		cfg.Checks = DefaultChecks
	}
	return &Collector{
		lister:  lister,
		scanner: scanner,
		cfg:     cfg,
	}
}

// CollectUnused returns the IDs of all unreferenced image attachments.
// Attachments that could not be classified are left out and logged.
func (c *Collector) CollectUnused(ctx context.Context) ([]int64, error) {
	result, err := c.Collect(ctx, nil)
	if err != nil {
		return nil, err
	}
	return result.UnusedIDs(), nil
}

// Collect runs a full collection pass. onProgress, when set, is called after every attachment.
// Only context cancellation or a failure to enumerate attachments aborts the pass.
func (c *Collector) Collect(ctx context.Context, onProgress func(Progress)) (result ScanResult, err error) {
	defer func() {
		metrics.ObserveScan(err, len(result.Unused))
	}()

	var progress Progress
	if onProgress != nil {
		total, err := c.lister.CountImageAttachments(ctx)
		if err != nil {
			return ScanResult{}, fmt.Errorf("failed to count image attachments: %w", err)
		}
		progress.Total = total
		onProgress(progress)
	}

	result.Unused = make([]domain.Attachment, 0)
	var afterID int64
	for {
		page, err := c.lister.ListImageAttachments(ctx, afterID, c.cfg.PageSize)
		if err != nil {
			return ScanResult{}, fmt.Errorf("failed to list image attachments: %w", err)
		}

		for _, att := range page {
			unused, err := c.classify(ctx, att)
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ScanResult{}, ctxErr
			}

			result.Checked++
			switch {
			case err != nil:
				log.Error().Err(err).Int64("attachmentID", att.ID).Msg("Failed to classify image, keeping it")
				result.Unknown = append(result.Unknown, ImageError{AttachmentID: att.ID, Err: err})
			case unused:
				result.Unused = append(result.Unused, att)
			}

			if onProgress != nil {
				progress.Checked = result.Checked
				progress.Unused = len(result.Unused)
				progress.Unknown = len(result.Unknown)
				onProgress(progress)
			}
		}

		if c.cfg.PageSize <= 0 || len(page) < c.cfg.PageSize {
			break
		}
		afterID = page[len(page)-1].ID
	}

	log.Info().
		Int("checked", result.Checked).
		Int("unused", len(result.Unused)).
		Int("unknown", len(result.Unknown)).
		Msg("Collected unused images")

	return result, nil
}

// Recheck evaluates the scanner once and reports whether att is still unreferenced
func (c *Collector) Recheck(ctx context.Context, att domain.Attachment) (bool, error) {
	name, found, err := c.scanner.Match(ctx, att)
	if err != nil {
		return false, err
	}
	if found {
		log.Info().Int64("attachmentID", att.ID).Str("predicate", name).Msg("Image gained a reference since the scan")
		return false, nil
	}
	return true, nil
}

// classify evaluates the scanner up to cfg.Checks times, stopping as soon as a reference is found
func (c *Collector) classify(ctx context.Context, att domain.Attachment) (bool, error) {
	for attempt := 1; attempt <= c.cfg.Checks; attempt++ {
		if attempt > 1 && c.cfg.RecheckDelay > 0 {
			select {
			case <-ctx.Done():
				return false, ctx.Err()
			case <-time.After(c.cfg.RecheckDelay):
			}
		}

		name, found, err := c.scanner.Match(ctx, att)
		if err != nil {
			return false, err
		}
		if found {
			log.Debug().Int64("attachmentID", att.ID).Str("predicate", name).Int("attempt", attempt).Msg("Image is referenced")
			return false, nil
		}
	}

	return true, nil
}
