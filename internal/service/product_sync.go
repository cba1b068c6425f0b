package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"catalog-mirror/internal/models"
	"catalog-mirror/internal/platform"
	"catalog-mirror/internal/store"
	"catalog-mirror/internal/util"

	"go.uber.org/zap"
)

// SyncProducts walks every product page and upserts each record. Upserts
// that resolve to an update count as processed.
func (s *SyncService) SyncProducts(ctx context.Context) (*SyncResult, error) {
	ctx, span := util.StartSpan(ctx, "SyncService.SyncProducts")
	defer span.End()

	started := time.Now()
	result := &SyncResult{Resource: models.ResourceProducts}

	unlock, err := s.lock(ctx, result.Resource)
	if err != nil {
		return nil, s.fail(result.Resource, err)
	}
	defer unlock()

	cursor := ""

	for {
		page, err := s.fetchPage(ctx, models.ResourceProducts, pageQuery(s.opts.PageLimit, cursor))
		if err != nil {
			return nil, s.fail(result.Resource, fmt.Errorf("failed to fetch product page %d: %w", result.Pages+1, err))
		}
		result.Pages++
		result.Fetched += len(page.Records)

		processed, skipped, err := s.persistProductPage(ctx, page.Records)
		if err != nil {
			return nil, s.fail(result.Resource, fmt.Errorf("failed to persist product page %d: %w", result.Pages, err))
		}
		result.Processed += processed
		result.Skipped += skipped

		if !page.HasNext() {
			break
		}
		if err := s.sleep(ctx, s.opts.SoftDelay); err != nil {
			return nil, s.fail(result.Resource, err)
		}
		cursor = page.NextCursor
	}

	s.finish(ctx, result, models.EventTypeProductsSynced, started)
	return result, nil
}

func (s *SyncService) persistProductPage(ctx context.Context, records []json.RawMessage) (processed, skipped int, err error) {
	ctx, span := util.StartSpan(ctx, "SyncService.persistProductPage")
	defer span.End()

	err = s.store.RunInTx(ctx, func(q *store.Queries) error {
		processed, skipped = 0, 0
		for _, raw := range records {
			product, err := platform.DecodeProduct(raw)
			if err != nil || product.ID == "" {
				skipped++
				s.logSkipped(models.ResourceProducts, raw, err)
				continue
			}

			if _, err := q.UpsertProduct(ctx, s.newID(), product.ID.String(), product.Name()); err != nil {
				return fmt.Errorf("product %s: %w", product.ID, err)
			}
			processed++
		}
		return nil
	})
	return processed, skipped, err
}

var errMissingID = errors.New("record has no id")

func (s *SyncService) logSkipped(resource string, raw json.RawMessage, err error) {
	util.RecordsSkippedTotal.WithLabelValues(resource).Inc()
	if err == nil {
		err = errMissingID
	}
	s.logger.Warn("Skipping malformed record",
		zap.String("resource", resource),
		zap.ByteString("record", truncateRecord(raw)),
		zap.Error(err))
}

func truncateRecord(raw json.RawMessage) []byte {
	const max = 256
	if len(raw) <= max {
		return raw
	}
	return raw[:max]
}
