package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"catalog-mirror/internal/models"
	"catalog-mirror/internal/platform"
	"catalog-mirror/internal/store"
	"catalog-mirror/internal/util"

	"go.uber.org/zap"
)

type orderPageResult struct {
	processed  int
	skipped    int
	unresolved []string
}

// SyncOrders walks order pages until the remote listing is exhausted or the
// fetched count reaches the cap. The cap is checked between pages, so the
// final page is never truncated. Each page commits in one transaction.
func (s *SyncService) SyncOrders(ctx context.Context) (*SyncResult, error) {
	ctx, span := util.StartSpan(ctx, "SyncService.SyncOrders")
	defer span.End()

	started := time.Now()
	result := &SyncResult{Resource: models.ResourceOrders}

	unlock, err := s.lock(ctx, result.Resource)
	if err != nil {
		return nil, s.fail(result.Resource, err)
	}
	defer unlock()

	limit := s.opts.PageLimit
	cursor := ""

	for {
		query := pageQuery(limit, cursor)
		query[paramStatus] = orderStatuses

		page, err := s.fetchPage(ctx, models.ResourceOrders, query)
		if err != nil {
			return nil, s.fail(result.Resource, fmt.Errorf("failed to fetch order page %d: %w", result.Pages+1, err))
		}
		result.Pages++
		result.Fetched += len(page.Records)

		pageResult, err := s.persistOrderPage(ctx, page.Records)
		if err != nil {
			return nil, s.fail(result.Resource, fmt.Errorf("failed to persist order page %d: %w", result.Pages, err))
		}
		result.Processed += pageResult.processed
		result.Skipped += pageResult.skipped
		result.Unresolved = append(result.Unresolved, pageResult.unresolved...)

		if result.Pages == 1 {
			if next := s.opts.PageSize.AfterFirstPage(limit, len(page.Records), page.HasNext()); next != limit {
				s.logger.Info("Short first order page, switching page size",
					zap.Int("received", len(page.Records)),
					zap.Int("from", limit),
					zap.Int("to", next))
				limit = next
			}
		}

		if !page.HasNext() {
			break
		}
		if result.Fetched >= s.opts.OrderCap {
			s.logger.Info("Order cap reached, stopping pagination",
				zap.Int("fetched", result.Fetched),
				zap.Int("cap", s.opts.OrderCap))
			break
		}
		if err := s.sleep(ctx, s.opts.SoftDelay); err != nil {
			return nil, s.fail(result.Resource, err)
		}
		cursor = page.NextCursor
	}

	s.finish(ctx, result, models.EventTypeOrdersSynced, started)
	return result, nil
}

// persistOrderPage stores a page of orders and, for orders first seen in
// this page, their line items in remote order.
func (s *SyncService) persistOrderPage(ctx context.Context, records []json.RawMessage) (*orderPageResult, error) {
	ctx, span := util.StartSpan(ctx, "SyncService.persistOrderPage")
	defer span.End()

	var res *orderPageResult
	err := s.store.RunInTx(ctx, func(q *store.Queries) error {
		res = &orderPageResult{}
		for _, raw := range records {
			order, err := platform.DecodeOrder(raw)
			if err != nil || order.ID == "" {
				res.skipped++
				s.logSkipped(models.ResourceOrders, raw, err)
				continue
			}

			ref, err := q.EnsureOrder(ctx, s.newID(), order.ID.String())
			if err != nil {
				return fmt.Errorf("order %s: %w", order.ID, err)
			}
			if ref.ID == "" {
				res.unresolved = append(res.unresolved, order.ID.String())
				continue
			}

			if ref.Inserted {
				if err := s.insertLineItems(ctx, q, ref.ID, order.LineItems); err != nil {
					return fmt.Errorf("order %s: %w", order.ID, err)
				}
			}
			res.processed++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, platformID := range res.unresolved {
		util.UnresolvedOrdersTotal.Inc()
		s.logger.Warn("Order id unresolved, line items dropped", zap.String("platform_id", platformID))
	}
	return res, nil
}

func (s *SyncService) insertLineItems(ctx context.Context, q *store.Queries, orderID string, lineItems []platform.LineItem) error {
	for i, li := range lineItems {
		item := &models.OrderLineItem{
			ID:                s.newID(),
			OrderID:           orderID,
			PlatformProductID: li.ProductRef(),
			Position:          i,
		}

		if item.PlatformProductID != nil {
			productID, ok, err := q.FindProductInternalID(ctx, *item.PlatformProductID)
			if err != nil {
				return err
			}
			if ok {
				item.ProductID = &productID
			}
		}

		if err := q.InsertLineItem(ctx, item); err != nil {
			return err
		}
	}
	return nil
}
