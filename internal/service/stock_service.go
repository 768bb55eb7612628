package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"stationery-store/internal/models"
	"stationery-store/internal/redisclient"
	"stationery-store/internal/store"
	"stationery-store/internal/util"

	"go.uber.org/zap"
)

// StockService implements stock validation and the post-checkout
// decrement over a StockLedger, with an optional Redis cache of levels.
//
// Validation and decrement are deliberately not one transaction: the
// validated quantities are a point-in-time snapshot, not a reservation.
// The only atomic piece is the per-item clamped decrement inside the
// ledger itself.
type StockService struct {
	ledger store.StockLedger
	cache  *redisclient.Client
	logger *zap.Logger
}

// NewStockService creates a stock service. ledger may be nil when no
// persistent backend is configured at all; every check then passes and
// every decrement is a reported no-op. cache may be nil.
func NewStockService(ledger store.StockLedger, cache *redisclient.Client) *StockService {
	return &StockService{
		ledger: ledger,
		cache:  cache,
		logger: util.GetLogger(),
	}
}

// StockLine is one requested line at checkout.
type StockLine struct {
	ItemID   int64
	Quantity int
	Name     string
}

// ValidationResult reports the outcome of a stock availability check.
type ValidationResult struct {
	Valid   bool     `json:"valid"`
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

// Validate compares the requested quantities against current stock. One
// detail line is recorded per offending request line.
func (s *StockService) Validate(ctx context.Context, lines []StockLine) (ValidationResult, error) {
	ctx, span := util.StartSpan(ctx, "StockService.Validate")
	defer span.End()

	start := time.Now()
	defer func() {
		util.StockValidationLatency.Observe(time.Since(start).Seconds())
	}()

	if s.ledger == nil {
		return ValidationResult{Valid: true, Message: "Stock validation passed (Demo Mode)"}, nil
	}

	ids := make([]int64, len(lines))
	for i, line := range lines {
		ids[i] = line.ItemID
	}

	levels, err := s.ledger.GetStockLevels(ctx, ids)
	if err != nil {
		return ValidationResult{}, fmt.Errorf("failed to fetch stock levels: %w", err)
	}

	var details []string
	for _, line := range lines {
		current, ok := levels[line.ItemID]
		if !ok {
			details = append(details, fmt.Sprintf("%s: Item not found", line.Name))
			continue
		}
		if line.Quantity > current {
			details = append(details,
				fmt.Sprintf("%s: Requested %d, only %d available", line.Name, line.Quantity, current))
		}
	}

	if len(details) > 0 {
		util.StockValidationFailuresTotal.Inc()
		return ValidationResult{
			Valid:   false,
			Message: "Insufficient stock for some items",
			Details: details,
		}, nil
	}

	return ValidationResult{Valid: true, Message: "Stock validation passed"}, nil
}

// DecrementResult reports the outcome of applying a stock decrement.
type DecrementResult struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Failed  []string `json:"failed,omitempty"`
}

// Decrement applies the post-checkout reduction line by line, each line
// clamped at zero by the ledger. Lines referencing unknown items fail
// individually; already-applied lines are not rolled back. Partial
// application is reported, not reverted.
func (s *StockService) Decrement(ctx context.Context, lines []StockLine) DecrementResult {
	ctx, span := util.StartSpan(ctx, "StockService.Decrement")
	defer span.End()

	if s.ledger == nil {
		s.logger.Info("Demo mode: stock decrement skipped", zap.Int("lines", len(lines)))
		return DecrementResult{Success: true, Message: "Stock updated (Demo Mode)"}
	}

	var failed []string
	for _, line := range lines {
		if err := s.ledger.DecrementStock(ctx, line.ItemID, line.Quantity); err != nil {
			util.StockDecrementFailuresTotal.Inc()
			s.logger.Error("Failed to decrement stock",
				zap.Int64("item_id", line.ItemID),
				zap.Int("quantity", line.Quantity),
				zap.Error(err))
			failed = append(failed, fmt.Sprintf("%s: %v", line.Name, err))
			continue
		}

		if s.cache != nil {
			if _, err := s.cache.DecrementStock(ctx, line.ItemID, line.Quantity); err != nil {
				s.logger.Warn("Failed to decrement cached stock",
					zap.Int64("item_id", line.ItemID),
					zap.Error(err))
			}
		}
	}

	if len(failed) > 0 {
		return DecrementResult{
			Success: false,
			Message: fmt.Sprintf("Stock update incomplete: %s", strings.Join(failed, "; ")),
			Failed:  failed,
		}
	}
	return DecrementResult{Success: true, Message: "Stock updated successfully"}
}

// Items returns the catalog with current stock
func (s *StockService) Items(ctx context.Context) ([]models.Item, error) {
	if s.ledger == nil {
		return nil, nil
	}
	return s.ledger.GetItems(ctx)
}

// Item returns a single catalog item
func (s *StockService) Item(ctx context.Context, id int64) (*models.Item, error) {
	if s.ledger == nil {
		return nil, fmt.Errorf("item %d: %w", id, store.ErrNotFound)
	}
	return s.ledger.GetItem(ctx, id)
}

// SetStock applies an administrative absolute stock edit
func (s *StockService) SetStock(ctx context.Context, itemID int64, quantity int) error {
	if err := s.ledger.SetStock(ctx, itemID, quantity); err != nil {
		return err
	}
	if s.cache != nil {
		if quantity < 0 {
			quantity = 0
		}
		if err := s.cache.SetStock(ctx, itemID, quantity); err != nil {
			s.logger.Warn("Failed to update cached stock", zap.Int64("item_id", itemID), zap.Error(err))
		}
	}
	return nil
}

// AdjustStock applies an administrative delta stock edit and returns the
// resulting quantity.
func (s *StockService) AdjustStock(ctx context.Context, itemID int64, delta int) (int, error) {
	item, err := s.ledger.GetItem(ctx, itemID)
	if err != nil {
		return 0, err
	}
	next := item.StockQuantity + delta
	if next < 0 {
		next = 0
	}
	if err := s.SetStock(ctx, itemID, next); err != nil {
		return 0, err
	}
	return next, nil
}

// CreateItem adds a catalog item
func (s *StockService) CreateItem(ctx context.Context, item *models.Item) error {
	if err := s.ledger.CreateItem(ctx, item); err != nil {
		return err
	}
	if s.cache != nil {
		if err := s.cache.SetStock(ctx, item.ID, item.StockQuantity); err != nil {
			s.logger.Warn("Failed to cache stock for new item", zap.Int64("item_id", item.ID), zap.Error(err))
		}
	}
	return nil
}

// DeleteItem removes a catalog item
func (s *StockService) DeleteItem(ctx context.Context, id int64) error {
	if err := s.ledger.DeleteItem(ctx, id); err != nil {
		return err
	}
	if s.cache != nil {
		if err := s.cache.DeleteStock(ctx, id); err != nil {
			s.logger.Warn("Failed to drop cached stock", zap.Int64("item_id", id), zap.Error(err))
		}
	}
	return nil
}

// SyncStockToCache seeds the Redis cache from the ledger at startup
func (s *StockService) SyncStockToCache(ctx context.Context) error {
	if s.cache == nil || s.ledger == nil {
		return nil
	}

	items, err := s.ledger.GetItems(ctx)
	if err != nil {
		return fmt.Errorf("failed to load items: %w", err)
	}

	for _, item := range items {
		if err := s.cache.SetStock(ctx, item.ID, item.StockQuantity); err != nil {
			s.logger.Error("Failed to cache stock level",
				zap.Int64("item_id", item.ID),
				zap.Error(err))
		}
	}

	s.logger.Info("Stock cache synced", zap.Int("count", len(items)))
	return nil
}
