package service

import (
	"context"
	"fmt"
	"time"

	"stationery-store/internal/redisclient"
	"stationery-store/internal/rush"
	"stationery-store/internal/schedule"
	"stationery-store/internal/store"
	"stationery-store/internal/util"

	"go.uber.org/zap"
)

const rushCacheTTL = 5 * time.Minute

// RushService resolves display-only congestion per (date, slot): a stored
// admin override wins, otherwise the shared computed default applies.
type RushService struct {
	store  store.RushStore
	cache  *redisclient.Client
	logger *zap.Logger
}

// NewRushService creates a rush service. cache may be nil.
func NewRushService(rs store.RushStore, cache *redisclient.Client) *RushService {
	return &RushService{
		store:  rs,
		cache:  cache,
		logger: util.GetLogger(),
	}
}

// Resolve returns the status for one (date, slot) pair.
func (s *RushService) Resolve(ctx context.Context, date, slot string) (rush.Status, error) {
	overrides, err := s.overrides(ctx, date)
	if err != nil {
		return "", err
	}
	return rush.Resolve(overrides, slot), nil
}

// RushMap returns the resolved status for every slot the store offers on
// the given date. The same map serves the storefront and the admin grid.
func (s *RushService) RushMap(ctx context.Context, date string) (map[string]rush.Status, error) {
	if s.cache != nil {
		cached, hit, err := s.cache.GetRushMap(ctx, date)
		if err != nil {
			s.logger.Warn("Rush cache read failed", zap.String("date", date), zap.Error(err))
		} else if hit {
			util.RushCacheHitsTotal.WithLabelValues("hit").Inc()
			return cached, nil
		}
		util.RushCacheHitsTotal.WithLabelValues("miss").Inc()
	}

	overrides, err := s.overrides(ctx, date)
	if err != nil {
		return nil, err
	}

	resolved := make(map[string]rush.Status)
	for _, slot := range schedule.Slots() {
		resolved[slot] = rush.Resolve(overrides, slot)
	}

	if s.cache != nil {
		if err := s.cache.SetRushMap(ctx, date, resolved, rushCacheTTL); err != nil {
			s.logger.Warn("Rush cache write failed", zap.String("date", date), zap.Error(err))
		}
	}
	return resolved, nil
}

// SetStatus records an admin override for a (date, slot) pair,
// overwriting any previous entry.
func (s *RushService) SetStatus(ctx context.Context, date, slot, status string) error {
	if !rush.IsValid(status) {
		return &PreconditionError{Msg: fmt.Sprintf("Unknown rush status %q", status)}
	}
	if !schedule.IsSlot(slot) {
		return &PreconditionError{Msg: fmt.Sprintf("Unknown time slot %q", slot)}
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return &PreconditionError{Msg: "Invalid date, expected YYYY-MM-DD"}
	}

	if err := s.store.UpsertRushStatus(ctx, date, slot, rush.Status(status)); err != nil {
		return fmt.Errorf("failed to store rush status: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.InvalidateRushMap(ctx, date); err != nil {
			s.logger.Warn("Rush cache invalidation failed", zap.String("date", date), zap.Error(err))
		}
	}
	return nil
}

func (s *RushService) overrides(ctx context.Context, date string) (map[string]rush.Status, error) {
	if s.store == nil {
		return nil, nil
	}
	overrides, err := s.store.GetRushStatuses(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch rush statuses: %w", err)
	}
	return overrides, nil
}
