package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"stationery-store/internal/models"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Store is the Postgres-backed implementation of the storage capabilities.
type Store struct {
	db *sqlx.DB
}

// NewStore creates a new database store
func NewStore(databaseURL string) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// GetDB returns the underlying database connection
func (s *Store) GetDB() *sqlx.DB {
	return s.db
}

// GetItems retrieves all stationery items ordered by name
func (s *Store) GetItems(ctx context.Context) ([]models.Item, error) {
	var items []models.Item
	err := s.db.SelectContext(ctx, &items, "SELECT * FROM stationery_items ORDER BY name")
	return items, err
}

// GetItem retrieves an item by ID
func (s *Store) GetItem(ctx context.Context, id int64) (*models.Item, error) {
	var item models.Item
	err := s.db.GetContext(ctx, &item, "SELECT * FROM stationery_items WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("item %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// GetStockLevels retrieves current stock for exactly the given item ids.
// Items missing from the result are absent from the returned map.
func (s *Store) GetStockLevels(ctx context.Context, ids []int64) (map[int64]int, error) {
	levels := make(map[int64]int, len(ids))
	if len(ids) == 0 {
		return levels, nil
	}

	query, args, err := sqlx.In("SELECT id, stock_quantity FROM stationery_items WHERE id IN (?)", ids)
	if err != nil {
		return nil, err
	}
	query = s.db.Rebind(query)

	rows := []struct {
		ID            int64 `db:"id"`
		StockQuantity int   `db:"stock_quantity"`
	}{}
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}

	for _, r := range rows {
		levels[r.ID] = r.StockQuantity
	}
	return levels, nil
}

// DecrementStock reduces an item's stock, clamped at zero. The clamp is a
// single update expression evaluated by Postgres, so the decrement itself
// is race-free per item even though the preceding validation is not.
func (s *Store) DecrementStock(ctx context.Context, itemID int64, quantity int) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE stationery_items SET stock_quantity = GREATEST(stock_quantity - $1, 0) WHERE id = $2",
		quantity, itemID)
	if err != nil {
		return fmt.Errorf("failed to decrement stock: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("item %d: %w", itemID, ErrNotFound)
	}
	return nil
}

// SetStock sets an item's stock to an absolute value, floored at zero
func (s *Store) SetStock(ctx context.Context, itemID int64, quantity int) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE stationery_items SET stock_quantity = GREATEST($1, 0) WHERE id = $2",
		quantity, itemID)
	if err != nil {
		return fmt.Errorf("failed to set stock: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("item %d: %w", itemID, ErrNotFound)
	}
	return nil
}

// CreateItem creates a new stationery item
func (s *Store) CreateItem(ctx context.Context, item *models.Item) error {
	query := `
		INSERT INTO stationery_items (name, price, stock_quantity)
		VALUES ($1, $2, GREATEST($3, 0))
		RETURNING id, created_at`

	return s.db.GetContext(ctx, item, query, item.Name, item.Price, item.StockQuantity)
}

// DeleteItem deletes a stationery item
func (s *Store) DeleteItem(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM stationery_items WHERE id = $1", id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("item %d: %w", id, ErrNotFound)
	}
	return nil
}

// NextOrderSequence atomically increments the global order-number counter,
// creating it at zero if absent, and returns the new value.
func (s *Store) NextOrderSequence(ctx context.Context) (int64, error) {
	var seq int64
	err := s.db.GetContext(ctx, &seq, `
		INSERT INTO counters (name, seq) VALUES ('order_number', 1)
		ON CONFLICT (name) DO UPDATE SET seq = counters.seq + 1
		RETURNING seq`)
	if err != nil {
		return 0, fmt.Errorf("failed to advance order counter: %w", err)
	}
	return seq, nil
}

// Next implements ordernumber.Sequence.
func (s *Store) Next(ctx context.Context) (int64, error) {
	return s.NextOrderSequence(ctx)
}

// IsEventProcessed checks if an event has been processed
func (s *Store) IsEventProcessed(ctx context.Context, eventID string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM processed_events WHERE event_id = $1)", eventID)
	return exists, err
}

// MarkEventProcessed marks an event as processed
func (s *Store) MarkEventProcessed(ctx context.Context, eventID, eventType string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO processed_events (event_id, event_type) VALUES ($1, $2) ON CONFLICT (event_id) DO NOTHING",
		eventID, eventType)
	return err
}
