package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/life-ease-api/internal/models"
)

const waterColumns = `id, user_id, amount, unit, timestamp, note, created_at, updated_at`

// WaterRepository persists water intake entries.
type WaterRepository struct {
	db *sqlx.DB
}

// NewWaterRepository constructs a WaterRepository.
func NewWaterRepository(db *sqlx.DB) *WaterRepository {
	return &WaterRepository{db: db}
}

// List returns the owner's entries, newest first, optionally within [From, To).
func (r *WaterRepository) List(ctx context.Context, filter models.WaterEntryFilter) ([]models.WaterEntry, error) {
	conditions := []string{"user_id = $1"}
	args := []interface{}{filter.UserID}
	if filter.From != nil {
		args = append(args, *filter.From)
		conditions = append(conditions, fmt.Sprintf("timestamp >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		conditions = append(conditions, fmt.Sprintf("timestamp < $%d", len(args)))
	}

	query := fmt.Sprintf("SELECT %s FROM water_entries WHERE %s ORDER BY timestamp DESC", waterColumns, strings.Join(conditions, " AND "))
	entries := []models.WaterEntry{}
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("list water entries: %w", err)
	}
	return entries, nil
}

// FindOwned returns an entry by id when it belongs to userID.
func (r *WaterRepository) FindOwned(ctx context.Context, id, userID string) (*models.WaterEntry, error) {
	query := `SELECT ` + waterColumns + ` FROM water_entries WHERE id = $1 AND user_id = $2 LIMIT 1`
	var entry models.WaterEntry
	if err := r.db.GetContext(ctx, &entry, query, id, userID); err != nil {
		if err = mapError(err); errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("find water entry: %w", err)
	}
	return &entry, nil
}

// Create inserts an entry.
func (r *WaterRepository) Create(ctx context.Context, entry *models.WaterEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if entry.Timestamp.IsZero() {
		entry.Timestamp = now
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	entry.UpdatedAt = now

	const query = `INSERT INTO water_entries (id, user_id, amount, unit, timestamp, note, created_at, updated_at) VALUES (:id, :user_id, :amount, :unit, :timestamp, :note, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("create water entry: %w", err)
	}
	return nil
}

// Update writes the mutable fields of an owned entry.
func (r *WaterRepository) Update(ctx context.Context, entry *models.WaterEntry) error {
	entry.UpdatedAt = time.Now().UTC()
	const query = `UPDATE water_entries SET amount = :amount, unit = :unit, timestamp = :timestamp, note = :note, updated_at = :updated_at WHERE id = :id AND user_id = :user_id`
	res, err := r.db.NamedExecContext(ctx, query, entry)
	if err != nil {
		return fmt.Errorf("update water entry: %w", err)
	}
	return expectAffected(res, "update water entry")
}

// Delete removes an owned entry.
func (r *WaterRepository) Delete(ctx context.Context, id, userID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM water_entries WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete water entry: %w", err)
	}
	return expectAffected(res, "delete water entry")
}
