package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/greenrnd/server/internal/model"
)

// ReceiptRepo defines the interface for receipt store operations
type ReceiptRepo interface {
	Append(ctx context.Context, purchaserID string, receipt model.Receipt) error
	// ListByPurchaser returns receipts in stored order, or ErrNotFound when the
	// purchaser has no receipt collection.
	ListByPurchaser(ctx context.Context, purchaserID string) ([]model.Receipt, error)
}

type memoryReceiptRepo struct {
	mu          sync.RWMutex
	byPurchaser map[string][]model.Receipt
}

// NewMemoryReceiptRepo creates an in-process ReceiptRepo
func NewMemoryReceiptRepo() ReceiptRepo {
	return &memoryReceiptRepo{byPurchaser: make(map[string][]model.Receipt)}
}

// Append adds a receipt to the end of the purchaser's collection
func (r *memoryReceiptRepo) Append(_ context.Context, purchaserID string, receipt model.Receipt) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.byPurchaser[purchaserID] {
		if existing.ID == receipt.ID {
			return fmt.Errorf("receipt %q of %q: %w", receipt.ID, purchaserID, model.ErrAlreadyExists)
		}
	}
	r.byPurchaser[purchaserID] = append(r.byPurchaser[purchaserID], cloneReceipt(receipt))
	return nil
}

// ListByPurchaser returns a copy of the purchaser's receipts
func (r *memoryReceiptRepo) ListByPurchaser(_ context.Context, purchaserID string) ([]model.Receipt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.byPurchaser[purchaserID]
	if !ok {
		return nil, fmt.Errorf("receipts of %q: %w", purchaserID, model.ErrNotFound)
	}
	out := make([]model.Receipt, 0, len(stored))
	for _, rc := range stored {
		out = append(out, cloneReceipt(rc))
	}
	return out, nil
}

func cloneReceipt(rc model.Receipt) model.Receipt {
	rc.Items = append([]model.ReceiptItem(nil), rc.Items...)
	return rc
}

type pgReceiptRepo struct {
	db *sql.DB
}

// NewReceiptRepo creates a PostgreSQL-backed ReceiptRepo
func NewReceiptRepo(db *sql.DB) ReceiptRepo {
	return &pgReceiptRepo{db: db}
}

// Append inserts a receipt; seq keeps insertion order
func (r *pgReceiptRepo) Append(ctx context.Context, purchaserID string, receipt model.Receipt) error {
	items, err := json.Marshal(receipt.Items)
	if err != nil {
		return fmt.Errorf("encode items: %w", err)
	}
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO receipts (purchaser_id, id, time, items, total_price)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (purchaser_id, id) DO NOTHING
	`, purchaserID, receipt.ID, receipt.Time, items, receipt.TotalPrice)
	if err != nil {
		return fmt.Errorf("insert receipt: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("receipt %q of %q: %w", receipt.ID, purchaserID, model.ErrAlreadyExists)
	}
	return nil
}

// ListByPurchaser returns the purchaser's receipts ordered by insertion
func (r *pgReceiptRepo) ListByPurchaser(ctx context.Context, purchaserID string) ([]model.Receipt, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, time, items, total_price
		FROM receipts
		WHERE purchaser_id = $1
		ORDER BY seq
	`, purchaserID)
	if err != nil {
		return nil, fmt.Errorf("query receipts: %w", err)
	}
	defer rows.Close()

	var out []model.Receipt
	for rows.Next() {
		var rc model.Receipt
		var items []byte
		if err := rows.Scan(&rc.ID, &rc.Time, &items, &rc.TotalPrice); err != nil {
			return nil, fmt.Errorf("scan receipt: %w", err)
		}
		if err := json.Unmarshal(items, &rc.Items); err != nil {
			return nil, fmt.Errorf("decode items of %q: %w", rc.ID, err)
		}
		out = append(out, rc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate receipts: %w", err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("receipts of %q: %w", purchaserID, model.ErrNotFound)
	}
	return out, nil
}
