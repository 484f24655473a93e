package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/greenrnd/server/internal/model"
)

// PurchaserRepo defines the interface for purchaser directory operations
type PurchaserRepo interface {
	Create(ctx context.Context, p model.Purchaser) error
	GetByID(ctx context.Context, id string) (model.Purchaser, error)
	// FindByContact returns the first purchaser, in insertion order, whose email
	// equals email or whose phone equals phone. Empty arguments never match.
	FindByContact(ctx context.Context, email, phone string) (model.Purchaser, error)
	// Update applies fn to the stored purchaser atomically. Nothing is written
	// when fn returns an error.
	Update(ctx context.Context, id string, fn func(p *model.Purchaser) error) error
}

type memoryPurchaserRepo struct {
	mu    sync.RWMutex
	order []string
	byID  map[string]model.Purchaser
}

// NewMemoryPurchaserRepo creates an in-process PurchaserRepo
func NewMemoryPurchaserRepo() PurchaserRepo {
	return &memoryPurchaserRepo{byID: make(map[string]model.Purchaser)}
}

// Create stores a new purchaser
func (r *memoryPurchaserRepo) Create(_ context.Context, p model.Purchaser) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[p.ID]; ok {
		return fmt.Errorf("purchaser %q: %w", p.ID, model.ErrAlreadyExists)
	}
	r.byID[p.ID] = clonePurchaser(p)
	r.order = append(r.order, p.ID)
	return nil
}

// GetByID retrieves a purchaser by ID
func (r *memoryPurchaserRepo) GetByID(_ context.Context, id string) (model.Purchaser, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byID[id]
	if !ok {
		return model.Purchaser{}, fmt.Errorf("purchaser %q: %w", id, model.ErrNotFound)
	}
	return clonePurchaser(p), nil
}

// FindByContact scans purchasers in insertion order
func (r *memoryPurchaserRepo) FindByContact(_ context.Context, email, phone string) (model.Purchaser, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, id := range r.order {
		p := r.byID[id]
		if (email != "" && p.Email == email) || (phone != "" && p.Phone == phone) {
			return clonePurchaser(p), nil
		}
	}
	return model.Purchaser{}, fmt.Errorf("purchaser by contact: %w", model.ErrNotFound)
}

// Update holds the write lock for the whole read-modify-write
func (r *memoryPurchaserRepo) Update(_ context.Context, id string, fn func(p *model.Purchaser) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byID[id]
	if !ok {
		return fmt.Errorf("purchaser %q: %w", id, model.ErrNotFound)
	}
	p := clonePurchaser(stored)
	if err := fn(&p); err != nil {
		return err
	}
	p.ID = id
	r.byID[id] = p
	return nil
}

// clonePurchaser copies the pointer fields so callers never share state with the store
func clonePurchaser(p model.Purchaser) model.Purchaser {
	if p.VerificationCode != nil {
		code := *p.VerificationCode
		p.VerificationCode = &code
	}
	if p.CodeExpiresAt != nil {
		exp := *p.CodeExpiresAt
		p.CodeExpiresAt = &exp
	}
	return p
}

type pgPurchaserRepo struct {
	db *sql.DB
}

// NewPurchaserRepo creates a PostgreSQL-backed PurchaserRepo
func NewPurchaserRepo(db *sql.DB) PurchaserRepo {
	return &pgPurchaserRepo{db: db}
}

const purchaserCols = `id, email, phone, access, verification_code, code_expires_at`

func scanPurchaser(scanner interface{ Scan(...any) error }) (model.Purchaser, error) {
	var p model.Purchaser
	var code sql.NullString
	var expiresAt sql.NullTime
	if err := scanner.Scan(&p.ID, &p.Email, &p.Phone, &p.Access, &code, &expiresAt); err != nil {
		return model.Purchaser{}, err
	}
	if code.Valid && expiresAt.Valid {
		p.SetPendingCode(code.String, expiresAt.Time)
	}
	return p, nil
}

// Create inserts a new purchaser
func (r *pgPurchaserRepo) Create(ctx context.Context, p model.Purchaser) error {
	code, expiresAt := pendingCodeArgs(p)
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO purchasers (id, email, phone, access, verification_code, code_expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING
	`, p.ID, p.Email, p.Phone, p.Access, code, expiresAt)
	if err != nil {
		return fmt.Errorf("insert purchaser: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("purchaser %q: %w", p.ID, model.ErrAlreadyExists)
	}
	return nil
}

// GetByID retrieves a purchaser by ID
func (r *pgPurchaserRepo) GetByID(ctx context.Context, id string) (model.Purchaser, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+purchaserCols+` FROM purchasers WHERE id = $1`, id)
	p, err := scanPurchaser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Purchaser{}, fmt.Errorf("purchaser %q: %w", id, model.ErrNotFound)
		}
		return model.Purchaser{}, fmt.Errorf("query purchaser: %w", err)
	}
	return p, nil
}

// FindByContact returns the earliest inserted purchaser matching email or phone
func (r *pgPurchaserRepo) FindByContact(ctx context.Context, email, phone string) (model.Purchaser, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+purchaserCols+`
		FROM purchasers
		WHERE ($1 <> '' AND email = $1) OR ($2 <> '' AND phone = $2)
		ORDER BY seq
		LIMIT 1
	`, email, phone)
	p, err := scanPurchaser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Purchaser{}, fmt.Errorf("purchaser by contact: %w", model.ErrNotFound)
		}
		return model.Purchaser{}, fmt.Errorf("query purchaser by contact: %w", err)
	}
	return p, nil
}

// Update locks the row for the duration of fn and writes the result back
func (r *pgPurchaserRepo) Update(ctx context.Context, id string, fn func(p *model.Purchaser) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `SELECT `+purchaserCols+` FROM purchasers WHERE id = $1 FOR UPDATE`, id)
	p, err := scanPurchaser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("purchaser %q: %w", id, model.ErrNotFound)
		}
		return fmt.Errorf("lock purchaser: %w", err)
	}

	if err := fn(&p); err != nil {
		return err
	}

	code, expiresAt := pendingCodeArgs(p)
	_, err = tx.ExecContext(ctx, `
		UPDATE purchasers
		SET email = $2, phone = $3, access = $4, verification_code = $5, code_expires_at = $6
		WHERE id = $1
	`, id, p.Email, p.Phone, p.Access, code, expiresAt)
	if err != nil {
		return fmt.Errorf("update purchaser: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func pendingCodeArgs(p model.Purchaser) (sql.NullString, sql.NullTime) {
	if !p.HasPendingCode() {
		return sql.NullString{}, sql.NullTime{}
	}
	return sql.NullString{String: *p.VerificationCode, Valid: true},
		sql.NullTime{Time: p.CodeExpiresAt.UTC().Truncate(time.Microsecond), Valid: true}
}
