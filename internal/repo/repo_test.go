package repo

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenrnd/server/internal/db"
	"github.com/greenrnd/server/internal/logging"
	"github.com/greenrnd/server/internal/model"
)

type stores struct {
	purchasers PurchaserRepo
	receipts   ReceiptRepo
}

// backends returns the in-memory stores and, when DATABASE_URL is set, the Postgres ones.
// The Postgres runs truncate shared tables: use go test -p 1 against a shared database.
func backends(t *testing.T) map[string]func(t *testing.T) stores {
	t.Helper()
	out := map[string]func(t *testing.T) stores{
		"memory": func(t *testing.T) stores {
			return stores{NewMemoryPurchaserRepo(), NewMemoryReceiptRepo()}
		},
	}
	if url := os.Getenv("DATABASE_URL"); url != "" {
		out["postgres"] = func(t *testing.T) stores {
			database := openTestDB(t, url)
			return stores{NewPurchaserRepo(database), NewReceiptRepo(database)}
		}
	}
	return out
}

func openTestDB(t *testing.T, url string) *sql.DB {
	t.Helper()
	ctx := context.Background()
	database, err := db.Open(ctx, url, logging.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	require.NoError(t, db.Migrate(database))
	require.NoError(t, db.Truncate(ctx, database))
	return database
}

func TestPurchaserRepo(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := open(t)
			ctx := context.Background()

			require.NoError(t, s.purchasers.Create(ctx, model.Purchaser{ID: "a", Email: "a@x.io", Phone: "100"}))
			require.NoError(t, s.purchasers.Create(ctx, model.Purchaser{ID: "b", Email: "b@x.io", Phone: "100"}))
			assert.ErrorIs(t, s.purchasers.Create(ctx, model.Purchaser{ID: "a"}), model.ErrAlreadyExists)

			p, err := s.purchasers.FindByContact(ctx, "", "100")
			require.NoError(t, err)
			assert.Equal(t, "a", p.ID, "first inserted wins")

			p, err = s.purchasers.FindByContact(ctx, "b@x.io", "nope")
			require.NoError(t, err)
			assert.Equal(t, "b", p.ID)

			_, err = s.purchasers.FindByContact(ctx, "", "")
			assert.ErrorIs(t, err, model.ErrNotFound, "empty filters never match")

			_, err = s.purchasers.GetByID(ctx, "ghost")
			assert.ErrorIs(t, err, model.ErrNotFound)
		})
	}
}

func TestPurchaserRepo_Update(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := open(t)
			ctx := context.Background()
			require.NoError(t, s.purchasers.Create(ctx, model.Purchaser{ID: "a"}))

			exp := time.Unix(1729687054, 0).UTC()
			require.NoError(t, s.purchasers.Update(ctx, "a", func(p *model.Purchaser) error {
				p.SetPendingCode("123456", exp)
				return nil
			}))
			p, err := s.purchasers.GetByID(ctx, "a")
			require.NoError(t, err)
			require.True(t, p.HasPendingCode())
			assert.True(t, exp.Equal(*p.CodeExpiresAt))

			boom := errors.New("boom")
			err = s.purchasers.Update(ctx, "a", func(p *model.Purchaser) error {
				p.Access = true
				p.ClearPendingCode()
				return boom
			})
			assert.ErrorIs(t, err, boom)
			p, err = s.purchasers.GetByID(ctx, "a")
			require.NoError(t, err)
			assert.False(t, p.Access, "failed update writes nothing")
			assert.True(t, p.HasPendingCode())

			err = s.purchasers.Update(ctx, "ghost", func(*model.Purchaser) error { return nil })
			assert.ErrorIs(t, err, model.ErrNotFound)
		})
	}
}

func TestPurchaserRepo_UpdateSerializes(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := open(t)
			ctx := context.Background()
			require.NoError(t, s.purchasers.Create(ctx, model.Purchaser{ID: "a"}))
			require.NoError(t, s.purchasers.Update(ctx, "a", func(p *model.Purchaser) error {
				p.SetPendingCode("1", time.Now().Add(time.Hour))
				return nil
			}))

			const n = 8
			var wg sync.WaitGroup
			var mu sync.Mutex
			consumed := 0
			for i := 0; i < n; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_ = s.purchasers.Update(ctx, "a", func(p *model.Purchaser) error {
						if !p.HasPendingCode() {
							return model.ErrForbidden
						}
						p.ClearPendingCode()
						mu.Lock()
						consumed++
						mu.Unlock()
						return nil
					})
				}()
			}
			wg.Wait()
			assert.Equal(t, 1, consumed)
		})
	}
}

func TestPurchaserRepo_returnsCopies(t *testing.T) {
	r := NewMemoryPurchaserRepo()
	ctx := context.Background()
	require.NoError(t, r.Create(ctx, model.Purchaser{ID: "a"}))
	require.NoError(t, r.Update(ctx, "a", func(p *model.Purchaser) error {
		p.SetPendingCode("123456", time.Now())
		return nil
	}))

	p, err := r.GetByID(ctx, "a")
	require.NoError(t, err)
	*p.VerificationCode = "tampered"

	again, err := r.GetByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "123456", *again.VerificationCode)
}

func TestReceiptRepo(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := open(t)
			ctx := context.Background()
			require.NoError(t, s.purchasers.Create(ctx, model.Purchaser{ID: "a"}))
			require.NoError(t, s.purchasers.Create(ctx, model.Purchaser{ID: "b"}))

			_, err := s.receipts.ListByPurchaser(ctx, "a")
			assert.ErrorIs(t, err, model.ErrNotFound)

			late := model.Receipt{ID: "late", Time: "200", TotalPrice: 402.99, Items: []model.ReceiptItem{
				{Name: "Куриная грудка охлаждённая", Count: 0.98, Price: 299.99},
			}}
			early := model.Receipt{ID: "early", Time: "100", TotalPrice: 1, Items: []model.ReceiptItem{}}
			require.NoError(t, s.receipts.Append(ctx, "a", late))
			require.NoError(t, s.receipts.Append(ctx, "a", early))
			assert.ErrorIs(t, s.receipts.Append(ctx, "a", early), model.ErrAlreadyExists)
			require.NoError(t, s.receipts.Append(ctx, "b", early), "ids are unique per owner only")

			list, err := s.receipts.ListByPurchaser(ctx, "a")
			require.NoError(t, err)
			require.Len(t, list, 2)
			assert.Equal(t, "late", list[0].ID, "stored order, not time order")
			assert.Equal(t, "early", list[1].ID)
			assert.Equal(t, 402.99, list[0].TotalPrice)
			assert.Equal(t, late.Items, list[0].Items)
		})
	}
}
