package seed

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenrnd/server/internal/logging"
	"github.com/greenrnd/server/internal/model"
	"github.com/greenrnd/server/internal/repo"
)

func TestDefault(t *testing.T) {
	f, err := Default()
	require.NoError(t, err)
	require.Len(t, f.Purchasers, 1)

	p := f.Purchasers[0]
	assert.Equal(t, "user1", p.ID)
	assert.Equal(t, "user1@example.com", p.Email)
	assert.Equal(t, "79001234567", p.Phone)
	assert.False(t, p.Access)

	require.Len(t, p.Receipts, 1)
	rc := p.Receipts[0]
	assert.Equal(t, "receipt1", rc.ID)
	assert.Equal(t, "1729686754", rc.Time)
	assert.Equal(t, 402.99, rc.TotalPrice)
	require.Len(t, rc.Items, 2)
	assert.Equal(t, "Джем вишнёвый дой-пак", rc.Items[0].Name)
	assert.Equal(t, 2.0, rc.Items[0].Count)
	assert.Equal(t, 64.50, rc.Items[0].Price)
	assert.Equal(t, "Куриная грудка охлаждённая", rc.Items[1].Name)
	assert.Equal(t, 0.980, rc.Items[1].Count)
}

func TestParse_invalid(t *testing.T) {
	cases := map[string]string{
		"empty purchaser id":  `purchasers: [{id: ""}]`,
		"duplicate purchaser": `purchasers: [{id: a}, {id: a}]`,
		"non-numeric time":    `purchasers: [{id: a, receipts: [{id: r, time: "yesterday"}]}]`,
		"empty receipt id":    `purchasers: [{id: a, receipts: [{id: "", time: "1"}]}]`,
		"duplicate receipt":   `purchasers: [{id: a, receipts: [{id: r, time: "1"}, {id: r, time: "2"}]}]`,
		"negative price":      `purchasers: [{id: a, receipts: [{id: r, time: "1", items: [{name: x, count: 1, price: -1}]}]}]`,
		"negative total":      `purchasers: [{id: a, receipts: [{id: r, time: "1", total_price: -3}]}]`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.ErrorIs(t, err, model.ErrInvalidArgument)
		})
	}

	_, err := Parse([]byte("purchasers: {not: a list"))
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	f, err := LoadFile("")
	require.NoError(t, err)
	assert.Len(t, f.Purchasers, 1)

	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`purchasers: [{id: a, email: a@x.io}, {id: b, phone: "7900"}]`), 0o600))
	f, err = LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, f.Purchasers, 2)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestApply_idempotent(t *testing.T) {
	ctx := context.Background()
	purchasers := repo.NewMemoryPurchaserRepo()
	receipts := repo.NewMemoryReceiptRepo()

	f, err := Default()
	require.NoError(t, err)
	require.NoError(t, Apply(ctx, f, purchasers, receipts, logging.Nop()))
	require.NoError(t, Apply(ctx, f, purchasers, receipts, logging.Nop()))

	p, err := purchasers.GetByID(ctx, "user1")
	require.NoError(t, err)
	assert.False(t, p.Access)
	assert.False(t, p.HasPendingCode())

	list, err := receipts.ListByPurchaser(ctx, "user1")
	require.NoError(t, err)
	require.Len(t, list, 1, "second apply must not duplicate receipts")
	assert.Equal(t, 402.99, list[0].TotalPrice)
}

func TestApply_purchaserWithoutReceipts(t *testing.T) {
	ctx := context.Background()
	purchasers := repo.NewMemoryPurchaserRepo()
	receipts := repo.NewMemoryReceiptRepo()

	f, err := Parse([]byte(`purchasers: [{id: lonely, email: l@x.io}]`))
	require.NoError(t, err)
	require.NoError(t, Apply(ctx, f, purchasers, receipts, logging.Nop()))

	_, err = receipts.ListByPurchaser(ctx, "lonely")
	assert.ErrorIs(t, err, model.ErrNotFound)
}
