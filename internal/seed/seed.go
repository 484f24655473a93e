package seed

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/greenrnd/server/internal/model"
	"github.com/greenrnd/server/internal/repo"
)

//go:embed seed.yaml
var defaultSeed []byte

// Fixture is the startup dataset
type Fixture struct {
	Purchasers []PurchaserFixture `yaml:"purchasers"`
}

// PurchaserFixture is a purchaser together with the receipts it owns
type PurchaserFixture struct {
	ID       string          `yaml:"id"`
	Email    string          `yaml:"email"`
	Phone    string          `yaml:"phone"`
	Access   bool            `yaml:"access"`
	Receipts []model.Receipt `yaml:"receipts"`
}

// Default returns the embedded dataset
func Default() (*Fixture, error) {
	return Parse(defaultSeed)
}

// LoadFile reads a fixture from path, or the embedded default when path is empty
func LoadFile(path string) (*Fixture, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML fixture
func Parse(data []byte) (*Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks ids, receipt times and amounts
func (f *Fixture) Validate() error {
	seen := make(map[string]struct{}, len(f.Purchasers))
	for i, p := range f.Purchasers {
		if p.ID == "" {
			return fmt.Errorf("purchaser #%d: empty id: %w", i, model.ErrInvalidArgument)
		}
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("purchaser %q: duplicate id: %w", p.ID, model.ErrInvalidArgument)
		}
		seen[p.ID] = struct{}{}

		receiptIDs := make(map[string]struct{}, len(p.Receipts))
		for j, rc := range p.Receipts {
			if rc.ID == "" {
				return fmt.Errorf("purchaser %q receipt #%d: empty id: %w", p.ID, j, model.ErrInvalidArgument)
			}
			if _, dup := receiptIDs[rc.ID]; dup {
				return fmt.Errorf("purchaser %q receipt %q: duplicate id: %w", p.ID, rc.ID, model.ErrInvalidArgument)
			}
			receiptIDs[rc.ID] = struct{}{}
			if _, ok := rc.Timestamp(); !ok {
				return fmt.Errorf("receipt %q: time %q is not epoch seconds: %w", rc.ID, rc.Time, model.ErrInvalidArgument)
			}
			if rc.TotalPrice < 0 {
				return fmt.Errorf("receipt %q: negative total: %w", rc.ID, model.ErrInvalidArgument)
			}
			for _, it := range rc.Items {
				if it.Count < 0 || it.Price < 0 {
					return fmt.Errorf("receipt %q item %q: negative count or price: %w", rc.ID, it.Name, model.ErrInvalidArgument)
				}
			}
		}
	}
	return nil
}

// Apply writes the fixture into the stores. Purchasers that already exist are
// skipped together with their receipts, so applying twice is a no-op.
func Apply(ctx context.Context, f *Fixture, purchasers repo.PurchaserRepo, receipts repo.ReceiptRepo, logger *zerolog.Logger) error {
	var created, skipped int
	for _, pf := range f.Purchasers {
		err := purchasers.Create(ctx, model.Purchaser{
			ID:     pf.ID,
			Email:  pf.Email,
			Phone:  pf.Phone,
			Access: pf.Access,
		})
		if errors.Is(err, model.ErrAlreadyExists) {
			skipped++
			continue
		}
		if err != nil {
			return fmt.Errorf("seed purchaser %q: %w", pf.ID, err)
		}
		for _, rc := range pf.Receipts {
			if err := receipts.Append(ctx, pf.ID, rc); err != nil {
				return fmt.Errorf("seed receipt %q: %w", rc.ID, err)
			}
		}
		created++
	}

	logger.Info().Int("created", created).Int("skipped", skipped).Msg("seed applied")
	return nil
}
