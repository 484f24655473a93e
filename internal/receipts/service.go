package receipts

import (
	"context"
	"fmt"
	"strconv"

	"github.com/greenrnd/server/internal/model"
	"github.com/greenrnd/server/internal/repo"
)

// FilterMode controls how the from/to query bounds are treated
type FilterMode string

const (
	// FilterRequired demands both bounds on every listing
	FilterRequired FilterMode = "required"
	// FilterOptional filters when both bounds are given and lists everything when neither is
	FilterOptional FilterMode = "optional"
	// FilterOff ignores bounds entirely
	FilterOff FilterMode = "off"
)

// Service lists receipts of purchasers that were granted access
type Service struct {
	purchasers repo.PurchaserRepo
	receipts   repo.ReceiptRepo
	mode       FilterMode
}

// NewService creates a new receipt service
func NewService(purchasers repo.PurchaserRepo, receipts repo.ReceiptRepo, mode FilterMode) *Service {
	if mode == "" {
		mode = FilterOptional
	}
	return &Service{purchasers: purchasers, receipts: receipts, mode: mode}
}

// ListReceipts returns the purchaser's receipts in stored order, restricted to
// the inclusive [from, to] window when one applies. Empty bounds count as absent.
// An empty result is reported as ErrNotFound.
func (s *Service) ListReceipts(ctx context.Context, purchaserID, from, to string) ([]model.Receipt, error) {
	p, err := s.purchasers.GetByID(ctx, purchaserID)
	if err != nil {
		return nil, err
	}
	if !p.Access {
		return nil, fmt.Errorf("purchaser %q has no access: %w", purchaserID, model.ErrForbidden)
	}

	all, err := s.receipts.ListByPurchaser(ctx, purchaserID)
	if err != nil {
		return nil, err
	}

	window, err := s.parseWindow(from, to)
	if err != nil {
		return nil, err
	}

	out := all
	if window != nil {
		out = make([]model.Receipt, 0, len(all))
		for _, rc := range all {
			// a stored time that is not epoch seconds never matches a range
			if ts, ok := rc.Timestamp(); ok && window.Contains(ts) {
				out = append(out, rc)
			}
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no receipts of %q in range: %w", purchaserID, model.ErrNotFound)
	}
	return out, nil
}

// parseWindow returns nil when no filtering applies
func (s *Service) parseWindow(from, to string) (*model.TimeRange, error) {
	if s.mode == FilterOff {
		return nil, nil
	}
	if from == "" && to == "" {
		if s.mode == FilterRequired {
			return nil, fmt.Errorf("from and to are required: %w", model.ErrInvalidArgument)
		}
		return nil, nil
	}
	if from == "" || to == "" {
		return nil, fmt.Errorf("from and to must be given together: %w", model.ErrInvalidArgument)
	}

	f, err := strconv.ParseInt(from, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("from %q is not epoch seconds: %w", from, model.ErrInvalidArgument)
	}
	t, err := strconv.ParseInt(to, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("to %q is not epoch seconds: %w", to, model.ErrInvalidArgument)
	}
	return &model.TimeRange{From: f, To: t}, nil
}
