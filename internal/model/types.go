package model

import (
	"strconv"
	"time"
)

// Purchaser represents an end user whose receipts can be listed once access is granted
type Purchaser struct {
	ID     string
	Email  string
	Phone  string
	Access bool

	// VerificationCode and CodeExpiresAt are set and cleared together.
	VerificationCode *string
	CodeExpiresAt    *time.Time
}

// HasPendingCode reports whether a grant-access attempt is open
func (p *Purchaser) HasPendingCode() bool {
	return p.VerificationCode != nil && p.CodeExpiresAt != nil
}

// SetPendingCode opens a grant-access attempt, replacing any previous one
func (p *Purchaser) SetPendingCode(code string, expiresAt time.Time) {
	p.VerificationCode = &code
	p.CodeExpiresAt = &expiresAt
}

// ClearPendingCode discards the pending code and its expiry
func (p *Purchaser) ClearPendingCode() {
	p.VerificationCode = nil
	p.CodeExpiresAt = nil
}

// ReceiptItem is a single line of a receipt
type ReceiptItem struct {
	Name  string  `json:"name" yaml:"name"`
	Count float64 `json:"count" yaml:"count"`
	Price float64 `json:"price" yaml:"price"`
}

// Receipt is an immutable purchase record owned by one purchaser
type Receipt struct {
	ID         string        `json:"id" yaml:"id"`
	Time       string        `json:"time" yaml:"time"`
	Items      []ReceiptItem `json:"items" yaml:"items"`
	TotalPrice float64       `json:"total_price" yaml:"total_price"`
}

// Timestamp parses the receipt time as seconds since epoch
func (r Receipt) Timestamp() (int64, bool) {
	ts, err := strconv.ParseInt(r.Time, 10, 64)
	if err != nil {
		return 0, false
	}
	return ts, true
}

// TimeRange is an inclusive range of epoch seconds
type TimeRange struct {
	From int64
	To   int64
}

// Contains reports whether ts lies within the range, bounds included
func (tr TimeRange) Contains(ts int64) bool {
	return tr.From <= ts && ts <= tr.To
}
