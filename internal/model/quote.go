package model

import (
	"math"
	"time"
)

// Quote statuses. Exactly one quote per request ever reaches accepted;
// the acceptance transaction rejects every sibling in the same commit.
const (
	QuotePending  = "pending"
	QuoteAccepted = "accepted"
	QuoteRejected = "rejected"
)

// Where the repair takes place.
const (
	LocationDomicile = "domicile" // at the client's home
	LocationAtelier  = "atelier"  // in the repairer's workshop
)

// Quote is a repairer's priced offer against a repair request. Prices are
// stored as integer cents to avoid floating-point drift.
type Quote struct {
	ID                uint64    // quotes.id
	RepairRequestID   uint64    // quotes.repair_request_id
	RepairerID        uint64    // quotes.repairer_id
	PriceCents        int64     // quotes.price_cents
	EstimatedDuration string    // quotes.estimated_duration
	Conditions        string    // quotes.conditions (nullable)
	LocationType      string    // quotes.location_type
	Status            string    // quotes.status
	CreatedAt         time.Time // quotes.created_at
}

// Price returns the decimal currency amount recovered from the stored cents.
func (q Quote) Price() float64 {
	return float64(q.PriceCents) / 100.0
}

// ToCents converts a decimal currency amount to integer cents, rounding to
// the nearest cent so 45.50 round-trips as 4550.
func ToCents(price float64) int64 {
	return int64(math.Round(price * 100))
}
