package models

import "time"

// WaterUnit is the unit a water entry amount is recorded in.
type WaterUnit string

const (
	WaterUnitML WaterUnit = "ml"
	WaterUnitOZ WaterUnit = "oz"
)

// MillilitresPerOunce converts US fluid ounces to millilitres.
const MillilitresPerOunce = 29.5735

// WaterEntry records a single water intake.
type WaterEntry struct {
	ID        string    `db:"id" bson:"_id" json:"id"`
	UserID    string    `db:"user_id" bson:"user_id" json:"user_id"`
	Amount    float64   `db:"amount" bson:"amount" json:"amount"`
	Unit      WaterUnit `db:"unit" bson:"unit" json:"unit"`
	Timestamp time.Time `db:"timestamp" bson:"timestamp" json:"timestamp"`
	Note      string    `db:"note" bson:"note" json:"note"`
	CreatedAt time.Time `db:"created_at" bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" bson:"updated_at" json:"updated_at"`
}

// Millilitres returns the entry amount normalised to ml.
func (e WaterEntry) Millilitres() float64 {
	if e.Unit == WaterUnitOZ {
		return e.Amount * MillilitresPerOunce
	}
	return e.Amount
}

// WaterEntryFilter restricts entries to an owner and an optional time window.
type WaterEntryFilter struct {
	UserID string
	From   *time.Time
	To     *time.Time
}

// CreateWaterEntryRequest is the payload for logging water intake.
type CreateWaterEntryRequest struct {
	Amount    float64    `json:"amount" validate:"gte=0"`
	Unit      WaterUnit  `json:"unit" validate:"omitempty,oneof=ml oz"`
	Timestamp *time.Time `json:"timestamp"`
	Note      string     `json:"note" validate:"omitempty,max=500"`
}

// UpdateWaterEntryRequest carries partial updates.
type UpdateWaterEntryRequest struct {
	Amount    *float64   `json:"amount" validate:"omitempty,gte=0"`
	Unit      *WaterUnit `json:"unit" validate:"omitempty,oneof=ml oz"`
	Timestamp *time.Time `json:"timestamp"`
	Note      *string    `json:"note" validate:"omitempty,max=500"`
}

// WaterSummary totals a day of water intake.
type WaterSummary struct {
	Date       string  `json:"date"`
	TotalML    float64 `json:"total_ml"`
	EntryCount int     `json:"entry_count"`
}
