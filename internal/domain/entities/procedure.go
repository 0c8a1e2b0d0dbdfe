package entities

import (
	"time"
)

// Procedure represents one bookable cosmetic procedure offering from a
// language-scoped catalog table.
type Procedure struct {
	ID            string  `json:"id" db:"id"`
	Name          string  `json:"name" db:"name"`
	ClinicID      string  `json:"clinic_id" db:"clinic_id"`
	Language      string  `json:"language" db:"language"`
	LargeCategory string  `json:"large_category" db:"large_category"`
	MidCategory   string  `json:"mid_category" db:"mid_category"`
	SmallCategory string  `json:"small_category" db:"small_category"`
	Price         float64 `json:"price" db:"price"`
	Currency      string  `json:"currency" db:"currency"`
	DiscountRate  float64 `json:"discount_rate" db:"discount_rate"`
	Rating        float64 `json:"rating" db:"rating"`
	ReviewCount   int     `json:"review_count" db:"review_count"`

	// Free-text recovery/duration fields carried over from the legacy
	// catalog schema. Only consulted when no category-level recovery
	// metadata resolves for the owning group.
	RecoveryText string `json:"recovery_text,omitempty" db:"recovery_text"`
	DurationText string `json:"duration_text,omitempty" db:"duration_text"`

	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// GroupKey returns the (large, mid) bucket key a procedure belongs to
// within one recommendation run.
func (p *Procedure) GroupKey() string {
	return p.LargeCategory + "::" + p.MidCategory
}

// HasPrice reports whether the offering carries a bookable price. Zero
// means "price on inquiry", not free.
func (p *Procedure) HasPrice() bool {
	return p.Price > 0
}
