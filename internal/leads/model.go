package leads

import (
	"errors"
	"time"
)

// LeadStatus tracks a captured web lead through follow-up.
type LeadStatus string

const (
	LeadNew       LeadStatus = "NEW"
	LeadContacted LeadStatus = "CONTACTED"
	LeadConverted LeadStatus = "CONVERTED"
	LeadDiscarded LeadStatus = "DISCARDED"
)

// Valid reports whether the status is a known lead status.
func (s LeadStatus) Valid() bool {
	switch s {
	case LeadNew, LeadContacted, LeadConverted, LeadDiscarded:
		return true
	default:
		return false
	}
}

// CartStatus tracks an abandoned checkout.
type CartStatus string

const (
	CartOpen      CartStatus = "OPEN"
	CartRecovered CartStatus = "RECOVERED"
	CartDiscarded CartStatus = "DISCARDED"
)

// Valid reports whether the status is a known cart status.
func (s CartStatus) Valid() bool {
	switch s {
	case CartOpen, CartRecovered, CartDiscarded:
		return true
	default:
		return false
	}
}

// Item is a captured line on a lead or cart. CapturedPrice is the price the
// visitor saw; conversion prefers the current catalog price and falls back to
// this value when the product has since left the catalog.
type Item struct {
	ID            int64  `json:"id"`
	ProductID     int64  `json:"product_id"`
	ProductName   string `json:"product_name"`
	Qty           int64  `json:"qty"`
	CapturedPrice *int64 `json:"captured_price,omitempty"`
}

// WebLead is a contact captured from the public site. Contact data is often
// partial; only phone is required at capture.
type WebLead struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	Phone     string     `json:"phone"`
	Email     string     `json:"email,omitempty"`
	Address   string     `json:"address,omitempty"`
	Source    string     `json:"source,omitempty"`
	Status    LeadStatus `json:"status"`
	Items     []Item     `json:"items"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// AbandonedCart is a checkout that stalled before becoming an order.
type AbandonedCart struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name,omitempty"`
	Phone     string     `json:"phone"`
	Email     string     `json:"email,omitempty"`
	Status    CartStatus `json:"status"`
	Items     []Item     `json:"items"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

var (
	// ErrPhoneRequired indicates a capture without a phone number.
	ErrPhoneRequired = errors.New("leads: phone is required")
	// ErrNoLeadItems indicates a conversion attempt on an itemless lead.
	ErrNoLeadItems = errors.New("leads: lead has no items to convert")
	// ErrAlreadyConverted indicates the lead or cart was already converted.
	ErrAlreadyConverted = errors.New("leads: already converted")
	// ErrInvalidStatus indicates an unrecognised status value.
	ErrInvalidStatus = errors.New("leads: invalid status")
)
