package checkout

import (
	"github.com/google/uuid"

	"github.com/mensahkwame/bookmarket-backend/pkg/enums"
)

// Warning codes surfaced by Validate when a cart line no longer matches the
// live catalog. Clients show these before the buyer confirms.
const (
	WarnListingUnavailable = "listing_unavailable"
	WarnModeUnavailable    = "mode_unavailable"
	WarnDurationInvalid    = "rental_duration_invalid"
	WarnQuantityClamped    = "quantity_clamped"
	WarnOutOfStock         = "out_of_stock"
	// WarnPriceChanged is informational: the requoted price differs from the
	// cart's display cache. The requoted price is what gets charged.
	WarnPriceChanged = "price_changed"
)

// ValidatedLine is one cart line after authoritative pricing and stock checks.
type ValidatedLine struct {
	ItemID           uuid.UUID             `json:"itemId"`
	ListingID        uuid.UUID             `json:"listingId"`
	SellerID         uuid.UUID             `json:"sellerId"`
	Title            string                `json:"title"`
	Mode             enums.TransactionMode `json:"mode"`
	Quantity         int                   `json:"quantity"`
	UnitPricePesewas int                   `json:"unitPricePesewas"`
	SubtotalPesewas  int                   `json:"subtotalPesewas"`
	RentalDuration   *int                  `json:"rentalDuration,omitempty"`
	RentalUnit       *enums.RentalUnit     `json:"rentalUnit,omitempty"`
}

// Warning explains why a line was dropped or adjusted during validation.
type Warning struct {
	ItemID    uuid.UUID `json:"itemId"`
	ListingID uuid.UUID `json:"listingId"`
	Code      string    `json:"code"`
	Message   string    `json:"message"`
}

// ValidationResult is the priced, stock-checked view of the active cart.
type ValidationResult struct {
	CartID       uuid.UUID       `json:"cartId"`
	Lines        []ValidatedLine `json:"lines"`
	Warnings     []Warning       `json:"warnings"`
	TotalPesewas int             `json:"totalPesewas"`
}

// CommitInput captures the buyer's checkout choices. Contact details are
// recorded on the batch for the handover; they are not validated beyond
// presence when delivery is requested.
type CommitInput struct {
	PaymentMethod   enums.PaymentMethod
	DeliveryMethod  enums.DeliveryMethod
	ContactPhone    string
	DeliveryAddress string
}
