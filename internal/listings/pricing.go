package listings

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/mensahkwame/bookmarket-backend/pkg/db/models"
	"github.com/mensahkwame/bookmarket-backend/pkg/enums"
	pkgerrors "github.com/mensahkwame/bookmarket-backend/pkg/errors"
)

// QuoteParams carries the buyer context needed to price one line.
type QuoteParams struct {
	BuyerID        uuid.UUID
	Mode           enums.TransactionMode
	RentalDuration int
}

// Quote computes the authoritative unit price in pesewas for a listing under
// the given transaction mode. Client-supplied prices are never consulted.
func Quote(listing *models.Listing, params QuoteParams) (int, error) {
	if listing == nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "listing is required")
	}
	if !params.Mode.IsValid() {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid transaction mode %q", params.Mode))
	}
	if listing.Status != enums.ListingStatusActive {
		return 0, pkgerrors.New(pkgerrors.CodeConflict, "listing is not available")
	}
	if params.BuyerID != uuid.Nil && params.BuyerID == listing.SellerID {
		return 0, pkgerrors.New(pkgerrors.CodeForbidden, "you cannot buy your own listing")
	}
	if !listing.OffersMode(params.Mode) {
		return 0, pkgerrors.New(pkgerrors.CodeConflict,
			fmt.Sprintf("listing does not offer %s", params.Mode))
	}

	switch params.Mode {
	case enums.TransactionModePurchase:
		if listing.PricePesewas <= 0 {
			return 0, pkgerrors.New(pkgerrors.CodeConflict, "listing has no purchase price")
		}
		return listing.PricePesewas, nil

	case enums.TransactionModeRent:
		return quoteRental(listing, params.RentalDuration)

	case enums.TransactionModeExchange:
		// Exchanges settle book-for-book; nothing is owed in pesewas.
		return 0, nil

	default:
		return 0, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unsupported transaction mode %q", params.Mode))
	}
}

func quoteRental(listing *models.Listing, duration int) (int, error) {
	if listing.RentPricePesewas == nil || *listing.RentPricePesewas <= 0 || listing.RentUnit == nil {
		return 0, pkgerrors.New(pkgerrors.CodeConflict, "listing has no rental pricing")
	}
	if duration <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "rental duration is required")
	}
	if listing.RentMinDuration != nil && duration < *listing.RentMinDuration {
		return 0, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("rental duration below minimum of %d %ss", *listing.RentMinDuration, *listing.RentUnit))
	}
	if listing.RentMaxDuration != nil && duration > *listing.RentMaxDuration {
		return 0, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("rental duration above maximum of %d %ss", *listing.RentMaxDuration, *listing.RentUnit))
	}
	return *listing.RentPricePesewas * duration, nil
}
