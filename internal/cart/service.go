package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mensahkwame/bookmarket-backend/internal/inventory"
	"github.com/mensahkwame/bookmarket-backend/internal/listings"
	"github.com/mensahkwame/bookmarket-backend/pkg/config"
	"github.com/mensahkwame/bookmarket-backend/pkg/db/models"
	"github.com/mensahkwame/bookmarket-backend/pkg/enums"
	pkgerrors "github.com/mensahkwame/bookmarket-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type listingLoader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Listing, error)
}

type availabilityChecker interface {
	Available(ctx context.Context, tx *gorm.DB, listingID uuid.UUID) (int, error)
}

type availabilityEngine struct{}

func (availabilityEngine) Available(ctx context.Context, tx *gorm.DB, listingID uuid.UUID) (int, error) {
	counts, err := inventory.CheckAvailability(ctx, tx, []uuid.UUID{listingID})
	if err != nil {
		return 0, err
	}
	return counts[listingID], nil
}

// AddItemInput captures one line the buyer wants in the cart. Prices are
// deliberately absent; quoting happens server-side at checkout.
type AddItemInput struct {
	ListingID      uuid.UUID
	Mode           enums.TransactionMode
	Quantity       int
	RentalDuration *int
}

// Service exposes cart operations scoped to the authenticated buyer.
type Service interface {
	GetActive(ctx context.Context, buyerID uuid.UUID) (*models.CartRecord, error)
	AddItem(ctx context.Context, buyerID uuid.UUID, input AddItemInput) (*models.CartRecord, error)
	UpdateQuantity(ctx context.Context, buyerID, itemID uuid.UUID, quantity int) (*models.CartRecord, error)
	RemoveItem(ctx context.Context, buyerID, itemID uuid.UUID) (*models.CartRecord, error)
	Clear(ctx context.Context, buyerID uuid.UUID) error
}

type service struct {
	repo         CartRepository
	tx           txRunner
	listings     listingLoader
	availability availabilityChecker
	maxPerLine   int
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo CartRepository, tx txRunner, listingRepo listingLoader, availability availabilityChecker, cfg config.CheckoutConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if listingRepo == nil {
		return nil, fmt.Errorf("listing loader required")
	}
	if availability == nil {
		availability = availabilityEngine{}
	}
	maxPerLine := cfg.CartMaxQtyPerLine
	if maxPerLine <= 0 {
		maxPerLine = 10
	}
	return &service{
		repo:         repo,
		tx:           tx,
		listings:     listingRepo,
		availability: availability,
		maxPerLine:   maxPerLine,
	}, nil
}

// GetActive returns the buyer's active cart, creating an empty one if needed.
func (s *service) GetActive(ctx context.Context, buyerID uuid.UUID) (*models.CartRecord, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer id is required")
	}
	record, err := s.repo.FindActiveByBuyer(ctx, buyerID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return s.repo.Create(ctx, &models.CartRecord{BuyerID: buyerID})
	}
	if err != nil {
		return nil, err
	}
	return record, nil
}

// AddItem validates the listing and merges the line into the active cart.
// Re-adding an existing (listing, mode) line sums quantities, capped at the
// per-line maximum.
func (s *service) AddItem(ctx context.Context, buyerID uuid.UUID, input AddItemInput) (*models.CartRecord, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer id is required")
	}
	if input.ListingID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "listing id is required")
	}
	if !input.Mode.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid transaction mode %q", input.Mode))
	}
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if input.Quantity > s.maxPerLine {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("quantity exceeds the per-line maximum of %d", s.maxPerLine))
	}

	listing, err := s.listings.GetByID(ctx, input.ListingID)
	if err != nil {
		return nil, err
	}

	duration := 0
	if input.RentalDuration != nil {
		duration = *input.RentalDuration
	}
	// Quoting at add time rejects inactive listings, unoffered modes,
	// self-purchases and out-of-range rental durations early. The result is
	// kept only as a display cache on the line; checkout requotes and never
	// trusts it.
	unitPrice, err := listings.Quote(listing, listings.QuoteParams{
		BuyerID:        buyerID,
		Mode:           input.Mode,
		RentalDuration: duration,
	})
	if err != nil {
		return nil, err
	}

	cartRecord, err := s.GetActive(ctx, buyerID)
	if err != nil {
		return nil, err
	}

	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		var existing *models.CartItem
		for i := range cartRecord.Items {
			if cartRecord.Items[i].ListingID == input.ListingID && cartRecord.Items[i].Mode == input.Mode {
				existing = &cartRecord.Items[i]
				break
			}
		}

		if existing == nil {
			_, err := repo.SaveItem(ctx, &models.CartItem{
				CartID:                   cartRecord.ID,
				ListingID:                input.ListingID,
				Mode:                     input.Mode,
				Quantity:                 input.Quantity,
				RentalDuration:           input.RentalDuration,
				TitleSnapshot:            listing.Title,
				UnitPriceSnapshotPesewas: unitPrice,
			})
			return err
		}

		merged := existing.Quantity + input.Quantity
		if merged > s.maxPerLine {
			merged = s.maxPerLine
		}
		existing.Quantity = merged
		if input.RentalDuration != nil {
			existing.RentalDuration = input.RentalDuration
		}
		existing.TitleSnapshot = listing.Title
		existing.UnitPriceSnapshotPesewas = unitPrice
		_, err := repo.SaveItem(ctx, existing)
		return err
	}); err != nil {
		return nil, err
	}

	return s.repo.FindActiveByBuyer(ctx, buyerID)
}

// UpdateQuantity sets the quantity on one line; zero removes the line. The
// new quantity is clamped to the stock currently available. The check is
// advisory only; checkout revalidates against the ledger before committing.
func (s *service) UpdateQuantity(ctx context.Context, buyerID, itemID uuid.UUID, quantity int) (*models.CartRecord, error) {
	if quantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must not be negative")
	}
	if quantity > s.maxPerLine {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("quantity exceeds the per-line maximum of %d", s.maxPerLine))
	}

	cartRecord, err := s.requireActiveCart(ctx, buyerID)
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.FindItem(ctx, cartRecord.ID, itemID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil, err
	}

	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if quantity == 0 {
			return repo.DeleteItem(ctx, cartRecord.ID, itemID)
		}
		item, err := repo.FindItem(ctx, cartRecord.ID, itemID)
		if err != nil {
			return err
		}
		available, err := s.availability.Available(ctx, tx, item.ListingID)
		if err != nil {
			return err
		}
		// zero stock is left on the line; checkout validation surfaces it
		if available > 0 && quantity > available {
			quantity = available
		}
		item.Quantity = quantity
		_, err = repo.SaveItem(ctx, item)
		return err
	}); err != nil {
		return nil, err
	}

	return s.repo.FindActiveByBuyer(ctx, buyerID)
}

// RemoveItem drops one line from the buyer's active cart.
func (s *service) RemoveItem(ctx context.Context, buyerID, itemID uuid.UUID) (*models.CartRecord, error) {
	cartRecord, err := s.requireActiveCart(ctx, buyerID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.DeleteItem(ctx, cartRecord.ID, itemID); err != nil {
		return nil, err
	}
	return s.repo.FindActiveByBuyer(ctx, buyerID)
}

// Clear empties the buyer's active cart.
func (s *service) Clear(ctx context.Context, buyerID uuid.UUID) error {
	cartRecord, err := s.requireActiveCart(ctx, buyerID)
	if err != nil {
		return err
	}
	return s.repo.DeleteItems(ctx, cartRecord.ID)
}

func (s *service) requireActiveCart(ctx context.Context, buyerID uuid.UUID) (*models.CartRecord, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer id is required")
	}
	record, err := s.repo.FindActiveByBuyer(ctx, buyerID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no active cart")
	}
	if err != nil {
		return nil, err
	}
	return record, nil
}
