package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mensahkwame/bookmarket-backend/internal/cart"
	"github.com/mensahkwame/bookmarket-backend/internal/inventory"
	"github.com/mensahkwame/bookmarket-backend/internal/listings"
	"github.com/mensahkwame/bookmarket-backend/internal/orders"
	"github.com/mensahkwame/bookmarket-backend/pkg/db/models"
	"github.com/mensahkwame/bookmarket-backend/pkg/enums"
	pkgerrors "github.com/mensahkwame/bookmarket-backend/pkg/errors"
	"github.com/mensahkwame/bookmarket-backend/pkg/metrics"
	"github.com/mensahkwame/bookmarket-backend/pkg/money"
	"github.com/mensahkwame/bookmarket-backend/pkg/outbox"
	"github.com/mensahkwame/bookmarket-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type reservationRunner interface {
	Reserve(ctx context.Context, tx *gorm.DB, requests []inventory.ReservationRequest) ([]inventory.ReservationResult, error)
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type reservationEngine struct{}

func (reservationEngine) Reserve(ctx context.Context, tx *gorm.DB, requests []inventory.ReservationRequest) ([]inventory.ReservationResult, error) {
	return inventory.Reserve(ctx, tx, requests)
}

// Service executes checkout orchestration: Validate previews the priced cart,
// Commit converts it into an order batch atomically.
type Service interface {
	Validate(ctx context.Context, buyerID uuid.UUID) (*ValidationResult, error)
	Commit(ctx context.Context, buyerID uuid.UUID, input CommitInput) (*models.OrderBatch, error)
}

type service struct {
	tx          txRunner
	cartRepo    cart.CartRepository
	ordersRepo  orders.OrderRepository
	listingRepo listings.ListingRepository
	reservation reservationRunner
	outbox      outboxEmitter
	metrics     *metrics.CheckoutMetrics
}

// NewService builds the checkout service.
func NewService(
	tx txRunner,
	cartRepo cart.CartRepository,
	ordersRepo orders.OrderRepository,
	listingRepo listings.ListingRepository,
	reservation reservationRunner,
	emitter outboxEmitter,
	checkoutMetrics *metrics.CheckoutMetrics,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if cartRepo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if listingRepo == nil {
		return nil, fmt.Errorf("listing repository required")
	}
	if reservation == nil {
		reservation = reservationEngine{}
	}
	if emitter == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	return &service{
		tx:          tx,
		cartRepo:    cartRepo,
		ordersRepo:  ordersRepo,
		listingRepo: listingRepo,
		reservation: reservation,
		outbox:      emitter,
		metrics:     checkoutMetrics,
	}, nil
}

// Validate reprices the buyer's active cart against the live catalog. It never
// mutates the cart: dropped and clamped lines are reported as warnings for the
// buyer to confirm.
func (s *service) Validate(ctx context.Context, buyerID uuid.UUID) (*ValidationResult, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer id required")
	}
	return s.validateCart(ctx, buyerID, s.cartRepo, s.listingRepo)
}

// Commit turns the validated cart into an order batch inside one transaction.
// Inventory reservation, order creation, cart conversion and the outbox emit
// all succeed or all roll back. A blocking validation warning aborts the
// commit so the buyer always confirms a changed cart first; price drift is
// informational and the requoted price is what gets charged.
func (s *service) Commit(ctx context.Context, buyerID uuid.UUID, input CommitInput) (*models.OrderBatch, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer id required")
	}
	if !input.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid payment method %q", input.PaymentMethod))
	}
	if input.DeliveryMethod == "" {
		input.DeliveryMethod = enums.DeliveryMethodPickup
	}
	if !input.DeliveryMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid delivery method %q", input.DeliveryMethod))
	}
	if input.DeliveryMethod == enums.DeliveryMethodDelivery && input.DeliveryAddress == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery address is required for delivery orders")
	}

	started := time.Now()
	var batch *models.OrderBatch
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		cartRepo := s.cartRepo.WithTx(tx)
		ordersRepo := s.ordersRepo.WithTx(tx)
		listingRepo := s.listingRepo.WithTx(tx)

		result, err := s.validateCart(ctx, buyerID, cartRepo, listingRepo)
		if err != nil {
			return err
		}
		if blocking := blockingWarnings(result.Warnings); len(blocking) > 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "cart changed since it was last viewed").
				WithDetails(map[string]any{"warnings": blocking})
		}
		if len(result.Lines) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "cart has no purchasable items")
		}
		if result.TotalPesewas == 0 && input.PaymentMethod == enums.PaymentMethodPaystack {
			return pkgerrors.New(pkgerrors.CodeValidation, "nothing to pay online for this cart")
		}

		requests := make([]inventory.ReservationRequest, len(result.Lines))
		for i, line := range result.Lines {
			requests[i] = inventory.ReservationRequest{
				CartItemID: line.ItemID,
				ListingID:  line.ListingID,
				Qty:        line.Quantity,
			}
		}
		reservations, err := s.reservation.Reserve(ctx, tx, requests)
		if err != nil {
			return err
		}
		if failed := failedReservations(reservations); len(failed) > 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "some items are no longer in stock").
				WithDetails(map[string]any{"failures": failed})
		}

		newBatch := &models.OrderBatch{
			BuyerID:         buyerID,
			PaymentMethod:   input.PaymentMethod,
			Status:          enums.PaymentStatusPending,
			TotalPesewas:    result.TotalPesewas,
			ContactPhone:    input.ContactPhone,
			DeliveryAddress: input.DeliveryAddress,
			Orders:          buildOrders(buyerID, result.Lines, input),
		}
		created, err := ordersRepo.CreateBatch(ctx, newBatch)
		if err != nil {
			return err
		}

		if err := cartRepo.MarkConverted(ctx, result.CartID, created.ID); err != nil {
			return err
		}

		if err := s.emitOrderCreated(ctx, tx, buyerID, created); err != nil {
			return err
		}

		batch = created
		return nil
	})

	s.metrics.ObserveCommitDuration(time.Since(started))
	if err != nil {
		s.metrics.IncCommit("failure")
		return nil, err
	}
	s.metrics.IncCommit("success")
	return batch, nil
}

func (s *service) validateCart(ctx context.Context, buyerID uuid.UUID, cartRepo cart.CartRepository, listingRepo listings.ListingRepository) (*ValidationResult, error) {
	record, err := cartRepo.FindActiveByBuyer(ctx, buyerID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	if err != nil {
		return nil, err
	}
	if len(record.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	ids := make([]uuid.UUID, 0, len(record.Items))
	for _, item := range record.Items {
		ids = append(ids, item.ListingID)
	}
	catalog, err := listingRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	result := &ValidationResult{CartID: record.ID}
	for _, item := range record.Items {
		listing, ok := catalog[item.ListingID]
		if !ok || listing.Status != enums.ListingStatusActive {
			result.Warnings = append(result.Warnings, Warning{
				ItemID:    item.ID,
				ListingID: item.ListingID,
				Code:      WarnListingUnavailable,
				Message:   "listing is no longer available",
			})
			continue
		}

		duration := 0
		if item.RentalDuration != nil {
			duration = *item.RentalDuration
		}
		unitPrice, err := listings.Quote(listing, listings.QuoteParams{
			BuyerID:        buyerID,
			Mode:           item.Mode,
			RentalDuration: duration,
		})
		if err != nil {
			result.Warnings = append(result.Warnings, quoteWarning(item, err))
			continue
		}
		if item.UnitPriceSnapshotPesewas > 0 && item.UnitPriceSnapshotPesewas != unitPrice {
			result.Warnings = append(result.Warnings, Warning{
				ItemID:    item.ID,
				ListingID: item.ListingID,
				Code:      WarnPriceChanged,
				Message:   fmt.Sprintf("price is now %s", money.FormatGHS(unitPrice)),
			})
		}

		available := 0
		if listing.Inventory != nil {
			available = listing.Inventory.AvailableQty
		}
		quantity := item.Quantity
		switch {
		case available == 0:
			result.Warnings = append(result.Warnings, Warning{
				ItemID:    item.ID,
				ListingID: item.ListingID,
				Code:      WarnOutOfStock,
				Message:   "listing is out of stock",
			})
			continue
		case quantity > available:
			quantity = available
			result.Warnings = append(result.Warnings, Warning{
				ItemID:    item.ID,
				ListingID: item.ListingID,
				Code:      WarnQuantityClamped,
				Message:   fmt.Sprintf("only %d left in stock", available),
			})
		}

		line := ValidatedLine{
			ItemID:           item.ID,
			ListingID:        listing.ID,
			SellerID:         listing.SellerID,
			Title:            listing.Title,
			Mode:             item.Mode,
			Quantity:         quantity,
			UnitPricePesewas: unitPrice,
			SubtotalPesewas:  unitPrice * quantity,
		}
		if item.Mode == enums.TransactionModeRent {
			line.RentalDuration = item.RentalDuration
			line.RentalUnit = listing.RentUnit
		}
		result.Lines = append(result.Lines, line)
		result.TotalPesewas += line.SubtotalPesewas
	}
	return result, nil
}

func (s *service) emitOrderCreated(ctx context.Context, tx *gorm.DB, buyerID uuid.UUID, batch *models.OrderBatch) error {
	orderIDs := make([]uuid.UUID, len(batch.Orders))
	for i, order := range batch.Orders {
		orderIDs[i] = order.ID
	}
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.OutboxEventOrderCreated,
		AggregateType: enums.OutboxAggregateOrderBatch,
		AggregateID:   batch.ID,
		Actor:         &outbox.ActorRef{UserID: buyerID},
		Data: payloads.OrderCreatedEvent{
			BatchID:      batch.ID,
			BuyerID:      buyerID,
			OrderIDs:     orderIDs,
			TotalPesewas: batch.TotalPesewas,
		},
		Version: 1,
	})
}

func quoteWarning(item models.CartItem, err error) Warning {
	message := err.Error()
	if typed := pkgerrors.As(err); typed != nil {
		message = typed.Message()
	}
	warning := Warning{
		ItemID:    item.ID,
		ListingID: item.ListingID,
		Code:      WarnModeUnavailable,
		Message:   message,
	}
	if pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		warning.Code = WarnDurationInvalid
	}
	return warning
}

// blockingWarnings filters out the informational codes. A price drift does
// not block commit; the requoted price is what the batch records.
func blockingWarnings(warnings []Warning) []Warning {
	var blocking []Warning
	for _, warning := range warnings {
		if warning.Code == WarnPriceChanged {
			continue
		}
		blocking = append(blocking, warning)
	}
	return blocking
}

func failedReservations(results []inventory.ReservationResult) []map[string]any {
	var failed []map[string]any
	for _, res := range results {
		if res.Reserved {
			continue
		}
		failed = append(failed, map[string]any{
			"listingId": res.ListingID,
			"reason":    res.Reason,
		})
	}
	return failed
}

func buildOrders(buyerID uuid.UUID, lines []ValidatedLine, input CommitInput) []models.Order {
	rows := make([]models.Order, len(lines))
	for i, line := range lines {
		rows[i] = models.Order{
			BuyerID:          buyerID,
			SellerID:         line.SellerID,
			ListingID:        line.ListingID,
			Mode:             line.Mode,
			Quantity:         line.Quantity,
			UnitPricePesewas: line.UnitPricePesewas,
			SubtotalPesewas:  line.SubtotalPesewas,
			RentalDuration:   line.RentalDuration,
			RentalUnit:       line.RentalUnit,
			PaymentStatus:    enums.PaymentStatusPending,
			PaymentMethod:    input.PaymentMethod,
			DeliveryMethod:   input.DeliveryMethod,
		}
	}
	return rows
}
