package payments

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mensahkwame/bookmarket-backend/internal/inventory"
	"github.com/mensahkwame/bookmarket-backend/internal/orders"
	"github.com/mensahkwame/bookmarket-backend/pkg/config"
	"github.com/mensahkwame/bookmarket-backend/pkg/db/models"
	"github.com/mensahkwame/bookmarket-backend/pkg/enums"
	pkgerrors "github.com/mensahkwame/bookmarket-backend/pkg/errors"
	"github.com/mensahkwame/bookmarket-backend/pkg/metrics"
	"github.com/mensahkwame/bookmarket-backend/pkg/outbox"
	"github.com/mensahkwame/bookmarket-backend/pkg/outbox/payloads"
	"github.com/mensahkwame/bookmarket-backend/pkg/paystack"
)

const expiredReason = "payment window expired"

// Gateway statuses Paystack reports for a transaction that is dead rather
// than still in flight.
const (
	gatewayStatusFailed   = "failed"
	gatewayStatusReversed = "reversed"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type gateway interface {
	Initialize(ctx context.Context, req paystack.InitializeRequest) (*paystack.InitializeResult, error)
	Verify(ctx context.Context, reference string) (*paystack.VerifyResult, error)
}

type buyerLoader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type inventoryRunner interface {
	Settle(ctx context.Context, tx *gorm.DB, requests []inventory.ReservationRequest) error
	Release(ctx context.Context, tx *gorm.DB, requests []inventory.ReservationRequest) error
}

type inventoryEngine struct{}

func (inventoryEngine) Settle(ctx context.Context, tx *gorm.DB, requests []inventory.ReservationRequest) error {
	return inventory.Settle(ctx, tx, requests)
}

func (inventoryEngine) Release(ctx context.Context, tx *gorm.DB, requests []inventory.ReservationRequest) error {
	return inventory.Release(ctx, tx, requests)
}

// InitiateResult is what the client needs to continue paying for a batch.
// Cash batches carry no redirect; the buyer settles on delivery.
type InitiateResult struct {
	BatchID          uuid.UUID           `json:"batchId"`
	Method           enums.PaymentMethod `json:"method"`
	AmountPesewas    int                 `json:"amountPesewas"`
	Reference        string              `json:"reference,omitempty"`
	AuthorizationURL string              `json:"authorizationUrl,omitempty"`
	AccessCode       string              `json:"accessCode,omitempty"`
}

// VerifyOutcome is the batch-level result of one verification pass.
type VerifyOutcome struct {
	BatchID       uuid.UUID           `json:"batchId"`
	Reference     string              `json:"reference"`
	Status        enums.PaymentStatus `json:"status"`
	GatewayStatus string              `json:"gatewayStatus,omitempty"`
}

// Service drives the payment lifecycle of an order batch: initiate produces
// the gateway redirect, verify pulls the authoritative outcome and settles
// the reserved inventory on success. A declined charge is reported back but
// leaves the batch pending; releasing stock is the expiry reaper's job.
type Service interface {
	Initiate(ctx context.Context, buyerID, batchID uuid.UUID) (*InitiateResult, error)
	Verify(ctx context.Context, buyerID uuid.UUID, reference string) (*VerifyOutcome, error)
	ExpireBatch(ctx context.Context, batchID uuid.UUID) error
}

type service struct {
	tx        txRunner
	sessions  SessionRepository
	orders    orders.OrderRepository
	buyers    buyerLoader
	gateway   gateway
	inventory inventoryRunner
	outbox    outboxEmitter
	metrics   *metrics.CheckoutMetrics
	cfg       config.PaystackConfig
}

// NewService builds the payment service.
func NewService(
	tx txRunner,
	sessions SessionRepository,
	ordersRepo orders.OrderRepository,
	buyers buyerLoader,
	gw gateway,
	inv inventoryRunner,
	emitter outboxEmitter,
	checkoutMetrics *metrics.CheckoutMetrics,
	cfg config.PaystackConfig,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session repository required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if buyers == nil {
		return nil, fmt.Errorf("buyer loader required")
	}
	if gw == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	if inv == nil {
		inv = inventoryEngine{}
	}
	return &service{
		tx:        tx,
		sessions:  sessions,
		orders:    ordersRepo,
		buyers:    buyers,
		gateway:   gw,
		inventory: inv,
		outbox:    emitter,
		metrics:   checkoutMetrics,
		cfg:       cfg,
	}, nil
}

// Reference derives the deterministic gateway reference for a batch. One batch
// maps to one reference, so retries after a failed initialize reuse the same
// transaction on the gateway side.
func Reference(batchID uuid.UUID) string {
	return "bm-" + batchID.String()
}

func (s *service) Initiate(ctx context.Context, buyerID, batchID uuid.UUID) (*InitiateResult, error) {
	if buyerID == uuid.Nil || batchID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer id and batch id are required")
	}

	batch, err := s.orders.GetBatchForBuyer(ctx, batchID, buyerID)
	if err != nil {
		return nil, err
	}
	if batch.Status != enums.PaymentStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("batch payment is already %s", batch.Status))
	}

	if batch.PaymentMethod == enums.PaymentMethodCash {
		return &InitiateResult{
			BatchID:       batch.ID,
			Method:        enums.PaymentMethodCash,
			AmountPesewas: batch.TotalPesewas,
		}, nil
	}
	if batch.TotalPesewas <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "batch has nothing to pay online")
	}

	session, err := s.ensureSession(ctx, batch)
	if err != nil {
		return nil, err
	}
	if session.Status != enums.PaymentStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("payment session is already %s", session.Status))
	}
	if session.AuthorizationURL != nil && *session.AuthorizationURL != "" {
		return initiateResult(batch, session), nil
	}

	buyer, err := s.buyers.GetByID(ctx, buyerID)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	redirect, err := s.gateway.Initialize(ctx, paystack.InitializeRequest{
		Email:         buyer.Email,
		AmountPesewas: session.AmountPesewas,
		Reference:     session.Reference,
		CallbackURL:   s.cfg.CallbackURL,
		Metadata: map[string]any{
			"batch_id": batch.ID.String(),
			"buyer_id": buyerID.String(),
		},
	})
	s.metrics.ObserveGatewayCall("initialize", time.Since(started))
	if err != nil {
		// session stays pending without a redirect; the next initiate retries
		return nil, err
	}

	if err := s.sessions.SetRedirect(ctx, session.ID, redirect.AuthorizationURL, redirect.AccessCode); err != nil {
		return nil, err
	}
	session.AuthorizationURL = &redirect.AuthorizationURL
	session.AccessCode = &redirect.AccessCode
	return initiateResult(batch, session), nil
}

func (s *service) Verify(ctx context.Context, buyerID uuid.UUID, reference string) (*VerifyOutcome, error) {
	if buyerID == uuid.Nil || reference == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer id and reference are required")
	}

	session, err := s.sessions.FindByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	if session.BuyerID != buyerID {
		// references leak nothing about other buyers' sessions
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment session not found")
	}
	if session.Method != enums.PaymentMethodPaystack {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cash payments are not verified online")
	}
	if session.Status != enums.PaymentStatusPending {
		// a repeated verify of a finalized session is a no-op
		return sessionOutcome(session), nil
	}

	started := time.Now()
	result, err := s.gateway.Verify(ctx, reference)
	s.metrics.ObserveGatewayCall("verify", time.Since(started))
	if err != nil {
		s.metrics.IncVerification("error")
		return nil, err
	}

	switch {
	case result.Succeeded():
		return s.settle(ctx, session, result)
	case result.Status == gatewayStatusFailed || result.Status == gatewayStatusReversed:
		// a decline is a successful verify call, not an error. Nothing
		// transitions here: verify is retryable, the buyer can still pay the
		// batch, and only the expiry reaper fails a pending batch and puts
		// its stock back on sale.
		s.metrics.IncVerification("declined")
		return &VerifyOutcome{
			BatchID:       session.BatchID,
			Reference:     session.Reference,
			Status:        enums.PaymentStatusFailed,
			GatewayStatus: result.Status,
		}, nil
	default:
		// buyer has not finished on the gateway page yet
		s.metrics.IncVerification("pending")
		return &VerifyOutcome{
			BatchID:       session.BatchID,
			Reference:     session.Reference,
			Status:        enums.PaymentStatusPending,
			GatewayStatus: result.Status,
		}, nil
	}
}

func (s *service) settle(ctx context.Context, session *models.PaymentSession, result *paystack.VerifyResult) (*VerifyOutcome, error) {
	if result.AmountPesewas != session.AmountPesewas {
		s.metrics.IncVerification("amount_mismatch")
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("gateway settled %d pesewas but %d was due", result.AmountPesewas, session.AmountPesewas)).
			WithDetails(map[string]any{"reference": session.Reference})
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		ordersRepo := s.orders.WithTx(tx)
		sessions := s.sessions.WithTx(tx)

		batch, err := ordersRepo.GetBatch(ctx, session.BatchID)
		if err != nil {
			return err
		}

		moved, err := ordersRepo.UpdateBatchPaymentStatus(ctx, batch.ID,
			enums.PaymentStatusPending, enums.PaymentStatusCompleted)
		if err != nil {
			return err
		}
		if moved {
			if err := s.inventory.Settle(ctx, tx, reservationRequests(batch.Orders)); err != nil {
				return err
			}
			if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.OutboxEventPaymentSettled,
				AggregateType: enums.OutboxAggregateOrderBatch,
				AggregateID:   batch.ID,
				Actor:         &outbox.ActorRef{UserID: session.BuyerID},
				Data: payloads.PaymentSettledEvent{
					BatchID:       batch.ID,
					Reference:     session.Reference,
					AmountPesewas: result.AmountPesewas,
					Channel:       result.Channel,
				},
				Version: 1,
			}); err != nil {
				return err
			}
		}

		now := time.Now()
		err = sessions.RecordOutcome(ctx, session.ID, SessionOutcome{
			Status:        enums.PaymentStatusCompleted,
			GatewayStatus: result.Status,
			VerifiedAt:    &now,
		})
		if pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
			// a concurrent verify finalized the session first
			return nil
		}
		return err
	})
	if err != nil {
		s.metrics.IncVerification("error")
		return nil, err
	}

	s.metrics.IncVerification("success")
	return &VerifyOutcome{
		BatchID:       session.BatchID,
		Reference:     session.Reference,
		Status:        enums.PaymentStatusCompleted,
		GatewayStatus: result.Status,
	}, nil
}

// ExpireBatch fails a pending batch whose payment window has lapsed and puts
// the reserved stock back on sale. Cash batches never expire; they settle on
// delivery.
func (s *service) ExpireBatch(ctx context.Context, batchID uuid.UUID) error {
	if batchID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "batch id is required")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		ordersRepo := s.orders.WithTx(tx)
		sessions := s.sessions.WithTx(tx)

		batch, err := ordersRepo.GetBatch(ctx, batchID)
		if err != nil {
			return err
		}
		if batch.PaymentMethod == enums.PaymentMethodCash {
			return nil
		}

		moved, err := ordersRepo.UpdateBatchPaymentStatus(ctx, batch.ID,
			enums.PaymentStatusPending, enums.PaymentStatusFailed)
		if err != nil {
			return err
		}
		if !moved {
			return nil
		}

		if err := s.inventory.Release(ctx, tx, reservationRequests(batch.Orders)); err != nil {
			return err
		}

		session, err := sessions.FindByBatch(ctx, batch.ID)
		switch {
		case pkgerrors.IsCode(err, pkgerrors.CodeNotFound):
			// the buyer never initiated payment; nothing to finalize
		case err != nil:
			return err
		default:
			now := time.Now()
			err = sessions.RecordOutcome(ctx, session.ID, SessionOutcome{
				Status:        enums.PaymentStatusFailed,
				GatewayStatus: "expired",
				FailureReason: expiredReason,
				VerifiedAt:    &now,
			})
			if err != nil && !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
				return err
			}
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.OutboxEventPaymentExpired,
			AggregateType: enums.OutboxAggregateOrderBatch,
			AggregateID:   batch.ID,
			Data:          payloads.PaymentExpiredEvent{BatchID: batch.ID},
			Version:       1,
		})
	})
}

func (s *service) ensureSession(ctx context.Context, batch *models.OrderBatch) (*models.PaymentSession, error) {
	session, err := s.sessions.FindByBatch(ctx, batch.ID)
	if err == nil {
		return session, nil
	}
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		return nil, err
	}
	return s.sessions.Create(ctx, &models.PaymentSession{
		BatchID:       batch.ID,
		BuyerID:       batch.BuyerID,
		Method:        enums.PaymentMethodPaystack,
		Status:        enums.PaymentStatusPending,
		AmountPesewas: batch.TotalPesewas,
		Reference:     Reference(batch.ID),
	})
}

func initiateResult(batch *models.OrderBatch, session *models.PaymentSession) *InitiateResult {
	result := &InitiateResult{
		BatchID:       batch.ID,
		Method:        enums.PaymentMethodPaystack,
		AmountPesewas: session.AmountPesewas,
		Reference:     session.Reference,
	}
	if session.AuthorizationURL != nil {
		result.AuthorizationURL = *session.AuthorizationURL
	}
	if session.AccessCode != nil {
		result.AccessCode = *session.AccessCode
	}
	return result
}

func sessionOutcome(session *models.PaymentSession) *VerifyOutcome {
	outcome := &VerifyOutcome{
		BatchID:   session.BatchID,
		Reference: session.Reference,
		Status:    session.Status,
	}
	if session.GatewayStatus != nil {
		outcome.GatewayStatus = *session.GatewayStatus
	}
	return outcome
}

func reservationRequests(rows []models.Order) []inventory.ReservationRequest {
	requests := make([]inventory.ReservationRequest, len(rows))
	for i, row := range rows {
		requests[i] = inventory.ReservationRequest{
			ListingID: row.ListingID,
			Qty:       row.Quantity,
		}
	}
	return requests
}
