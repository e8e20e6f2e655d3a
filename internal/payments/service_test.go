package payments

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mensahkwame/bookmarket-backend/internal/inventory"
	"github.com/mensahkwame/bookmarket-backend/internal/orders"
	"github.com/mensahkwame/bookmarket-backend/pkg/config"
	"github.com/mensahkwame/bookmarket-backend/pkg/db/models"
	"github.com/mensahkwame/bookmarket-backend/pkg/enums"
	pkgerrors "github.com/mensahkwame/bookmarket-backend/pkg/errors"
	"github.com/mensahkwame/bookmarket-backend/pkg/outbox"
	"github.com/mensahkwame/bookmarket-backend/pkg/pagination"
	"github.com/mensahkwame/bookmarket-backend/pkg/paystack"
)

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubSessions struct {
	sessions map[uuid.UUID]*models.PaymentSession
}

func newStubSessions() *stubSessions {
	return &stubSessions{sessions: map[uuid.UUID]*models.PaymentSession{}}
}

func (s *stubSessions) WithTx(tx *gorm.DB) SessionRepository { return s }

func (s *stubSessions) Create(ctx context.Context, session *models.PaymentSession) (*models.PaymentSession, error) {
	session.ID = uuid.New()
	s.sessions[session.ID] = session
	return session, nil
}

func (s *stubSessions) FindByBatch(ctx context.Context, batchID uuid.UUID) (*models.PaymentSession, error) {
	for _, session := range s.sessions {
		if session.BatchID == batchID {
			return session, nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment session not found")
}

func (s *stubSessions) FindByReference(ctx context.Context, reference string) (*models.PaymentSession, error) {
	for _, session := range s.sessions {
		if session.Reference == reference {
			return session, nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment session not found")
}

func (s *stubSessions) SetRedirect(ctx context.Context, sessionID uuid.UUID, authorizationURL, accessCode string) error {
	session := s.sessions[sessionID]
	session.AuthorizationURL = &authorizationURL
	session.AccessCode = &accessCode
	return nil
}

func (s *stubSessions) RecordOutcome(ctx context.Context, sessionID uuid.UUID, outcome SessionOutcome) error {
	session := s.sessions[sessionID]
	if session.Status != enums.PaymentStatusPending {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "payment session already finalized")
	}
	session.Status = outcome.Status
	session.GatewayStatus = &outcome.GatewayStatus
	if outcome.FailureReason != "" {
		session.FailureReason = &outcome.FailureReason
	}
	session.VerifiedAt = outcome.VerifiedAt
	return nil
}

type stubOrdersRepo struct {
	batch       *models.OrderBatch
	transitions [][2]enums.PaymentStatus
}

func (s *stubOrdersRepo) WithTx(tx *gorm.DB) orders.OrderRepository { return s }

func (s *stubOrdersRepo) CreateBatch(ctx context.Context, batch *models.OrderBatch) (*models.OrderBatch, error) {
	return batch, nil
}

func (s *stubOrdersRepo) GetBatch(ctx context.Context, batchID uuid.UUID) (*models.OrderBatch, error) {
	if s.batch == nil || s.batch.ID != batchID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order batch not found")
	}
	return s.batch, nil
}

func (s *stubOrdersRepo) GetBatchForBuyer(ctx context.Context, batchID, buyerID uuid.UUID) (*models.OrderBatch, error) {
	if s.batch == nil || s.batch.ID != batchID || s.batch.BuyerID != buyerID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order batch not found")
	}
	return s.batch, nil
}

func (s *stubOrdersRepo) GetOrderForUser(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
}

func (s *stubOrdersRepo) ListForBuyer(ctx context.Context, buyerID uuid.UUID, params pagination.Params) ([]models.Order, string, error) {
	return nil, "", nil
}

func (s *stubOrdersRepo) ListForSeller(ctx context.Context, sellerID uuid.UUID, params pagination.Params) ([]models.Order, string, error) {
	return nil, "", nil
}

func (s *stubOrdersRepo) ListPendingBatchesOlderThan(ctx context.Context, cutoff time.Time, limit int) ([]models.OrderBatch, error) {
	return nil, nil
}

func (s *stubOrdersRepo) UpdateBatchPaymentStatus(ctx context.Context, batchID uuid.UUID, from, to enums.PaymentStatus) (bool, error) {
	if !from.CanTransitionTo(to) {
		return false, pkgerrors.New(pkgerrors.CodeStateConflict, "transition disallowed")
	}
	if s.batch == nil || s.batch.Status != from {
		return false, nil
	}
	s.batch.Status = to
	s.transitions = append(s.transitions, [2]enums.PaymentStatus{from, to})
	return true, nil
}

type stubGateway struct {
	initResult   *paystack.InitializeResult
	initErr      error
	initCalls    int
	verifyResult *paystack.VerifyResult
	verifyErr    error
	verifyCalls  int
}

func (s *stubGateway) Initialize(ctx context.Context, req paystack.InitializeRequest) (*paystack.InitializeResult, error) {
	s.initCalls++
	if s.initErr != nil {
		return nil, s.initErr
	}
	if s.initResult != nil {
		return s.initResult, nil
	}
	return &paystack.InitializeResult{
		AuthorizationURL: "https://checkout.paystack.com/abc123",
		AccessCode:       "abc123",
		Reference:        req.Reference,
	}, nil
}

func (s *stubGateway) Verify(ctx context.Context, reference string) (*paystack.VerifyResult, error) {
	s.verifyCalls++
	if s.verifyErr != nil {
		return nil, s.verifyErr
	}
	return s.verifyResult, nil
}

type stubBuyers struct {
	user *models.User
}

func (s *stubBuyers) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if s.user == nil || s.user.ID != id {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	return s.user, nil
}

type stubInventory struct {
	settled  [][]inventory.ReservationRequest
	released [][]inventory.ReservationRequest
}

func (s *stubInventory) Settle(ctx context.Context, tx *gorm.DB, requests []inventory.ReservationRequest) error {
	s.settled = append(s.settled, requests)
	return nil
}

func (s *stubInventory) Release(ctx context.Context, tx *gorm.DB, requests []inventory.ReservationRequest) error {
	s.released = append(s.released, requests)
	return nil
}

type stubEmitter struct {
	events []outbox.DomainEvent
}

func (s *stubEmitter) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	s.events = append(s.events, event)
	return nil
}

type fixture struct {
	svc      Service
	sessions *stubSessions
	orders   *stubOrdersRepo
	gateway  *stubGateway
	buyers   *stubBuyers
	ledger   *stubInventory
	emitter  *stubEmitter
}

func newFixture(t *testing.T, batch *models.OrderBatch, buyer *models.User) *fixture {
	t.Helper()

	f := &fixture{
		sessions: newStubSessions(),
		orders:   &stubOrdersRepo{batch: batch},
		gateway:  &stubGateway{},
		buyers:   &stubBuyers{user: buyer},
		ledger:   &stubInventory{},
		emitter:  &stubEmitter{},
	}
	svc, err := NewService(stubTxRunner{}, f.sessions, f.orders, f.buyers, f.gateway, f.ledger, f.emitter, nil,
		config.PaystackConfig{CallbackURL: "https://bookmarket.example/pay/callback"})
	require.NoError(t, err)
	f.svc = svc
	return f
}

func pendingBatch(buyerID uuid.UUID, method enums.PaymentMethod, total int) *models.OrderBatch {
	batchID := uuid.New()
	return &models.OrderBatch{
		ID:            batchID,
		BuyerID:       buyerID,
		PaymentMethod: method,
		Status:        enums.PaymentStatusPending,
		TotalPesewas:  total,
		Orders: []models.Order{
			{
				ID:            uuid.New(),
				BatchID:       batchID,
				BuyerID:       buyerID,
				SellerID:      uuid.New(),
				ListingID:     uuid.New(),
				Mode:          enums.TransactionModePurchase,
				Quantity:      2,
				PaymentStatus: enums.PaymentStatusPending,
			},
		},
	}
}

func testBuyer() *models.User {
	return &models.User{ID: uuid.New(), Name: "Ama Serwaa", Email: "ama@knust.edu.gh"}
}

func TestInitiateCreatesSessionWithDeterministicReference(t *testing.T) {
	t.Parallel()

	buyer := testBuyer()
	batch := pendingBatch(buyer.ID, enums.PaymentMethodPaystack, 5000)
	f := newFixture(t, batch, buyer)

	result, err := f.svc.Initiate(context.Background(), buyer.ID, batch.ID)
	require.NoError(t, err)

	assert.Equal(t, Reference(batch.ID), result.Reference)
	assert.Equal(t, "https://checkout.paystack.com/abc123", result.AuthorizationURL)
	assert.Equal(t, 5000, result.AmountPesewas)
	assert.Equal(t, 1, f.gateway.initCalls)

	session, err := f.sessions.FindByBatch(context.Background(), batch.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusPending, session.Status)
	require.NotNil(t, session.AuthorizationURL)
}

func TestInitiateReusesStoredRedirect(t *testing.T) {
	t.Parallel()

	buyer := testBuyer()
	batch := pendingBatch(buyer.ID, enums.PaymentMethodPaystack, 5000)
	f := newFixture(t, batch, buyer)

	first, err := f.svc.Initiate(context.Background(), buyer.ID, batch.ID)
	require.NoError(t, err)

	second, err := f.svc.Initiate(context.Background(), buyer.ID, batch.ID)
	require.NoError(t, err)

	assert.Equal(t, first.AuthorizationURL, second.AuthorizationURL)
	assert.Equal(t, first.Reference, second.Reference)
	// the stored redirect is reused; the gateway sees one initialize
	assert.Equal(t, 1, f.gateway.initCalls)
}

func TestInitiateRetriesAfterGatewayFailure(t *testing.T) {
	t.Parallel()

	buyer := testBuyer()
	batch := pendingBatch(buyer.ID, enums.PaymentMethodPaystack, 5000)
	f := newFixture(t, batch, buyer)
	f.gateway.initErr = pkgerrors.New(pkgerrors.CodeDependency, "payment gateway unreachable")

	_, err := f.svc.Initiate(context.Background(), buyer.ID, batch.ID)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))

	f.gateway.initErr = nil
	result, err := f.svc.Initiate(context.Background(), buyer.ID, batch.ID)
	require.NoError(t, err)
	assert.Equal(t, Reference(batch.ID), result.Reference)

	// the failed attempt left one session behind and the retry reused it
	assert.Len(t, f.sessions.sessions, 1)
}

func TestInitiateCashNeedsNoRedirect(t *testing.T) {
	t.Parallel()

	buyer := testBuyer()
	batch := pendingBatch(buyer.ID, enums.PaymentMethodCash, 3000)
	f := newFixture(t, batch, buyer)

	result, err := f.svc.Initiate(context.Background(), buyer.ID, batch.ID)
	require.NoError(t, err)

	assert.Equal(t, enums.PaymentMethodCash, result.Method)
	assert.Empty(t, result.AuthorizationURL)
	assert.Empty(t, result.Reference)
	assert.Equal(t, 0, f.gateway.initCalls)
}

func TestInitiateRejectsSettledBatch(t *testing.T) {
	t.Parallel()

	buyer := testBuyer()
	batch := pendingBatch(buyer.ID, enums.PaymentMethodPaystack, 5000)
	batch.Status = enums.PaymentStatusCompleted
	f := newFixture(t, batch, buyer)

	_, err := f.svc.Initiate(context.Background(), buyer.ID, batch.ID)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
}

func TestInitiateScopedToBuyer(t *testing.T) {
	t.Parallel()

	buyer := testBuyer()
	batch := pendingBatch(buyer.ID, enums.PaymentMethodPaystack, 5000)
	f := newFixture(t, batch, buyer)

	_, err := f.svc.Initiate(context.Background(), uuid.New(), batch.ID)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func verifyFixture(t *testing.T, buyer *models.User, batch *models.OrderBatch) (*fixture, *models.PaymentSession) {
	t.Helper()

	f := newFixture(t, batch, buyer)
	session, err := f.sessions.Create(context.Background(), &models.PaymentSession{
		BatchID:       batch.ID,
		BuyerID:       buyer.ID,
		Method:        enums.PaymentMethodPaystack,
		Status:        enums.PaymentStatusPending,
		AmountPesewas: batch.TotalPesewas,
		Reference:     Reference(batch.ID),
	})
	require.NoError(t, err)
	return f, session
}

func TestVerifySettlesSuccessfulPayment(t *testing.T) {
	t.Parallel()

	buyer := testBuyer()
	batch := pendingBatch(buyer.ID, enums.PaymentMethodPaystack, 5000)
	f, session := verifyFixture(t, buyer, batch)
	f.gateway.verifyResult = &paystack.VerifyResult{
		Status:        "success",
		Reference:     session.Reference,
		AmountPesewas: 5000,
		Currency:      "GHS",
		Channel:       "mobile_money",
	}

	outcome, err := f.svc.Verify(context.Background(), buyer.ID, session.Reference)
	require.NoError(t, err)

	assert.Equal(t, enums.PaymentStatusCompleted, outcome.Status)
	assert.Equal(t, enums.PaymentStatusCompleted, batch.Status)
	assert.Equal(t, enums.PaymentStatusCompleted, session.Status)
	assert.NotNil(t, session.VerifiedAt)

	require.Len(t, f.ledger.settled, 1)
	assert.Equal(t, 2, f.ledger.settled[0][0].Qty)
	assert.Empty(t, f.ledger.released)

	require.Len(t, f.emitter.events, 1)
	assert.Equal(t, enums.OutboxEventPaymentSettled, f.emitter.events[0].EventType)
}

func TestVerifyDeclineLeavesBatchPending(t *testing.T) {
	t.Parallel()

	buyer := testBuyer()
	batch := pendingBatch(buyer.ID, enums.PaymentMethodPaystack, 5000)
	f, session := verifyFixture(t, buyer, batch)
	f.gateway.verifyResult = &paystack.VerifyResult{
		Status:          "failed",
		Reference:       session.Reference,
		AmountPesewas:   5000,
		GatewayResponse: "Insufficient funds",
	}

	// a decline is a successful verify call, not an error
	outcome, err := f.svc.Verify(context.Background(), buyer.ID, session.Reference)
	require.NoError(t, err)

	assert.Equal(t, enums.PaymentStatusFailed, outcome.Status)
	assert.Equal(t, "failed", outcome.GatewayStatus)

	// the batch and session stay pending; only the expiry reaper fails a
	// batch and returns its stock
	assert.Equal(t, enums.PaymentStatusPending, batch.Status)
	assert.Equal(t, enums.PaymentStatusPending, session.Status)
	assert.Empty(t, f.orders.transitions)
	assert.Empty(t, f.ledger.released)
	assert.Empty(t, f.ledger.settled)
	assert.Empty(t, f.emitter.events)

	// verify stays retryable after a decline
	_, err = f.svc.Verify(context.Background(), buyer.ID, session.Reference)
	require.NoError(t, err)
	assert.Equal(t, 2, f.gateway.verifyCalls)
}

func TestVerifyPendingGatewayStateMutatesNothing(t *testing.T) {
	t.Parallel()

	buyer := testBuyer()
	batch := pendingBatch(buyer.ID, enums.PaymentMethodPaystack, 5000)
	f, session := verifyFixture(t, buyer, batch)
	f.gateway.verifyResult = &paystack.VerifyResult{
		Status:    "abandoned",
		Reference: session.Reference,
	}

	outcome, err := f.svc.Verify(context.Background(), buyer.ID, session.Reference)
	require.NoError(t, err)

	assert.Equal(t, enums.PaymentStatusPending, outcome.Status)
	assert.Equal(t, "abandoned", outcome.GatewayStatus)
	assert.Equal(t, enums.PaymentStatusPending, batch.Status)
	assert.Empty(t, f.ledger.settled)
	assert.Empty(t, f.ledger.released)
	assert.Empty(t, f.emitter.events)
}

func TestVerifyRejectsAmountMismatch(t *testing.T) {
	t.Parallel()

	buyer := testBuyer()
	batch := pendingBatch(buyer.ID, enums.PaymentMethodPaystack, 5000)
	f, session := verifyFixture(t, buyer, batch)
	f.gateway.verifyResult = &paystack.VerifyResult{
		Status:        "success",
		Reference:     session.Reference,
		AmountPesewas: 100,
	}

	_, err := f.svc.Verify(context.Background(), buyer.ID, session.Reference)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	// nothing settles on a mismatch; the batch stays pending for review
	assert.Equal(t, enums.PaymentStatusPending, batch.Status)
	assert.Empty(t, f.ledger.settled)
}

func TestVerifyScopedToBuyer(t *testing.T) {
	t.Parallel()

	buyer := testBuyer()
	batch := pendingBatch(buyer.ID, enums.PaymentMethodPaystack, 5000)
	f, session := verifyFixture(t, buyer, batch)

	_, err := f.svc.Verify(context.Background(), uuid.New(), session.Reference)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	assert.Equal(t, 0, f.gateway.verifyCalls)
}

func TestVerifyRepeatedAfterSettlementIsNoOp(t *testing.T) {
	t.Parallel()

	buyer := testBuyer()
	batch := pendingBatch(buyer.ID, enums.PaymentMethodPaystack, 5000)
	f, session := verifyFixture(t, buyer, batch)
	f.gateway.verifyResult = &paystack.VerifyResult{
		Status:        "success",
		Reference:     session.Reference,
		AmountPesewas: 5000,
	}

	_, err := f.svc.Verify(context.Background(), buyer.ID, session.Reference)
	require.NoError(t, err)

	outcome, err := f.svc.Verify(context.Background(), buyer.ID, session.Reference)
	require.NoError(t, err)

	assert.Equal(t, enums.PaymentStatusCompleted, outcome.Status)
	// the second verify never reaches the gateway and settles nothing twice
	assert.Equal(t, 1, f.gateway.verifyCalls)
	assert.Len(t, f.ledger.settled, 1)
	assert.Len(t, f.emitter.events, 1)
}

func TestExpireBatchReleasesStock(t *testing.T) {
	t.Parallel()

	buyer := testBuyer()
	batch := pendingBatch(buyer.ID, enums.PaymentMethodPaystack, 5000)
	f, session := verifyFixture(t, buyer, batch)

	require.NoError(t, f.svc.ExpireBatch(context.Background(), batch.ID))

	assert.Equal(t, enums.PaymentStatusFailed, batch.Status)
	assert.Equal(t, enums.PaymentStatusFailed, session.Status)
	require.NotNil(t, session.FailureReason)
	assert.Equal(t, expiredReason, *session.FailureReason)

	require.Len(t, f.ledger.released, 1)
	require.Len(t, f.emitter.events, 1)
	assert.Equal(t, enums.OutboxEventPaymentExpired, f.emitter.events[0].EventType)

	// a second expiry pass finds nothing to do
	require.NoError(t, f.svc.ExpireBatch(context.Background(), batch.ID))
	assert.Len(t, f.ledger.released, 1)
}

func TestExpireBatchSkipsCash(t *testing.T) {
	t.Parallel()

	buyer := testBuyer()
	batch := pendingBatch(buyer.ID, enums.PaymentMethodCash, 3000)
	f := newFixture(t, batch, buyer)

	require.NoError(t, f.svc.ExpireBatch(context.Background(), batch.ID))

	assert.Equal(t, enums.PaymentStatusPending, batch.Status)
	assert.Empty(t, f.ledger.released)
	assert.Empty(t, f.emitter.events)
}
