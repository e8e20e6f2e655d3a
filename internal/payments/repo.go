package payments

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mensahkwame/bookmarket-backend/pkg/db/models"
	"github.com/mensahkwame/bookmarket-backend/pkg/enums"
	pkgerrors "github.com/mensahkwame/bookmarket-backend/pkg/errors"
)

// SessionOutcome captures the result of a verification pass over one session.
type SessionOutcome struct {
	Status        enums.PaymentStatus
	GatewayStatus string
	FailureReason string
	VerifiedAt    *time.Time
}

// Repository exposes persistence operations for payment sessions.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a payment session repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) SessionRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Create inserts a new session row.
func (r *Repository) Create(ctx context.Context, session *models.PaymentSession) (*models.PaymentSession, error) {
	if session.Status == "" {
		session.Status = enums.PaymentStatusPending
	}
	if err := r.db.WithContext(ctx).Create(session).Error; err != nil {
		return nil, err
	}
	return session, nil
}

// FindByBatch loads the most recent session for a batch.
func (r *Repository) FindByBatch(ctx context.Context, batchID uuid.UUID) (*models.PaymentSession, error) {
	var session models.PaymentSession
	err := r.db.WithContext(ctx).
		Where("batch_id = ?", batchID).
		Order("created_at DESC").
		First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment session not found")
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// FindByReference loads a session by its gateway reference.
func (r *Repository) FindByReference(ctx context.Context, reference string) (*models.PaymentSession, error) {
	var session models.PaymentSession
	err := r.db.WithContext(ctx).
		Where("reference = ?", reference).
		First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment session not found")
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// SetRedirect stores the gateway redirect handle after a successful initialize.
func (r *Repository) SetRedirect(ctx context.Context, sessionID uuid.UUID, authorizationURL, accessCode string) error {
	return r.db.WithContext(ctx).
		Model(&models.PaymentSession{}).
		Where("id = ?", sessionID).
		Updates(map[string]any{
			"authorization_url": authorizationURL,
			"access_code":       accessCode,
		}).Error
}

// RecordOutcome stamps the session with the verified gateway state. The guard
// keeps a settled session from being overwritten by a late duplicate verify.
func (r *Repository) RecordOutcome(ctx context.Context, sessionID uuid.UUID, outcome SessionOutcome) error {
	updates := map[string]any{
		"status":         outcome.Status,
		"gateway_status": outcome.GatewayStatus,
	}
	if outcome.FailureReason != "" {
		updates["failure_reason"] = outcome.FailureReason
	}
	if outcome.VerifiedAt != nil {
		updates["verified_at"] = outcome.VerifiedAt
	}
	res := r.db.WithContext(ctx).
		Model(&models.PaymentSession{}).
		Where("id = ? AND status = ?", sessionID, enums.PaymentStatusPending).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "payment session already finalized")
	}
	return nil
}
