package payments

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mensahkwame/bookmarket-backend/pkg/db/models"
)

// SessionRepository defines the persistence surface for payment sessions.
type SessionRepository interface {
	WithTx(tx *gorm.DB) SessionRepository
	Create(ctx context.Context, session *models.PaymentSession) (*models.PaymentSession, error)
	FindByBatch(ctx context.Context, batchID uuid.UUID) (*models.PaymentSession, error)
	FindByReference(ctx context.Context, reference string) (*models.PaymentSession, error)
	SetRedirect(ctx context.Context, sessionID uuid.UUID, authorizationURL, accessCode string) error
	RecordOutcome(ctx context.Context, sessionID uuid.UUID, outcome SessionOutcome) error
}
