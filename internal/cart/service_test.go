package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mensahkwame/bookmarket-backend/pkg/config"
	"github.com/mensahkwame/bookmarket-backend/pkg/db/models"
	"github.com/mensahkwame/bookmarket-backend/pkg/enums"
	pkgerrors "github.com/mensahkwame/bookmarket-backend/pkg/errors"
)

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubListingLoader struct {
	listings map[uuid.UUID]*models.Listing
}

func (s *stubListingLoader) GetByID(_ context.Context, id uuid.UUID) (*models.Listing, error) {
	listing, ok := s.listings[id]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
	}
	return listing, nil
}

type stubCartRepo struct {
	cart  *models.CartRecord
	items []models.CartItem
}

func (s *stubCartRepo) WithTx(tx *gorm.DB) CartRepository { return s }

func (s *stubCartRepo) Create(_ context.Context, record *models.CartRecord) (*models.CartRecord, error) {
	record.ID = uuid.New()
	record.Status = enums.CartStatusActive
	s.cart = record
	return record, nil
}

func (s *stubCartRepo) FindActiveByBuyer(_ context.Context, buyerID uuid.UUID) (*models.CartRecord, error) {
	if s.cart == nil || s.cart.BuyerID != buyerID || s.cart.Status != enums.CartStatusActive {
		return nil, gorm.ErrRecordNotFound
	}
	snapshot := *s.cart
	snapshot.Items = append([]models.CartItem(nil), s.items...)
	return &snapshot, nil
}

func (s *stubCartRepo) FindItem(_ context.Context, cartID, itemID uuid.UUID) (*models.CartItem, error) {
	for i := range s.items {
		if s.items[i].ID == itemID && s.items[i].CartID == cartID {
			item := s.items[i]
			return &item, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubCartRepo) SaveItem(_ context.Context, item *models.CartItem) (*models.CartItem, error) {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
		s.items = append(s.items, *item)
		return item, nil
	}
	for i := range s.items {
		if s.items[i].ID == item.ID {
			s.items[i] = *item
			return item, nil
		}
	}
	s.items = append(s.items, *item)
	return item, nil
}

func (s *stubCartRepo) DeleteItem(_ context.Context, cartID, itemID uuid.UUID) error {
	kept := s.items[:0]
	for _, item := range s.items {
		if item.ID != itemID || item.CartID != cartID {
			kept = append(kept, item)
		}
	}
	s.items = kept
	return nil
}

func (s *stubCartRepo) DeleteItems(_ context.Context, cartID uuid.UUID) error {
	s.items = nil
	return nil
}

func (s *stubCartRepo) MarkConverted(_ context.Context, cartID, batchID uuid.UUID) error {
	if s.cart != nil && s.cart.ID == cartID {
		s.cart.Status = enums.CartStatusConverted
		s.cart.BatchID = &batchID
	}
	return nil
}

type stubAvailability struct {
	available map[uuid.UUID]int
}

func (s *stubAvailability) Available(_ context.Context, _ *gorm.DB, listingID uuid.UUID) (int, error) {
	if s.available == nil {
		return 99, nil
	}
	return s.available[listingID], nil
}

func newTestService(t *testing.T, repo *stubCartRepo, loader *stubListingLoader) Service {
	t.Helper()
	svc, err := NewService(repo, stubTxRunner{}, loader, &stubAvailability{}, config.CheckoutConfig{CartMaxQtyPerLine: 10})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func seedListing(sellerID uuid.UUID) *models.Listing {
	return &models.Listing{
		ID:           uuid.New(),
		SellerID:     sellerID,
		Title:        "Discrete Mathematics",
		Status:       enums.ListingStatusActive,
		Modes:        []string{"purchase", "exchange"},
		PricePesewas: 2000,
	}
}

func TestAddItemCreatesLine(t *testing.T) {
	t.Parallel()

	buyer := uuid.New()
	listing := seedListing(uuid.New())
	repo := &stubCartRepo{}
	svc := newTestService(t, repo, &stubListingLoader{
		listings: map[uuid.UUID]*models.Listing{listing.ID: listing},
	})

	record, err := svc.AddItem(context.Background(), buyer, AddItemInput{
		ListingID: listing.ID,
		Mode:      enums.TransactionModePurchase,
		Quantity:  2,
	})
	if err != nil {
		t.Fatalf("add item: %v", err)
	}
	if len(record.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(record.Items))
	}
	if record.Items[0].Quantity != 2 {
		t.Fatalf("unexpected quantity %d", record.Items[0].Quantity)
	}
	if record.Items[0].TitleSnapshot != "Discrete Mathematics" {
		t.Fatalf("title snapshot not cached: %q", record.Items[0].TitleSnapshot)
	}
	if record.Items[0].UnitPriceSnapshotPesewas != 2000 {
		t.Fatalf("price snapshot not cached: %d", record.Items[0].UnitPriceSnapshotPesewas)
	}
}

func TestAddItemMergesAndCaps(t *testing.T) {
	t.Parallel()

	buyer := uuid.New()
	listing := seedListing(uuid.New())
	repo := &stubCartRepo{}
	svc := newTestService(t, repo, &stubListingLoader{
		listings: map[uuid.UUID]*models.Listing{listing.ID: listing},
	})

	input := AddItemInput{ListingID: listing.ID, Mode: enums.TransactionModePurchase, Quantity: 6}
	if _, err := svc.AddItem(context.Background(), buyer, input); err != nil {
		t.Fatalf("first add: %v", err)
	}
	record, err := svc.AddItem(context.Background(), buyer, input)
	if err != nil {
		t.Fatalf("second add: %v", err)
	}
	if len(record.Items) != 1 {
		t.Fatalf("expected merged line, got %d items", len(record.Items))
	}
	if record.Items[0].Quantity != 10 {
		t.Fatalf("expected quantity capped at 10, got %d", record.Items[0].Quantity)
	}
}

func TestAddItemSameListingDifferentModes(t *testing.T) {
	t.Parallel()

	buyer := uuid.New()
	listing := seedListing(uuid.New())
	repo := &stubCartRepo{}
	svc := newTestService(t, repo, &stubListingLoader{
		listings: map[uuid.UUID]*models.Listing{listing.ID: listing},
	})

	if _, err := svc.AddItem(context.Background(), buyer, AddItemInput{
		ListingID: listing.ID, Mode: enums.TransactionModePurchase, Quantity: 1,
	}); err != nil {
		t.Fatalf("purchase add: %v", err)
	}
	record, err := svc.AddItem(context.Background(), buyer, AddItemInput{
		ListingID: listing.ID, Mode: enums.TransactionModeExchange, Quantity: 1,
	})
	if err != nil {
		t.Fatalf("exchange add: %v", err)
	}
	if len(record.Items) != 2 {
		t.Fatalf("expected 2 lines keyed by mode, got %d", len(record.Items))
	}
}

func TestAddItemRejectsOwnListing(t *testing.T) {
	t.Parallel()

	buyer := uuid.New()
	listing := seedListing(buyer)
	svc := newTestService(t, &stubCartRepo{}, &stubListingLoader{
		listings: map[uuid.UUID]*models.Listing{listing.ID: listing},
	})

	_, err := svc.AddItem(context.Background(), buyer, AddItemInput{
		ListingID: listing.ID, Mode: enums.TransactionModePurchase, Quantity: 1,
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestAddItemRejectsUnofferedMode(t *testing.T) {
	t.Parallel()

	buyer := uuid.New()
	listing := seedListing(uuid.New())
	svc := newTestService(t, &stubCartRepo{}, &stubListingLoader{
		listings: map[uuid.UUID]*models.Listing{listing.ID: listing},
	})

	_, err := svc.AddItem(context.Background(), buyer, AddItemInput{
		ListingID: listing.ID, Mode: enums.TransactionModeRent, Quantity: 1,
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestUpdateQuantityZeroRemovesLine(t *testing.T) {
	t.Parallel()

	buyer := uuid.New()
	listing := seedListing(uuid.New())
	repo := &stubCartRepo{}
	svc := newTestService(t, repo, &stubListingLoader{
		listings: map[uuid.UUID]*models.Listing{listing.ID: listing},
	})

	record, err := svc.AddItem(context.Background(), buyer, AddItemInput{
		ListingID: listing.ID, Mode: enums.TransactionModePurchase, Quantity: 3,
	})
	if err != nil {
		t.Fatalf("add item: %v", err)
	}

	record, err = svc.UpdateQuantity(context.Background(), buyer, record.Items[0].ID, 0)
	if err != nil {
		t.Fatalf("update quantity: %v", err)
	}
	if len(record.Items) != 0 {
		t.Fatalf("expected empty cart, got %d items", len(record.Items))
	}
}

func TestUpdateQuantityClampsToAvailableStock(t *testing.T) {
	t.Parallel()

	buyer := uuid.New()
	listing := seedListing(uuid.New())
	repo := &stubCartRepo{}
	loader := &stubListingLoader{listings: map[uuid.UUID]*models.Listing{listing.ID: listing}}
	svc, err := NewService(repo, stubTxRunner{}, loader,
		&stubAvailability{available: map[uuid.UUID]int{listing.ID: 3}},
		config.CheckoutConfig{CartMaxQtyPerLine: 10})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	record, err := svc.AddItem(context.Background(), buyer, AddItemInput{
		ListingID: listing.ID, Mode: enums.TransactionModePurchase, Quantity: 2,
	})
	if err != nil {
		t.Fatalf("add item: %v", err)
	}

	record, err = svc.UpdateQuantity(context.Background(), buyer, record.Items[0].ID, 8)
	if err != nil {
		t.Fatalf("update quantity: %v", err)
	}
	if record.Items[0].Quantity != 3 {
		t.Fatalf("expected quantity clamped to 3, got %d", record.Items[0].Quantity)
	}
}

func TestUpdateQuantityUnknownItem(t *testing.T) {
	t.Parallel()

	buyer := uuid.New()
	repo := &stubCartRepo{}
	svc := newTestService(t, repo, &stubListingLoader{listings: map[uuid.UUID]*models.Listing{}})

	if _, err := svc.GetActive(context.Background(), buyer); err != nil {
		t.Fatalf("get active: %v", err)
	}
	_, err := svc.UpdateQuantity(context.Background(), buyer, uuid.New(), 2)
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestGetActiveCreatesCart(t *testing.T) {
	t.Parallel()

	buyer := uuid.New()
	repo := &stubCartRepo{}
	svc := newTestService(t, repo, &stubListingLoader{listings: map[uuid.UUID]*models.Listing{}})

	record, err := svc.GetActive(context.Background(), buyer)
	if err != nil {
		t.Fatalf("get active: %v", err)
	}
	if record.BuyerID != buyer || record.Status != enums.CartStatusActive {
		t.Fatalf("unexpected cart %+v", record)
	}
}

func TestClearEmptiesCart(t *testing.T) {
	t.Parallel()

	buyer := uuid.New()
	listing := seedListing(uuid.New())
	repo := &stubCartRepo{}
	svc := newTestService(t, repo, &stubListingLoader{
		listings: map[uuid.UUID]*models.Listing{listing.ID: listing},
	})

	if _, err := svc.AddItem(context.Background(), buyer, AddItemInput{
		ListingID: listing.ID, Mode: enums.TransactionModePurchase, Quantity: 1,
	}); err != nil {
		t.Fatalf("add item: %v", err)
	}
	if err := svc.Clear(context.Background(), buyer); err != nil {
		t.Fatalf("clear: %v", err)
	}
	record, err := svc.GetActive(context.Background(), buyer)
	if err != nil {
		t.Fatalf("get active: %v", err)
	}
	if len(record.Items) != 0 {
		t.Fatalf("expected empty cart, got %d items", len(record.Items))
	}
}
