package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sweetworks/sweetshop-api/internal/core/domain"
	"github.com/sweetworks/sweetshop-api/internal/core/port"
	"github.com/sweetworks/sweetshop-api/internal/repository"
)

var (
	// ErrSweetNotFound indicates the product does not exist.
	ErrSweetNotFound = errors.New("sweet not found")
	// ErrSweetExists indicates a product with the same name already exists.
	ErrSweetExists = errors.New("sweet already exists")
	// ErrInvalidSweet indicates the product fields fail validation.
	ErrInvalidSweet = errors.New("invalid sweet")
	// ErrInvalidQuantity indicates a non-positive purchase or restock amount.
	ErrInvalidQuantity = errors.New("quantity must be positive")
	// ErrInsufficientStock indicates the purchase would oversell inventory.
	ErrInsufficientStock = errors.New("insufficient stock")
)

// SweetInput carries the fields for creating or updating a product.
type SweetInput struct {
	Name        string
	Category    string
	PriceCents  int64
	Quantity    int
	Description string
	ImageURL    string
}

// SweetService manages the product catalog and purchases.
type SweetService struct {
	sweets    port.SweetRepository
	purchases port.PurchaseRepository
	publisher port.EventPublisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewSweetService constructs a SweetService. The publisher is optional.
func NewSweetService(
	sweets port.SweetRepository,
	purchases port.PurchaseRepository,
	publisher port.EventPublisher,
	logger *zap.Logger,
) *SweetService {
	if logger == nil {
		logger = zap.NewNop()
	}

	service := &SweetService{
		sweets:    sweets,
		purchases: purchases,
		publisher: publisher,
		logger:    logger,
	}
	service.now = func() time.Time { return time.Now().UTC() }
	return service
}

// WithClock overrides the service clock for deterministic tests.
func (s *SweetService) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

func validateSweetInput(input SweetInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidSweet)
	}
	if !domain.KnownCategory(input.Category) {
		return fmt.Errorf("%w: unknown category %q", ErrInvalidSweet, input.Category)
	}
	if input.PriceCents < 0 {
		return fmt.Errorf("%w: price must not be negative", ErrInvalidSweet)
	}
	if input.Quantity < 0 {
		return fmt.Errorf("%w: quantity must not be negative", ErrInvalidSweet)
	}
	return nil
}

// Create adds a new product to the catalog.
func (s *SweetService) Create(ctx context.Context, input SweetInput) (*domain.Sweet, error) {
	if err := validateSweetInput(input); err != nil {
		return nil, err
	}

	now := s.now()
	sweet := domain.Sweet{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(input.Name),
		Category:    domain.SweetCategory(input.Category),
		PriceCents:  input.PriceCents,
		Quantity:    input.Quantity,
		Description: strings.TrimSpace(input.Description),
		ImageURL:    strings.TrimSpace(input.ImageURL),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.sweets.Create(ctx, sweet); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrSweetExists
		}
		return nil, fmt.Errorf("create sweet: %w", err)
	}

	s.logger.Info("Sweet created",
		zap.String("sweet_id", sweet.ID),
		zap.String("name", sweet.Name),
	)

	return &sweet, nil
}

// Get retrieves a single product.
func (s *SweetService) Get(ctx context.Context, id string) (*domain.Sweet, error) {
	sweet, err := s.sweets.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSweetNotFound
		}
		return nil, fmt.Errorf("load sweet: %w", err)
	}

	return sweet, nil
}

// List returns a page of the catalog with the total count.
func (s *SweetService) List(ctx context.Context, page domain.Page) ([]domain.Sweet, int, error) {
	sweets, total, err := s.sweets.List(ctx, page)
	if err != nil {
		return nil, 0, fmt.Errorf("list sweets: %w", err)
	}

	return sweets, total, nil
}

// Search returns products matching the filter with the total match count.
func (s *SweetService) Search(ctx context.Context, filter domain.SweetFilter, page domain.Page) ([]domain.Sweet, int, error) {
	if filter.Category != nil && !domain.KnownCategory(string(*filter.Category)) {
		return nil, 0, fmt.Errorf("%w: unknown category %q", ErrInvalidSweet, *filter.Category)
	}

	sweets, total, err := s.sweets.Search(ctx, filter, page)
	if err != nil {
		return nil, 0, fmt.Errorf("search sweets: %w", err)
	}

	return sweets, total, nil
}

// Update overwrites a product's fields.
func (s *SweetService) Update(ctx context.Context, id string, input SweetInput) (*domain.Sweet, error) {
	if err := validateSweetInput(input); err != nil {
		return nil, err
	}

	sweet, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	sweet.Name = strings.TrimSpace(input.Name)
	sweet.Category = domain.SweetCategory(input.Category)
	sweet.PriceCents = input.PriceCents
	sweet.Quantity = input.Quantity
	sweet.Description = strings.TrimSpace(input.Description)
	sweet.ImageURL = strings.TrimSpace(input.ImageURL)
	sweet.UpdatedAt = s.now()

	if err := s.sweets.Update(ctx, *sweet); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrSweetNotFound
		case errors.Is(err, repository.ErrDuplicate):
			return nil, ErrSweetExists
		}
		return nil, fmt.Errorf("update sweet: %w", err)
	}

	return sweet, nil
}

// Delete removes a product from the catalog.
func (s *SweetService) Delete(ctx context.Context, id string) error {
	if err := s.sweets.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrSweetNotFound
		}
		return fmt.Errorf("delete sweet: %w", err)
	}

	return nil
}

// Purchase decrements stock atomically and records the purchase. Two
// concurrent purchases can never take the quantity below zero.
func (s *SweetService) Purchase(ctx context.Context, userID, sweetID string, quantity int) (*domain.Purchase, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	sweet, err := s.Get(ctx, sweetID)
	if err != nil {
		return nil, err
	}

	applied, err := s.sweets.AdjustQuantity(ctx, sweetID, -quantity)
	if err != nil {
		return nil, fmt.Errorf("decrement stock: %w", err)
	}
	if !applied {
		return nil, ErrInsufficientStock
	}

	now := s.now()
	purchase := domain.Purchase{
		ID:              uuid.NewString(),
		UserID:          userID,
		SweetID:         sweet.ID,
		SweetName:       sweet.Name,
		Quantity:        quantity,
		UnitPriceCents:  sweet.PriceCents,
		TotalPriceCents: sweet.PriceCents * int64(quantity),
		PurchasedAt:     now,
	}

	if err := s.purchases.Create(ctx, purchase); err != nil {
		// Return the stock so a failed history insert does not lose inventory.
		if _, restoreErr := s.sweets.AdjustQuantity(ctx, sweetID, quantity); restoreErr != nil {
			s.logger.Error("Failed to restore stock after purchase error",
				zap.String("sweet_id", sweetID),
				zap.Error(restoreErr),
			)
		}
		return nil, fmt.Errorf("record purchase: %w", err)
	}

	s.logger.Info("Sweet purchased",
		zap.String("user_id", userID),
		zap.String("sweet_id", sweetID),
		zap.Int("quantity", quantity),
	)

	if s.publisher != nil {
		event := domain.SweetPurchasedEvent{
			EventID:         uuid.NewString(),
			UserID:          userID,
			SweetID:         sweet.ID,
			Quantity:        quantity,
			TotalPriceCents: purchase.TotalPriceCents,
			PurchasedAt:     now,
		}
		if err := s.publisher.PublishSweetPurchased(ctx, event); err != nil {
			s.logger.Warn("Failed to publish sweet purchased event", zap.Error(err))
		}
	}

	return &purchase, nil
}

// Restock increases a product's stock.
func (s *SweetService) Restock(ctx context.Context, sweetID string, quantity int) (*domain.Sweet, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	applied, err := s.sweets.AdjustQuantity(ctx, sweetID, quantity)
	if err != nil {
		return nil, fmt.Errorf("increment stock: %w", err)
	}
	if !applied {
		return nil, ErrSweetNotFound
	}

	return s.Get(ctx, sweetID)
}

// PurchaseHistory returns a page of the user's purchases, newest first.
func (s *SweetService) PurchaseHistory(ctx context.Context, userID string, page domain.Page) ([]domain.Purchase, int, error) {
	purchases, total, err := s.purchases.ListByUser(ctx, userID, page)
	if err != nil {
		return nil, 0, fmt.Errorf("list purchases: %w", err)
	}

	return purchases, total, nil
}
