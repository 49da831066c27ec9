package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"art_studio_backend/internal/models"
	"art_studio_backend/internal/repositories"
)

type CostOfSaleRequest struct {
	ItemID            int64           `json:"item_id" binding:"required"`
	QuantityPerPerson decimal.Decimal `json:"quantity_per_person"`
}

type UpdateCostOfSaleRequest struct {
	QuantityPerPerson decimal.Decimal `json:"quantity_per_person"`
}

// CostOfSaleService configures which items bookings consume and how much per person.
type CostOfSaleService interface {
	List(ctx context.Context) ([]models.CostOfSaleItem, error)
	Create(ctx context.Context, req CostOfSaleRequest) (*models.CostOfSaleItem, error)
	Update(ctx context.Context, id int64, req UpdateCostOfSaleRequest) (*models.CostOfSaleItem, error)
	Delete(ctx context.Context, id int64) error
}

type costOfSaleService struct {
	repo     repositories.CostOfSaleRepository
	itemRepo repositories.InventoryRepository
	db       repositories.SQLExecutor
}

// NewCostOfSaleService creates a new instance of CostOfSaleService.
func NewCostOfSaleService(repo repositories.CostOfSaleRepository, itemRepo repositories.InventoryRepository, db repositories.SQLExecutor) CostOfSaleService {
	return &costOfSaleService{repo: repo, itemRepo: itemRepo, db: db}
}

func (s *costOfSaleService) List(ctx context.Context) ([]models.CostOfSaleItem, error) {
	entries, err := s.repo.ListCostOfSaleItems(ctx, s.db)
	if err != nil {
		return nil, fmt.Errorf("failed to list cost of sale items: %w", err)
	}
	return entries, nil
}

func (s *costOfSaleService) Create(ctx context.Context, req CostOfSaleRequest) (*models.CostOfSaleItem, error) {
	if !req.QuantityPerPerson.IsPositive() {
		return nil, validationErrorf("quantity_per_person must be positive")
	}
	if err := checkScale("quantity_per_person", req.QuantityPerPerson); err != nil {
		return nil, err
	}
	if _, err := s.itemRepo.GetItemByID(ctx, s.db, req.ItemID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: ID %d", ErrItemNotFound, req.ItemID)
		}
		return nil, fmt.Errorf("failed to validate inventory item: %w", err)
	}

	entry := &models.CostOfSaleItem{ItemID: req.ItemID, QuantityPerPerson: req.QuantityPerPerson}
	if err := s.repo.CreateCostOfSaleItem(ctx, s.db, entry); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, fmt.Errorf("%w: item %d", ErrCostOfSaleExists, req.ItemID)
		}
		return nil, fmt.Errorf("failed to create cost of sale item: %w", err)
	}
	return s.get(ctx, entry.ID)
}

func (s *costOfSaleService) Update(ctx context.Context, id int64, req UpdateCostOfSaleRequest) (*models.CostOfSaleItem, error) {
	if !req.QuantityPerPerson.IsPositive() {
		return nil, validationErrorf("quantity_per_person must be positive")
	}
	if err := checkScale("quantity_per_person", req.QuantityPerPerson); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateQuantityPerPerson(ctx, s.db, id, req.QuantityPerPerson); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: ID %d", ErrCostOfSaleNotFound, id)
		}
		return nil, fmt.Errorf("failed to update cost of sale item: %w", err)
	}
	return s.get(ctx, id)
}

func (s *costOfSaleService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.DeleteCostOfSaleItem(ctx, s.db, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("%w: ID %d", ErrCostOfSaleNotFound, id)
		}
		return fmt.Errorf("failed to delete cost of sale item: %w", err)
	}
	return nil
}

func (s *costOfSaleService) get(ctx context.Context, id int64) (*models.CostOfSaleItem, error) {
	entry, err := s.repo.GetCostOfSaleItem(ctx, s.db, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: ID %d", ErrCostOfSaleNotFound, id)
		}
		return nil, fmt.Errorf("failed to get cost of sale item: %w", err)
	}
	return entry, nil
}
