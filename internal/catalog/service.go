package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/riezafm/levelpos-backend/internal/inventory"
	"github.com/riezafm/levelpos-backend/pkg/db"
	"github.com/riezafm/levelpos-backend/pkg/db/models"
	pkgerrors "github.com/riezafm/levelpos-backend/pkg/errors"
	"github.com/riezafm/levelpos-backend/pkg/logger"
	"github.com/riezafm/levelpos-backend/pkg/types"
)

// maxCategoryDepth bounds the category tree walk.
const maxCategoryDepth = 10

// Service manages the product catalog: categories, products, reseller
// price overrides and manual restocks.
type Service struct {
	db   *db.Client
	logg *logger.Logger
}

func NewService(client *db.Client, logg *logger.Logger) *Service {
	return &Service{db: client, logg: logg}
}

// CreateCategoryInput carries the fields for a new category node.
type CreateCategoryInput struct {
	Name        string
	Description *string
	ParentID    *uuid.UUID
}

// CreateCategory adds a category, validating that the parent chain is
// acyclic and within depth.
func (s *Service) CreateCategory(ctx context.Context, input CreateCategoryInput) (*models.Category, error) {
	if input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category name is required")
	}

	var created *models.Category
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		if input.ParentID != nil {
			if err := validateCategoryChain(ctx, tx, *input.ParentID); err != nil {
				return err
			}
		}
		category := &models.Category{
			ID:               uuid.New(),
			Name:             input.Name,
			Description:      input.Description,
			ParentCategoryID: input.ParentID,
			IsActive:         true,
		}
		if err := tx.Create(category).Error; err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist category")
		}
		created = category
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// CreateProductInput carries the fields for a new catalog entry.
type CreateProductInput struct {
	Name          string
	Description   *string
	SKU           string
	Barcode       *string
	CategoryID    uuid.UUID
	BasePrice     decimal.Decimal
	CostPrice     decimal.Decimal
	InitialStock  int
	MinStockLevel int
	Weight        *decimal.Decimal
	Dimensions    *types.Dimensions
}

// CreateProduct adds a product. Initial stock arrives through the
// inventory ledger so the movement history starts at row one.
func (s *Service) CreateProduct(ctx context.Context, input CreateProductInput) (*models.Product, error) {
	if input.Name == "" || input.SKU == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name and sku are required")
	}
	if input.BasePrice.IsNegative() || input.CostPrice.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "prices cannot be negative")
	}
	if input.InitialStock < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "initial stock cannot be negative")
	}

	var created *models.Product
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		var category models.Category
		if err := tx.First(&category, "id = ?", input.CategoryID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeValidation, "category does not exist").
					WithDetails(map[string]any{"category_id": input.CategoryID})
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load category")
		}

		product := &models.Product{
			ID:            uuid.New(),
			Name:          input.Name,
			Description:   input.Description,
			SKU:           input.SKU,
			Barcode:       input.Barcode,
			CategoryID:    input.CategoryID,
			BasePrice:     input.BasePrice,
			CostPrice:     input.CostPrice,
			MinStockLevel: input.MinStockLevel,
			IsActive:      true,
			Weight:        input.Weight,
			Dimensions:    input.Dimensions,
		}
		if err := tx.Create(product).Error; err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "sku already exists").
					WithDetails(map[string]any{"sku": input.SKU})
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist product")
		}

		if input.InitialStock > 0 {
			if err := inventory.Restock(ctx, tx, product.ID, input.InitialStock, nil, nil); err != nil {
				return err
			}
			product.StockQuantity = input.InitialStock
		}
		created = product
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// SetResellerPriceInput scopes an override to exactly one of a profile
// or a level.
type SetResellerPriceInput struct {
	ProductID         uuid.UUID
	ResellerProfileID *uuid.UUID
	ResellerLevel     *int
	Price             decimal.Decimal
}

// SetResellerPrice records a new price override. Earlier overrides in
// the same scope stay in place; resolution picks the newest active row.
func (s *Service) SetResellerPrice(ctx context.Context, input SetResellerPriceInput) (*models.ProductResellerPrice, error) {
	if (input.ResellerProfileID == nil) == (input.ResellerLevel == nil) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "exactly one of profile or level scope must be set")
	}
	if input.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}

	var created *models.ProductResellerPrice
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		var product models.Product
		if err := tx.First(&product, "id = ?", input.ProductID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}

		row := &models.ProductResellerPrice{
			ID:                uuid.New(),
			ProductID:         input.ProductID,
			ResellerProfileID: input.ResellerProfileID,
			ResellerLevel:     input.ResellerLevel,
			Price:             input.Price,
			IsActive:          true,
		}
		if err := tx.Create(row).Error; err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist override")
		}
		created = row
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Restock receives stock for a product through the inventory ledger.
func (s *Service) Restock(ctx context.Context, productID uuid.UUID, quantity int, createdBy *uuid.UUID) error {
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		return inventory.Restock(ctx, tx, productID, quantity, nil, createdBy)
	})
	if err != nil {
		return err
	}
	ctx = s.logg.WithField(ctx, "product_id", productID.String())
	s.logg.Info(ctx, "product restocked")
	return nil
}

// validateCategoryChain walks up from the proposed parent; the chain
// must reach a root without cycles inside the depth bound.
func validateCategoryChain(ctx context.Context, tx *gorm.DB, parentID uuid.UUID) error {
	visited := map[uuid.UUID]struct{}{}
	current := parentID
	for hops := 0; hops < maxCategoryDepth; hops++ {
		if _, seen := visited[current]; seen {
			return pkgerrors.New(pkgerrors.CodeValidation, "category tree contains a cycle")
		}
		visited[current] = struct{}{}

		var node models.Category
		if err := tx.WithContext(ctx).First(&node, "id = ?", current).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeValidation, "parent category does not exist").
					WithDetails(map[string]any{"parent_id": current})
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load category")
		}
		if node.ParentCategoryID == nil {
			return nil
		}
		current = *node.ParentCategoryID
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "category chain exceeds maximum depth")
}
