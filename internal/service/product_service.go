package service

import (
	"context"
	"errors"
	"fmt"

	"inventory-api/internal/model"
	"inventory-api/internal/repository"
	ws "inventory-api/internal/websocket"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DTOs
type AddProductRequest struct {
	ProductName     string          `json:"product_name" binding:"required"`
	Company         string          `json:"company" binding:"required"`
	Category        string          `json:"category"`
	StockQuantity   int             `json:"stock_quantity" binding:"required,gt=0"`
	ActualPrice     decimal.Decimal `json:"actual_price"`
	SellingPrice    decimal.Decimal `json:"selling_price"`
	TimeForDelivery string          `json:"time_for_delivery"`
}

type UpdateProductRequest struct {
	SellingPrice  decimal.Decimal `json:"selling_price"`
	ActualPrice   decimal.Decimal `json:"actual_price"`
	StockQuantity int             `json:"stock_quantity"`
}

// ProductResponse hides ActualPrice from non-admin callers: cost fields are
// role-gated.
type ProductResponse struct {
	ID              uuid.UUID        `json:"id"`
	Name            string           `json:"name"`
	Company         string           `json:"company"`
	Category        string           `json:"category"`
	StockQuantity   int              `json:"stock_quantity"`
	SellingPrice    decimal.Decimal  `json:"selling_price"`
	ActualPrice     *decimal.Decimal `json:"actual_price,omitempty"`
	TimeForDelivery string           `json:"time_for_delivery"`
}

type ProductService interface {
	List(ctx context.Context, role string, page, limit int, sort string) ([]ProductResponse, int64, error)
	// AddProduct inserts a new product, or, when a product with the same
	// name and company already exists, restocks it and overwrites its
	// prices (admin edit semantics; purchase intake blends instead).
	AddProduct(ctx context.Context, role string, req AddProductRequest) (*ProductResponse, error)
	UpdateProduct(ctx context.Context, role string, id string, req UpdateProductRequest) (*ProductResponse, error)
	DeleteProduct(ctx context.Context, id string) error
	Search(ctx context.Context, role, name string) ([]ProductResponse, error)
}

type productService struct {
	productRepo repository.ProductRepository
	txManager   repository.TransactionManager
	hub         *ws.Hub
	logger      *zap.Logger
}

func NewProductService(
	productRepo repository.ProductRepository,
	txManager repository.TransactionManager,
	hub *ws.Hub,
	logger *zap.Logger,
) ProductService {
	return &productService{
		productRepo: productRepo,
		txManager:   txManager,
		hub:         hub,
		logger:      logger,
	}
}

// listSortColumns whitelists the order-by values accepted from clients.
var listSortColumns = map[string]string{
	"name":           "name",
	"company":        "company",
	"category":       "category",
	"stock_quantity": "stock_quantity",
	"selling_price":  "selling_price",
}

func (s *productService) List(ctx context.Context, role string, page, limit int, sort string) ([]ProductResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	column, ok := listSortColumns[sort]
	if !ok {
		column = "name"
	}

	products, total, err := s.productRepo.List(ctx, page, limit, column)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}

	res := make([]ProductResponse, 0, len(products))
	for i := range products {
		res = append(res, toProductResponse(&products[i], role))
	}
	return res, total, nil
}

func (s *productService) AddProduct(ctx context.Context, role string, req AddProductRequest) (*ProductResponse, error) {
	var out *ProductResponse
	var event ws.StockEvent

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		existing, err := s.productRepo.FindByNameAndCompany(txCtx, req.ProductName, req.Company)
		switch {
		case err == nil:
			product, err := s.productRepo.FindByIDForUpdate(txCtx, existing.ID)
			if err != nil {
				return fmt.Errorf("failed to lock product: %w", err)
			}
			product.StockQuantity += req.StockQuantity
			product.ActualPrice = req.ActualPrice
			product.SellingPrice = req.SellingPrice
			if err := s.productRepo.Save(txCtx, product); err != nil {
				return fmt.Errorf("failed to restock product: %w", err)
			}
			res := toProductResponse(product, role)
			out = &res
			event = ws.StockEvent{Event: "update", ProductID: product.ID.String(), Stock: product.StockQuantity}
			return nil
		case errors.Is(err, gorm.ErrRecordNotFound):
			product := model.Product{
				Name:            req.ProductName,
				Company:         req.Company,
				Category:        req.Category,
				StockQuantity:   req.StockQuantity,
				ActualPrice:     req.ActualPrice,
				SellingPrice:    req.SellingPrice,
				TimeForDelivery: req.TimeForDelivery,
			}
			if err := s.productRepo.Create(txCtx, &product); err != nil {
				return fmt.Errorf("failed to create product: %w", err)
			}
			res := toProductResponse(&product, role)
			out = &res
			event = ws.StockEvent{Event: "update", ProductID: product.ID.String(), Stock: product.StockQuantity}
			return nil
		default:
			return fmt.Errorf("failed to look up product: %w", err)
		}
	})
	if err != nil {
		return nil, err
	}

	s.hub.Publish(event)
	s.logger.Info("product added",
		zap.String("name", req.ProductName),
		zap.String("company", req.Company))
	return out, nil
}

func (s *productService) UpdateProduct(ctx context.Context, role string, id string, req UpdateProductRequest) (*ProductResponse, error) {
	productID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid product id", ErrValidation)
	}
	if req.StockQuantity < 0 {
		return nil, fmt.Errorf("%w: stock_quantity must not be negative", ErrValidation)
	}

	var out *ProductResponse
	var event ws.StockEvent

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		product, err := s.productRepo.FindByIDForUpdate(txCtx, productID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: product %s", ErrNotFound, id)
			}
			return fmt.Errorf("failed to lock product: %w", err)
		}

		product.SellingPrice = req.SellingPrice
		product.ActualPrice = req.ActualPrice
		product.StockQuantity = req.StockQuantity
		if err := s.productRepo.Save(txCtx, product); err != nil {
			return fmt.Errorf("failed to update product: %w", err)
		}

		res := toProductResponse(product, role)
		out = &res
		event = ws.StockEvent{Event: "update", ProductID: product.ID.String(), Stock: product.StockQuantity}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.hub.Publish(event)
	return out, nil
}

func (s *productService) DeleteProduct(ctx context.Context, id string) error {
	productID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("%w: invalid product id", ErrValidation)
	}

	if _, err := s.productRepo.FindByID(ctx, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: product %s", ErrNotFound, id)
		}
		return fmt.Errorf("failed to load product: %w", err)
	}

	if err := s.productRepo.SoftDelete(ctx, productID); err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	s.hub.Publish(ws.StockEvent{Event: "delete", ProductID: id, Stock: 0})
	s.logger.Info("product soft-deleted", zap.String("product_id", id))
	return nil
}

func (s *productService) Search(ctx context.Context, role, name string) ([]ProductResponse, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: product name is required for search", ErrValidation)
	}

	products, err := s.productRepo.SearchByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}

	res := make([]ProductResponse, 0, len(products))
	for i := range products {
		res = append(res, toProductResponse(&products[i], role))
	}
	return res, nil
}

func toProductResponse(p *model.Product, role string) ProductResponse {
	res := ProductResponse{
		ID:              p.ID,
		Name:            p.Name,
		Company:         p.Company,
		Category:        p.Category,
		StockQuantity:   p.StockQuantity,
		SellingPrice:    p.SellingPrice,
		TimeForDelivery: p.TimeForDelivery,
	}
	if role == model.RoleAdmin {
		cost := p.ActualPrice
		res.ActualPrice = &cost
	}
	return res
}
