package service

import (
	"context"
	"strings"
	"time"

	"fogonpos/backend/internal/domain"
	"fogonpos/backend/internal/store"
)

func (s *Service) ListProducts(ctx context.Context, token, category string) ([]domain.Product, error) {
	sess, err := s.sessions.Require(token)
	if err != nil {
		return nil, err
	}
	return s.repo.ListProducts(ctx, sess.TenantID, sess.BranchID, category)
}

func (s *Service) CreateProduct(ctx context.Context, token string, req domain.ProductCreateRequest) (*domain.Product, error) {
	sess, err := s.sessions.RequireRole(token, domain.RoleAdmin)
	if err != nil {
		return nil, err
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Category = strings.TrimSpace(req.Category)
	if req.Name == "" || req.Price.IsNegative() {
		return nil, store.ErrValidation
	}

	now := time.Now().UTC()
	return s.repo.CreateProduct(ctx, domain.Product{
		TenantID:  sess.TenantID,
		BranchID:  sess.BranchID,
		Name:      req.Name,
		Category:  req.Category,
		Price:     req.Price,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

func (s *Service) UpdateProduct(ctx context.Context, token, productID string, req domain.ProductUpdateRequest) (*domain.Product, error) {
	if _, err := s.sessions.RequireRole(token, domain.RoleAdmin); err != nil {
		return nil, err
	}

	product, err := s.repo.GetProductByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		product.Name = strings.TrimSpace(*req.Name)
	}
	if req.Category != nil {
		product.Category = strings.TrimSpace(*req.Category)
	}
	if req.Price != nil {
		if req.Price.IsNegative() {
			return nil, store.ErrValidation
		}
		product.Price = *req.Price
	}
	if req.Active != nil {
		product.Active = *req.Active
	}
	if product.Name == "" {
		return nil, store.ErrValidation
	}
	product.UpdatedAt = time.Now().UTC()

	return s.repo.UpdateProduct(ctx, *product)
}

func (s *Service) DeleteProduct(ctx context.Context, token, productID string) error {
	if _, err := s.sessions.RequireRole(token, domain.RoleAdmin); err != nil {
		return err
	}
	return s.repo.DeleteProduct(ctx, productID)
}
