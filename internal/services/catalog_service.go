package services

import (
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"kitstore/internal/domain"
	"kitstore/internal/repos"
)

// ErrNotFound covers missing products and orders the caller may not see.
var ErrNotFound = errors.New("not found")

type CatalogService struct {
	Prods *repos.ProductRepo
}

func NewCatalogService(prods *repos.ProductRepo) *CatalogService {
	return &CatalogService{Prods: prods}
}

func (s *CatalogService) ListProducts() ([]domain.Product, error) {
	return s.Prods.List()
}

func (s *CatalogService) GetProduct(id string) (domain.Product, error) {
	p, err := s.Prods.Get(id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Product{}, ErrNotFound
	}
	return p, err
}

func (s *CatalogService) CreateProduct(p domain.Product) (domain.Product, error) {
	p.ID = uuid.NewString()
	if err := s.Prods.Insert(p); err != nil {
		return domain.Product{}, err
	}
	return s.Prods.Get(p.ID)
}

func (s *CatalogService) UpdateProduct(p domain.Product) (domain.Product, error) {
	n, err := s.Prods.Update(p)
	if err != nil {
		return domain.Product{}, err
	}
	if n == 0 {
		return domain.Product{}, ErrNotFound
	}
	return s.Prods.Get(p.ID)
}

func (s *CatalogService) DeleteProduct(id string) error {
	n, err := s.Prods.Delete(id)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
