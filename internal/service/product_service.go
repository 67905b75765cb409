package service

import (
	"fmt"

	"github.com/bottega-next/internal/cache"
	"github.com/bottega-next/internal/models"
	"github.com/bottega-next/internal/repository"
)

// ProductService 商品服务
type ProductService struct {
	productRepo repository.ProductRepository
	listCache   *cache.TTLCache
}

// NewProductService 创建商品服务
func NewProductService(productRepo repository.ProductRepository, listCache *cache.TTLCache) *ProductService {
	return &ProductService{
		productRepo: productRepo,
		listCache:   listCache,
	}
}

// ProductPage 商品分页结果
type ProductPage struct {
	Products []models.Product `json:"products"`
	Total    int64            `json:"total"`
}

// ListActive 公开商品列表，带进程内 TTL 缓存
func (s *ProductService) ListActive(filter repository.ProductListFilter) (*ProductPage, error) {
	filter.OnlyActive = true

	key := fmt.Sprintf("products:%d:%d:%s", filter.Page, filter.PageSize, filter.Search)
	if s.listCache != nil {
		if cached, ok := s.listCache.Get(key); ok {
			if page, ok := cached.(*ProductPage); ok {
				return page, nil
			}
		}
	}

	products, total, err := s.productRepo.List(filter)
	if err != nil {
		return nil, err
	}
	page := &ProductPage{Products: products, Total: total}
	if s.listCache != nil {
		s.listCache.Set(key, page)
	}
	return page, nil
}

// Get 获取商品
func (s *ProductService) Get(id uint) (*models.Product, error) {
	product, err := s.productRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotAvailable
	}
	return product, nil
}

// Create 创建商品（管理端），并使列表缓存失效
func (s *ProductService) Create(product *models.Product) error {
	if err := s.productRepo.Create(product); err != nil {
		return err
	}
	s.invalidate()
	return nil
}

// Update 更新商品（管理端），并使列表缓存失效
func (s *ProductService) Update(product *models.Product) error {
	if err := s.productRepo.Update(product); err != nil {
		return err
	}
	s.invalidate()
	return nil
}

// Delete 删除商品（管理端），并使列表缓存失效
func (s *ProductService) Delete(id uint) error {
	if err := s.productRepo.Delete(id); err != nil {
		return err
	}
	s.invalidate()
	return nil
}

// List 管理端商品列表（不走缓存）
func (s *ProductService) List(filter repository.ProductListFilter) ([]models.Product, int64, error) {
	return s.productRepo.List(filter)
}

func (s *ProductService) invalidate() {
	if s.listCache == nil {
		return
	}
	s.listCache.Flush()
}
