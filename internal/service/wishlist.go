package service

import (
	"context"

	"go-storefront/internal/model"
	"go-storefront/internal/repository"
	"go-storefront/pkg/apperror"
)

type WishlistService struct {
	wishlist *repository.WishlistRepo
	catalog  *repository.CatalogRepo
}

func NewWishlistService(wishlist *repository.WishlistRepo, catalog *repository.CatalogRepo) *WishlistService {
	return &WishlistService{wishlist: wishlist, catalog: catalog}
}

// Add 重复添加返回已有的行
func (s *WishlistService) Add(ctx context.Context, userID uint, sku string) (*model.WishlistItem, error) {
	if _, err := s.catalog.GetProduct(ctx, sku); err != nil {
		return nil, err
	}
	item, err := s.wishlist.Find(ctx, userID, sku)
	if err == nil {
		return item, nil
	}
	if !apperror.IsNotFound(err) {
		return nil, err
	}

	item = &model.WishlistItem{UserID: userID, ProductSKU: sku}
	if err := s.wishlist.Create(ctx, item); err != nil {
		// 并发添加时唯一索引冲突, 取回已存在的行
		if existing, ferr := s.wishlist.Find(ctx, userID, sku); ferr == nil {
			return existing, nil
		}
		return nil, err
	}
	return item, nil
}

func (s *WishlistService) Remove(ctx context.Context, userID uint, sku string) error {
	n, err := s.wishlist.Delete(ctx, userID, sku)
	if err != nil {
		return err
	}
	if n == 0 {
		return apperror.NotFound("%q is not in the wishlist", sku)
	}
	return nil
}

func (s *WishlistService) List(ctx context.Context, userID uint) ([]model.WishlistItem, error) {
	return s.wishlist.ListByUser(ctx, userID)
}

// Contains 商品是否已在用户收藏中
func (s *WishlistService) Contains(ctx context.Context, userID uint, sku string) (bool, error) {
	_, err := s.wishlist.Find(ctx, userID, sku)
	if err == nil {
		return true, nil
	}
	if apperror.IsNotFound(err) {
		return false, nil
	}
	return false, err
}
