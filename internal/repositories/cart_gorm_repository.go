package repositories

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/apperror"
	"storefront/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMCartRepository is a GORM implementation of CartRepository.
type GORMCartRepository struct {
	db *gorm.DB
}

func NewGORMCartRepository(db *gorm.DB) *GORMCartRepository {
	return &GORMCartRepository{db: db}
}

func (r *GORMCartRepository) GetByUserID(ctx context.Context, userID string) (*models.Cart, error) {
	var cart models.Cart
	if err := r.db.WithContext(ctx).First(&cart, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("Cart not found")
		}
		return nil, fmt.Errorf("failed to get cart for user %s: %w", userID, err)
	}
	return &cart, nil
}

func (r *GORMCartRepository) LockByUserID(ctx context.Context, userID string) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&cart, "user_id = ?", userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("Cart not found")
		}
		return nil, fmt.Errorf("failed to lock cart for user %s: %w", userID, err)
	}
	return &cart, nil
}

// GetOrCreate returns the user's cart, creating it on first access. A concurrent
// creator losing the unique index race reads the winner's row.
func (r *GORMCartRepository) GetOrCreate(ctx context.Context, userID string) (*models.Cart, error) {
	cart, err := r.GetByUserID(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if !apperror.Is(err, apperror.KindNotFound) {
		return nil, err
	}

	cart = &models.Cart{UserID: userID}
	if err := r.db.WithContext(ctx).Create(cart).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return r.GetByUserID(ctx, userID)
		}
		return nil, fmt.Errorf("failed to create cart for user %s: %w", userID, err)
	}
	return cart, nil
}

func (r *GORMCartRepository) ListItems(ctx context.Context, cartID string) ([]models.CartItem, error) {
	var items []models.CartItem
	err := r.db.WithContext(ctx).
		Preload("Product", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Where("cart_id = ?", cartID).
		Order("id ASC").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list cart items: %w", err)
	}
	return items, nil
}

func (r *GORMCartRepository) GetItem(ctx context.Context, cartID string, itemID uint) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).
		Preload("Product", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Where("cart_id = ?", cartID).
		First(&item, itemID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("Cart item not found")
		}
		return nil, fmt.Errorf("failed to get cart item %d: %w", itemID, err)
	}
	return &item, nil
}

func (r *GORMCartRepository) AddQuantity(ctx context.Context, cartID, productID string, qty int) (*models.CartItem, error) {
	db := r.db.WithContext(ctx)
	increment := func() (bool, error) {
		res := db.Model(&models.CartItem{}).
			Where("cart_id = ? AND product_id = ?", cartID, productID).
			Update("quantity", gorm.Expr("quantity + ?", qty))
		if res.Error != nil {
			return false, fmt.Errorf("failed to increment cart item: %w", res.Error)
		}
		return res.RowsAffected > 0, nil
	}

	updated, err := increment()
	if err != nil {
		return nil, err
	}
	if !updated {
		item := &models.CartItem{CartID: cartID, ProductID: productID, Quantity: qty}
		err := db.Create(item).Error
		switch {
		case errors.Is(err, gorm.ErrDuplicatedKey):
			// Another request created the line first.
			if updated, err = increment(); err != nil {
				return nil, err
			}
			if !updated {
				return nil, fmt.Errorf("failed to add product %s to cart %s", productID, cartID)
			}
		case err != nil:
			return nil, fmt.Errorf("failed to create cart item: %w", err)
		}
	}

	var item models.CartItem
	err = db.Preload("Product").
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		First(&item).Error
	if err != nil {
		return nil, fmt.Errorf("failed to reload cart item: %w", err)
	}
	return &item, nil
}

func (r *GORMCartRepository) SetQuantity(ctx context.Context, cartID string, itemID uint, qty int) (*models.CartItem, error) {
	res := r.db.WithContext(ctx).Model(&models.CartItem{}).
		Where("id = ? AND cart_id = ?", itemID, cartID).
		Update("quantity", qty)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to update cart item %d: %w", itemID, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperror.NotFound("Cart item not found")
	}
	return r.GetItem(ctx, cartID, itemID)
}

func (r *GORMCartRepository) DeleteItem(ctx context.Context, cartID string, itemID uint) error {
	res := r.db.WithContext(ctx).Where("id = ? AND cart_id = ?", itemID, cartID).Delete(&models.CartItem{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete cart item %d: %w", itemID, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound("Cart item not found")
	}
	return nil
}

func (r *GORMCartRepository) RemoveOrdered(ctx context.Context, cartID string, items []models.CartItem) error {
	db := r.db.WithContext(ctx)
	for _, item := range items {
		res := db.Where("id = ? AND cart_id = ? AND quantity = ?", item.ID, cartID, item.Quantity).
			Delete(&models.CartItem{})
		if res.Error != nil {
			return fmt.Errorf("failed to remove cart item %d: %w", item.ID, res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrCartChanged
		}
	}
	return nil
}
