package repositories

import (
	"context"

	"gorm.io/gorm"
)

// Store groups the repositories that must share one transaction.
type Store interface {
	Products() ProductRepository
	Carts() CartRepository
	Orders() OrderRepository
	Users() UserRepository
	// WithinTransaction runs fn against a Store bound to one database transaction.
	// The transaction commits when fn returns nil and rolls back otherwise.
	WithinTransaction(ctx context.Context, fn func(tx Store) error) error
}

// GORMStore is the GORM implementation of Store.
type GORMStore struct {
	db       *gorm.DB
	products *GORMProductRepository
	carts    *GORMCartRepository
	orders   *GORMOrderRepository
	users    *GORMUserRepository
}

func NewGORMStore(db *gorm.DB) *GORMStore {
	return &GORMStore{
		db:       db,
		products: NewGORMProductRepository(db),
		carts:    NewGORMCartRepository(db),
		orders:   NewGORMOrderRepository(db),
		users:    NewGORMUserRepository(db),
	}
}

func (s *GORMStore) Products() ProductRepository { return s.products }
func (s *GORMStore) Carts() CartRepository       { return s.carts }
func (s *GORMStore) Orders() OrderRepository     { return s.orders }
func (s *GORMStore) Users() UserRepository       { return s.users }

func (s *GORMStore) WithinTransaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewGORMStore(tx))
	})
}
