package services

import (
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"kitstore/internal/domain"
	"kitstore/internal/repos"
)

var (
	ErrNoItems        = errors.New("order has no items")
	ErrBadQuantity    = errors.New("quantity must be at least 1")
	ErrNegativePrice  = errors.New("price must not be negative")
	ErrBadStatus      = errors.New("unknown order status")
	ErrUnknownProduct = repos.ErrUnknownProduct
)

type OrderLine struct {
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

type OrderService struct {
	Orders *repos.OrderRepo
}

func NewOrderService(orders *repos.OrderRepo) *OrderService {
	return &OrderService{Orders: orders}
}

// Place validates and atomically persists an order with its line items for
// the given user. The stored total is always computed server-side from the
// lines; it is returned separately so callers can reconcile it against a
// client-supplied value.
func (s *OrderService) Place(userID string, lines []OrderLine, status string) (domain.Order, decimal.Decimal, error) {
	if len(lines) == 0 {
		return domain.Order{}, decimal.Zero, ErrNoItems
	}
	if status == "" {
		status = domain.StatusPending
	}
	if !domain.ValidStatus(status) {
		return domain.Order{}, decimal.Zero, ErrBadStatus
	}

	serverTotal := decimal.Zero
	items := make([]domain.OrderItem, 0, len(lines))
	for _, l := range lines {
		if l.Quantity < 1 {
			return domain.Order{}, decimal.Zero, ErrBadQuantity
		}
		if l.Price.IsNegative() {
			return domain.Order{}, decimal.Zero, ErrNegativePrice
		}
		serverTotal = serverTotal.Add(l.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
		items = append(items, domain.OrderItem{
			ID:        uuid.NewString(),
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			Price:     l.Price,
		})
	}

	o := domain.Order{
		ID:         uuid.NewString(),
		UserID:     userID,
		TotalPrice: serverTotal,
		Status:     status,
	}
	if err := s.Orders.CreateWithItems(o, items); err != nil {
		return domain.Order{}, serverTotal, err
	}

	created, err := s.Orders.GetForUser(o.ID, userID)
	if err != nil {
		return domain.Order{}, serverTotal, err
	}
	return created, serverTotal, nil
}

// Get returns the order only when it belongs to userID; a foreign order is
// reported as not found so its existence never leaks.
func (s *OrderService) Get(orderID, userID string) (domain.Order, error) {
	o, err := s.Orders.GetForUser(orderID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Order{}, ErrNotFound
	}
	return o, err
}

// History lists the user's own orders, newest first.
func (s *OrderService) History(userID string) ([]domain.Order, error) {
	return s.Orders.ListByUser(userID)
}
