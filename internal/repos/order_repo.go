package repos

import (
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"kitstore/internal/domain"
)

// ErrUnknownProduct is returned when an order line references a product id
// that does not exist at write time.
var ErrUnknownProduct = errors.New("unknown product")

type OrderRepo struct{ db *sqlx.DB }

func NewOrderRepo(db *sqlx.DB) *OrderRepo { return &OrderRepo{db: db} }

// itemRow is the flat join row used to assemble an OrderItem with its
// embedded product representation.
type itemRow struct {
	ID        string          `db:"id"`
	OrderID   string          `db:"order_id"`
	ProductID string          `db:"product_id"`
	Quantity  int             `db:"quantity"`
	Price     decimal.Decimal `db:"price"`

	PName        string          `db:"p_name"`
	PDescription string          `db:"p_description"`
	PPrice       decimal.Decimal `db:"p_price"`
	PStock       int             `db:"p_stock"`
	PImageURL    string          `db:"p_image_url"`
	PCategory    string          `db:"p_category"`
	PCreatedAt   string          `db:"p_created_at"`
	PUpdatedAt   string          `db:"p_updated_at"`
}

func (row itemRow) item() domain.OrderItem {
	return domain.OrderItem{
		ID:        row.ID,
		OrderID:   row.OrderID,
		ProductID: row.ProductID,
		Quantity:  row.Quantity,
		Price:     row.Price,
		Product: &domain.Product{
			ID:          row.ProductID,
			Name:        row.PName,
			Description: row.PDescription,
			Price:       row.PPrice,
			Stock:       row.PStock,
			ImageURL:    row.PImageURL,
			Category:    row.PCategory,
			CreatedAt:   row.PCreatedAt,
			UpdatedAt:   row.PUpdatedAt,
		},
	}
}

const itemJoin = `
  SELECT
    oi.id, oi.order_id, oi.product_id, oi.quantity, oi.price,
    p.name AS p_name, p.description AS p_description, p.price AS p_price,
    p.stock AS p_stock, p.image_url AS p_image_url, p.category AS p_category,
    p.created_at AS p_created_at, COALESCE(p.updated_at,'') AS p_updated_at
  FROM order_items oi
  JOIN products p ON p.id = oi.product_id`

// CreateWithItems persists the order header and every line item in one
// transaction. Each referenced product is checked inside the same
// transaction; any failure rolls the whole write back, leaving no order and
// no partial item set behind.
func (r *OrderRepo) CreateWithItems(o domain.Order, items []domain.OrderItem) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`
	  INSERT INTO orders(id, user_id, total_price, status, created_at)
	  VALUES(?, ?, ?, ?, CURRENT_TIMESTAMP)
	`, o.ID, o.UserID, o.TotalPrice, o.Status); err != nil {
		return err
	}

	for _, it := range items {
		var n int
		if err := tx.Get(&n, `SELECT COUNT(*) FROM products WHERE id = ?`, it.ProductID); err != nil {
			return err
		}
		if n == 0 {
			return ErrUnknownProduct
		}
		if _, err := tx.Exec(`
		  INSERT INTO order_items(id, order_id, product_id, quantity, price)
		  VALUES(?, ?, ?, ?, ?)
		`, it.ID, o.ID, it.ProductID, it.Quantity, it.Price); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetForUser returns the order only when it belongs to userID. A foreign
// order is indistinguishable from a missing one (sql.ErrNoRows either way).
func (r *OrderRepo) GetForUser(orderID, userID string) (domain.Order, error) {
	var o domain.Order
	if err := r.db.Get(&o, `
	  SELECT id, COALESCE(user_id,'') AS user_id, total_price, status, created_at
	  FROM orders
	  WHERE id = ? AND user_id = ?
	`, orderID, userID); err != nil {
		return domain.Order{}, err
	}

	var rows []itemRow
	if err := r.db.Select(&rows, itemJoin+`
	  WHERE oi.order_id = ?
	  ORDER BY p.name`, orderID); err != nil {
		return domain.Order{}, err
	}

	o.Items = make([]domain.OrderItem, 0, len(rows))
	for _, row := range rows {
		o.Items = append(o.Items, row.item())
	}
	return o, nil
}

// ListByUser returns the user's orders, newest first, items included.
func (r *OrderRepo) ListByUser(userID string) ([]domain.Order, error) {
	orders := []domain.Order{}
	if err := r.db.Select(&orders, `
	  SELECT id, COALESCE(user_id,'') AS user_id, total_price, status, created_at
	  FROM orders
	  WHERE user_id = ?
	  ORDER BY datetime(created_at) DESC, id
	`, userID); err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return orders, nil
	}

	ids := make([]string, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
	}
	query, args, err := sqlx.In(itemJoin+` WHERE oi.order_id IN (?) ORDER BY p.name`, ids)
	if err != nil {
		return nil, err
	}
	var rows []itemRow
	if err := r.db.Select(&rows, query, args...); err != nil {
		return nil, err
	}

	byOrder := make(map[string][]domain.OrderItem, len(orders))
	for _, row := range rows {
		byOrder[row.OrderID] = append(byOrder[row.OrderID], row.item())
	}
	for i := range orders {
		items := byOrder[orders[i].ID]
		if items == nil {
			items = []domain.OrderItem{}
		}
		orders[i].Items = items
	}
	return orders, nil
}
