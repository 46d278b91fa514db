package repos

import (
	"log"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"
)

func OpenDB(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err = db.Ping(); err != nil {
		return nil, err
	}

	if err := ensureSchema(db); err != nil {
		return nil, err
	}
	// Seed demo catalog if the DB is empty (idempotent; safe on every start)
	if err := seedIfEmpty(db); err != nil {
		return nil, err
	}
	// Ensure the admin user exists (idempotent)
	if err := seedUsers(db); err != nil {
		return nil, err
	}

	return db, nil
}

func ensureSchema(db *sqlx.DB) error {
	schema := `
PRAGMA foreign_keys = ON;

-- Products
CREATE TABLE IF NOT EXISTS products(
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  price NUMERIC NOT NULL CHECK (price >= 0),
  stock INTEGER NOT NULL DEFAULT 0 CHECK (stock >= 0),
  image_url TEXT NOT NULL DEFAULT '',
  category TEXT NOT NULL DEFAULT '',
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_products_category   ON products(category);
CREATE INDEX IF NOT EXISTS idx_products_name       ON products(LOWER(name));
CREATE INDEX IF NOT EXISTS idx_products_created_at ON products(created_at);

-- Users
CREATE TABLE IF NOT EXISTS users(
  id TEXT PRIMARY KEY,
  username TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username ON users(LOWER(username));

-- Orders
CREATE TABLE IF NOT EXISTS orders(
  id TEXT PRIMARY KEY,
  user_id TEXT NULL REFERENCES users(id) ON DELETE SET NULL,
  total_price NUMERIC NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending'
    CHECK (status IN ('pending','paid','shipped','cancelled')),
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_orders_user       ON orders(user_id);
CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders(created_at);

CREATE TABLE IF NOT EXISTS order_items(
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
  product_id TEXT NOT NULL REFERENCES products(id),
  quantity INTEGER NOT NULL CHECK (quantity >= 1),
  price NUMERIC NOT NULL CHECK (price >= 0)
);
CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items(order_id);
`
	_, err := db.Exec(schema)
	return err
}

func seedIfEmpty(db *sqlx.DB) error {
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM products`); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	log.Println("[seed] inserting demo products")

	tx := db.MustBegin()
	tx.MustExec(`INSERT INTO products(id,name,description,price,stock,image_url,category) VALUES
	  ('jersey-mex-home','Mexico Home Jersey 2026','Official Mexico national team home jersey for the 2026 FIFA World Cup. Features authentic design and breathable fabric.',129.99,50,'https://placehold.co/300x300/1E40AF/FFFFFF?text=MEX+Home','Home'),
	  ('jersey-bra-home','Brazil Home Jersey 2026','Official Brazil national team home jersey for the 2026 FIFA World Cup. Classic yellow design with modern technology.',139.99,35,'https://placehold.co/300x300/F59E0B/FFFFFF?text=BRA+Home','Home'),
	  ('jersey-arg-away','Argentina Away Jersey 2026','Official Argentina national team away jersey for the 2026 FIFA World Cup. Modern design with blue and white stripes.',134.99,40,'https://placehold.co/300x300/60A5FA/FFFFFF?text=ARG+Away','Away'),
	  ('jersey-usa-home','USA Home Jersey 2026','Official USA national team home jersey for the 2026 FIFA World Cup. Red, white and blue design with modern fit.',124.99,45,'https://placehold.co/300x300/DC2626/FFFFFF?text=USA+Home','Home'),
	  ('jersey-esp-home','Spain Home Jersey 2026','Official Spain national team home jersey for the 2026 FIFA World Cup. Classic red design with modern performance fabric.',139.99,30,'https://placehold.co/300x300/DC2626/FFFFFF?text=ESP+Home','Home')`)

	return tx.Commit()
}

// seedUsers ensures the admin and one demo user exist (idempotent).
func seedUsers(db *sqlx.DB) error {
	type u struct {
		ID, Username, Hash string
	}
	mk := func(id, username, raw string) u {
		h, _ := bcrypt.GenerateFromPassword([]byte(raw), 12)
		return u{ID: id, Username: username, Hash: string(h)}
	}

	users := []u{
		mk("u-admin", "admin", "admin123"),
		mk("u-demo", "demo", "demo1234"),
	}

	tx := db.MustBegin()
	defer func() { _ = tx.Rollback() }()

	for _, x := range users {
		if _, err := tx.Exec(`
			INSERT INTO users(id,username,password_hash)
			VALUES(?,?,?)
			ON CONFLICT(username) DO NOTHING
		`, x.ID, x.Username, x.Hash); err != nil {
			return err
		}
	}

	return tx.Commit()
}
