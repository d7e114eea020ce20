package inventory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/lib/pq"

	logx "github.com/stockroom-app/server/pkg/logger"
)

// PostgresStore reads the inventory tables owned by the CRUD layer.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// OpenPostgres opens and pings a lib/pq connection pool.
func OpenPostgres(ctx context.Context, dsn string, maxOpenConns int) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if maxOpenConns > 0 {
		db.SetMaxOpenConns(maxOpenConns)
		db.SetMaxIdleConns(maxOpenConns)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

const itemColumns = `id, household_id, room_id, name, COALESCE(description, ''), quantity, COALESCE(unit, ''), expiry_date`

const productColumns = `id, household_id, name, COALESCE(sku, ''), COALESCE(barcode, ''), COALESCE(description, ''), COALESCE(unit, ''), is_active`

func (s *PostgresStore) IsMember(ctx context.Context, userID, householdID string) (bool, error) {
	var ok bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM household_members WHERE household_id = $1 AND user_id = $2)`,
		householdID, userID,
	).Scan(&ok)
	if err != nil {
		logx.Error().Err(err).Str("household_id", householdID).Msg("membership lookup failed")
		return false, fmt.Errorf("membership lookup: %w", err)
	}
	return ok, nil
}

func (s *PostgresStore) WorkspaceType(ctx context.Context, householdID string) (WorkspaceType, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(workspace_type, 'personal') FROM households WHERE id = $1`,
		householdID,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return Personal, ErrNotFound
	}
	if err != nil {
		return Personal, fmt.Errorf("workspace type: %w", err)
	}
	return ParseWorkspaceType(raw), nil
}

func (s *PostgresStore) SearchItems(ctx context.Context, householdID, query string, limit int) ([]Item, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM items
		 WHERE household_id = $1 AND deleted_at IS NULL
		   AND (name ILIKE $2 ESCAPE '\' OR description ILIKE $2 ESCAPE '\')
		 ORDER BY name ASC, id ASC
		 LIMIT $3`,
		householdID, likePattern(query), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("search items: %w", err)
	}
	return scanItems(rows)
}

func (s *PostgresStore) ListItems(ctx context.Context, householdID string) ([]Item, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM items
		 WHERE household_id = $1 AND deleted_at IS NULL
		 ORDER BY name ASC, id ASC`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return scanItems(rows)
}

func (s *PostgresStore) SearchProducts(ctx context.Context, householdID, query string, limit int) ([]Product, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+productColumns+` FROM products
		 WHERE household_id = $1 AND is_active
		   AND (name ILIKE $2 ESCAPE '\' OR sku ILIKE $2 ESCAPE '\' OR barcode ILIKE $2 ESCAPE '\')
		 ORDER BY name ASC, id ASC
		 LIMIT $3`,
		householdID, likePattern(query), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}
	return scanProducts(rows)
}

func (s *PostgresStore) ListProducts(ctx context.Context, householdID string) ([]Product, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+productColumns+` FROM products
		 WHERE household_id = $1 AND is_active
		 ORDER BY name ASC, id ASC`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return scanProducts(rows)
}

func (s *PostgresStore) GetProduct(ctx context.Context, householdID, productID string) (*Product, error) {
	return s.getProduct(ctx, `id = $2`, householdID, productID)
}

func (s *PostgresStore) GetProductBySKU(ctx context.Context, householdID, sku string) (*Product, error) {
	return s.getProduct(ctx, `lower(sku) = lower($2)`, householdID, sku)
}

func (s *PostgresStore) getProduct(ctx context.Context, predicate, householdID, key string) (*Product, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE household_id = $1 AND `+predicate+` LIMIT 1`,
		householdID, key,
	)
	var p Product
	err := row.Scan(&p.ID, &p.HouseholdID, &p.Name, &p.SKU, &p.Barcode, &p.Description, &p.Unit, &p.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &p, nil
}

func (s *PostgresStore) SumStock(ctx context.Context, householdID, productID string, roomID *string) (float64, error) {
	query := `SELECT COALESCE(SUM(quantity), 0) FROM stock_levels WHERE household_id = $1 AND product_id = $2`
	args := []any{householdID, productID}
	if roomID != nil {
		query += ` AND room_id = $3`
		args = append(args, *roomID)
	}
	var total float64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum stock: %w", err)
	}
	return total, nil
}

func (s *PostgresStore) ListMovements(ctx context.Context, householdID, productID string, limit int) ([]Movement, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, product_id, room_id, movement_type, quantity_delta, COALESCE(note, ''), created_at
		 FROM stock_movements
		 WHERE household_id = $1 AND product_id = $2
		 ORDER BY created_at DESC, id DESC
		 LIMIT $3`,
		householdID, productID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()

	var out []Movement
	for rows.Next() {
		var (
			m    Movement
			room sql.NullString
		)
		if err := rows.Scan(&m.ID, &m.ProductID, &room, &m.Kind, &m.QuantityDelta, &m.Note, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		m.RoomID = nullableString(room)
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *PostgresStore) ListStockLevels(ctx context.Context, householdID string) ([]StockLevel, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT p.id, p.household_id, p.name, COALESCE(p.sku, ''), COALESCE(p.barcode, ''),
		        COALESCE(p.description, ''), COALESCE(p.unit, ''), p.is_active,
		        COALESCE(SUM(s.quantity), 0)
		 FROM products p
		 LEFT JOIN stock_levels s ON s.product_id = p.id AND s.household_id = p.household_id
		 WHERE p.household_id = $1 AND p.is_active
		 GROUP BY p.id
		 ORDER BY p.name ASC, p.id ASC`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("list stock levels: %w", err)
	}
	defer rows.Close()

	var out []StockLevel
	for rows.Next() {
		var lvl StockLevel
		p := &lvl.Product
		if err := rows.Scan(&p.ID, &p.HouseholdID, &p.Name, &p.SKU, &p.Barcode, &p.Description, &p.Unit, &p.Active, &lvl.Quantity); err != nil {
			return nil, fmt.Errorf("scan stock level: %w", err)
		}
		out = append(out, lvl)
	}
	return out, rows.Err()
}

func scanItems(rows *sql.Rows) ([]Item, error) {
	defer rows.Close()
	var out []Item
	for rows.Next() {
		var (
			it     Item
			room   sql.NullString
			expiry sql.NullTime
		)
		if err := rows.Scan(&it.ID, &it.HouseholdID, &room, &it.Name, &it.Description, &it.Quantity, &it.Unit, &expiry); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		it.RoomID = nullableString(room)
		if expiry.Valid {
			t := expiry.Time
			it.ExpiryDate = &t
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func scanProducts(rows *sql.Rows) ([]Product, error) {
	defer rows.Close()
	var out []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.HouseholdID, &p.Name, &p.SKU, &p.Barcode, &p.Description, &p.Unit, &p.Active); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func nullableString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern builds a contains-match ILIKE pattern with wildcards in the
// user's text escaped.
func likePattern(q string) string {
	return "%" + likeEscaper.Replace(strings.TrimSpace(q)) + "%"
}

var _ Store = (*PostgresStore)(nil)
