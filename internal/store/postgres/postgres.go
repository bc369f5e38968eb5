package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"trailerstock/internal/domain"
	"trailerstock/internal/store"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

type Store struct {
	db *sql.DB
}

// New opens the database, checks connectivity and applies pending
// migrations.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(4)
	db.SetMaxOpenConns(16)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ListCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, COALESCE(color, '')
		FROM categories
		ORDER BY lower(name)
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := make([]domain.Category, 0, 16)
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Color); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return categories, nil
}

func (s *Store) CreateCategory(ctx context.Context, category domain.Category) (*domain.Category, error) {
	if strings.TrimSpace(category.Name) == "" {
		return nil, store.ErrInvalidRecord
	}

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO categories (name, color)
		VALUES ($1, $2)
		RETURNING id
	`, category.Name, nullIfEmpty(category.Color)).Scan(&category.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrConflict
		}
		return nil, err
	}
	return &category, nil
}

func (s *Store) UpdateCategory(ctx context.Context, category domain.Category) (*domain.Category, error) {
	if strings.TrimSpace(category.Name) == "" {
		return nil, store.ErrInvalidRecord
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE categories SET name = $2, color = $3 WHERE id = $1
	`, category.ID, category.Name, nullIfEmpty(category.Color))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrConflict
		}
		return nil, err
	}
	if err := expectAffected(res); err != nil {
		return nil, err
	}
	return &category, nil
}

func (s *Store) DeleteCategory(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return store.ErrConflict
		}
		return err
	}
	return expectAffected(res)
}

const productColumns = `id, name, COALESCE(description, ''), cost_cents, list_price_cents,
	wholesale_price_cents, stock, min_stock, category_id, deleted`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (domain.Product, error) {
	var p domain.Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.CostCents, &p.ListPriceCents,
		&p.WholesalePriceCents, &p.Stock, &p.MinStock, &p.CategoryID, &p.Deleted)
	return p, err
}

func (s *Store) queryProducts(ctx context.Context, query string, args ...any) ([]domain.Product, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]domain.Product, 0, 64)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return products, nil
}

func (s *Store) ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	return s.queryProducts(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE deleted = false
		  AND ($1 = 0 OR category_id = $1)
		  AND ($2 = '' OR name ILIKE '%' || $2 || '%')
		ORDER BY lower(name), id
	`, filter.CategoryID, strings.TrimSpace(filter.Query))
}

func (s *Store) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	p, err := scanProduct(s.db.QueryRowContext(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE id = $1 AND deleted = false
	`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (s *Store) GetProductsByIDs(ctx context.Context, ids []int64) (map[int64]domain.Product, error) {
	result := make(map[int64]domain.Product, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	products, err := s.queryProducts(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE id = ANY($1)
	`, ids)
	if err != nil {
		return nil, err
	}
	for _, p := range products {
		result[p.ID] = p
	}
	return result, nil
}

func (s *Store) CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if err := checkProduct(product); err != nil {
		return nil, err
	}

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO products (
			name, description, cost_cents, list_price_cents, wholesale_price_cents,
			stock, min_stock, category_id
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING id
	`, product.Name, nullIfEmpty(product.Description), product.CostCents, product.ListPriceCents,
		product.WholesalePriceCents, product.Stock, product.MinStock, product.CategoryID).Scan(&product.ID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, store.ErrInvalidRecord
		}
		return nil, err
	}
	product.Deleted = false
	return &product, nil
}

func (s *Store) UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if err := checkProduct(product); err != nil {
		return nil, err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE products
		SET name = $2, description = $3, cost_cents = $4, list_price_cents = $5,
			wholesale_price_cents = $6, stock = $7, min_stock = $8, category_id = $9,
			updated_at = now()
		WHERE id = $1 AND deleted = false
	`, product.ID, product.Name, nullIfEmpty(product.Description), product.CostCents, product.ListPriceCents,
		product.WholesalePriceCents, product.Stock, product.MinStock, product.CategoryID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, store.ErrInvalidRecord
		}
		return nil, err
	}
	if err := expectAffected(res); err != nil {
		return nil, err
	}
	product.Deleted = false
	return &product, nil
}

func checkProduct(product domain.Product) error {
	if strings.TrimSpace(product.Name) == "" || product.Stock < 0 || product.MinStock < 0 {
		return store.ErrInvalidRecord
	}
	if product.CostCents < 0 || product.ListPriceCents < 0 || product.WholesalePriceCents < 0 {
		return store.ErrInvalidRecord
	}
	return nil
}

func (s *Store) SoftDeleteProduct(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE products SET deleted = true, updated_at = now()
		WHERE id = $1 AND deleted = false
	`, id)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

func (s *Store) AdjustStock(ctx context.Context, id int64, delta int) (*domain.Product, error) {
	p, err := scanProduct(s.db.QueryRowContext(ctx, `
		UPDATE products
		SET stock = GREATEST(stock + $2, 0), updated_at = now()
		WHERE id = $1 AND deleted = false
		RETURNING `+productColumns, id, delta))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (s *Store) ListLowStock(ctx context.Context, limit int) ([]domain.Product, error) {
	if limit < 1 {
		limit = 1000
	}
	return s.queryProducts(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE deleted = false AND stock <= min_stock
		ORDER BY stock, name
		LIMIT $1
	`, limit)
}

func (s *Store) GetInventoryValuation(ctx context.Context) (domain.InventoryValuation, error) {
	var v domain.InventoryValuation
	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(stock), 0),
			COALESCE(SUM(stock::bigint * cost_cents), 0),
			COALESCE(SUM(stock::bigint * list_price_cents), 0),
			COUNT(*) FILTER (WHERE stock <= min_stock)
		FROM products
		WHERE deleted = false
	`).Scan(&v.Products, &v.Units, &v.CostCents, &v.ListPriceCents, &v.LowStock)
	return v, err
}

func (s *Store) ListPromotions(ctx context.Context) ([]domain.Promotion, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, kind, percent_off, amount_off_cents, starts_at, ends_at, active, deleted, created_at
		FROM promotions
		WHERE deleted = false
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	promos, err := scanPromotions(rows)
	if err != nil {
		return nil, err
	}
	if err := s.loadPromotionSets(ctx, s.db, promos); err != nil {
		return nil, err
	}
	return promos, nil
}

func (s *Store) GetPromotion(ctx context.Context, id int64) (*domain.Promotion, error) {
	return s.getPromotion(ctx, s.db, id)
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) getPromotion(ctx context.Context, q querier, id int64) (*domain.Promotion, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, name, kind, percent_off, amount_off_cents, starts_at, ends_at, active, deleted, created_at
		FROM promotions
		WHERE id = $1 AND deleted = false
	`, id)
	if err != nil {
		return nil, err
	}
	promos, err := scanPromotions(rows)
	if err != nil {
		return nil, err
	}
	if len(promos) == 0 {
		return nil, store.ErrNotFound
	}
	if err := s.loadPromotionSets(ctx, q, promos); err != nil {
		return nil, err
	}
	return &promos[0], nil
}

func scanPromotions(rows *sql.Rows) ([]domain.Promotion, error) {
	defer rows.Close()

	promos := make([]domain.Promotion, 0, 16)
	for rows.Next() {
		var p domain.Promotion
		var startsAt, endsAt sql.NullTime
		if err := rows.Scan(&p.ID, &p.Name, &p.Kind, &p.PercentOff, &p.AmountOffCents,
			&startsAt, &endsAt, &p.Active, &p.Deleted, &p.CreatedAt); err != nil {
			return nil, err
		}
		if startsAt.Valid {
			p.StartsAt = &startsAt.Time
		}
		if endsAt.Valid {
			p.EndsAt = &endsAt.Time
		}
		p.Requirements = []domain.PromotionRequirement{}
		p.PaymentMethods = []domain.PaymentMethod{}
		promos = append(promos, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return promos, nil
}

func (s *Store) loadPromotionSets(ctx context.Context, q querier, promos []domain.Promotion) error {
	if len(promos) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(promos))
	index := make(map[int64]int, len(promos))
	for i, p := range promos {
		ids = append(ids, p.ID)
		index[p.ID] = i
	}

	reqRows, err := q.QueryContext(ctx, `
		SELECT promotion_id, product_id, required_qty
		FROM promotion_requirements
		WHERE promotion_id = ANY($1)
		ORDER BY promotion_id, position
	`, ids)
	if err != nil {
		return err
	}
	for reqRows.Next() {
		var promoID int64
		var req domain.PromotionRequirement
		if err := reqRows.Scan(&promoID, &req.ProductID, &req.RequiredQty); err != nil {
			_ = reqRows.Close()
			return err
		}
		i := index[promoID]
		promos[i].Requirements = append(promos[i].Requirements, req)
	}
	if err := reqRows.Err(); err != nil {
		_ = reqRows.Close()
		return err
	}
	_ = reqRows.Close()

	methodRows, err := q.QueryContext(ctx, `
		SELECT promotion_id, payment_method
		FROM promotion_payment_methods
		WHERE promotion_id = ANY($1)
		ORDER BY promotion_id, payment_method
	`, ids)
	if err != nil {
		return err
	}
	defer methodRows.Close()
	for methodRows.Next() {
		var promoID int64
		var method domain.PaymentMethod
		if err := methodRows.Scan(&promoID, &method); err != nil {
			return err
		}
		i := index[promoID]
		promos[i].PaymentMethods = append(promos[i].PaymentMethods, method)
	}
	return methodRows.Err()
}

func (s *Store) SavePromotion(ctx context.Context, promo domain.Promotion) (*domain.Promotion, error) {
	if strings.TrimSpace(promo.Name) == "" || len(promo.Requirements) == 0 {
		return nil, store.ErrInvalidRecord
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	if promo.ID == 0 {
		err = tx.QueryRowContext(ctx, `
			INSERT INTO promotions (name, kind, percent_off, amount_off_cents, starts_at, ends_at, active)
			VALUES ($1,$2,$3,$4,$5,$6,$7)
			RETURNING id
		`, promo.Name, promo.Kind, promo.PercentOff, promo.AmountOffCents,
			nullTime(promo.StartsAt), nullTime(promo.EndsAt), promo.Active).Scan(&promo.ID)
		if err != nil {
			return nil, err
		}
	} else {
		res, err := tx.ExecContext(ctx, `
			UPDATE promotions
			SET name = $2, kind = $3, percent_off = $4, amount_off_cents = $5,
				starts_at = $6, ends_at = $7, active = $8
			WHERE id = $1 AND deleted = false
		`, promo.ID, promo.Name, promo.Kind, promo.PercentOff, promo.AmountOffCents,
			nullTime(promo.StartsAt), nullTime(promo.EndsAt), promo.Active)
		if err != nil {
			return nil, err
		}
		if err := expectAffected(res); err != nil {
			return nil, err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM promotion_requirements WHERE promotion_id = $1`, promo.ID); err != nil {
			return nil, err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM promotion_payment_methods WHERE promotion_id = $1`, promo.ID); err != nil {
			return nil, err
		}
	}

	for i, req := range promo.Requirements {
		if req.RequiredQty < 1 {
			return nil, store.ErrInvalidRecord
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO promotion_requirements (promotion_id, position, product_id, required_qty)
			VALUES ($1,$2,$3,$4)
		`, promo.ID, i, req.ProductID, req.RequiredQty)
		if err != nil {
			if isForeignKeyViolation(err) || isUniqueViolation(err) {
				return nil, store.ErrInvalidRecord
			}
			return nil, err
		}
	}
	for _, method := range promo.PaymentMethods {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO promotion_payment_methods (promotion_id, payment_method)
			VALUES ($1,$2)
			ON CONFLICT DO NOTHING
		`, promo.ID, method)
		if err != nil {
			return nil, err
		}
	}

	saved, err := s.getPromotion(ctx, tx, promo.ID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return saved, nil
}

func (s *Store) SetPromotionActive(ctx context.Context, id int64, active bool) (*domain.Promotion, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE promotions SET active = $2 WHERE id = $1 AND deleted = false
	`, id, active)
	if err != nil {
		return nil, err
	}
	if err := expectAffected(res); err != nil {
		return nil, err
	}
	return s.GetPromotion(ctx, id)
}

func (s *Store) SoftDeletePromotion(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE promotions SET deleted = true WHERE id = $1 AND deleted = false
	`, id)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

func (s *Store) CreateSale(ctx context.Context, sale domain.Sale) (*domain.Sale, error) {
	if len(sale.Lines) == 0 {
		return nil, store.ErrInvalidRecord
	}
	if sale.CreatedAt.IsZero() {
		sale.CreatedAt = time.Now().UTC()
	}
	if sale.Status == "" {
		sale.Status = domain.SaleStatusActive
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO sales (number, created_at, total_cents, tier, payment_method, notes, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING id
	`, sale.Number, sale.CreatedAt, sale.TotalCents, sale.Tier, sale.PaymentMethod,
		nullIfEmpty(sale.Notes), sale.Status).Scan(&sale.ID)
	if err != nil {
		return nil, err
	}

	lines := make([]domain.SaleLine, len(sale.Lines))
	for i, line := range sale.Lines {
		if line.Qty < 1 {
			return nil, store.ErrInvalidRecord
		}
		line.SaleID = sale.ID
		err := tx.QueryRowContext(ctx, `
			INSERT INTO sale_lines (sale_id, product_id, qty, unit_price_cents, subtotal_cents)
			VALUES ($1,$2,$3,$4,$5)
			RETURNING id
		`, sale.ID, line.ProductID, line.Qty, line.UnitPriceCents, line.SubtotalCents).Scan(&line.ID)
		if err != nil {
			if isForeignKeyViolation(err) {
				return nil, store.ErrInvalidRecord
			}
			return nil, err
		}
		err = tx.QueryRowContext(ctx, `
			UPDATE products
			SET stock = GREATEST(stock - $2, 0), updated_at = now()
			WHERE id = $1
			RETURNING name
		`, line.ProductID, line.Qty).Scan(&line.ProductName)
		if err != nil {
			return nil, err
		}
		lines[i] = line
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	sale.Lines = lines
	return &sale, nil
}

const saleColumns = `id, number, created_at, total_cents, tier, payment_method,
	COALESCE(notes, ''), status, voided_at`

func scanSale(row rowScanner) (domain.Sale, error) {
	var sale domain.Sale
	var voidedAt sql.NullTime
	err := row.Scan(&sale.ID, &sale.Number, &sale.CreatedAt, &sale.TotalCents, &sale.Tier,
		&sale.PaymentMethod, &sale.Notes, &sale.Status, &voidedAt)
	if voidedAt.Valid {
		sale.VoidedAt = &voidedAt.Time
	}
	return sale, err
}

func (s *Store) GetSale(ctx context.Context, id int64) (*domain.Sale, error) {
	sale, err := scanSale(s.db.QueryRowContext(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	sales := []domain.Sale{sale}
	if err := s.loadSaleLines(ctx, s.db, sales); err != nil {
		return nil, err
	}
	return &sales[0], nil
}

func (s *Store) ListSales(ctx context.Context, filter domain.SaleFilter) ([]domain.Sale, error) {
	conditions := []string{"TRUE"}
	args := make([]any, 0, 5)
	addCondition := func(expr string, value any) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(expr, len(args)))
	}
	if filter.From != nil {
		addCondition("created_at >= $%d", *filter.From)
	}
	if filter.To != nil {
		addCondition("created_at < $%d", *filter.To)
	}
	if filter.PaymentMethod != "" {
		addCondition("payment_method = $%d", filter.PaymentMethod)
	}
	if filter.Tier != "" {
		addCondition("tier = $%d", filter.Tier)
	}
	limit := filter.Limit
	if limit < 1 {
		limit = 500
	}
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT %s
		FROM sales
		WHERE %s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d
	`, saleColumns, strings.Join(conditions, " AND "), len(args)), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sales := make([]domain.Sale, 0, 64)
	for rows.Next() {
		sale, err := scanSale(rows)
		if err != nil {
			return nil, err
		}
		sales = append(sales, sale)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := s.loadSaleLines(ctx, s.db, sales); err != nil {
		return nil, err
	}
	return sales, nil
}

func (s *Store) loadSaleLines(ctx context.Context, q querier, sales []domain.Sale) error {
	if len(sales) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(sales))
	index := make(map[int64]int, len(sales))
	for i, sale := range sales {
		ids = append(ids, sale.ID)
		index[sale.ID] = i
	}

	rows, err := q.QueryContext(ctx, `
		SELECT sl.id, sl.sale_id, sl.product_id, p.name, sl.qty, sl.unit_price_cents, sl.subtotal_cents
		FROM sale_lines sl
		JOIN products p ON p.id = sl.product_id
		WHERE sl.sale_id = ANY($1)
		ORDER BY sl.sale_id, sl.id
	`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var line domain.SaleLine
		if err := rows.Scan(&line.ID, &line.SaleID, &line.ProductID, &line.ProductName,
			&line.Qty, &line.UnitPriceCents, &line.SubtotalCents); err != nil {
			return err
		}
		i := index[line.SaleID]
		sales[i].Lines = append(sales[i].Lines, line)
	}
	return rows.Err()
}

func (s *Store) VoidSale(ctx context.Context, id int64, restoreStock bool, at time.Time) (*domain.Sale, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	sale, err := scanSale(tx.QueryRowContext(ctx, `
		SELECT `+saleColumns+`
		FROM sales
		WHERE id = $1
		FOR UPDATE
	`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	if sale.Status != domain.SaleStatusActive {
		return nil, store.ErrConflict
	}

	sales := []domain.Sale{sale}
	if err := s.loadSaleLines(ctx, tx, sales); err != nil {
		return nil, err
	}
	sale = sales[0]

	if _, err := tx.ExecContext(ctx, `
		UPDATE sales SET status = $2, voided_at = $3 WHERE id = $1
	`, id, domain.SaleStatusVoided, at); err != nil {
		return nil, err
	}
	if restoreStock {
		for _, line := range sale.Lines {
			if _, err := tx.ExecContext(ctx, `
				UPDATE products SET stock = stock + $2, updated_at = now() WHERE id = $1
			`, line.ProductID, line.Qty); err != nil {
				return nil, err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	sale.Status = domain.SaleStatusVoided
	sale.VoidedAt = &at
	return &sale, nil
}

func (s *Store) GetSalesSummary(ctx context.Context, from time.Time, to time.Time, topN int) (domain.SalesSummary, error) {
	summary := domain.SalesSummary{From: from, To: to, TopProducts: []domain.TopProduct{}}

	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(total_cents), 0)
		FROM sales
		WHERE status = $1 AND created_at >= $2 AND created_at < $3
	`, domain.SaleStatusActive, from, to).Scan(&summary.SalesCount, &summary.TotalCents)
	if err != nil {
		return domain.SalesSummary{}, err
	}
	if summary.SalesCount > 0 {
		summary.AverageTicketCents = summary.TotalCents / summary.SalesCount
	}

	err = s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(sl.subtotal_cents - sl.qty::bigint * p.cost_cents), 0)
		FROM sale_lines sl
		JOIN sales s ON s.id = sl.sale_id
		JOIN products p ON p.id = sl.product_id
		WHERE s.status = $1 AND s.created_at >= $2 AND s.created_at < $3
	`, domain.SaleStatusActive, from, to).Scan(&summary.EstimatedProfitCents)
	if err != nil {
		return domain.SalesSummary{}, err
	}

	if topN < 1 {
		topN = 10
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT sl.product_id, p.name, SUM(sl.qty) AS qty_sold
		FROM sale_lines sl
		JOIN sales s ON s.id = sl.sale_id
		JOIN products p ON p.id = sl.product_id
		WHERE s.status = $1 AND s.created_at >= $2 AND s.created_at < $3
		GROUP BY sl.product_id, p.name
		ORDER BY qty_sold DESC, sl.product_id
		LIMIT $4
	`, domain.SaleStatusActive, from, to, topN)
	if err != nil {
		return domain.SalesSummary{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var top domain.TopProduct
		if err := rows.Scan(&top.ProductID, &top.Name, &top.QtySold); err != nil {
			return domain.SalesSummary{}, err
		}
		summary.TopProducts = append(summary.TopProducts, top)
	}
	if err := rows.Err(); err != nil {
		return domain.SalesSummary{}, err
	}
	return summary, nil
}

func expectAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.UniqueViolation
	}
	return false
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.ForeignKeyViolation
	}
	return false
}

func nullIfEmpty(val string) any {
	if val == "" {
		return nil
	}
	return val
}

func nullTime(val *time.Time) any {
	if val == nil {
		return nil
	}
	return *val
}
