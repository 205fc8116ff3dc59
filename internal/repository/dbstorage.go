package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/shopspring/decimal"

	apperrors "github.com/khalidbou/affiliate_store/internal/error"
	"github.com/khalidbou/affiliate_store/internal/ledger"
	"github.com/khalidbou/affiliate_store/internal/model"
)

type DBStorage struct {
	db     *sql.DB
	limits ledger.Limits
}

// querier lets the aggregate queries run against either the pool or an open
// transaction, so SubmitWithdrawal can reuse them under its row lock.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func NewDBStorage(dsn string, limits ledger.Limits) (*DBStorage, error) {
	dbConnect, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	return &DBStorage{db: dbConnect, limits: limits}, nil
}

func (storage *DBStorage) Close() error {
	return storage.db.Close()
}

func (storage *DBStorage) Ping(ctx context.Context) error {
	return storage.db.PingContext(ctx)
}

// ----- users -----

func (storage *DBStorage) CreateAffiliate(ctx context.Context, reg model.Registration, passwordHash string) (int64, error) {
	tx, err := storage.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("can't start transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		} else {
			tx.Commit()
		}
	}()

	var exists bool
	err = tx.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)", reg.Email).Scan(&exists)
	if err != nil {
		return 0, fmt.Errorf("error checking user existence: %w", err)
	}
	if exists {
		err = apperrors.ErrUserAlreadyExists
		return 0, err
	}

	// Affiliates register unapproved and wait for the admin
	query := `
		INSERT INTO users (name, email, password_hash, role, approved, phone, created_at)
		VALUES ($1, $2, $3, 'affiliate', FALSE, $4, NOW())
		RETURNING id
	`
	var userID int64
	err = tx.QueryRowContext(ctx, query, reg.Name, reg.Email, passwordHash, reg.Phone).Scan(&userID)
	if err != nil {
		return 0, fmt.Errorf("error saving user: %w", err)
	}
	return userID, nil
}

func (storage *DBStorage) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	return storage.scanUser(storage.db.QueryRowContext(ctx, `
		SELECT id, name, email, password_hash, role, approved, COALESCE(phone, ''), created_at
		FROM users WHERE email = $1
	`, email))
}

func (storage *DBStorage) GetUserByID(ctx context.Context, id int64) (model.User, error) {
	return storage.scanUser(storage.db.QueryRowContext(ctx, `
		SELECT id, name, email, password_hash, role, approved, COALESCE(phone, ''), created_at
		FROM users WHERE id = $1
	`, id))
}

func (storage *DBStorage) scanUser(row *sql.Row) (model.User, error) {
	var user model.User
	err := row.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.Role, &user.Approved, &user.Phone, &user.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return user, apperrors.ErrUserNotFound
		}
		return user, fmt.Errorf("error retrieving user: %w", err)
	}
	return user, nil
}

func (storage *DBStorage) ListAffiliates(ctx context.Context) ([]model.User, error) {
	rows, err := storage.db.QueryContext(ctx, `
		SELECT id, name, email, password_hash, role, approved, COALESCE(phone, ''), created_at
		FROM users WHERE role = 'affiliate' ORDER BY id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	var affiliates []model.User
	for rows.Next() {
		var user model.User
		err := rows.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.Role, &user.Approved, &user.Phone, &user.CreatedAt)
		if err != nil {
			return affiliates, fmt.Errorf("error scanning row: %w", err)
		}
		affiliates = append(affiliates, user)
	}
	if err = rows.Err(); err != nil {
		return affiliates, fmt.Errorf("error iterating rows: %w", err)
	}
	return affiliates, nil
}

func (storage *DBStorage) SetAffiliateApproval(ctx context.Context, id int64, approved bool) error {
	result, err := storage.db.ExecContext(ctx,
		"UPDATE users SET approved = $1 WHERE id = $2 AND role = 'affiliate'", approved, id)
	if err != nil {
		return fmt.Errorf("error updating approval: %w", err)
	}
	return requireAffected(result, apperrors.ErrUserNotFound)
}

func (storage *DBStorage) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	result, err := storage.db.ExecContext(ctx,
		"UPDATE users SET password_hash = $1 WHERE id = $2", passwordHash, id)
	if err != nil {
		return fmt.Errorf("error updating password: %w", err)
	}
	return requireAffected(result, apperrors.ErrUserNotFound)
}

func (storage *DBStorage) UpdateEmail(ctx context.Context, id int64, email string) error {
	tx, err := storage.db.Begin()
	if err != nil {
		return fmt.Errorf("can't start transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		} else {
			tx.Commit()
		}
	}()

	var taken bool
	err = tx.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM users WHERE email = $1 AND id <> $2)", email, id).Scan(&taken)
	if err != nil {
		return fmt.Errorf("error checking email: %w", err)
	}
	if taken {
		err = apperrors.ErrUserAlreadyExists
		return err
	}

	var result sql.Result
	result, err = tx.ExecContext(ctx, "UPDATE users SET email = $1 WHERE id = $2", email, id)
	if err != nil {
		return fmt.Errorf("error updating email: %w", err)
	}
	err = requireAffected(result, apperrors.ErrUserNotFound)
	return err
}

// EnsureAdmin seeds the bootstrap admin account when none exists yet.
func (storage *DBStorage) EnsureAdmin(ctx context.Context, passwordHash string) error {
	_, err := storage.db.ExecContext(ctx, `
		INSERT INTO users (name, email, password_hash, role, approved, created_at)
		SELECT 'Admin', 'admin@local', $1, 'admin', TRUE, NOW()
		WHERE NOT EXISTS (SELECT 1 FROM users WHERE role = 'admin')
	`, passwordHash)
	if err != nil {
		return fmt.Errorf("error seeding admin: %w", err)
	}
	return nil
}

// ----- catalog -----

func (storage *DBStorage) CreateCategory(ctx context.Context, name string) (int64, error) {
	var id int64
	err := storage.db.QueryRowContext(ctx, `
		INSERT INTO categories (name) VALUES ($1)
		ON CONFLICT (name) DO NOTHING
		RETURNING id
	`, name).Scan(&id)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, apperrors.ErrCategoryExists
		}
		return 0, fmt.Errorf("error inserting category: %w", err)
	}
	return id, nil
}

func (storage *DBStorage) ListCategories(ctx context.Context) ([]model.Category, error) {
	rows, err := storage.db.QueryContext(ctx, "SELECT id, name FROM categories ORDER BY name ASC")
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	var categories []model.Category
	for rows.Next() {
		var category model.Category
		if err := rows.Scan(&category.ID, &category.Name); err != nil {
			return categories, fmt.Errorf("error scanning row: %w", err)
		}
		categories = append(categories, category)
	}
	if err = rows.Err(); err != nil {
		return categories, fmt.Errorf("error iterating rows: %w", err)
	}
	return categories, nil
}

func (storage *DBStorage) CreateProduct(ctx context.Context, product model.Product) (int64, error) {
	var id int64
	err := storage.db.QueryRowContext(ctx, `
		INSERT INTO products (name, description, price, commission, delivery_price, image_path, category_id, delivery_mode, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		RETURNING id
	`, product.Name, product.Description, product.Price, product.Commission, product.DeliveryPrice,
		product.ImagePath, product.CategoryID, product.DeliveryMode, product.Notes).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("error inserting product: %w", err)
	}
	return id, nil
}

func (storage *DBStorage) UpdateProduct(ctx context.Context, product model.Product) error {
	result, err := storage.db.ExecContext(ctx, `
		UPDATE products
		SET name = $1, description = $2, price = $3, commission = $4, delivery_price = $5,
			image_path = $6, category_id = $7, delivery_mode = $8, notes = $9
		WHERE id = $10
	`, product.Name, product.Description, product.Price, product.Commission, product.DeliveryPrice,
		product.ImagePath, product.CategoryID, product.DeliveryMode, product.Notes, product.ID)
	if err != nil {
		return fmt.Errorf("error updating product: %w", err)
	}
	return requireAffected(result, apperrors.ErrProductNotFound)
}

func (storage *DBStorage) DeleteProduct(ctx context.Context, id int64) error {
	result, err := storage.db.ExecContext(ctx, "DELETE FROM products WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("error deleting product: %w", err)
	}
	return requireAffected(result, apperrors.ErrProductNotFound)
}

func (storage *DBStorage) GetProduct(ctx context.Context, id int64) (model.Product, error) {
	var product model.Product
	err := storage.db.QueryRowContext(ctx, `
		SELECT p.id, p.name, COALESCE(p.description, ''), p.price, p.commission, p.delivery_price,
			COALESCE(p.image_path, ''), p.category_id, COALESCE(c.name, ''), p.delivery_mode,
			COALESCE(p.notes, ''), p.created_at
		FROM products p LEFT JOIN categories c ON c.id = p.category_id
		WHERE p.id = $1
	`, id).Scan(&product.ID, &product.Name, &product.Description, &product.Price, &product.Commission,
		&product.DeliveryPrice, &product.ImagePath, &product.CategoryID, &product.CategoryName,
		&product.DeliveryMode, &product.Notes, &product.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return product, apperrors.ErrProductNotFound
		}
		return product, fmt.Errorf("error retrieving product: %w", err)
	}
	return product, nil
}

func (storage *DBStorage) ListProducts(ctx context.Context, categoryID *int64) ([]model.Product, error) {
	query := `
		SELECT p.id, p.name, COALESCE(p.description, ''), p.price, p.commission, p.delivery_price,
			COALESCE(p.image_path, ''), p.category_id, COALESCE(c.name, ''), p.delivery_mode,
			COALESCE(p.notes, ''), p.created_at
		FROM products p LEFT JOIN categories c ON c.id = p.category_id
	`
	var args []any
	if categoryID != nil {
		query += " WHERE p.category_id = $1"
		args = append(args, *categoryID)
	}
	query += " ORDER BY p.id DESC"

	rows, err := storage.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		var product model.Product
		err := rows.Scan(&product.ID, &product.Name, &product.Description, &product.Price, &product.Commission,
			&product.DeliveryPrice, &product.ImagePath, &product.CategoryID, &product.CategoryName,
			&product.DeliveryMode, &product.Notes, &product.CreatedAt)
		if err != nil {
			return products, fmt.Errorf("error scanning row: %w", err)
		}
		products = append(products, product)
	}
	if err = rows.Err(); err != nil {
		return products, fmt.Errorf("error iterating rows: %w", err)
	}
	return products, nil
}

// ----- orders -----

func (storage *DBStorage) CreateOrder(ctx context.Context, order model.Order) (int64, error) {
	var id int64
	err := storage.db.QueryRowContext(ctx, `
		INSERT INTO orders (product_id, affiliate_id, customer_name, customer_phone, customer_address, status, created_at)
		VALUES ($1, $2, $3, $4, $5, 'pending', NOW())
		RETURNING id
	`, order.ProductID, order.AffiliateID, order.CustomerName, order.CustomerPhone, order.CustomerAddress).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("error inserting order: %w", err)
	}
	return id, nil
}

const orderColumns = `
	SELECT o.id, o.product_id, o.affiliate_id, o.customer_name, o.customer_phone, o.customer_address,
		o.status, o.created_at, p.name, p.commission, p.price
	FROM orders o JOIN products p ON p.id = o.product_id
`

func (storage *DBStorage) ListOrdersByAffiliate(ctx context.Context, affiliateID int64) ([]model.Order, error) {
	rows, err := storage.db.QueryContext(ctx, orderColumns+" WHERE o.affiliate_id = $1 ORDER BY o.id DESC", affiliateID)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	return storage.collectOrders(rows)
}

func (storage *DBStorage) ListRecentOrders(ctx context.Context, limit int) ([]model.Order, error) {
	rows, err := storage.db.QueryContext(ctx, orderColumns+" ORDER BY o.id DESC LIMIT $1", limit)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	return storage.collectOrders(rows)
}

func (storage *DBStorage) collectOrders(rows *sql.Rows) ([]model.Order, error) {
	defer rows.Close()
	var orders []model.Order
	for rows.Next() {
		var order model.Order
		err := rows.Scan(&order.ID, &order.ProductID, &order.AffiliateID, &order.CustomerName,
			&order.CustomerPhone, &order.CustomerAddress, &order.Status, &order.CreatedAt,
			&order.ProductName, &order.Commission, &order.Price)
		if err != nil {
			return orders, fmt.Errorf("error scanning row: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return orders, fmt.Errorf("error iterating rows: %w", err)
	}
	return orders, nil
}

func (storage *DBStorage) SetOrderStatus(ctx context.Context, id int64, status string) error {
	result, err := storage.db.ExecContext(ctx, "UPDATE orders SET status = $1 WHERE id = $2", status, id)
	if err != nil {
		return fmt.Errorf("error updating order status: %w", err)
	}
	return requireAffected(result, apperrors.ErrOrderNotFound)
}

// ----- ledger reads -----

// Commission is summed through the product join, so the credited value
// always tracks the product's current commission column.
func (storage *DBStorage) DeliveredCommissionTotal(ctx context.Context, affiliateID int64) (decimal.Decimal, error) {
	return deliveredCommissionTotal(ctx, storage.db, affiliateID)
}

func deliveredCommissionTotal(ctx context.Context, q querier, affiliateID int64) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := q.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(p.commission), 0)
		FROM orders o JOIN products p ON p.id = o.product_id
		WHERE o.affiliate_id = $1 AND o.status = 'delivered'
	`, affiliateID).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("error summing commissions: %w", err)
	}
	return total, nil
}

func (storage *DBStorage) ActiveWithdrawalTotal(ctx context.Context, affiliateID int64) (decimal.Decimal, error) {
	return activeWithdrawalTotal(ctx, storage.db, affiliateID)
}

func activeWithdrawalTotal(ctx context.Context, q querier, affiliateID int64) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := q.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount + bonus), 0)
		FROM withdrawals
		WHERE affiliate_id = $1 AND status IN ('requested', 'approved')
	`, affiliateID).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("error summing withdrawals: %w", err)
	}
	return total, nil
}

func (storage *DBStorage) CountDeliveredSince(ctx context.Context, affiliateID int64, since time.Time) (int, error) {
	return countDeliveredSince(ctx, storage.db, affiliateID, since)
}

func countDeliveredSince(ctx context.Context, q querier, affiliateID int64, since time.Time) (int, error) {
	var count int
	err := q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM orders
		WHERE affiliate_id = $1 AND status = 'delivered' AND created_at >= $2
	`, affiliateID, since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("error counting delivered orders: %w", err)
	}
	return count, nil
}

func (storage *DBStorage) HasBonusAward(ctx context.Context, affiliateID int64, isoYear, isoWeek int) (bool, error) {
	return hasBonusAward(ctx, storage.db, affiliateID, isoYear, isoWeek)
}

func hasBonusAward(ctx context.Context, q querier, affiliateID int64, isoYear, isoWeek int) (bool, error) {
	var exists bool
	err := q.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM bonuses WHERE affiliate_id = $1 AND iso_year = $2 AND iso_week = $3)
	`, affiliateID, isoYear, isoWeek).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("error checking bonus award: %w", err)
	}
	return exists, nil
}

// ----- withdrawals -----

// SubmitWithdrawal validates the request against the balance computed inside
// the transaction and records the withdrawal together with any newly earned
// weekly bonus. The affiliate's user row is locked first so concurrent
// submissions for the same affiliate serialize instead of racing past the
// balance check.
func (storage *DBStorage) SubmitWithdrawal(ctx context.Context, req model.WithdrawalRequest, now time.Time) (model.Withdrawal, error) {
	var withdrawal model.Withdrawal

	tx, err := storage.db.Begin()
	if err != nil {
		return withdrawal, fmt.Errorf("can't start transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		} else {
			tx.Commit()
		}
	}()

	var lockedID int64
	err = tx.QueryRowContext(ctx, "SELECT id FROM users WHERE id = $1 FOR UPDATE", req.AffiliateID).Scan(&lockedID)
	if err != nil {
		if err == sql.ErrNoRows {
			err = apperrors.ErrUserNotFound
		}
		return withdrawal, err
	}

	earned, err := deliveredCommissionTotal(ctx, tx, req.AffiliateID)
	if err != nil {
		return withdrawal, err
	}
	spent, err := activeWithdrawalTotal(ctx, tx, req.AffiliateID)
	if err != nil {
		return withdrawal, err
	}
	balance := earned.Sub(spent)

	count, err := countDeliveredSince(ctx, tx, req.AffiliateID, now.Add(-ledger.BonusWindow))
	if err != nil {
		return withdrawal, err
	}
	isoYear, isoWeek := ledger.ISOYearWeek(now)
	claimed, err := hasBonusAward(ctx, tx, req.AffiliateID, isoYear, isoWeek)
	if err != nil {
		return withdrawal, err
	}
	bonus := decimal.Zero
	if !claimed {
		bonus = ledger.BonusCandidate(count, storage.limits.WeeklyBonusUnit)
	}

	if err = ledger.ValidateAmount(req.Amount, balance.Add(bonus), storage.limits.WithdrawMin); err != nil {
		return withdrawal, err
	}

	// The unique index on (affiliate_id, iso_year, iso_week) is the final
	// arbiter. Losing the insert means another request claimed the bonus
	// first; the withdrawal still goes through with bonus 0.
	awarded := decimal.Zero
	if bonus.IsPositive() {
		var result sql.Result
		result, err = tx.ExecContext(ctx, `
			INSERT INTO bonuses (affiliate_id, iso_year, iso_week, amount, created_at)
			VALUES ($1, $2, $3, $4, NOW())
			ON CONFLICT (affiliate_id, iso_year, iso_week) DO NOTHING
		`, req.AffiliateID, isoYear, isoWeek, bonus)
		if err != nil {
			return withdrawal, fmt.Errorf("error awarding bonus: %w", err)
		}
		var inserted int64
		inserted, err = result.RowsAffected()
		if err != nil {
			return withdrawal, fmt.Errorf("error checking bonus insert: %w", err)
		}
		if inserted == 1 {
			awarded = bonus
		}
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO withdrawals (affiliate_id, amount, method, details, status, bonus, created_at)
		VALUES ($1, $2, $3, $4, 'requested', $5, NOW())
		RETURNING id, created_at
	`, req.AffiliateID, req.Amount, req.Method, req.Details, awarded).Scan(&withdrawal.ID, &withdrawal.CreatedAt)
	if err != nil {
		return withdrawal, fmt.Errorf("error inserting withdrawal: %w", err)
	}

	withdrawal.AffiliateID = req.AffiliateID
	withdrawal.Amount = req.Amount
	withdrawal.Method = req.Method
	withdrawal.Details = req.Details
	withdrawal.Status = model.WithdrawalRequested
	withdrawal.Bonus = awarded
	return withdrawal, nil
}

func (storage *DBStorage) ListWithdrawalsByAffiliate(ctx context.Context, affiliateID int64) ([]model.Withdrawal, error) {
	rows, err := storage.db.QueryContext(ctx, `
		SELECT id, affiliate_id, amount, method, details, status, bonus, created_at
		FROM withdrawals WHERE affiliate_id = $1 ORDER BY id DESC
	`, affiliateID)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	return storage.collectWithdrawals(rows)
}

func (storage *DBStorage) ListPendingWithdrawals(ctx context.Context) ([]model.Withdrawal, error) {
	rows, err := storage.db.QueryContext(ctx, `
		SELECT id, affiliate_id, amount, method, details, status, bonus, created_at
		FROM withdrawals WHERE status = 'requested' ORDER BY id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	return storage.collectWithdrawals(rows)
}

func (storage *DBStorage) collectWithdrawals(rows *sql.Rows) ([]model.Withdrawal, error) {
	defer rows.Close()
	var withdrawals []model.Withdrawal
	for rows.Next() {
		var withdrawal model.Withdrawal
		err := rows.Scan(&withdrawal.ID, &withdrawal.AffiliateID, &withdrawal.Amount, &withdrawal.Method,
			&withdrawal.Details, &withdrawal.Status, &withdrawal.Bonus, &withdrawal.CreatedAt)
		if err != nil {
			return withdrawals, fmt.Errorf("error scanning row: %w", err)
		}
		withdrawals = append(withdrawals, withdrawal)
	}
	if err := rows.Err(); err != nil {
		return withdrawals, fmt.Errorf("error iterating rows: %w", err)
	}
	return withdrawals, nil
}

// SetWithdrawalStatus moves a requested withdrawal to approved or rejected.
// Both target states are terminal, so anything not in requested is refused.
func (storage *DBStorage) SetWithdrawalStatus(ctx context.Context, id int64, status string) error {
	tx, err := storage.db.Begin()
	if err != nil {
		return fmt.Errorf("can't start transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		} else {
			tx.Commit()
		}
	}()

	var current string
	err = tx.QueryRowContext(ctx, "SELECT status FROM withdrawals WHERE id = $1 FOR UPDATE", id).Scan(&current)
	if err != nil {
		if err == sql.ErrNoRows {
			err = apperrors.ErrWithdrawalNotFound
		}
		return err
	}
	if current != model.WithdrawalRequested {
		err = apperrors.ErrStatusFinal
		return err
	}

	_, err = tx.ExecContext(ctx, "UPDATE withdrawals SET status = $1 WHERE id = $2", status, id)
	if err != nil {
		return fmt.Errorf("error updating withdrawal status: %w", err)
	}
	return nil
}

// ----- pages and stats -----

func (storage *DBStorage) GetPage(ctx context.Context, slug string) (model.Page, error) {
	var page model.Page
	err := storage.db.QueryRowContext(ctx,
		"SELECT id, slug, title, content FROM pages WHERE slug = $1", slug).
		Scan(&page.ID, &page.Slug, &page.Title, &page.Content)
	if err != nil {
		if err == sql.ErrNoRows {
			return page, apperrors.ErrPageNotFound
		}
		return page, fmt.Errorf("error retrieving page: %w", err)
	}
	return page, nil
}

func (storage *DBStorage) UpsertPage(ctx context.Context, page model.Page) error {
	_, err := storage.db.ExecContext(ctx, `
		INSERT INTO pages (slug, title, content) VALUES ($1, $2, $3)
		ON CONFLICT (slug) DO UPDATE SET title = EXCLUDED.title, content = EXCLUDED.content
	`, page.Slug, page.Title, page.Content)
	if err != nil {
		return fmt.Errorf("error saving page: %w", err)
	}
	return nil
}

func (storage *DBStorage) ListPages(ctx context.Context) ([]model.Page, error) {
	rows, err := storage.db.QueryContext(ctx, "SELECT id, slug, title, content FROM pages ORDER BY slug")
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	var pages []model.Page
	for rows.Next() {
		var page model.Page
		if err := rows.Scan(&page.ID, &page.Slug, &page.Title, &page.Content); err != nil {
			return pages, fmt.Errorf("error scanning row: %w", err)
		}
		pages = append(pages, page)
	}
	if err = rows.Err(); err != nil {
		return pages, fmt.Errorf("error iterating rows: %w", err)
	}
	return pages, nil
}

func (storage *DBStorage) DashboardStats(ctx context.Context) (model.DashboardStats, error) {
	var stats model.DashboardStats
	err := storage.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE status = 'delivered'),
			COUNT(*) FILTER (WHERE status = 'pending'),
			COUNT(*) FILTER (WHERE status = 'canceled')
		FROM orders
	`).Scan(&stats.OrdersTotal, &stats.Delivered, &stats.Pending, &stats.Canceled)
	if err != nil {
		return stats, fmt.Errorf("error retrieving stats: %w", err)
	}
	return stats, nil
}

func requireAffected(result sql.Result, missing error) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error checking affected rows: %w", err)
	}
	if affected == 0 {
		return missing
	}
	return nil
}
