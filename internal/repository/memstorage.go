package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	apperrors "github.com/khalidbou/affiliate_store/internal/error"
	"github.com/khalidbou/affiliate_store/internal/ledger"
	"github.com/khalidbou/affiliate_store/internal/model"
)

type bonusKey struct {
	affiliateID int64
	isoYear     int
	isoWeek     int
}

// MemStorage is an in-memory Repository used in tests. It honors the same
// contract as DBStorage, including the award-once bonus rule and the
// serialized withdrawal submission (a single mutex stands in for the row
// lock).
type MemStorage struct {
	mu          sync.Mutex
	nextID      int64
	users       map[int64]model.User
	categories  map[int64]model.Category
	products    map[int64]model.Product
	orders      map[int64]model.Order
	withdrawals map[int64]model.Withdrawal
	bonuses     map[bonusKey]model.BonusAward
	pages       map[string]model.Page
	limits      ledger.Limits
}

func NewMemStorage(limits ledger.Limits) *MemStorage {
	return &MemStorage{
		users:       make(map[int64]model.User),
		categories:  make(map[int64]model.Category),
		products:    make(map[int64]model.Product),
		orders:      make(map[int64]model.Order),
		withdrawals: make(map[int64]model.Withdrawal),
		bonuses:     make(map[bonusKey]model.BonusAward),
		pages:       make(map[string]model.Page),
		limits:      limits,
	}
}

func (storage *MemStorage) id() int64 {
	storage.nextID++
	return storage.nextID
}

func (storage *MemStorage) Close() error               { return nil }
func (storage *MemStorage) Ping(context.Context) error { return nil }

// ----- users -----

func (storage *MemStorage) CreateAffiliate(_ context.Context, reg model.Registration, passwordHash string) (int64, error) {
	storage.mu.Lock()
	defer storage.mu.Unlock()
	for _, user := range storage.users {
		if user.Email == reg.Email {
			return 0, apperrors.ErrUserAlreadyExists
		}
	}
	user := model.User{
		ID:           storage.id(),
		Name:         reg.Name,
		Email:        reg.Email,
		PasswordHash: passwordHash,
		Role:         model.RoleAffiliate,
		Phone:        reg.Phone,
		CreatedAt:    time.Now().UTC(),
	}
	storage.users[user.ID] = user
	return user.ID, nil
}

func (storage *MemStorage) GetUserByEmail(_ context.Context, email string) (model.User, error) {
	storage.mu.Lock()
	defer storage.mu.Unlock()
	for _, user := range storage.users {
		if user.Email == email {
			return user, nil
		}
	}
	return model.User{}, apperrors.ErrUserNotFound
}

func (storage *MemStorage) GetUserByID(_ context.Context, id int64) (model.User, error) {
	storage.mu.Lock()
	defer storage.mu.Unlock()
	user, ok := storage.users[id]
	if !ok {
		return model.User{}, apperrors.ErrUserNotFound
	}
	return user, nil
}

func (storage *MemStorage) ListAffiliates(context.Context) ([]model.User, error) {
	storage.mu.Lock()
	defer storage.mu.Unlock()
	var affiliates []model.User
	for _, user := range storage.users {
		if user.Role == model.RoleAffiliate {
			affiliates = append(affiliates, user)
		}
	}
	sort.Slice(affiliates, func(i, j int) bool { return affiliates[i].ID > affiliates[j].ID })
	return affiliates, nil
}

func (storage *MemStorage) SetAffiliateApproval(_ context.Context, id int64, approved bool) error {
	storage.mu.Lock()
	defer storage.mu.Unlock()
	user, ok := storage.users[id]
	if !ok || user.Role != model.RoleAffiliate {
		return apperrors.ErrUserNotFound
	}
	user.Approved = approved
	storage.users[id] = user
	return nil
}

func (storage *MemStorage) UpdatePassword(_ context.Context, id int64, passwordHash string) error {
	storage.mu.Lock()
	defer storage.mu.Unlock()
	user, ok := storage.users[id]
	if !ok {
		return apperrors.ErrUserNotFound
	}
	user.PasswordHash = passwordHash
	storage.users[id] = user
	return nil
}

func (storage *MemStorage) UpdateEmail(_ context.Context, id int64, email string) error {
	storage.mu.Lock()
	defer storage.mu.Unlock()
	for _, user := range storage.users {
		if user.Email == email && user.ID != id {
			return apperrors.ErrUserAlreadyExists
		}
	}
	user, ok := storage.users[id]
	if !ok {
		return apperrors.ErrUserNotFound
	}
	user.Email = email
	storage.users[id] = user
	return nil
}

func (storage *MemStorage) EnsureAdmin(_ context.Context, passwordHash string) error {
	storage.mu.Lock()
	defer storage.mu.Unlock()
	for _, user := range storage.users {
		if user.Role == model.RoleAdmin {
			return nil
		}
	}
	admin := model.User{
		ID:           storage.id(),
		Name:         "Admin",
		Email:        "admin@local",
		PasswordHash: passwordHash,
		Role:         model.RoleAdmin,
		Approved:     true,
		CreatedAt:    time.Now().UTC(),
	}
	storage.users[admin.ID] = admin
	return nil
}

// ----- catalog -----

func (storage *MemStorage) CreateCategory(_ context.Context, name string) (int64, error) {
	storage.mu.Lock()
	defer storage.mu.Unlock()
	for _, category := range storage.categories {
		if category.Name == name {
			return 0, apperrors.ErrCategoryExists
		}
	}
	category := model.Category{ID: storage.id(), Name: name}
	storage.categories[category.ID] = category
	return category.ID, nil
}

func (storage *MemStorage) ListCategories(context.Context) ([]model.Category, error) {
	storage.mu.Lock()
	defer storage.mu.Unlock()
	var categories []model.Category
	for _, category := range storage.categories {
		categories = append(categories, category)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].Name < categories[j].Name })
	return categories, nil
}

func (storage *MemStorage) CreateProduct(_ context.Context, product model.Product) (int64, error) {
	storage.mu.Lock()
	defer storage.mu.Unlock()
	product.ID = storage.id()
	if product.CreatedAt.IsZero() {
		product.CreatedAt = time.Now().UTC()
	}
	storage.products[product.ID] = product
	return product.ID, nil
}

func (storage *MemStorage) UpdateProduct(_ context.Context, product model.Product) error {
	storage.mu.Lock()
	defer storage.mu.Unlock()
	existing, ok := storage.products[product.ID]
	if !ok {
		return apperrors.ErrProductNotFound
	}
	product.CreatedAt = existing.CreatedAt
	storage.products[product.ID] = product
	return nil
}

func (storage *MemStorage) DeleteProduct(_ context.Context, id int64) error {
	storage.mu.Lock()
	defer storage.mu.Unlock()
	if _, ok := storage.products[id]; !ok {
		return apperrors.ErrProductNotFound
	}
	delete(storage.products, id)
	return nil
}

func (storage *MemStorage) GetProduct(_ context.Context, id int64) (model.Product, error) {
	storage.mu.Lock()
	defer storage.mu.Unlock()
	product, ok := storage.products[id]
	if !ok {
		return model.Product{}, apperrors.ErrProductNotFound
	}
	return product, nil
}

func (storage *MemStorage) ListProducts(_ context.Context, categoryID *int64) ([]model.Product, error) {
	storage.mu.Lock()
	defer storage.mu.Unlock()
	var products []model.Product
	for _, product := range storage.products {
		if categoryID != nil && (product.CategoryID == nil || *product.CategoryID != *categoryID) {
			continue
		}
		products = append(products, product)
	}
	sort.Slice(products, func(i, j int) bool { return products[i].ID > products[j].ID })
	return products, nil
}

// ----- orders -----

func (storage *MemStorage) CreateOrder(_ context.Context, order model.Order) (int64, error) {
	storage.mu.Lock()
	defer storage.mu.Unlock()
	if _, ok := storage.products[order.ProductID]; !ok {
		return 0, apperrors.ErrProductNotFound
	}
	order.ID = storage.id()
	order.Status = model.OrderPending
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now().UTC()
	}
	storage.orders[order.ID] = order
	return order.ID, nil
}

func (storage *MemStorage) ListOrdersByAffiliate(_ context.Context, affiliateID int64) ([]model.Order, error) {
	storage.mu.Lock()
	defer storage.mu.Unlock()
	var orders []model.Order
	for _, order := range storage.orders {
		if order.AffiliateID == affiliateID {
			orders = append(orders, storage.joinProduct(order))
		}
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].ID > orders[j].ID })
	return orders, nil
}

func (storage *MemStorage) ListRecentOrders(_ context.Context, limit int) ([]model.Order, error) {
	storage.mu.Lock()
	defer storage.mu.Unlock()
	var orders []model.Order
	for _, order := range storage.orders {
		orders = append(orders, storage.joinProduct(order))
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].ID > orders[j].ID })
	if len(orders) > limit {
		orders = orders[:limit]
	}
	return orders, nil
}

func (storage *MemStorage) joinProduct(order model.Order) model.Order {
	if product, ok := storage.products[order.ProductID]; ok {
		order.ProductName = product.Name
		order.Commission = product.Commission
		order.Price = product.Price
	}
	return order
}

func (storage *MemStorage) SetOrderStatus(_ context.Context, id int64, status string) error {
	storage.mu.Lock()
	defer storage.mu.Unlock()
	order, ok := storage.orders[id]
	if !ok {
		return apperrors.ErrOrderNotFound
	}
	order.Status = status
	storage.orders[id] = order
	return nil
}

// ----- ledger reads -----

func (storage *MemStorage) DeliveredCommissionTotal(_ context.Context, affiliateID int64) (decimal.Decimal, error) {
	storage.mu.Lock()
	defer storage.mu.Unlock()
	return storage.deliveredCommissionLocked(affiliateID), nil
}

func (storage *MemStorage) deliveredCommissionLocked(affiliateID int64) decimal.Decimal {
	total := decimal.Zero
	for _, order := range storage.orders {
		if order.AffiliateID != affiliateID || order.Status != model.OrderDelivered {
			continue
		}
		// Live product read, same as the SQL join
		if product, ok := storage.products[order.ProductID]; ok {
			total = total.Add(product.Commission)
		}
	}
	return total
}

func (storage *MemStorage) ActiveWithdrawalTotal(_ context.Context, affiliateID int64) (decimal.Decimal, error) {
	storage.mu.Lock()
	defer storage.mu.Unlock()
	return storage.activeWithdrawalLocked(affiliateID), nil
}

func (storage *MemStorage) activeWithdrawalLocked(affiliateID int64) decimal.Decimal {
	total := decimal.Zero
	for _, withdrawal := range storage.withdrawals {
		if withdrawal.AffiliateID != affiliateID {
			continue
		}
		if withdrawal.Status == model.WithdrawalRequested || withdrawal.Status == model.WithdrawalApproved {
			total = total.Add(withdrawal.Amount).Add(withdrawal.Bonus)
		}
	}
	return total
}

func (storage *MemStorage) CountDeliveredSince(_ context.Context, affiliateID int64, since time.Time) (int, error) {
	storage.mu.Lock()
	defer storage.mu.Unlock()
	return storage.countDeliveredLocked(affiliateID, since), nil
}

func (storage *MemStorage) countDeliveredLocked(affiliateID int64, since time.Time) int {
	count := 0
	for _, order := range storage.orders {
		if order.AffiliateID == affiliateID && order.Status == model.OrderDelivered && !order.CreatedAt.Before(since) {
			count++
		}
	}
	return count
}

func (storage *MemStorage) HasBonusAward(_ context.Context, affiliateID int64, isoYear, isoWeek int) (bool, error) {
	storage.mu.Lock()
	defer storage.mu.Unlock()
	_, ok := storage.bonuses[bonusKey{affiliateID, isoYear, isoWeek}]
	return ok, nil
}

// ----- withdrawals -----

func (storage *MemStorage) SubmitWithdrawal(_ context.Context, req model.WithdrawalRequest, now time.Time) (model.Withdrawal, error) {
	storage.mu.Lock()
	defer storage.mu.Unlock()

	if _, ok := storage.users[req.AffiliateID]; !ok {
		return model.Withdrawal{}, apperrors.ErrUserNotFound
	}

	balance := storage.deliveredCommissionLocked(req.AffiliateID).
		Sub(storage.activeWithdrawalLocked(req.AffiliateID))

	isoYear, isoWeek := ledger.ISOYearWeek(now)
	key := bonusKey{req.AffiliateID, isoYear, isoWeek}
	bonus := decimal.Zero
	if _, claimed := storage.bonuses[key]; !claimed {
		count := storage.countDeliveredLocked(req.AffiliateID, now.Add(-ledger.BonusWindow))
		bonus = ledger.BonusCandidate(count, storage.limits.WeeklyBonusUnit)
	}

	if err := ledger.ValidateAmount(req.Amount, balance.Add(bonus), storage.limits.WithdrawMin); err != nil {
		return model.Withdrawal{}, err
	}

	awarded := decimal.Zero
	if bonus.IsPositive() {
		storage.bonuses[key] = model.BonusAward{
			ID:          storage.id(),
			AffiliateID: req.AffiliateID,
			ISOYear:     isoYear,
			ISOWeek:     isoWeek,
			Amount:      bonus,
			CreatedAt:   now,
		}
		awarded = bonus
	}

	withdrawal := model.Withdrawal{
		ID:          storage.id(),
		AffiliateID: req.AffiliateID,
		Amount:      req.Amount,
		Method:      req.Method,
		Details:     req.Details,
		Status:      model.WithdrawalRequested,
		Bonus:       awarded,
		CreatedAt:   now,
	}
	storage.withdrawals[withdrawal.ID] = withdrawal
	return withdrawal, nil
}

func (storage *MemStorage) ListWithdrawalsByAffiliate(_ context.Context, affiliateID int64) ([]model.Withdrawal, error) {
	storage.mu.Lock()
	defer storage.mu.Unlock()
	var withdrawals []model.Withdrawal
	for _, withdrawal := range storage.withdrawals {
		if withdrawal.AffiliateID == affiliateID {
			withdrawals = append(withdrawals, withdrawal)
		}
	}
	sort.Slice(withdrawals, func(i, j int) bool { return withdrawals[i].ID > withdrawals[j].ID })
	return withdrawals, nil
}

func (storage *MemStorage) ListPendingWithdrawals(context.Context) ([]model.Withdrawal, error) {
	storage.mu.Lock()
	defer storage.mu.Unlock()
	var withdrawals []model.Withdrawal
	for _, withdrawal := range storage.withdrawals {
		if withdrawal.Status == model.WithdrawalRequested {
			withdrawals = append(withdrawals, withdrawal)
		}
	}
	sort.Slice(withdrawals, func(i, j int) bool { return withdrawals[i].ID > withdrawals[j].ID })
	return withdrawals, nil
}

func (storage *MemStorage) SetWithdrawalStatus(_ context.Context, id int64, status string) error {
	storage.mu.Lock()
	defer storage.mu.Unlock()
	withdrawal, ok := storage.withdrawals[id]
	if !ok {
		return apperrors.ErrWithdrawalNotFound
	}
	if withdrawal.Status != model.WithdrawalRequested {
		return apperrors.ErrStatusFinal
	}
	withdrawal.Status = status
	storage.withdrawals[id] = withdrawal
	return nil
}

// ----- pages and stats -----

func (storage *MemStorage) GetPage(_ context.Context, slug string) (model.Page, error) {
	storage.mu.Lock()
	defer storage.mu.Unlock()
	page, ok := storage.pages[slug]
	if !ok {
		return model.Page{}, apperrors.ErrPageNotFound
	}
	return page, nil
}

func (storage *MemStorage) UpsertPage(_ context.Context, page model.Page) error {
	storage.mu.Lock()
	defer storage.mu.Unlock()
	if existing, ok := storage.pages[page.Slug]; ok {
		page.ID = existing.ID
	} else {
		page.ID = storage.id()
	}
	storage.pages[page.Slug] = page
	return nil
}

func (storage *MemStorage) ListPages(context.Context) ([]model.Page, error) {
	storage.mu.Lock()
	defer storage.mu.Unlock()
	var pages []model.Page
	for _, page := range storage.pages {
		pages = append(pages, page)
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i].Slug < pages[j].Slug })
	return pages, nil
}

func (storage *MemStorage) DashboardStats(context.Context) (model.DashboardStats, error) {
	storage.mu.Lock()
	defer storage.mu.Unlock()
	var stats model.DashboardStats
	for _, order := range storage.orders {
		stats.OrdersTotal++
		switch order.Status {
		case model.OrderDelivered:
			stats.Delivered++
		case model.OrderPending:
			stats.Pending++
		case model.OrderCanceled:
			stats.Canceled++
		}
	}
	return stats, nil
}
