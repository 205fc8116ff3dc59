package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/jwtauth/v5"
	"go.uber.org/zap"

	"github.com/khalidbou/affiliate_store/internal/config"
	apperrors "github.com/khalidbou/affiliate_store/internal/error"
	appmiddleware "github.com/khalidbou/affiliate_store/internal/middleware"
	"github.com/khalidbou/affiliate_store/internal/model"
	"github.com/khalidbou/affiliate_store/internal/service"
)

func Router(
	logger *zap.SugaredLogger,
	systemConfig *config.SystemConfig,
	store *service.StorefrontService,
) chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.StripSlashes)
	router.Use(appmiddleware.LoggingMiddleware(logger))
	router.Use(appmiddleware.GzipMiddleware)
	router.Use(middleware.Timeout(15 * time.Second))

	tokenAuth := jwtauth.New(systemConfig.JwtAlgorithm, []byte(systemConfig.JwtSecretKey), nil)

	// Public routes
	router.Group(func(r chi.Router) {
		r.Post("/api/register", func(w http.ResponseWriter, r *http.Request) {
			SignUpHandler(w, r, logger, store)
		})
		r.Post("/api/login", func(w http.ResponseWriter, r *http.Request) {
			SignInHandler(w, r, logger, store, tokenAuth)
		})
		r.Get("/api/pages/{slug}", func(w http.ResponseWriter, r *http.Request) {
			GetPageHandler(w, r, logger, store)
		})
	})

	// Affiliate routes
	router.Group(func(r chi.Router) {
		r.Use(jwtauth.Verifier(tokenAuth))
		r.Use(jwtauth.Authenticator(tokenAuth))
		r.Use(RequireRole(model.RoleAffiliate))

		r.Get("/api/products", func(w http.ResponseWriter, r *http.Request) {
			ListProductsHandler(w, r, logger, store)
		})
		r.Get("/api/products/{id}", func(w http.ResponseWriter, r *http.Request) {
			GetProductHandler(w, r, logger, store)
		})
		r.Get("/api/categories", func(w http.ResponseWriter, r *http.Request) {
			ListCategoriesHandler(w, r, logger, store)
		})
		r.Post("/api/orders", func(w http.ResponseWriter, r *http.Request) {
			CreateOrderHandler(w, r, logger, store)
		})
		r.Get("/api/orders", func(w http.ResponseWriter, r *http.Request) {
			ListOrdersHandler(w, r, logger, store)
		})
		r.Get("/api/commissions", func(w http.ResponseWriter, r *http.Request) {
			CommissionsHandler(w, r, logger, store)
		})
		r.Post("/api/withdrawals", func(w http.ResponseWriter, r *http.Request) {
			SubmitWithdrawalHandler(w, r, logger, store)
		})
		r.Post("/api/password", func(w http.ResponseWriter, r *http.Request) {
			ChangePasswordHandler(w, r, logger, store)
		})
	})

	// Admin routes
	router.Group(func(r chi.Router) {
		r.Use(jwtauth.Verifier(tokenAuth))
		r.Use(jwtauth.Authenticator(tokenAuth))
		r.Use(RequireRole(model.RoleAdmin))

		r.Get("/api/admin/dashboard", func(w http.ResponseWriter, r *http.Request) {
			DashboardHandler(w, r, logger, store)
		})
		r.Post("/api/admin/settings", func(w http.ResponseWriter, r *http.Request) {
			AdminSettingsHandler(w, r, logger, store)
		})
		r.Get("/api/admin/affiliates", func(w http.ResponseWriter, r *http.Request) {
			ListAffiliatesHandler(w, r, logger, store)
		})
		r.Post("/api/admin/affiliates/{id}/approval", func(w http.ResponseWriter, r *http.Request) {
			SetApprovalHandler(w, r, logger, store)
		})
		r.Post("/api/admin/affiliates/{id}/password", func(w http.ResponseWriter, r *http.Request) {
			ResetPasswordHandler(w, r, logger, store)
		})
		r.Post("/api/admin/categories", func(w http.ResponseWriter, r *http.Request) {
			CreateCategoryHandler(w, r, logger, store)
		})
		r.Post("/api/admin/products", func(w http.ResponseWriter, r *http.Request) {
			CreateProductHandler(w, r, logger, store)
		})
		r.Put("/api/admin/products/{id}", func(w http.ResponseWriter, r *http.Request) {
			UpdateProductHandler(w, r, logger, store)
		})
		r.Delete("/api/admin/products/{id}", func(w http.ResponseWriter, r *http.Request) {
			DeleteProductHandler(w, r, logger, store)
		})
		r.Post("/api/admin/orders/{id}/status", func(w http.ResponseWriter, r *http.Request) {
			SetOrderStatusHandler(w, r, logger, store)
		})
		r.Get("/api/admin/withdrawals", func(w http.ResponseWriter, r *http.Request) {
			ListPendingWithdrawalsHandler(w, r, logger, store)
		})
		r.Post("/api/admin/withdrawals/{id}/status", func(w http.ResponseWriter, r *http.Request) {
			SetWithdrawalStatusHandler(w, r, logger, store)
		})
		r.Get("/api/admin/pages", func(w http.ResponseWriter, r *http.Request) {
			ListPagesHandler(w, r, logger, store)
		})
		r.Put("/api/admin/pages/{slug}", func(w http.ResponseWriter, r *http.Request) {
			SavePageHandler(w, r, logger, store)
		})
	})

	return router
}

// RequireRole gates a route group on the role claim. The JWT layers before
// it already confirmed the token itself, so handlers can trust the identity.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, claims, err := jwtauth.FromContext(r.Context())
			if err != nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			if claimsRole(claims) != role {
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func callerID(r *http.Request) (int64, bool) {
	_, claims, err := jwtauth.FromContext(r.Context())
	if err != nil {
		return 0, false
	}
	return claimsUserID(claims)
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

// ----- public -----

func SignUpHandler(w http.ResponseWriter, r *http.Request, logger *zap.SugaredLogger, store *service.StorefrontService) {
	var reg model.Registration
	if err := decodeBody(r, &reg); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	id, err := store.Register(r.Context(), reg)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrUserAlreadyExists):
			logger.Warnw("Registration attempt for existing user", "email", reg.Email)
			http.Error(w, "Email already registered", http.StatusConflict)
		case errors.Is(err, apperrors.ErrInvalidRequest), errors.Is(err, apperrors.ErrWeakPassword):
			http.Error(w, "All fields are required, password at least 6 characters", http.StatusBadRequest)
		default:
			logger.Errorw("Failed to register user", "email", reg.Email, "error", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	// New accounts wait for admin approval before they can log in
	writeJSON(w, http.StatusCreated, map[string]any{"id": id, "approved": false})
}

func SignInHandler(w http.ResponseWriter, r *http.Request, logger *zap.SugaredLogger, store *service.StorefrontService, tokenAuth *jwtauth.JWTAuth) {
	var creds model.Credentials
	if err := decodeBody(r, &creds); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := store.Login(r.Context(), creds)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrUserNotFound),
			errors.Is(err, apperrors.ErrInvalidPassword),
			errors.Is(err, apperrors.ErrInvalidCredentials):
			http.Error(w, "Invalid email or password", http.StatusUnauthorized)
		case errors.Is(err, apperrors.ErrUserNotApproved):
			http.Error(w, "Account pending approval", http.StatusForbidden)
		default:
			logger.Errorw("Failed to authenticate user", "error", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	_, tokenString, err := tokenAuth.Encode(map[string]interface{}{
		"user_id": user.ID,
		"role":    user.Role,
	})
	if err != nil {
		logger.Errorw("Failed to generate JWT token", "email", user.Email, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Authorization", "Bearer "+tokenString)
	writeJSON(w, http.StatusOK, map[string]string{"token": tokenString, "role": user.Role})
}

func GetPageHandler(w http.ResponseWriter, r *http.Request, logger *zap.SugaredLogger, store *service.StorefrontService) {
	page, err := store.GetPage(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		if errors.Is(err, apperrors.ErrPageNotFound) {
			http.Error(w, "Page not found", http.StatusNotFound)
			return
		}
		logger.Errorw("Failed to get page", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// ----- affiliate -----

func ListProductsHandler(w http.ResponseWriter, r *http.Request, logger *zap.SugaredLogger, store *service.StorefrontService) {
	var categoryID *int64
	if raw := r.URL.Query().Get("cat"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			http.Error(w, "Invalid category id", http.StatusBadRequest)
			return
		}
		categoryID = &id
	}

	products, err := store.ListProducts(r.Context(), categoryID)
	if err != nil {
		logger.Errorw("Failed to list products", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if len(products) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func GetProductHandler(w http.ResponseWriter, r *http.Request, logger *zap.SugaredLogger, store *service.StorefrontService) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid product id", http.StatusBadRequest)
		return
	}
	product, err := store.GetProduct(r.Context(), id)
	if err != nil {
		if errors.Is(err, apperrors.ErrProductNotFound) {
			http.Error(w, "Product not found", http.StatusNotFound)
			return
		}
		logger.Errorw("Failed to get product", "id", id, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func ListCategoriesHandler(w http.ResponseWriter, r *http.Request, logger *zap.SugaredLogger, store *service.StorefrontService) {
	categories, err := store.ListCategories(r.Context())
	if err != nil {
		logger.Errorw("Failed to list categories", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

func CreateOrderHandler(w http.ResponseWriter, r *http.Request, logger *zap.SugaredLogger, store *service.StorefrontService) {
	affiliateID, ok := callerID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var order model.Order
	if err := decodeBody(r, &order); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	order.AffiliateID = affiliateID

	id, err := store.CreateOrder(r.Context(), order)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrInvalidRequest):
			http.Error(w, "Customer name, phone and address are required", http.StatusBadRequest)
		case errors.Is(err, apperrors.ErrProductNotFound):
			http.Error(w, "Product not found", http.StatusNotFound)
		default:
			logger.Errorw("Failed to create order", "affiliate", affiliateID, "error", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	logger.Infow("Order created", "affiliate", affiliateID, "order", id, "product", order.ProductID)
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func ListOrdersHandler(w http.ResponseWriter, r *http.Request, logger *zap.SugaredLogger, store *service.StorefrontService) {
	affiliateID, ok := callerID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	orders, err := store.ListOrders(r.Context(), affiliateID)
	if err != nil {
		logger.Errorw("Failed to list orders", "affiliate", affiliateID, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if len(orders) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func CommissionsHandler(w http.ResponseWriter, r *http.Request, logger *zap.SugaredLogger, store *service.StorefrontService) {
	affiliateID, ok := callerID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	commissions, err := store.Commissions(r.Context(), affiliateID, time.Now().UTC())
	if err != nil {
		logger.Errorw("Failed to get commissions", "affiliate", affiliateID, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, commissions)
}

func SubmitWithdrawalHandler(w http.ResponseWriter, r *http.Request, logger *zap.SugaredLogger, store *service.StorefrontService) {
	affiliateID, ok := callerID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req model.WithdrawalRequest
	if err := decodeBody(r, &req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	req.AffiliateID = affiliateID

	withdrawal, err := store.SubmitWithdrawal(r.Context(), req, time.Now().UTC())
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrInvalidMethod):
			http.Error(w, "Choose CCP or RIB", http.StatusBadRequest)
		case errors.Is(err, apperrors.ErrMissingDetails):
			http.Error(w, "Payout details are required", http.StatusBadRequest)
		case errors.Is(err, apperrors.ErrInvalidAmount):
			http.Error(w, "Invalid withdrawal amount", http.StatusBadRequest)
		case errors.Is(err, apperrors.ErrBelowMinimum):
			http.Error(w, "Amount below withdrawal minimum", http.StatusBadRequest)
		case errors.Is(err, apperrors.ErrInsufficientFunds):
			logger.Warnw("Insufficient funds for withdrawal", "affiliate", affiliateID, "amount", req.Amount.String())
			http.Error(w, "Insufficient funds", http.StatusPaymentRequired)
		default:
			logger.Errorw("Failed to process withdrawal", "affiliate", affiliateID, "error", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	// Bonus may come back 0 even when the pending figure was positive, if a
	// concurrent request claimed the week first.
	writeJSON(w, http.StatusCreated, map[string]any{
		"id":            withdrawal.ID,
		"amount":        withdrawal.Amount,
		"bonus_awarded": withdrawal.Bonus,
		"status":        withdrawal.Status,
	})
}

func ChangePasswordHandler(w http.ResponseWriter, r *http.Request, logger *zap.SugaredLogger, store *service.StorefrontService) {
	userID, ok := callerID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var payload struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := decodeBody(r, &payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	err := store.ChangePassword(r.Context(), userID, payload.CurrentPassword, payload.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrWeakPassword):
			http.Error(w, "Password must be at least 6 characters", http.StatusBadRequest)
		case errors.Is(err, apperrors.ErrInvalidPassword):
			http.Error(w, "Current password is incorrect", http.StatusBadRequest)
		default:
			logger.Errorw("Failed to change password", "user", userID, "error", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}
	w.WriteHeader(http.StatusOK)
}

// ----- admin -----

func DashboardHandler(w http.ResponseWriter, r *http.Request, logger *zap.SugaredLogger, store *service.StorefrontService) {
	ctx := r.Context()
	stats, err := store.DashboardStats(ctx)
	if err != nil {
		logger.Errorw("Failed to get dashboard stats", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	pending, err := store.ListPendingWithdrawals(ctx)
	if err != nil {
		logger.Errorw("Failed to list pending withdrawals", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	recent, err := store.RecentOrders(ctx)
	if err != nil {
		logger.Errorw("Failed to list recent orders", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"stats":               stats,
		"pending_withdrawals": pending,
		"recent_orders":       recent,
	})
}

func AdminSettingsHandler(w http.ResponseWriter, r *http.Request, logger *zap.SugaredLogger, store *service.StorefrontService) {
	adminID, ok := callerID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeBody(r, &payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	err := store.UpdateAdminSettings(r.Context(), adminID, payload.Email, payload.Password)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrInvalidRequest):
			http.Error(w, "Email is required", http.StatusBadRequest)
		case errors.Is(err, apperrors.ErrWeakPassword):
			http.Error(w, "Password must be at least 6 characters", http.StatusBadRequest)
		case errors.Is(err, apperrors.ErrUserAlreadyExists):
			http.Error(w, "Email already in use", http.StatusConflict)
		case errors.Is(err, apperrors.ErrUserNotFound):
			http.Error(w, "Account not found", http.StatusNotFound)
		default:
			logger.Errorw("Failed to update admin settings", "admin", adminID, "error", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	logger.Infow("Admin settings updated", "admin", adminID)
	w.WriteHeader(http.StatusOK)
}

func ListAffiliatesHandler(w http.ResponseWriter, r *http.Request, logger *zap.SugaredLogger, store *service.StorefrontService) {
	affiliates, err := store.ListAffiliates(r.Context())
	if err != nil {
		logger.Errorw("Failed to list affiliates", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, affiliates)
}

func SetApprovalHandler(w http.ResponseWriter, r *http.Request, logger *zap.SugaredLogger, store *service.StorefrontService) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid affiliate id", http.StatusBadRequest)
		return
	}

	var payload struct {
		Approved bool `json:"approved"`
	}
	if err := decodeBody(r, &payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := store.SetAffiliateApproval(r.Context(), id, payload.Approved); err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			http.Error(w, "Affiliate not found", http.StatusNotFound)
			return
		}
		logger.Errorw("Failed to set approval", "affiliate", id, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	logger.Infow("Affiliate approval updated", "affiliate", id, "approved", payload.Approved)
	w.WriteHeader(http.StatusOK)
}

func ResetPasswordHandler(w http.ResponseWriter, r *http.Request, logger *zap.SugaredLogger, store *service.StorefrontService) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid affiliate id", http.StatusBadRequest)
		return
	}

	var payload struct {
		Password string `json:"password"`
	}
	if err := decodeBody(r, &payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	err = store.ResetAffiliatePassword(r.Context(), id, payload.Password)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrWeakPassword):
			http.Error(w, "Password must be at least 6 characters", http.StatusBadRequest)
		case errors.Is(err, apperrors.ErrUserNotFound):
			http.Error(w, "Affiliate not found", http.StatusNotFound)
		default:
			logger.Errorw("Failed to reset password", "affiliate", id, "error", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}
	w.WriteHeader(http.StatusOK)
}

func CreateCategoryHandler(w http.ResponseWriter, r *http.Request, logger *zap.SugaredLogger, store *service.StorefrontService) {
	var payload struct {
		Name string `json:"name"`
	}
	if err := decodeBody(r, &payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	id, err := store.CreateCategory(r.Context(), payload.Name)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrInvalidRequest):
			http.Error(w, "Category name is required", http.StatusBadRequest)
		case errors.Is(err, apperrors.ErrCategoryExists):
			http.Error(w, "Category already exists", http.StatusConflict)
		default:
			logger.Errorw("Failed to create category", "error", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func CreateProductHandler(w http.ResponseWriter, r *http.Request, logger *zap.SugaredLogger, store *service.StorefrontService) {
	var product model.Product
	if err := decodeBody(r, &product); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	id, err := store.CreateProduct(r.Context(), product)
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidRequest) {
			http.Error(w, "Invalid product fields", http.StatusBadRequest)
			return
		}
		logger.Errorw("Failed to create product", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func UpdateProductHandler(w http.ResponseWriter, r *http.Request, logger *zap.SugaredLogger, store *service.StorefrontService) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid product id", http.StatusBadRequest)
		return
	}

	var product model.Product
	if err := decodeBody(r, &product); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	product.ID = id

	if err := store.UpdateProduct(r.Context(), product); err != nil {
		switch {
		case errors.Is(err, apperrors.ErrInvalidRequest):
			http.Error(w, "Invalid product fields", http.StatusBadRequest)
		case errors.Is(err, apperrors.ErrProductNotFound):
			http.Error(w, "Product not found", http.StatusNotFound)
		default:
			logger.Errorw("Failed to update product", "id", id, "error", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}
	w.WriteHeader(http.StatusOK)
}

func DeleteProductHandler(w http.ResponseWriter, r *http.Request, logger *zap.SugaredLogger, store *service.StorefrontService) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid product id", http.StatusBadRequest)
		return
	}

	if err := store.DeleteProduct(r.Context(), id); err != nil {
		if errors.Is(err, apperrors.ErrProductNotFound) {
			http.Error(w, "Product not found", http.StatusNotFound)
			return
		}
		logger.Errorw("Failed to delete product", "id", id, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func SetOrderStatusHandler(w http.ResponseWriter, r *http.Request, logger *zap.SugaredLogger, store *service.StorefrontService) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid order id", http.StatusBadRequest)
		return
	}

	var payload struct {
		Status string `json:"status"`
	}
	if err := decodeBody(r, &payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := store.SetOrderStatus(r.Context(), id, payload.Status); err != nil {
		switch {
		case errors.Is(err, apperrors.ErrInvalidStatus):
			http.Error(w, "Invalid order status", http.StatusBadRequest)
		case errors.Is(err, apperrors.ErrOrderNotFound):
			http.Error(w, "Order not found", http.StatusNotFound)
		default:
			logger.Errorw("Failed to set order status", "order", id, "error", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	logger.Infow("Order status updated", "order", id, "status", payload.Status)
	w.WriteHeader(http.StatusOK)
}

func ListPendingWithdrawalsHandler(w http.ResponseWriter, r *http.Request, logger *zap.SugaredLogger, store *service.StorefrontService) {
	withdrawals, err := store.ListPendingWithdrawals(r.Context())
	if err != nil {
		logger.Errorw("Failed to list withdrawals", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if len(withdrawals) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, withdrawals)
}

func SetWithdrawalStatusHandler(w http.ResponseWriter, r *http.Request, logger *zap.SugaredLogger, store *service.StorefrontService) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid withdrawal id", http.StatusBadRequest)
		return
	}

	var payload struct {
		Status string `json:"status"`
	}
	if err := decodeBody(r, &payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := store.SetWithdrawalStatus(r.Context(), id, payload.Status); err != nil {
		switch {
		case errors.Is(err, apperrors.ErrInvalidStatus):
			http.Error(w, "Status must be approved or rejected", http.StatusBadRequest)
		case errors.Is(err, apperrors.ErrStatusFinal):
			http.Error(w, "Withdrawal already finalized", http.StatusConflict)
		case errors.Is(err, apperrors.ErrWithdrawalNotFound):
			http.Error(w, "Withdrawal not found", http.StatusNotFound)
		default:
			logger.Errorw("Failed to set withdrawal status", "withdrawal", id, "error", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	logger.Infow("Withdrawal status updated", "withdrawal", id, "status", payload.Status)
	w.WriteHeader(http.StatusOK)
}

func ListPagesHandler(w http.ResponseWriter, r *http.Request, logger *zap.SugaredLogger, store *service.StorefrontService) {
	pages, err := store.ListPages(r.Context())
	if err != nil {
		logger.Errorw("Failed to list pages", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, pages)
}

func SavePageHandler(w http.ResponseWriter, r *http.Request, logger *zap.SugaredLogger, store *service.StorefrontService) {
	var page model.Page
	if err := decodeBody(r, &page); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	page.Slug = chi.URLParam(r, "slug")

	if err := store.SavePage(r.Context(), page); err != nil {
		if errors.Is(err, apperrors.ErrInvalidRequest) {
			http.Error(w, "Invalid page", http.StatusBadRequest)
			return
		}
		logger.Errorw("Failed to save page", "slug", page.Slug, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}
