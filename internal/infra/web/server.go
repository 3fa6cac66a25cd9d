package web

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"investment-platform/internal/usecase"
)

// Server is the admin API: dashboard stats, catalog management and the three
// approval queues (M-Pesa purchases, withdrawals, deposits). It shares the
// process with /metrics on the admin port and is never exposed publicly.
type Server struct {
	userUC       usecase.UserUseCase
	walletUC     usecase.WalletUseCase
	statsUC      usecase.StatsUseCase
	packageUC    usecase.PackageUseCase
	purchaseUC   usecase.PurchaseUseCase
	withdrawalUC usecase.WithdrawalUseCase
	depositUC    usecase.DepositUseCase
	giftUC       usecase.GiftCodeUseCase
	noteUC       usecase.NotificationUseCase
	auth         *AuthManager
	log          *zerolog.Logger
}

func NewServer(
	userUC usecase.UserUseCase,
	walletUC usecase.WalletUseCase,
	statsUC usecase.StatsUseCase,
	packageUC usecase.PackageUseCase,
	purchaseUC usecase.PurchaseUseCase,
	withdrawalUC usecase.WithdrawalUseCase,
	depositUC usecase.DepositUseCase,
	giftUC usecase.GiftCodeUseCase,
	noteUC usecase.NotificationUseCase,
	auth *AuthManager,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		userUC:       userUC,
		walletUC:     walletUC,
		statsUC:      statsUC,
		packageUC:    packageUC,
		purchaseUC:   purchaseUC,
		withdrawalUC: withdrawalUC,
		depositUC:    depositUC,
		giftUC:       giftUC,
		noteUC:       noteUC,
		auth:         auth,
		log:          logger,
	}
}

type ctxKey string

const ctxAdminID ctxKey = "admin_id"

func adminID(ctx context.Context) string {
	id, _ := ctx.Value(ctxAdminID).(string)
	return id
}

// RegisterRoutes sets up the routing for the admin API.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/admin/login", s.loginHandler)
	mux.HandleFunc("/admin/logout", s.logoutHandler)

	mux.Handle("/api/v1/stats", s.authMiddleware(statsHandler(s.statsUC)))

	packagesRouter := s.authMiddleware(s.packagesRouter())
	mux.Handle("/api/v1/packages", packagesRouter)
	mux.Handle("/api/v1/packages/", packagesRouter)

	usersRouter := s.authMiddleware(s.usersRouter())
	mux.Handle("/api/v1/users", usersRouter)
	mux.Handle("/api/v1/users/", usersRouter)

	purchasesRouter := s.authMiddleware(s.queueRouter("/api/v1/purchases",
		purchasesPendingHandler(s.purchaseUC), s.purchaseDecisionHandler))
	mux.Handle("/api/v1/purchases/pending", purchasesRouter)
	mux.Handle("/api/v1/purchases/", purchasesRouter)

	withdrawalsRouter := s.authMiddleware(s.queueRouter("/api/v1/withdrawals",
		withdrawalsPendingHandler(s.withdrawalUC), s.withdrawalDecisionHandler))
	mux.Handle("/api/v1/withdrawals/pending", withdrawalsRouter)
	mux.Handle("/api/v1/withdrawals/", withdrawalsRouter)

	depositsRouter := s.authMiddleware(s.queueRouter("/api/v1/deposits",
		depositsPendingHandler(s.depositUC), s.depositDecisionHandler))
	mux.Handle("/api/v1/deposits/pending", depositsRouter)
	mux.Handle("/api/v1/deposits/", depositsRouter)

	giftRouter := s.authMiddleware(s.giftCodesRouter())
	mux.Handle("/api/v1/gift-codes", giftRouter)

	mux.Handle("/api/v1/notifications", s.authMiddleware(adminNotificationsHandler(s.noteUC)))
}

// authMiddleware validates the admin session cookie (or Bearer token) and
// stores the acting admin's id for audit fields.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := s.auth.ParseFromRequest(r)
		if err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), ctxAdminID, claims.Subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) packagesRouter() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, "/api/v1/packages")
		path = strings.TrimSuffix(path, "/")

		if path == "" { // /api/v1/packages
			switch r.Method {
			case http.MethodGet:
				packagesListHandler(s.packageUC)(w, r)
			case http.MethodPost:
				packagesCreateHandler(s.packageUC)(w, r)
			default:
				http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			}
			return
		}

		// /api/v1/packages/{id} or /api/v1/packages/{id}/status
		id := strings.TrimPrefix(path, "/")
		if rest, found := strings.CutSuffix(id, "/status"); found {
			if r.Method != http.MethodPut {
				http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
				return
			}
			packagesSetStatusHandler(s.packageUC, rest)(w, r)
			return
		}
		switch r.Method {
		case http.MethodGet:
			packagesGetHandler(s.packageUC, id)(w, r)
		case http.MethodPut:
			packagesUpdateHandler(s.packageUC, id)(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})
}

func (s *Server) usersRouter() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, "/api/v1/users")
		path = strings.TrimSuffix(path, "/")

		if path == "" { // /api/v1/users
			usersListHandler(s.userUC)(w, r)
			return
		}

		id := strings.TrimPrefix(path, "/")
		if rest, found := strings.CutSuffix(id, "/wallet"); found {
			if r.Method != http.MethodPost {
				http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
				return
			}
			walletAdjustHandler(s.walletUC, rest)(w, r)
			return
		}
		userGetHandler(s.userUC, s.purchaseUC, id)(w, r)
	})
}

// queueRouter serves GET {prefix}/pending plus POST {prefix}/{id}/approve and
// POST {prefix}/{id}/reject. All three approval queues share this shape.
func (s *Server) queueRouter(prefix string, pending http.HandlerFunc, decide func(id, action string) http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, prefix)
		path = strings.Trim(path, "/")

		if path == "pending" {
			if r.Method != http.MethodGet {
				http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
				return
			}
			pending(w, r)
			return
		}

		parts := strings.Split(path, "/")
		if len(parts) != 2 || (parts[1] != "approve" && parts[1] != "reject") {
			http.Error(w, "Not found", http.StatusNotFound)
			return
		}
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		decide(parts[0], parts[1])(w, r)
	})
}

func (s *Server) giftCodesRouter() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			giftCodesListHandler(s.giftUC)(w, r)
		case http.MethodPost:
			giftCodesMintHandler(s.giftUC)(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})
}
