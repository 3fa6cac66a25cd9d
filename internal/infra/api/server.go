package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"investment-platform/internal/infra/logging"
	"investment-platform/internal/infra/redis"
	"investment-platform/internal/usecase"
)

// Server is the member-facing HTTP API. All money-moving endpoints sit behind
// a per-user redis flow lock and a rate limit; correctness still comes from
// the database layer, these only shed duplicate and abusive traffic early.
type Server struct {
	userUC       usecase.UserUseCase
	walletUC     usecase.WalletUseCase
	packageUC    usecase.PackageUseCase
	purchaseUC   usecase.PurchaseUseCase
	yieldUC      usecase.YieldUseCase
	withdrawalUC usecase.WithdrawalUseCase
	depositUC    usecase.DepositUseCase
	giftUC       usecase.GiftCodeUseCase
	noteUC       usecase.NotificationUseCase

	auth    *AuthManager
	locker  redis.Locker
	limiter *redis.RateLimiter
	log     *zerolog.Logger
}

func NewServer(
	userUC usecase.UserUseCase,
	walletUC usecase.WalletUseCase,
	packageUC usecase.PackageUseCase,
	purchaseUC usecase.PurchaseUseCase,
	yieldUC usecase.YieldUseCase,
	withdrawalUC usecase.WithdrawalUseCase,
	depositUC usecase.DepositUseCase,
	giftUC usecase.GiftCodeUseCase,
	noteUC usecase.NotificationUseCase,
	auth *AuthManager,
	locker redis.Locker,
	limiter *redis.RateLimiter,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		userUC:       userUC,
		walletUC:     walletUC,
		packageUC:    packageUC,
		purchaseUC:   purchaseUC,
		yieldUC:      yieldUC,
		withdrawalUC: withdrawalUC,
		depositUC:    depositUC,
		giftUC:       giftUC,
		noteUC:       noteUC,
		auth:         auth,
		locker:       locker,
		limiter:      limiter,
		log:          logger,
	}
}

func (s *Server) Routes() *chi.Mux {
	r := chi.NewRouter()
	r.Use(TraceID(), Recover(s.log), RequestLog(s.log), Timeout(15*time.Second))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/register", s.handleRegister)
		r.Post("/auth/login", s.handleLogin)
		r.Post("/auth/logout", s.handleLogout)
		r.Get("/packages", s.handleListPackages)

		r.Group(func(r chi.Router) {
			r.Use(s.requireUser)

			r.Get("/me", s.handleProfile)
			r.Get("/me/wallet", s.handleWallet)
			r.Get("/me/ledger", s.handleLedger)
			r.Get("/me/referrals", s.handleReferrals)
			r.Get("/me/notifications", s.handleNotifications)
			r.Post("/me/notifications/{id}/read", s.handleMarkNotificationRead)

			r.Get("/subscriptions", s.handleListSubscriptions)
			r.Post("/subscriptions", s.handlePurchase)
			r.Post("/subscriptions/{id}/confirmation", s.handleSubmitConfirmation)
			r.With(s.guardFlow("claim", 10)).Post("/subscriptions/{id}/claim", s.handleClaim)
			r.Get("/yields", s.handleYieldHistory)

			r.Get("/withdrawals", s.handleListWithdrawals)
			r.With(s.guardFlow("withdraw", 5)).Post("/withdrawals", s.handleRequestWithdrawal)

			r.Get("/deposits", s.handleListDeposits)
			r.Post("/deposits", s.handleRequestDeposit)

			r.With(s.guardFlow("redeem", 5)).Post("/gift-codes/redeem", s.handleRedeemGiftCode)
		})
	})
	return r
}

// requireUser authenticates the session and stashes the claims plus the
// user id for downstream logging.
func (s *Server) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := s.auth.ParseFromRequest(r)
		if err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		ctx := logging.WithUserID(r.Context(), claims.UserID())
		ctx = withClaims(ctx, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// guardFlow wraps a money-moving endpoint with a rate limit (per hour) and a
// short per-user flow lock against double submits.
func (s *Server) guardFlow(flow string, hourlyLimit int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := claimsFrom(r.Context())
			if !ok {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			userID := claims.UserID()

			allowed, err := s.limiter.Allow(r.Context(), redis.UserActionKey(userID, flow), hourlyLimit, time.Hour)
			if err != nil {
				s.log.Warn().Err(err).Str("flow", flow).Msg("rate limiter unavailable")
			} else if !allowed {
				http.Error(w, "Too many requests", http.StatusTooManyRequests)
				return
			}

			token, err := s.locker.TryLock(r.Context(), redis.UserFlowKey(userID, flow), 10*time.Second)
			if err != nil {
				http.Error(w, "Request already in progress", http.StatusConflict)
				return
			}
			defer func() { _ = s.locker.Unlock(r.Context(), redis.UserFlowKey(userID, flow), token) }()

			next.ServeHTTP(w, r)
		})
	}
}
