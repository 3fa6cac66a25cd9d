package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"investment-platform/internal/domain"
	"investment-platform/internal/domain/model"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeError maps domain sentinels to HTTP statuses. Unknown errors become an
// opaque 500 so internals never leak to members.
func writeError(w http.ResponseWriter, err error) {
	var status int
	switch {
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrCodeNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden), errors.Is(err, domain.ErrInvalidPIN):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrAlreadyExists),
		errors.Is(err, domain.ErrAlreadyClaimedToday),
		errors.Is(err, domain.ErrWithdrawalPending),
		errors.Is(err, domain.ErrInvalidTransition):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrInvalidArgument),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInsufficientBalance),
		errors.Is(err, domain.ErrPackageInactive),
		errors.Is(err, domain.ErrBelowMinimumWithdrawal),
		errors.Is(err, domain.ErrWithdrawalWindowClosed),
		errors.Is(err, domain.ErrSubscriptionNotActive),
		errors.Is(err, domain.ErrSubscriptionExpired),
		errors.Is(err, domain.ErrCodeNotRedeemable):
		status = http.StatusBadRequest
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func pagination(r *http.Request) (offset, limit int) {
	offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return offset, limit
}

func mustUserID(r *http.Request) string {
	claims, _ := claimsFrom(r.Context())
	return claims.UserID()
}

// ===== auth =====

type registerRequest struct {
	Phone        string `json:"phone"`
	FullName     string `json:"full_name"`
	Password     string `json:"password"`
	ReferralCode string `json:"referral_code,omitempty"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	user, err := s.userUC.Register(r.Context(), req.Phone, req.FullName, req.Password, req.ReferralCode)
	if err != nil {
		writeError(w, err)
		return
	}
	if _, err := s.auth.Mint(w, user.ID, user.IsAdmin); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

type loginRequest struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	user, err := s.userUC.Authenticate(r.Context(), req.Phone, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	if _, err := s.auth.Mint(w, user.ID, user.IsAdmin); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleLogout(w http.ResponseWriter, _ *http.Request) {
	s.auth.Clear(w)
	w.WriteHeader(http.StatusNoContent)
}

// ===== profile / wallet =====

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	user, err := s.userUC.Get(r.Context(), mustUserID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleWallet(w http.ResponseWriter, r *http.Request) {
	wallet, err := s.walletUC.Wallet(r.Context(), mustUserID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, wallet)
}

func (s *Server) handleLedger(w http.ResponseWriter, r *http.Request) {
	offset, limit := pagination(r)
	entries, err := s.walletUC.History(r.Context(), mustUserID(r), offset, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleReferrals(w http.ResponseWriter, r *http.Request) {
	summary, err := s.userUC.Referrals(r.Context(), mustUserID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// ===== notifications =====

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	offset, limit := pagination(r)
	notes, err := s.noteUC.ListForUser(r.Context(), mustUserID(r), offset, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, notes)
}

func (s *Server) handleMarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	if err := s.noteUC.MarkRead(r.Context(), chi.URLParam(r, "id"), mustUserID(r)); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ===== catalog =====

func (s *Server) handleListPackages(w http.ResponseWriter, r *http.Request) {
	pkgs, err := s.packageUC.List(r.Context(), true)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pkgs)
}

// ===== subscriptions =====

type purchaseRequest struct {
	PackageID     string `json:"package_id"`
	PaymentMethod string `json:"payment_method"`
}

func (s *Server) handlePurchase(w http.ResponseWriter, r *http.Request) {
	var req purchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	userID := mustUserID(r)

	var sub *model.Subscription
	var err error
	switch model.PaymentMethod(req.PaymentMethod) {
	case model.PaymentMethodWallet:
		sub, err = s.purchaseUC.PurchaseWithWallet(r.Context(), userID, req.PackageID)
	case model.PaymentMethodMpesa:
		sub, err = s.purchaseUC.PurchaseWithMpesa(r.Context(), userID, req.PackageID)
	default:
		http.Error(w, "Unknown payment method", http.StatusBadRequest)
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

func (s *Server) handleListSubscriptions(w http.ResponseWriter, r *http.Request) {
	subs, err := s.purchaseUC.ListByUser(r.Context(), mustUserID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, subs)
}

type confirmationRequest struct {
	Message string `json:"message"`
}

func (s *Server) handleSubmitConfirmation(w http.ResponseWriter, r *http.Request) {
	var req confirmationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	sub, err := s.purchaseUC.SubmitConfirmation(r.Context(), mustUserID(r), chi.URLParam(r, "id"), req.Message)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

func (s *Server) handleClaim(w http.ResponseWriter, r *http.Request) {
	paid, err := s.yieldUC.Claim(r.Context(), mustUserID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, paid)
}

func (s *Server) handleYieldHistory(w http.ResponseWriter, r *http.Request) {
	offset, limit := pagination(r)
	yields, err := s.yieldUC.History(r.Context(), mustUserID(r), offset, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, yields)
}

// ===== withdrawals =====

type withdrawalRequestBody struct {
	Amount float64 `json:"amount"`
	Phone  string  `json:"phone"`
	PIN    string  `json:"pin"`
}

func (s *Server) handleRequestWithdrawal(w http.ResponseWriter, r *http.Request) {
	var req withdrawalRequestBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	out, err := s.withdrawalUC.Request(r.Context(), mustUserID(r), req.Amount, req.Phone, req.PIN)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) handleListWithdrawals(w http.ResponseWriter, r *http.Request) {
	reqs, err := s.withdrawalUC.ListByUser(r.Context(), mustUserID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reqs)
}

// ===== deposits =====

type depositRequestBody struct {
	Amount  float64 `json:"amount"`
	Message string  `json:"message"`
}

func (s *Server) handleRequestDeposit(w http.ResponseWriter, r *http.Request) {
	var req depositRequestBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	out, err := s.depositUC.Request(r.Context(), mustUserID(r), req.Amount, req.Message)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) handleListDeposits(w http.ResponseWriter, r *http.Request) {
	reqs, err := s.depositUC.ListByUser(r.Context(), mustUserID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reqs)
}

// ===== gift codes =====

type redeemRequest struct {
	Code string `json:"code"`
}

func (s *Server) handleRedeemGiftCode(w http.ResponseWriter, r *http.Request) {
	var req redeemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	code, err := s.giftUC.Redeem(r.Context(), mustUserID(r), req.Code)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, code)
}
