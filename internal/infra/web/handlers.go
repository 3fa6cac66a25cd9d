package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"investment-platform/internal/domain"
	"investment-platform/internal/domain/model"
	"investment-platform/internal/usecase"
)

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// respondError keeps admin error bodies plain. Conflicts mean another admin
// got there first; the queue view should simply be refreshed.
func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, domain.ErrInvalidTransition), errors.Is(err, domain.ErrAlreadyExists):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, domain.ErrInvalidArgument), errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInsufficientBalance):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func paging(r *http.Request) (offset, limit int) {
	offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return offset, limit
}

// ===== session =====

type loginRequest struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

func (s *Server) loginHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	user, err := s.userUC.Authenticate(r.Context(), req.Phone, req.Password)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	if !user.IsAdmin {
		s.log.Warn().Str("user_id", user.ID).Msg("non-admin attempted admin login")
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}
	if _, err := s.auth.Mint(w, user.ID); err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) logoutHandler(w http.ResponseWriter, r *http.Request) {
	s.auth.Clear(w)
	w.WriteHeader(http.StatusNoContent)
}

// ===== stats =====

func statsHandler(statsUC usecase.StatsUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := statsUC.Overview(r.Context())
		if err != nil {
			http.Error(w, "Failed to get stats", http.StatusInternalServerError)
			return
		}
		respondJSON(w, http.StatusOK, stats)
	}
}

// ===== catalog =====

type packageRequest struct {
	Name         string  `json:"name"`
	Price        float64 `json:"price"`
	DurationDays int     `json:"duration_days"`
	ROIPercent   float64 `json:"roi_percent"`
}

func packagesListHandler(packageUC usecase.PackageUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pkgs, err := packageUC.List(r.Context(), false)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, pkgs)
	}
}

func packagesCreateHandler(packageUC usecase.PackageUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req packageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		pkg, err := packageUC.Create(r.Context(), req.Name, req.Price, req.DurationDays, req.ROIPercent)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusCreated, pkg)
	}
}

func packagesGetHandler(packageUC usecase.PackageUseCase, id string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pkg, err := packageUC.Get(r.Context(), id)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, pkg)
	}
}

func packagesUpdateHandler(packageUC usecase.PackageUseCase, id string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req packageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		pkg, err := packageUC.Update(r.Context(), id, req.Name, req.Price, req.DurationDays, req.ROIPercent)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, pkg)
	}
}

func packagesSetStatusHandler(packageUC usecase.PackageUseCase, id string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Status string `json:"status"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		status := model.PackageStatus(req.Status)
		if status != model.PackageStatusActive && status != model.PackageStatusInactive {
			http.Error(w, "Unknown status", http.StatusBadRequest)
			return
		}
		if err := packageUC.SetStatus(r.Context(), id, status); err != nil {
			respondError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ===== users =====

func usersListHandler(userUC usecase.UserUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		offset, limit := paging(r)
		users, err := userUC.List(r.Context(), offset, limit)
		if err != nil {
			respondError(w, err)
			return
		}
		total, err := userUC.Count(r.Context())
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, struct {
			Total int           `json:"total"`
			Users []*model.User `json:"users"`
		}{Total: total, Users: users})
	}
}

func userGetHandler(userUC usecase.UserUseCase, purchaseUC usecase.PurchaseUseCase, id string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := userUC.Get(r.Context(), id)
		if err != nil {
			respondError(w, err)
			return
		}
		subs, err := purchaseUC.ListByUser(r.Context(), id)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, struct {
			User          *model.User           `json:"user"`
			Subscriptions []*model.Subscription `json:"subscriptions"`
		}{User: user, Subscriptions: subs})
	}
}

func walletAdjustHandler(walletUC usecase.WalletUseCase, id string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Amount      float64 `json:"amount"`
			Description string  `json:"description"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		entry, err := walletUC.AdminAdjust(r.Context(), adminID(r.Context()), id, req.Amount, req.Description)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, entry)
	}
}

// ===== approval queues =====

type decisionRequest struct {
	Notes string `json:"notes"`
}

func decisionNotes(r *http.Request) string {
	var req decisionRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	return req.Notes
}

func purchasesPendingHandler(purchaseUC usecase.PurchaseUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		offset, limit := paging(r)
		subs, err := purchaseUC.ListPendingReview(r.Context(), offset, limit)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, subs)
	}
}

func (s *Server) purchaseDecisionHandler(id, action string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		if action == "approve" {
			err = s.purchaseUC.Approve(r.Context(), adminID(r.Context()), id)
		} else {
			err = s.purchaseUC.Reject(r.Context(), adminID(r.Context()), id, decisionNotes(r))
		}
		if err != nil {
			respondError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func withdrawalsPendingHandler(withdrawalUC usecase.WithdrawalUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		offset, limit := paging(r)
		reqs, err := withdrawalUC.ListPending(r.Context(), offset, limit)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, reqs)
	}
}

func (s *Server) withdrawalDecisionHandler(id, action string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		if action == "approve" {
			err = s.withdrawalUC.Approve(r.Context(), adminID(r.Context()), id)
		} else {
			err = s.withdrawalUC.Reject(r.Context(), adminID(r.Context()), id, decisionNotes(r))
		}
		if err != nil {
			respondError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func depositsPendingHandler(depositUC usecase.DepositUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		offset, limit := paging(r)
		reqs, err := depositUC.ListPending(r.Context(), offset, limit)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, reqs)
	}
}

func (s *Server) depositDecisionHandler(id, action string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		if action == "approve" {
			err = s.depositUC.Approve(r.Context(), adminID(r.Context()), id)
		} else {
			err = s.depositUC.Reject(r.Context(), adminID(r.Context()), id, decisionNotes(r))
		}
		if err != nil {
			respondError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ===== gift codes =====

func giftCodesListHandler(giftUC usecase.GiftCodeUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		offset, limit := paging(r)
		codes, err := giftUC.List(r.Context(), offset, limit)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, codes)
	}
}

func giftCodesMintHandler(giftUC usecase.GiftCodeUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Amount    float64   `json:"amount"`
			ExpiresAt time.Time `json:"expires_at"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		code, err := giftUC.Mint(r.Context(), req.Amount, req.ExpiresAt)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusCreated, code)
	}
}

// ===== notifications =====

func adminNotificationsHandler(noteUC usecase.NotificationUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		offset, limit := paging(r)
		notes, err := noteUC.ListAdmin(r.Context(), offset, limit)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, notes)
	}
}
