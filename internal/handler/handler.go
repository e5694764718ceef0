package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/Dan9191/card-service/internal/auth"
	"github.com/Dan9191/card-service/internal/cards"
	"github.com/Dan9191/card-service/internal/crypto"
	"github.com/Dan9191/card-service/internal/models"
	"github.com/sirupsen/logrus"
)

// Handler exposes the card ledger over HTTP.
type Handler struct {
	auth      *auth.Service
	lifecycle *cards.LifecycleService
	transfers *cards.TransferService
	log       *logrus.Logger
}

// NewHandler initializes the HTTP handler.
func NewHandler(authSvc *auth.Service, lifecycle *cards.LifecycleService, transfers *cards.TransferService, log *logrus.Logger) *Handler {
	return &Handler{auth: authSvc, lifecycle: lifecycle, transfers: transfers, log: log}
}

// Register handles user registration
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		http.Error(w, "username, email and password are required", http.StatusBadRequest)
		return
	}

	user, err := h.auth.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, user)
}

// Login handles user authentication
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	token, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Errorf("Failed to encode response: %v", err)
	}
}

// writeError maps ledger errors to HTTP statuses.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, cards.ErrCardNotFound), errors.Is(err, cards.ErrUserNotFound):
		status = http.StatusNotFound
	case errors.Is(err, cards.ErrAccessDenied):
		status = http.StatusForbidden
	case errors.Is(err, cards.ErrCardBlocked),
		errors.Is(err, cards.ErrCardExpired),
		errors.Is(err, cards.ErrCardAlreadyBlocked),
		errors.Is(err, cards.ErrCardAlreadyActivated),
		errors.Is(err, cards.ErrInsufficientFunds):
		status = http.StatusConflict
	case errors.Is(err, cards.ErrIncorrectAmount), errors.Is(err, cards.ErrCardsAreTheSame):
		status = http.StatusBadRequest
	case errors.Is(err, crypto.ErrDecrypt):
		h.log.Errorf("Data integrity error: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	default:
		h.log.Errorf("Internal error: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, status, map[string]string{"error": err.Error()})
}

// pageFromQuery reads pagination parameters from the query string.
func pageFromQuery(r *http.Request) models.Page {
	page := models.Page{}
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil {
		page.Number = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("size")); err == nil {
		page.Size = v
	}
	return page.Normalize()
}

// statusFromQuery reads an optional status filter from the query string.
func statusFromQuery(r *http.Request) (*models.CardStatus, bool) {
	raw := r.URL.Query().Get("status")
	if raw == "" {
		return nil, true
	}
	status := models.CardStatus(raw)
	if !models.ValidStatus(status) {
		return nil, false
	}
	return &status, true
}
