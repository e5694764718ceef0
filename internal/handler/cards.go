package handler

import (
	"encoding/json"
	"net/http"

	"github.com/Dan9191/card-service/internal/middleware"
	"github.com/Dan9191/card-service/internal/models"
	"github.com/Dan9191/card-service/internal/utils"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
)

// cardResponse is the display-safe view of a card.
type cardResponse struct {
	ID             string `json:"id"`
	UserID         string `json:"user_id"`
	MaskedNumber   string `json:"masked_number"`
	Balance        string `json:"balance"`
	Status         string `json:"status"`
	ExpirationDate string `json:"expiration_date"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
}

func toCardResponse(card *models.Card) cardResponse {
	return cardResponse{
		ID:             card.ID.String(),
		UserID:         card.UserID.String(),
		MaskedNumber:   utils.MaskCardNumber(card.LastFour),
		Balance:        card.Balance.String(),
		Status:         string(card.Status),
		ExpirationDate: card.ExpirationDate.Format("2006-01-02"),
		CreatedAt:      card.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:      card.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

func toCardResponses(list []models.Card) []cardResponse {
	out := make([]cardResponse, 0, len(list))
	for i := range list {
		out = append(out, toCardResponse(&list[i]))
	}
	return out
}

// ListMyCards lists the caller's cards, optionally filtered by status.
func (h *Handler) ListMyCards(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFromContext(r.Context())
	status, ok := statusFromQuery(r)
	if !ok {
		http.Error(w, "unknown card status", http.StatusBadRequest)
		return
	}

	list, err := h.lifecycle.ListUserCards(r.Context(), actor.UserID, status, pageFromQuery(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toCardResponses(list))
}

// GetCard returns one of the caller's cards.
func (h *Handler) GetCard(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFromContext(r.Context())
	cardID, err := cardIDFromPath(r)
	if err != nil {
		http.Error(w, "invalid card id", http.StatusBadRequest)
		return
	}

	card, err := h.lifecycle.GetCard(r.Context(), actor, cardID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toCardResponse(card))
}

// BlockCard blocks one of the caller's cards.
func (h *Handler) BlockCard(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFromContext(r.Context())
	cardID, err := cardIDFromPath(r)
	if err != nil {
		http.Error(w, "invalid card id", http.StatusBadRequest)
		return
	}

	card, err := h.lifecycle.BlockCard(r.Context(), actor, cardID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toCardResponse(card))
}

// Transfer moves money between two of the caller's cards.
func (h *Handler) Transfer(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFromContext(r.Context())

	var req struct {
		FromCardID string `json:"from_card_id"`
		ToCardID   string `json:"to_card_id"`
		Amount     string `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	fromID, err := uuid.Parse(req.FromCardID)
	if err != nil {
		http.Error(w, "invalid from_card_id", http.StatusBadRequest)
		return
	}
	toID, err := uuid.Parse(req.ToCardID)
	if err != nil {
		http.Error(w, "invalid to_card_id", http.StatusBadRequest)
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		http.Error(w, "invalid amount", http.StatusBadRequest)
		return
	}

	if err := h.transfers.Transfer(r.Context(), actor.UserID, fromID, toID, amount); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "completed"})
}

// AdminCreateCard issues a card for the user named in the body.
func (h *Handler) AdminCreateCard(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		http.Error(w, "invalid user_id", http.StatusBadRequest)
		return
	}

	card, err := h.lifecycle.CreateCard(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, toCardResponse(card))
}

// AdminListCards lists all cards, optionally filtered by status or owner.
func (h *Handler) AdminListCards(w http.ResponseWriter, r *http.Request) {
	status, ok := statusFromQuery(r)
	if !ok {
		http.Error(w, "unknown card status", http.StatusBadRequest)
		return
	}
	page := pageFromQuery(r)

	if rawUser := r.URL.Query().Get("user_id"); rawUser != "" {
		userID, err := uuid.Parse(rawUser)
		if err != nil {
			http.Error(w, "invalid user_id", http.StatusBadRequest)
			return
		}
		list, err := h.lifecycle.ListUserCards(r.Context(), userID, status, page)
		if err != nil {
			h.writeError(w, err)
			return
		}
		h.writeJSON(w, http.StatusOK, toCardResponses(list))
		return
	}

	list, err := h.lifecycle.ListAllCards(r.Context(), status, page)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toCardResponses(list))
}

// AdminGetCard returns any card without an ownership check.
func (h *Handler) AdminGetCard(w http.ResponseWriter, r *http.Request) {
	cardID, err := cardIDFromPath(r)
	if err != nil {
		http.Error(w, "invalid card id", http.StatusBadRequest)
		return
	}

	card, err := h.lifecycle.GetCard(r.Context(), models.Actor{Admin: true}, cardID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toCardResponse(card))
}

// AdminBlockCard blocks any card.
func (h *Handler) AdminBlockCard(w http.ResponseWriter, r *http.Request) {
	cardID, err := cardIDFromPath(r)
	if err != nil {
		http.Error(w, "invalid card id", http.StatusBadRequest)
		return
	}

	card, err := h.lifecycle.BlockCard(r.Context(), models.Actor{Admin: true}, cardID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toCardResponse(card))
}

// AdminActivateCard re-activates a blocked card.
func (h *Handler) AdminActivateCard(w http.ResponseWriter, r *http.Request) {
	cardID, err := cardIDFromPath(r)
	if err != nil {
		http.Error(w, "invalid card id", http.StatusBadRequest)
		return
	}

	card, err := h.lifecycle.ActivateCard(r.Context(), cardID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toCardResponse(card))
}

// AdminTopUpCard adds funds to a card.
func (h *Handler) AdminTopUpCard(w http.ResponseWriter, r *http.Request) {
	cardID, err := cardIDFromPath(r)
	if err != nil {
		http.Error(w, "invalid card id", http.StatusBadRequest)
		return
	}

	var req struct {
		Amount string `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		http.Error(w, "invalid amount", http.StatusBadRequest)
		return
	}

	card, err := h.lifecycle.TopUp(r.Context(), cardID, amount)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toCardResponse(card))
}

// AdminDeleteCard hard-deletes a card.
func (h *Handler) AdminDeleteCard(w http.ResponseWriter, r *http.Request) {
	cardID, err := cardIDFromPath(r)
	if err != nil {
		http.Error(w, "invalid card id", http.StatusBadRequest)
		return
	}

	if err := h.lifecycle.DeleteCard(r.Context(), cardID); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AdminRevealCardNumber discloses the plaintext card number.
func (h *Handler) AdminRevealCardNumber(w http.ResponseWriter, r *http.Request) {
	cardID, err := cardIDFromPath(r)
	if err != nil {
		http.Error(w, "invalid card id", http.StatusBadRequest)
		return
	}

	number, err := h.lifecycle.RevealCardNumber(r.Context(), cardID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"card_number": number})
}

func cardIDFromPath(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(mux.Vars(r)["id"])
}
