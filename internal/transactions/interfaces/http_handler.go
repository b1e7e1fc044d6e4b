// Package interfaces exposes the ingestion boundary over HTTP.
package interfaces

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"fraudengine/internal/pkg/logger"
	"fraudengine/internal/transactions/application"
	"fraudengine/internal/transactions/domain"
)

// TransactionHandler routes the transaction endpoints.
type TransactionHandler struct {
	service *application.TransactionService
}

func NewTransactionHandler(service *application.TransactionService) *TransactionHandler {
	return &TransactionHandler{service: service}
}

func (h *TransactionHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/transactions", h.handleCreate)
	r.Get("/transactions/{id}", h.handleGet)
	return r
}

type createTransactionResponse struct {
	TransactionID uuid.UUID `json:"transactionId"`
}

type validationErrorResponse struct {
	Errors application.ValidationErrors `json:"errors"`
}

func (h *TransactionHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	var req application.CreateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	id, err := h.service.Create(ctx, req)
	if err != nil {
		var verrs application.ValidationErrors
		if errors.As(err, &verrs) {
			writeJSON(w, http.StatusBadRequest, validationErrorResponse{Errors: verrs})
			return
		}
		logger.Ctx(ctx).Error().Err(err).Msg("create transaction failed")
		http.Error(w, "unable to create the transaction at this time, please retry", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, createTransactionResponse{TransactionID: id})
}

type transactionResponse struct {
	TransactionID uuid.UUID         `json:"transactionId"`
	AccountID     uuid.UUID         `json:"accountId"`
	Amount        string            `json:"amount"`
	MerchantID    uuid.UUID         `json:"merchantId"`
	Currency      string            `json:"currency"`
	Timestamp     string            `json:"timestamp"`
	ExternalID    string            `json:"externalId"`
	Metadata      map[string]string `json:"metadata"`
	CreatedAt     string            `json:"createdAt"`
}

func (h *TransactionHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid transaction id", http.StatusBadRequest)
		return
	}

	tx, err := h.service.Get(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.Error(w, "transaction not found", http.StatusNotFound)
			return
		}
		logger.Ctx(ctx).Error().Err(err).Str("transaction_id", id.String()).Msg("get transaction failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, transactionResponse{
		TransactionID: tx.ID,
		AccountID:     tx.AccountID,
		Amount:        tx.Amount.String(),
		MerchantID:    tx.MerchantID,
		Currency:      tx.Currency,
		Timestamp:     tx.Timestamp.UTC().Format(time.RFC3339),
		ExternalID:    tx.ExternalID,
		Metadata:      tx.Metadata,
		CreatedAt:     tx.CreatedAt.UTC().Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
