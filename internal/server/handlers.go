package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/vhouse/vhouse/internal/conversation"
)

const healthTimeout = 5 * time.Second

// conversationRequest is the inbound record for POST /api/v1/conversations.
type conversationRequest struct {
	Message    string `json:"message"`
	CustomerID int64  `json:"customer_id,omitempty"`
	Kind       string `json:"kind"`
	Context    string `json:"context,omitempty"`
}

// emailRequest is the inbound record for POST /api/v1/emails.
type emailRequest struct {
	EmailType  string            `json:"email_type"`
	CustomerID int64             `json:"customer_id"`
	Data       map[string]string `json:"data,omitempty"`
}

// orderExtractRequest is the inbound record for POST /api/v1/orders/extract.
type orderExtractRequest struct {
	Text       string `json:"text"`
	CustomerID int64  `json:"customer_id,omitempty"`
	Context    string `json:"context,omitempty"`
}

func handleConversation(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req conversationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Message == "" {
			writeError(w, http.StatusBadRequest, "message is required")
			return
		}

		resp := deps.Orchestrator.ProcessConversation(r.Context(), conversation.Request{
			Message:         req.Message,
			CustomerID:      req.CustomerID,
			Kind:            parseKind(req.Kind),
			FreeformContext: req.Context,
		})
		writeJSON(w, http.StatusOK, resp)
	}
}

func handleEmail(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req emailRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.CustomerID == 0 {
			writeError(w, http.StatusBadRequest, "customer_id is required")
			return
		}

		resp := deps.Orchestrator.GenerateEmail(r.Context(), conversation.EmailRequest{
			EmailType:  parseEmailType(req.EmailType),
			CustomerID: req.CustomerID,
			Data:       req.Data,
		})
		writeJSON(w, http.StatusOK, resp)
	}
}

func handleOrderExtract(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req orderExtractRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Text == "" {
			writeError(w, http.StatusBadRequest, "text is required")
			return
		}

		resp := deps.Orchestrator.ProcessComplexOrder(r.Context(), conversation.OrderRequest{
			Text:            req.Text,
			CustomerID:      req.CustomerID,
			FreeformContext: req.Context,
		})
		writeJSON(w, http.StatusOK, resp)
	}
}

func parseKind(s string) conversation.Kind {
	switch conversation.Kind(s) {
	case conversation.KindOrderInquiry, conversation.KindComplaint,
		conversation.KindBulkOrder, conversation.KindPriceQuote:
		return conversation.Kind(s)
	default:
		return conversation.KindGeneral
	}
}

func parseEmailType(s string) conversation.EmailType {
	switch conversation.EmailType(s) {
	case conversation.EmailOrderConfirmation, conversation.EmailPromotional,
		conversation.EmailPaymentReminder:
		return conversation.EmailType(s)
	default:
		return conversation.EmailGeneral
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
