package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"playforge.com/cs-triage/internal/auth"
	"playforge.com/cs-triage/internal/config"
	"playforge.com/cs-triage/internal/core"
	"playforge.com/cs-triage/internal/store"
)

type APIHandler struct {
	pipeline  *core.Pipeline
	records   *store.CSVStore
	storePath string
}

func NewAPIHandler(pipeline *core.Pipeline, records *store.CSVStore, storePath string) *APIHandler {
	return &APIHandler{pipeline: pipeline, records: records, storePath: storePath}
}

func (h *APIHandler) JWTAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Authorization header is required", http.StatusUnauthorized)
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		operatorID, err := auth.ValidateJWT(tokenString)
		if err != nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		if operatorID != config.AppConfig.OperatorID {
			http.Error(w, "Unknown operator", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), "operatorID", operatorID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type LoginRequest struct {
	OperatorID string `json:"operator_id"`
	Password   string `json:"password"`
}

func (h *APIHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if req.OperatorID == "" || req.Password == "" {
		http.Error(w, "Operator ID and password are required", http.StatusBadRequest)
		return
	}

	idOK := subtle.ConstantTimeCompare([]byte(req.OperatorID), []byte(config.AppConfig.OperatorID)) == 1
	pwOK := subtle.ConstantTimeCompare([]byte(req.Password), []byte(config.AppConfig.OperatorPassword)) == 1
	if !idOK || !pwOK {
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	token, err := auth.GenerateJWT(req.OperatorID)
	if err != nil {
		log.Printf("Error generating JWT for operator %s: %v", req.OperatorID, err)
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(map[string]string{"token": token})
}

// RunHandler triggers a full pipeline run: ingest, classify, resolve,
// persist. A persist failure surfaces as a 500 with the partial report in
// the body; everything classified up to that point is reported.
func (h *APIHandler) RunHandler(w http.ResponseWriter, r *http.Request) {
	report, err := h.pipeline.Run(r.Context())
	if err != nil {
		log.Printf("Pipeline run failed: %v", err)
		if report == nil {
			http.Error(w, "Pipeline run failed: "+err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]any{
			"error":  err.Error(),
			"report": report,
		})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(report)
}

// PreviewHandler triggers a classification-only run that leaves the record
// store untouched.
func (h *APIHandler) PreviewHandler(w http.ResponseWriter, r *http.Request) {
	report, err := h.pipeline.Preview(r.Context())
	if err != nil {
		log.Printf("Pipeline preview failed: %v", err)
		http.Error(w, "Pipeline preview failed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(report)
}

// ListInquiriesHandler reads the record store, optionally filtered by
// status or user id query parameters.
func (h *APIHandler) ListInquiriesHandler(w http.ResponseWriter, r *http.Request) {
	var (
		inquiries []store.Inquiry
		err       error
	)

	switch {
	case r.URL.Query().Get("status") != "":
		var status store.InquiryStatus
		status, err = store.ParseInquiryStatus(r.URL.Query().Get("status"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		inquiries, err = h.records.ReadByStatus(r.Context(), h.storePath, status)
	case r.URL.Query().Get("user") != "":
		inquiries, err = h.records.ReadByUser(r.Context(), h.storePath, r.URL.Query().Get("user"))
	default:
		inquiries, err = h.records.ReadAll(r.Context(), h.storePath)
	}

	if err != nil {
		log.Printf("Error reading inquiries: %v", err)
		http.Error(w, "Failed to read inquiries", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(inquiries)
}
