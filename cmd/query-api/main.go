package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"

	"github.com/scholarstack/paperrag/internal/models"
	"github.com/scholarstack/paperrag/internal/rag"
	"github.com/scholarstack/paperrag/internal/services"
)

var (
	queryInstance *services.QueryFunction
	once          sync.Once
	initErr       error
)

func init() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	functions.HTTP("HandleQuery", handleQuery)
}

// main is required by the Go Functions Framework.
func main() {}

// handleQuery answers questions (POST) and lists conversation history (GET).
func handleQuery(w http.ResponseWriter, r *http.Request) {
	once.Do(func() {
		queryInstance, initErr = services.NewQueryService(context.Background())
	})
	if initErr != nil {
		slog.Error("Critical error during function initialization", "error", initErr)
		http.Error(w, "Internal Server Error: failed to initialize service", http.StatusInternalServerError)
		return
	}

	switch r.Method {
	case http.MethodPost:
		answerQuery(w, r)
	case http.MethodGet:
		listConversations(w, r)
	default:
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	}
}

func answerQuery(w http.ResponseWriter, r *http.Request) {
	var req models.QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Bad Request: could not parse JSON", http.StatusBadRequest)
		return
	}

	resp, err := queryInstance.AnswerQuery(r.Context(), req.UserID, req.Query, req.Scope)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, resp)
}

func listConversations(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	conversations, err := queryInstance.ListConversations(r.Context(), userID, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if conversations == nil {
		conversations = []models.ConversationSummary{}
	}
	writeJSON(w, conversations)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, rag.ErrValidation):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, rag.ErrQueryFailed):
		// Internal cause already logged; keep the boundary opaque.
		http.Error(w, "query failed", http.StatusBadGateway)
	default:
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to write response", "error", err)
	}
}
