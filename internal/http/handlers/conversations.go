package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/isndotbiz/spiritatlas/internal/conversation"
	"github.com/isndotbiz/spiritatlas/internal/enrichment"
	"github.com/isndotbiz/spiritatlas/pkg/logging"
)

// ConversationHandler serves conversation persistence and follow-up chat.
type ConversationHandler struct {
	manager *conversation.Manager
	service *enrichment.Service
	logger  *logging.Logger
}

func NewConversationHandler(manager *conversation.Manager, service *enrichment.Service, logger *logging.Logger) *ConversationHandler {
	if manager == nil {
		panic("handlers: conversation manager is required")
	}
	if service == nil {
		panic("handlers: enrichment service is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &ConversationHandler{manager: manager, service: service, logger: logger}
}

type createConversationRequest struct {
	ProfileID     string `json:"profileId"`
	SystemContext string `json:"systemContext"`
}

// Create handles POST /v1/conversations.
func (h *ConversationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ProfileID == "" {
		writeError(w, http.StatusBadRequest, "profileId is required")
		return
	}
	systemContext := req.SystemContext
	if systemContext == "" {
		systemContext = enrichment.SystemPrompt()
	}
	conv, err := h.manager.Create(r.Context(), req.ProfileID, systemContext)
	if err != nil {
		h.logger.Error("create conversation failed", "profile_id", req.ProfileID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create conversation")
		return
	}
	writeJSON(w, http.StatusCreated, conv)
}

// Get handles GET /v1/conversations/{id}.
func (h *ConversationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	conv, err := h.manager.Load(r.Context(), id)
	if err != nil {
		h.logger.Error("load conversation failed", "conversation_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load conversation")
		return
	}
	if conv == nil {
		writeError(w, http.StatusNotFound, "conversation not found")
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

// ListForProfile handles GET /v1/profiles/{id}/conversations.
func (h *ConversationHandler) ListForProfile(w http.ResponseWriter, r *http.Request) {
	profileID := chi.URLParam(r, "id")
	convs, err := h.manager.ForProfile(r.Context(), profileID)
	if err != nil {
		h.logger.Error("list conversations failed", "profile_id", profileID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list conversations")
		return
	}
	if convs == nil {
		convs = []*conversation.Conversation{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"conversations": convs})
}

type messageRequest struct {
	ProfileID string `json:"profileId"`
	Question  string `json:"question"`
}

type messageResponse struct {
	ConversationID string `json:"conversationId"`
	Answer         string `json:"answer"`
}

// Message handles POST /v1/conversations/{id}/messages. A missing
// conversation is created on the fly so clients can keep a stable id.
func (h *ConversationHandler) Message(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Question == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}

	answer, conv, err := h.service.AskFollowUp(r.Context(), id, req.ProfileID, req.Question)
	if err != nil {
		var pe *enrichment.ProviderError
		if errors.As(err, &pe) {
			eh := &EnrichmentHandler{logger: h.logger}
			eh.writeProviderError(w, err)
			return
		}
		h.logger.Error("follow-up failed", "conversation_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to process message")
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{ConversationID: conv.ID, Answer: answer})
}

type summarizeRequest struct {
	KeepRecent int `json:"keepRecent"`
}

// Summarize handles POST /v1/conversations/{id}/summarize.
func (h *ConversationHandler) Summarize(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req summarizeRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}
	conv, err := h.manager.Summarize(r.Context(), id, req.KeepRecent)
	if err != nil {
		if errors.Is(err, conversation.ErrNotFound) {
			writeError(w, http.StatusNotFound, "conversation not found")
			return
		}
		h.logger.Error("summarize conversation failed", "conversation_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to summarize conversation")
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

// Delete handles DELETE /v1/conversations/{id}.
func (h *ConversationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.manager.Delete(r.Context(), id); err != nil {
		h.logger.Error("delete conversation failed", "conversation_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete conversation")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
