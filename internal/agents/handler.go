package agents

import (
	"log"
	"net/http"

	"antigravity-engine/internal/httputil"
	"antigravity-engine/internal/reasoning"
)

// Handler exposes the simulation inject and the user-facing chat endpoints.
type Handler struct {
	analysis *AnalysisAgent
	chat     reasoning.Engine
}

func NewHandler(analysis *AnalysisAgent, chat reasoning.Engine) *Handler {
	return &Handler{analysis: analysis, chat: chat}
}

type injectRequest struct {
	Payload string `json:"payload"`
}

func (h *Handler) Inject(w http.ResponseWriter, r *http.Request) {
	var req injectRequest
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	if req.Payload == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: "payload is required"})
		return
	}
	outcome := h.analysis.Process(r.Context(), req.Payload)
	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "SUCCESS",
		"message": "Market data block injected into Analysis Agent.",
		"outcome": string(outcome),
	})
}

type chatRequest struct {
	Message string `json:"message"`
}

func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	if req.Message == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: "message is required"})
		return
	}
	log.Printf("[UserFacingAgent] chat query received")
	response, err := h.chat.Reason(r.Context(), chatSystemPrompt, req.Message)
	if err != nil {
		httputil.WriteJSON(w, http.StatusServiceUnavailable, httputil.ErrorResponse{Error: "reasoning engine unavailable"})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"response": response})
}
