package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sparkfbla/chapter/internal/api/middleware"
	"github.com/sparkfbla/chapter/internal/api/response"
	"github.com/sparkfbla/chapter/internal/chat"
)

const chatFailureMessage = "Sorry, something went wrong. Please try again."

type chatRequest struct {
	Prompt string `json:"prompt"`
}

type promptsResponse struct {
	Greeting string        `json:"greeting"`
	Prompts  []chat.Prompt `json:"prompts"`
}

// ChatHandler serves the assistant endpoints.
type ChatHandler struct {
	gen chat.Generator
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(gen chat.Generator) *ChatHandler {
	return &ChatHandler{gen: gen}
}

// Prompts handles GET /api/chat/prompts.
func (h *ChatHandler) Prompts(w http.ResponseWriter, _ *http.Request) {
	response.JSON(w, http.StatusOK, promptsResponse{
		Greeting: chat.Greeting,
		Prompts:  chat.QuickPrompts,
	})
}

// Stream handles POST /api/chat. The reply is sent as server-sent events:
// one "token" event per token, then "done". Closing the connection stops
// generation.
func (h *ChatHandler) Stream(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, 64<<10)
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "Request body must be valid JSON", requestID)
		return
	}
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		response.Err(w, http.StatusBadRequest, "prompt is required", requestID)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		response.Err(w, http.StatusInternalServerError, "Streaming is not supported", requestID)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	err := h.gen.Stream(r.Context(), prompt, func(token string) error {
		if err := writeEvent(w, "token", map[string]string{"content": token}); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	})

	switch {
	case err == nil:
		_ = writeEvent(w, "done", map[string]string{})
	case errors.Is(err, context.Canceled):
		slog.Debug("chat stream stopped", "requestId", requestID)
		return
	default:
		slog.Error("chat stream failed", "error", err, "requestId", requestID)
		_ = writeEvent(w, "error", map[string]string{"error": chatFailureMessage})
	}
	flusher.Flush()
}

func writeEvent(w http.ResponseWriter, event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload)
	return err
}
