package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/theopenlane/eushield/internal/domain"
	"github.com/theopenlane/eushield/internal/messages"
)

// MessageResponse carries the reply to a transport message
type MessageResponse struct {
	Success bool              `json:"success"`
	Data    *messages.Message `json:"data,omitempty"`
	// Reason is set when the reply result is the grey fallback
	Reason string `json:"reason,omitempty"`
	Error  *Error `json:"error,omitempty"`
}

// handleMessage dispatches one transport message. Invalid messages are
// logged and dropped with 204 so a misbehaving sender never sees a failure.
func (h *Handler) handleMessage(w http.ResponseWriter, r *http.Request) {
	if h.maxBodySize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
	}

	raw, err := io.ReadAll(r.Body)
	if err != nil {
		respondError(w, http.StatusBadRequest, errCodeInvalidRequest, ErrInvalidRequestBody.Error())
		return
	}

	msg, err := messages.Parse(raw)
	if err != nil {
		dropMessage(w, err)
		return
	}

	name, err := domain.Normalize(msg.Domain)
	if err != nil {
		dropMessage(w, err)
		return
	}

	ctx := r.Context()

	switch msg.Type {
	case messages.TypeScanResult:
		if h.store != nil {
			if err := h.store.Put(ctx, domain.SiteKey(name), msg.URL, *msg.Result); err != nil {
				log.Warn().Err(err).Str("domain", name).Msg("failed to cache reported result")
			}
		}

		w.WriteHeader(http.StatusNoContent)

	case messages.TypeGetResult:
		cached := h.lookup(ctx, name)
		if cached == nil {
			writeJSON(w, http.StatusNotFound, MessageResponse{
				Error: &Error{Code: errCodeNotFound, Message: ErrResultNotFound.Error()},
			})

			return
		}

		h.replyScanResult(w, cached)

	case messages.TypeCheckPage:
		if h.analyzer == nil {
			writeJSON(w, http.StatusServiceUnavailable, MessageResponse{
				Error: &Error{Code: errCodeUnavailable, Message: ErrAnalyzerNotConfigured.Error()},
			})

			return
		}

		result := h.lookup(ctx, name)
		if result == nil {
			result = h.analyze(ctx, name, "https://"+name+"/", nil)
		}

		h.replyScanResult(w, result)

	case messages.TypeForceRescan:
		if h.analyzer == nil {
			writeJSON(w, http.StatusServiceUnavailable, MessageResponse{
				Error: &Error{Code: errCodeUnavailable, Message: ErrAnalyzerNotConfigured.Error()},
			})

			return
		}

		h.replyScanResult(w, h.rescan(ctx, name))
	}
}

// replyScanResult answers with a SCAN_RESULT message for result
func (h *Handler) replyScanResult(w http.ResponseWriter, result *AnalyzeResult) {
	reply := messages.NewScanResult(result.Domain, result.URL, result.Scoring)

	writeJSON(w, http.StatusOK, MessageResponse{
		Success: true,
		Data:    &reply,
		Reason:  result.Reason,
	})
}

func dropMessage(w http.ResponseWriter, err error) {
	event := log.Warn().Err(err)

	var msgErr *messages.MessageError
	if errors.As(err, &msgErr) {
		event = event.Str("reason", msgErr.Reason).Bytes("raw", msgErr.Raw)
	}

	event.Msg("dropping invalid message")

	w.WriteHeader(http.StatusNoContent)
}
