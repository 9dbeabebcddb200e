package webhook

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/user/chathub/internal/types"
)

const defaultWindow = 10

type textRequest struct {
	Text string `json:"text"`
}

func decodeText(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req textRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return "", false
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return "", false
	}
	return req.Text, true
}

func (s *Server) handleSentiment(w http.ResponseWriter, r *http.Request) {
	text, ok := decodeText(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.analyzer.AnalyzeSentiment(r.Context(), text))
}

func (s *Server) handleCategorize(w http.ResponseWriter, r *http.Request) {
	text, ok := decodeText(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.analyzer.CategorizeMessage(r.Context(), text))
}

// recent returns the chat's history window, limited by ?limit= when given.
func (s *Server) recent(r *http.Request) []*types.Message {
	limit := defaultWindow
	if q := r.URL.Query().Get("limit"); q != "" {
		if n, err := strconv.Atoi(q); err == nil && n > 0 {
			limit = n
		}
	}
	return s.history.Recent(types.ChatKey(r.PathValue("chat")), limit)
}

func (s *Server) handleReplies(w http.ResponseWriter, r *http.Request) {
	msgs := s.recent(r)
	last := r.URL.Query().Get("message")
	if last == "" && len(msgs) > 0 {
		last = msgs[len(msgs)-1].Content
	}
	replies := s.analyzer.GenerateSmartReplies(r.Context(), msgs, last)
	writeJSON(w, http.StatusOK, map[string]any{"replies": replies})
}

func (s *Server) handleActionItems(w http.ResponseWriter, r *http.Request) {
	items := s.analyzer.ExtractActionItems(r.Context(), s.recent(r))
	writeJSON(w, http.StatusOK, map[string]any{"action_items": items})
}

func (s *Server) handleTrend(w http.ResponseWriter, r *http.Request) {
	trend := s.analyzer.SentimentTrend(r.Context(), s.recent(r))
	if trend == nil {
		writeError(w, http.StatusNotFound, "no messages for chat")
		return
	}
	writeJSON(w, http.StatusOK, trend)
}
