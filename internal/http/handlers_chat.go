package http

import (
	"net/http"
	"strings"

	applog "fintrack/internal/log"
)

type chatData struct {
	Question    string
	Answer      string
	Error       string
	Unavailable bool
}

func (s *Server) handleChatPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "chat.html", chatData{Unavailable: s.assistant == nil}, http.StatusOK)
}

func (s *Server) handleChatAsk(w http.ResponseWriter, r *http.Request) {
	logger := applog.FromContext(r.Context())

	if s.assistant == nil {
		s.render(w, r, "chat.html", chatData{Unavailable: true}, http.StatusServiceUnavailable)
		return
	}

	if err := r.ParseForm(); err != nil {
		s.render(w, r, "chat.html", chatData{Error: "Invalid request format"}, http.StatusBadRequest)
		return
	}

	question := strings.TrimSpace(r.Form.Get("question"))
	if question == "" {
		s.render(w, r, "chat.html", chatData{Error: "Ask a question first"}, http.StatusUnprocessableEntity)
		return
	}

	answer, err := s.assistant.Answer(r.Context(), question)
	if err != nil {
		logger.ErrorContext(r.Context(), "Assistant answer failed", applog.FieldError, err)
		s.render(w, r, "chat.html", chatData{
			Question: question,
			Error:    "The assistant could not answer right now. Try again shortly.",
		}, http.StatusBadGateway)
		return
	}

	s.render(w, r, "chat.html", chatData{Question: question, Answer: answer}, http.StatusOK)
}
