package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"valuation-service/internal/app"
	"valuation-service/internal/domain"
)

const (
	wsWriteWait   = 10 * time.Second
	wsMaxMessage  = 64 << 10
	wsSendBacklog = 16
)

// WSHandler streams live score previews while the respondent fills the wizard.
type WSHandler struct {
	service  *app.AssessmentService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.AssessmentService) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answersPayload struct {
	Section string         `json:"section"`
	Answers domain.Answers `json:"answers"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the request and answers every "answers" message with a
// "preview" of the section and overall score. Nothing is persisted.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		zap.L().Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()
	conn.SetReadLimit(wsMaxMessage)

	send := make(chan outboundMessage[any], wsSendBacklog)
	writerDone := make(chan struct{})

	// single writer; gorilla connections allow one concurrent writer
	go func() {
		defer close(writerDone)
		for msg := range send {
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(msg); err != nil {
				zap.L().Debug("ws write error", zap.Error(err))
				return
			}
		}
	}()

	emit := func(msg outboundMessage[any]) bool {
		select {
		case send <- msg:
			return true
		case <-writerDone:
			return false
		}
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		if !emit(h.handle(r, inbound)) {
			break
		}
	}

	close(send)
	<-writerDone
}

func (h *WSHandler) handle(r *http.Request, inbound inboundMessage) outboundMessage[any] {
	if inbound.Type != "answers" {
		return errorMessage("unsupported message type")
	}
	var payload answersPayload
	if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
		return errorMessage("invalid answers payload")
	}
	preview, err := h.service.Preview(r.Context(), payload.Answers, payload.Section)
	if err != nil {
		return errorMessage(err.Error())
	}
	return outboundMessage[any]{Type: "preview", Payload: preview}
}

func errorMessage(msg string) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: msg}}
}
