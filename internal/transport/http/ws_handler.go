package http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"quizroom-service/internal/app"
	"quizroom-service/internal/domain"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

type WSHandler struct {
	service  *app.RoomService
	bus      *app.Dispatcher
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.RoomService, bus *app.Dispatcher) *WSHandler {
	return &WSHandler{
		service: service,
		bus:     bus,
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

type hostRoomPayload struct {
	TestID string `json:"testId"`
}

type joinRoomPayload struct {
	RoomCode    string `json:"roomCode"`
	DisplayName string `json:"displayName"`
}

type roomPayload struct {
	RoomCode string `json:"roomCode"`
}

type submitAnswerPayload struct {
	RoomCode string `json:"roomCode"`
	Answer   string `json:"answer"`
}

// ServeWS upgrades the request and runs the connection's read loop. Each
// connection gets a fresh id; identity lives only as long as the socket.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	connID := uuid.NewString()
	events, detach := h.bus.Attach(connID)

	// Single writer goroutine: every outbound message, whether a direct
	// reply or a room broadcast, flows through the dispatcher channel.
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for ev := range events {
			if err := conn.WriteJSON(ev); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		h.dispatch(r.Context(), connID, inbound)
	}

	// Dropped connection: reconcile membership before tearing down.
	h.service.Disconnect(connID)
	detach()
	<-writerDone
}

func (h *WSHandler) dispatch(ctx context.Context, connID string, inbound inboundMessage) {
	switch inbound.Type {
	case "host-room":
		var payload hostRoomPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			h.sendError(connID, "invalid payload")
			return
		}
		if err := h.service.HostRoom(ctx, connID, payload.TestID); err != nil {
			h.sendError(connID, err.Error())
		}

	case "join-room":
		var payload joinRoomPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			h.sendError(connID, "invalid payload")
			return
		}
		if err := h.service.JoinRoom(connID, payload.RoomCode, payload.DisplayName); err != nil {
			h.sendError(connID, err.Error())
		}

	case "leave-room":
		var payload roomPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			h.sendError(connID, "invalid payload")
			return
		}
		h.service.LeaveRoom(connID, payload.RoomCode)

	case "get-room-role":
		var payload roomPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			h.sendError(connID, "invalid payload")
			return
		}
		role, err := h.service.RoomRole(connID, payload.RoomCode)
		if err != nil {
			h.sendError(connID, err.Error())
			return
		}
		h.bus.ToConn(connID, app.Envelope{Type: "room-role", Payload: role})

	case "start-game":
		h.hostAction(connID, inbound.Payload, h.service.StartGame)

	case "advance-question":
		h.hostAction(connID, inbound.Payload, h.service.AdvanceQuestion)

	case "reveal-answer":
		h.hostAction(connID, inbound.Payload, h.service.RevealAnswer)

	case "end-game":
		h.hostAction(connID, inbound.Payload, h.service.EndGame)

	case "submit-answer":
		var payload submitAnswerPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			h.sendError(connID, "invalid payload")
			return
		}
		if err := h.service.SubmitAnswer(connID, payload.RoomCode, payload.Answer); err != nil {
			h.sendError(connID, err.Error())
		}

	default:
		h.sendError(connID, "unsupported message type")
	}
}

// hostAction handles the lifecycle messages that carry only a room code.
func (h *WSHandler) hostAction(connID string, raw json.RawMessage, op func(connID, roomCode string) error) {
	var payload roomPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		h.sendError(connID, "invalid payload")
		return
	}
	if err := op(connID, payload.RoomCode); err != nil {
		h.sendError(connID, err.Error())
	}
}

// sendError delivers an error privately to the originating connection.
// Errors are never broadcast.
func (h *WSHandler) sendError(connID, message string) {
	h.bus.ToConn(connID, app.Envelope{Type: "error", Payload: domain.ErrorMessage{Message: message}})
}
