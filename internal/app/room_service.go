package app

import (
	"context"

	"quizroom-service/internal/domain"
)

// RoomRegistry owns the mapping from room code to Room and guarantees code
// uniqueness among active rooms.
type RoomRegistry interface {
	Create(hostID, testID string, test domain.Test) *Room
	Get(code string) (*Room, bool)
	Delete(code string)
	Rooms() []*Room
}

// TestRepository loads test content (from cache/backing store).
type TestRepository interface {
	GetTest(ctx context.Context, testID string) (domain.Test, error)
}

// RoomService contains the room lifecycle and gameplay use cases. Every
// handler validates fully before mutating; failures leave state unchanged.
type RoomService struct {
	rooms RoomRegistry
	tests TestRepository
	bus   *Dispatcher
}

func NewRoomService(rooms RoomRegistry, tests TestRepository, bus *Dispatcher) *RoomService {
	return &RoomService{rooms: rooms, tests: tests, bus: bus}
}

// HostRoom creates a room for the requesting connection and tells it the code.
func (s *RoomService) HostRoom(ctx context.Context, connID, testID string) error {
	test, err := s.tests.GetTest(ctx, testID)
	if err != nil {
		return err
	}
	room := s.rooms.Create(connID, testID, test)
	s.bus.ToConn(connID, Envelope{Type: "room-created", Payload: domain.RoomCreated{RoomCode: room.Code()}})
	return nil
}

// JoinRoom registers a player and announces the new head count to the room.
func (s *RoomService) JoinRoom(connID, roomCode, displayName string) error {
	room, ok := s.rooms.Get(roomCode)
	if !ok {
		return domain.ErrRoomNotFound
	}
	joined, err := room.join(connID, displayName)
	if err != nil {
		return err
	}
	s.bus.ToConn(connID, Envelope{Type: "room-joined", Payload: domain.RoomJoined{RoomCode: roomCode}})
	s.bus.ToConns(room.memberIDs(), Envelope{Type: "player-joined", Payload: joined})
	return nil
}

// LeaveRoom handles an explicit departure. A leaving host disbands the room
// immediately; a leaving player just shrinks it. Unknown rooms are ignored.
func (s *RoomService) LeaveRoom(connID, roomCode string) {
	room, ok := s.rooms.Get(roomCode)
	if !ok {
		return
	}
	s.depart(room, connID)
}

// Disconnect reconciles membership after a dropped connection. The room is
// resolved by scanning active rooms, bounded by how many exist at once.
func (s *RoomService) Disconnect(connID string) {
	for _, room := range s.rooms.Rooms() {
		if room.HostID() == connID {
			s.disband(room)
			return
		}
		s.removePlayer(room, connID)
	}
}

func (s *RoomService) depart(room *Room, connID string) {
	if room.HostID() == connID {
		s.disband(room)
		return
	}
	s.removePlayer(room, connID)
}

func (s *RoomService) disband(room *Room) {
	members := room.memberIDs()
	s.rooms.Delete(room.Code())
	s.bus.ToConns(members, Envelope{Type: "host-disconnected"})
}

func (s *RoomService) removePlayer(room *Room, connID string) {
	left, ok := room.removePlayer(connID)
	if !ok {
		return
	}
	s.bus.ToConns(room.memberIDs(), Envelope{Type: "player-left", Payload: left})
}

// StartGame begins the quiz and broadcasts the first question room-wide.
func (s *RoomService) StartGame(connID, roomCode string) error {
	room, ok := s.rooms.Get(roomCode)
	if !ok {
		return domain.ErrRoomNotFound
	}
	first, err := room.start(connID)
	if err != nil {
		return err
	}
	s.bus.ToConns(room.memberIDs(), Envelope{Type: "question-started", Payload: first})
	return nil
}

// AdvanceQuestion moves to the next question, or ends the game when the
// current question was the last. The host always gets a leaderboard update.
func (s *RoomService) AdvanceQuestion(connID, roomCode string) error {
	room, ok := s.rooms.Get(roomCode)
	if !ok {
		return domain.ErrRoomNotFound
	}
	res, err := room.advance(connID)
	if err != nil {
		return err
	}
	if res.gameOver {
		s.bus.ToConns(room.memberIDs(), Envelope{Type: "game-ended", Payload: res.ended})
	} else {
		s.bus.ToConns(room.memberIDs(), Envelope{Type: "question-started", Payload: res.next})
	}
	s.bus.ToConn(room.HostID(), Envelope{Type: "leaderboard-update", Payload: res.board})
	return nil
}

// RevealAnswer broadcasts the correct answer for the current question. Pure
// UI signal: no score or index change.
func (s *RoomService) RevealAnswer(connID, roomCode string) error {
	room, ok := s.rooms.Get(roomCode)
	if !ok {
		return domain.ErrRoomNotFound
	}
	revealed, err := room.reveal(connID)
	if err != nil {
		return err
	}
	s.bus.ToConns(room.memberIDs(), Envelope{Type: "answer-revealed", Payload: revealed})
	return nil
}

// EndGame force-ends the quiz and broadcasts final ranked scores.
func (s *RoomService) EndGame(connID, roomCode string) error {
	room, ok := s.rooms.Get(roomCode)
	if !ok {
		return domain.ErrRoomNotFound
	}
	ended, err := room.forceEnd(connID)
	if err != nil {
		return err
	}
	s.bus.ToConns(room.memberIDs(), Envelope{Type: "game-ended", Payload: ended})
	return nil
}

// SubmitAnswer scores a submission. Repeat submissions for the same question
// are silently ignored: no error, no second acknowledgement.
func (s *RoomService) SubmitAnswer(connID, roomCode, answer string) error {
	room, ok := s.rooms.Get(roomCode)
	if !ok {
		return domain.ErrRoomNotFound
	}
	res, accepted, err := room.submit(connID, answer)
	if err != nil {
		return err
	}
	if !accepted {
		return nil
	}
	s.bus.ToConn(connID, Envelope{Type: "answer-received", Payload: res.receipt})
	s.bus.ToConn(room.HostID(), Envelope{Type: "player-answered", Payload: res.hostNote})
	s.bus.ToConn(room.HostID(), Envelope{Type: "leaderboard-update", Payload: res.board})
	return nil
}

// RoomRole reports the requester's role and derived room state. Read-only;
// the transport replies on the requesting connection.
func (s *RoomService) RoomRole(connID, roomCode string) (domain.RoomRole, error) {
	room, ok := s.rooms.Get(roomCode)
	if !ok {
		return domain.RoomRole{}, domain.ErrRoomNotFound
	}
	return room.role(connID), nil
}
