package app

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/huddlechat/huddle/internal/core"
	"github.com/huddlechat/huddle/internal/domain"
)

var ErrRoomNotFound = errors.New("room not found")

// createAttempts bounds the retry on a room id collision. With random
// 128-bit ids a second attempt is already effectively unreachable.
const createAttempts = 5

// RoomStore owns the set of ephemeral call rooms. A connection is a
// member of at most one room at any instant, and a room is deleted the
// moment its participant list empties.
type RoomStore struct {
	mu     sync.Mutex
	rooms  map[domain.RoomID]*domain.Room
	byConn map[core.ConnectionID]domain.RoomID
}

func NewRoomStore() *RoomStore {
	return &RoomStore{
		rooms:  make(map[domain.RoomID]*domain.Room),
		byConn: make(map[core.ConnectionID]domain.RoomID),
	}
}

// CreateRoom creates a room whose sole participant is the creator and
// returns a snapshot of it. A connection lives in at most one room, so
// a creator still in a room is evicted from it first, under the same
// lock.
func (s *RoomStore) CreateRoom(creator domain.Participant) (domain.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	connID := core.ConnectionID(creator.ConnectionID)
	if prev, member := s.byConn[connID]; member {
		s.leaveLocked(prev, connID)
	}

	var id domain.RoomID
	for i := 0; ; i++ {
		id = domain.RoomID(uuid.NewString())
		if _, taken := s.rooms[id]; !taken {
			break
		}
		if i == createAttempts-1 {
			return domain.Room{}, fmt.Errorf("room id generation exhausted after %d attempts", createAttempts)
		}
	}

	room := &domain.Room{
		ID:           id,
		Creator:      creator,
		Participants: []domain.Participant{creator},
	}
	s.rooms[id] = room
	s.byConn[connID] = id
	log.Info().Str("module", "app.rooms").Str("room", string(id)).Str("user", string(creator.UserID)).Msg("room created")
	return cloneRoom(room), nil
}

func (s *RoomStore) GetRoom(id domain.RoomID) (domain.Room, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[id]
	if !ok {
		return domain.Room{}, false
	}
	return cloneRoom(room), true
}

// JoinRoom appends the participant unless its connection is already a
// member of any room. Repeat joins with the same connection id are
// idempotent. The bool reports whether the participant was newly
// admitted, so callers can tell an admission from a no-op. Returns a
// snapshot of the room after the mutation.
func (s *RoomStore) JoinRoom(id domain.RoomID, p domain.Participant) (domain.Room, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[id]
	if !ok {
		return domain.Room{}, false, ErrRoomNotFound
	}
	connID := core.ConnectionID(p.ConnectionID)
	if current, member := s.byConn[connID]; member {
		if current != id {
			log.Warn().Str("module", "app.rooms").Str("conn", p.ConnectionID).Str("room", string(id)).Str("current", string(current)).Msg("join refused, connection already in a room")
		}
		return cloneRoom(room), false, nil
	}
	room.Participants = append(room.Participants, p)
	s.byConn[connID] = id
	log.Info().Str("module", "app.rooms").Str("room", string(id)).Str("user", string(p.UserID)).Int("participants", len(room.Participants)).Msg("participant joined")
	return cloneRoom(room), true, nil
}

// LeaveRoom removes the matching participant. Emptying the room
// deletes it in the same operation. Absent room or participant is a
// silent no-op: disconnect races are expected.
func (s *RoomStore) LeaveRoom(id domain.RoomID, connID core.ConnectionID) (domain.Participant, domain.Room, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.leaveLocked(id, connID)
}

// LeaveAllRooms removes the connection from every room it appears in
// (at most one, by invariant). Used on transport disconnect.
func (s *RoomStore) LeaveAllRooms(connID core.ConnectionID) (domain.Participant, domain.Room, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byConn[connID]
	if !ok {
		return domain.Participant{}, domain.Room{}, false
	}
	return s.leaveLocked(id, connID)
}

func (s *RoomStore) leaveLocked(id domain.RoomID, connID core.ConnectionID) (domain.Participant, domain.Room, bool) {
	room, ok := s.rooms[id]
	if !ok {
		return domain.Participant{}, domain.Room{}, false
	}
	idx := -1
	for i, p := range room.Participants {
		if p.ConnectionID == string(connID) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return domain.Participant{}, domain.Room{}, false
	}
	left := room.Participants[idx]
	room.Participants = append(room.Participants[:idx], room.Participants[idx+1:]...)
	delete(s.byConn, connID)

	if len(room.Participants) == 0 {
		delete(s.rooms, id)
		log.Info().Str("module", "app.rooms").Str("room", string(id)).Msg("room emptied, deleted")
	} else {
		log.Info().Str("module", "app.rooms").Str("room", string(id)).Str("user", string(left.UserID)).Int("participants", len(room.Participants)).Msg("participant left")
	}
	return left, cloneRoom(room), true
}

// Rooms returns a snapshot of every active room.
func (s *RoomStore) Rooms() []domain.Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Room, 0, len(s.rooms))
	for _, room := range s.rooms {
		out = append(out, cloneRoom(room))
	}
	return out
}

// RoomsVisibleTo filters active rooms to those created by the user or
// by one of their friends, so call invitations never leak to
// non-contacts.
func (s *RoomStore) RoomsVisibleTo(userID domain.UserID, friends map[domain.UserID]struct{}) []domain.Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Room, 0, len(s.rooms))
	for _, room := range s.rooms {
		creator := room.Creator.UserID
		if creator == userID {
			out = append(out, cloneRoom(room))
			continue
		}
		if _, ok := friends[creator]; ok {
			out = append(out, cloneRoom(room))
		}
	}
	return out
}

func cloneRoom(room *domain.Room) domain.Room {
	out := *room
	out.Participants = make([]domain.Participant, len(room.Participants))
	copy(out.Participants, room.Participants)
	return out
}
