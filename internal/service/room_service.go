package service

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"

	"pairdesk/internal/model"
	"pairdesk/internal/registry"
	"pairdesk/internal/repository"
)

// RoomService is the session protocol: it decides what happens on join,
// mutate and disconnect, orchestrating the registry (membership) and the
// repository (persisted state), and tells the broadcaster what to deliver
// to whom.
//
// Fan-out rule, applied uniformly: a mutation is echoed to the *other*
// members of the room, never back to its originator. The originator
// already applied the change to its own view.
type RoomService struct {
	repo repository.RoomRepository
	reg  *registry.Registry
	bc   Broadcaster

	// Per-room locks serialize join/mutate/disconnect processing for a
	// single room so its events broadcast in processing order, while other
	// rooms proceed concurrently during store I/O.
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewRoomService creates a new room service.
func NewRoomService(repo repository.RoomRepository, reg *registry.Registry, bc Broadcaster) *RoomService {
	return &RoomService{
		repo:  repo,
		reg:   reg,
		bc:    bc,
		locks: make(map[string]*sync.Mutex),
	}
}

func (s *RoomService) roomLock(roomKey string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.locks[roomKey]
	if !ok {
		l = &sync.Mutex{}
		s.locks[roomKey] = l
	}
	return l
}

// dropLockIfEmpty evicts the room's lock entry only while the room still
// has no members. The emptiness re-check under s.mu closes the race where
// a joiner is admitted between a disconnect observing empty and the
// eviction: every lock holder or waiter is a registry member by then, so
// an entry confirmed empty here has no holders to strand.
func (s *RoomService) dropLockIfEmpty(roomKey string) {
	s.mu.Lock()
	if s.reg.IsEmpty(roomKey) {
		delete(s.locks, roomKey)
	}
	s.mu.Unlock()
}

// Join admits the session into the room, sends it the full document
// snapshot, and announces the new member list to the whole room. A second
// join while already joined is rejected rather than switching rooms.
func (s *RoomService) Join(ctx context.Context, sess *model.Session, roomKey string) {
	if sess.Joined() {
		s.bc.SendTo(sess.ConnectionID, EventError, model.ErrorMessage{Message: "already in a room"})
		return
	}
	if roomKey == "" {
		s.bc.SendTo(sess.ConnectionID, EventError, model.ErrorMessage{Message: "room key is required"})
		return
	}

	if !s.reg.TryAdmit(roomKey, sess.ConnectionID) {
		s.bc.SendTo(sess.ConnectionID, EventRoomFull, struct{}{})
		return
	}

	lock := s.roomLock(roomKey)
	lock.Lock()
	defer lock.Unlock()

	room, err := s.repo.GetOrCreate(ctx, roomKey)
	if err != nil {
		// Roll the admission back so the slot is not leaked.
		s.reg.Leave(roomKey, sess.ConnectionID)
		s.dropLockIfEmpty(roomKey)
		log.Printf("room %s: join failed: %v", roomKey, err)
		s.bc.SendTo(sess.ConnectionID, EventError, model.ErrorMessage{Message: "room is unavailable"})
		return
	}

	sess.RoomKey = roomKey

	// Snapshot goes to the joiner only; everyone else already has it.
	s.bc.SendTo(sess.ConnectionID, EventSync, model.Sync{
		Files:        room.Files,
		Notes:        room.Notes,
		ActiveFileID: room.ActiveFileID,
		ActiveNoteID: room.ActiveNoteID,
	})
	s.bc.BroadcastToRoom(roomKey, EventUsersUpdate, model.UsersUpdate{Users: s.reg.Members(roomKey)}, "")

	log.Printf("connection %s joined room %s", sess.ConnectionID, roomKey)
}

// mutate runs a store operation under the room lock and echoes the event to
// the other members on success. Mutations from unjoined sessions are
// ignored entirely. ErrLastItem goes back to the originator only; any other
// store failure is logged and the mutation dropped, leaving the client's
// optimistic local state to stand until its next sync.
func (s *RoomService) mutate(ctx context.Context, sess *model.Session, event string, payload interface{}, op func(context.Context, string) error) {
	if !sess.Joined() {
		return
	}

	lock := s.roomLock(sess.RoomKey)
	lock.Lock()
	defer lock.Unlock()

	if err := op(ctx, sess.RoomKey); err != nil {
		if errors.Is(err, repository.ErrLastItem) {
			s.bc.SendTo(sess.ConnectionID, EventError, model.ErrorMessage{Message: err.Error()})
			return
		}
		log.Printf("room %s: %s dropped: %v", sess.RoomKey, event, err)
		return
	}

	s.bc.BroadcastToRoom(sess.RoomKey, event, payload, sess.ConnectionID)
}

// CreateFile appends a new file to the room.
func (s *RoomService) CreateFile(ctx context.Context, sess *model.Session, file model.File) {
	s.mutate(ctx, sess, EventFileCreate, file, func(ctx context.Context, roomKey string) error {
		return s.repo.AppendFile(ctx, roomKey, file)
	})
}

// UpdateFile applies a partial update to a file's content and/or language.
func (s *RoomService) UpdateFile(ctx context.Context, sess *model.Session, upd model.FileUpdate) {
	s.mutate(ctx, sess, EventFileUpdate, upd, func(ctx context.Context, roomKey string) error {
		return s.repo.UpdateFile(ctx, roomKey, upd)
	})
}

// RenameFile changes a file's display name.
func (s *RoomService) RenameFile(ctx context.Context, sess *model.Session, ren model.FileRename) {
	s.mutate(ctx, sess, EventFileRename, ren, func(ctx context.Context, roomKey string) error {
		return s.repo.RenameFile(ctx, roomKey, ren.FileID, ren.Name)
	})
}

// DeleteFile removes a file. The last file of a room cannot be deleted.
func (s *RoomService) DeleteFile(ctx context.Context, sess *model.Session, del model.FileDelete) {
	s.mutate(ctx, sess, EventFileDelete, del, func(ctx context.Context, roomKey string) error {
		if err := s.repo.DeleteFile(ctx, roomKey, del.FileID); err != nil {
			return err
		}
		return s.refocusFile(ctx, roomKey)
	})
}

// CreateNote appends a new note to the room.
func (s *RoomService) CreateNote(ctx context.Context, sess *model.Session, note model.Note) {
	s.mutate(ctx, sess, EventNoteCreate, note, func(ctx context.Context, roomKey string) error {
		return s.repo.AppendNote(ctx, roomKey, note)
	})
}

// UpdateNote applies a partial update to a note's content.
func (s *RoomService) UpdateNote(ctx context.Context, sess *model.Session, upd model.NoteUpdate) {
	s.mutate(ctx, sess, EventNoteUpdate, upd, func(ctx context.Context, roomKey string) error {
		return s.repo.UpdateNote(ctx, roomKey, upd)
	})
}

// RenameNote changes a note's display name.
func (s *RoomService) RenameNote(ctx context.Context, sess *model.Session, ren model.NoteRename) {
	s.mutate(ctx, sess, EventNoteRename, ren, func(ctx context.Context, roomKey string) error {
		return s.repo.RenameNote(ctx, roomKey, ren.NoteID, ren.Name)
	})
}

// DeleteNote removes a note. The last note of a room cannot be deleted.
func (s *RoomService) DeleteNote(ctx context.Context, sess *model.Session, del model.NoteDelete) {
	s.mutate(ctx, sess, EventNoteDelete, del, func(ctx context.Context, roomKey string) error {
		if err := s.repo.DeleteNote(ctx, roomKey, del.NoteID); err != nil {
			return err
		}
		return s.refocusNote(ctx, roomKey)
	})
}

// refocusFile repoints the advisory active file id at the first remaining
// file when a delete removed the focused one.
func (s *RoomService) refocusFile(ctx context.Context, roomKey string) error {
	room, err := s.repo.Read(ctx, roomKey)
	if err != nil || room == nil {
		return err
	}
	for _, f := range room.Files {
		if f.ID == room.ActiveFileID {
			return nil
		}
	}
	if len(room.Files) > 0 {
		return s.repo.SetActiveFile(ctx, roomKey, room.Files[0].ID)
	}
	return nil
}

func (s *RoomService) refocusNote(ctx context.Context, roomKey string) error {
	room, err := s.repo.Read(ctx, roomKey)
	if err != nil || room == nil {
		return err
	}
	for _, n := range room.Notes {
		if n.ID == room.ActiveNoteID {
			return nil
		}
	}
	if len(room.Notes) > 0 {
		return s.repo.SetActiveNote(ctx, roomKey, room.Notes[0].ID)
	}
	return nil
}

// Chat relays a chat message to the other members. Chat never touches the
// store, so it does not bump the room's activity.
func (s *RoomService) Chat(sess *model.Session, payload json.RawMessage) {
	s.relay(sess, EventChatMessage, payload)
}

// TypingStart relays a typing indicator to the other members.
func (s *RoomService) TypingStart(sess *model.Session) {
	s.relay(sess, EventTypingStart, struct{}{})
}

// TypingStop relays the end of a typing indicator to the other members.
func (s *RoomService) TypingStop(sess *model.Session) {
	s.relay(sess, EventTypingStop, struct{}{})
}

func (s *RoomService) relay(sess *model.Session, event string, payload interface{}) {
	if !sess.Joined() {
		return
	}
	s.bc.BroadcastToRoom(sess.RoomKey, event, payload, sess.ConnectionID)
}

// Disconnect removes the session from its room and notifies the remaining
// member, which also learns that any in-progress call is over. Idempotent:
// a second call for the same session is a no-op.
func (s *RoomService) Disconnect(sess *model.Session) {
	if !sess.Joined() {
		return
	}
	roomKey := sess.RoomKey
	sess.RoomKey = ""

	lock := s.roomLock(roomKey)
	lock.Lock()

	s.reg.Leave(roomKey, sess.ConnectionID)
	empty := s.reg.IsEmpty(roomKey)
	if !empty {
		s.bc.BroadcastToRoom(roomKey, EventUsersUpdate, model.UsersUpdate{Users: s.reg.Members(roomKey)}, "")
		s.bc.BroadcastToRoom(roomKey, EventCallEnded, struct{}{}, "")
		log.Printf("connection %s left room %s", sess.ConnectionID, roomKey)
	}

	lock.Unlock()

	if empty {
		// Presence cleanup only; the document stays in the store.
		s.dropLockIfEmpty(roomKey)
		log.Printf("room %s is now empty", roomKey)
	}
}
