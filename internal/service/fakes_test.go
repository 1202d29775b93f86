package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"pairdesk/internal/model"
	"pairdesk/internal/repository"
)

// memRepo is an in-memory RoomRepository with the same observable
// semantics as the mongo implementation: silent no-ops for absent
// targets, ErrLastItem protection, lastActivity bumps.
type memRepo struct {
	mu    sync.Mutex
	rooms map[string]*model.Room

	failGetOrCreate bool
	failMutations   bool
}

func newMemRepo() *memRepo {
	return &memRepo{rooms: make(map[string]*model.Room)}
}

var errStoreDown = errors.New("store unavailable")

func (m *memRepo) GetOrCreate(ctx context.Context, roomKey string) (*model.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failGetOrCreate {
		return nil, errStoreDown
	}
	if room, ok := m.rooms[roomKey]; ok {
		return room, nil
	}
	room := model.NewRoom(roomKey)
	m.rooms[roomKey] = room
	return room, nil
}

func (m *memRepo) Read(ctx context.Context, roomKey string) (*model.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rooms[roomKey], nil
}

func (m *memRepo) touch(room *model.Room) {
	room.LastActivity = time.Now().UTC()
}

func (m *memRepo) AppendFile(ctx context.Context, roomKey string, file model.File) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failMutations {
		return errStoreDown
	}
	room, ok := m.rooms[roomKey]
	if !ok {
		return nil
	}
	room.Files = append(room.Files, file)
	room.ActiveFileID = file.ID
	m.touch(room)
	return nil
}

func (m *memRepo) UpdateFile(ctx context.Context, roomKey string, upd model.FileUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failMutations {
		return errStoreDown
	}
	room, ok := m.rooms[roomKey]
	if !ok {
		return nil
	}
	for i := range room.Files {
		if room.Files[i].ID == upd.FileID {
			if upd.Content != nil {
				room.Files[i].Content = *upd.Content
			}
			if upd.Language != nil {
				room.Files[i].Language = *upd.Language
			}
			m.touch(room)
			return nil
		}
	}
	return nil
}

func (m *memRepo) RenameFile(ctx context.Context, roomKey, fileID, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	room, ok := m.rooms[roomKey]
	if !ok {
		return nil
	}
	for i := range room.Files {
		if room.Files[i].ID == fileID {
			room.Files[i].Name = name
			m.touch(room)
			return nil
		}
	}
	return nil
}

func (m *memRepo) DeleteFile(ctx context.Context, roomKey, fileID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	room, ok := m.rooms[roomKey]
	if !ok {
		return nil
	}
	if len(room.Files) == 1 {
		if room.Files[0].ID == fileID {
			return repository.ErrLastItem
		}
		return nil
	}
	for i := range room.Files {
		if room.Files[i].ID == fileID {
			room.Files = append(room.Files[:i], room.Files[i+1:]...)
			m.touch(room)
			return nil
		}
	}
	return nil
}

func (m *memRepo) SetActiveFile(ctx context.Context, roomKey, fileID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if room, ok := m.rooms[roomKey]; ok {
		room.ActiveFileID = fileID
	}
	return nil
}

func (m *memRepo) AppendNote(ctx context.Context, roomKey string, note model.Note) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	room, ok := m.rooms[roomKey]
	if !ok {
		return nil
	}
	room.Notes = append(room.Notes, note)
	room.ActiveNoteID = note.ID
	m.touch(room)
	return nil
}

func (m *memRepo) UpdateNote(ctx context.Context, roomKey string, upd model.NoteUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	room, ok := m.rooms[roomKey]
	if !ok {
		return nil
	}
	for i := range room.Notes {
		if room.Notes[i].ID == upd.NoteID {
			if upd.Content != nil {
				room.Notes[i].Content = *upd.Content
			}
			m.touch(room)
			return nil
		}
	}
	return nil
}

func (m *memRepo) RenameNote(ctx context.Context, roomKey, noteID, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	room, ok := m.rooms[roomKey]
	if !ok {
		return nil
	}
	for i := range room.Notes {
		if room.Notes[i].ID == noteID {
			room.Notes[i].Name = name
			m.touch(room)
			return nil
		}
	}
	return nil
}

func (m *memRepo) DeleteNote(ctx context.Context, roomKey, noteID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	room, ok := m.rooms[roomKey]
	if !ok {
		return nil
	}
	if len(room.Notes) == 1 {
		if room.Notes[0].ID == noteID {
			return repository.ErrLastItem
		}
		return nil
	}
	for i := range room.Notes {
		if room.Notes[i].ID == noteID {
			room.Notes = append(room.Notes[:i], room.Notes[i+1:]...)
			m.touch(room)
			return nil
		}
	}
	return nil
}

func (m *memRepo) SetActiveNote(ctx context.Context, roomKey, noteID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if room, ok := m.rooms[roomKey]; ok {
		room.ActiveNoteID = noteID
	}
	return nil
}

func (m *memRepo) SweepExpired(ctx context.Context, retention time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().UTC().Add(-retention)
	var deleted int64
	for key, room := range m.rooms {
		if room.LastActivity.Before(cutoff) {
			delete(m.rooms, key)
			deleted++
		}
	}
	return deleted, nil
}

// delivery is one recorded Broadcaster call.
type delivery struct {
	connID  string // direct sends
	roomKey string // broadcasts
	event   string
	payload interface{}
	exclude string
}

// fakeBroadcaster records every delivery instead of writing to sockets.
type fakeBroadcaster struct {
	mu         sync.Mutex
	direct     []delivery
	broadcasts []delivery
}

func newFakeBroadcaster() *fakeBroadcaster {
	return &fakeBroadcaster{}
}

func (f *fakeBroadcaster) SendTo(connID string, event string, payload interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.direct = append(f.direct, delivery{connID: connID, event: event, payload: payload})
}

func (f *fakeBroadcaster) BroadcastToRoom(roomKey string, event string, payload interface{}, exclude string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.broadcasts = append(f.broadcasts, delivery{roomKey: roomKey, event: event, payload: payload, exclude: exclude})
}

func (f *fakeBroadcaster) directTo(connID, event string) []delivery {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []delivery
	for _, d := range f.direct {
		if d.connID == connID && d.event == event {
			out = append(out, d)
		}
	}
	return out
}

func (f *fakeBroadcaster) broadcastsOf(event string) []delivery {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []delivery
	for _, d := range f.broadcasts {
		if d.event == event {
			out = append(out, d)
		}
	}
	return out
}
