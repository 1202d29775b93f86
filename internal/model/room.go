package model

import "time"

// Default item IDs seeded into every new room. Clients address the seed
// items by these IDs until they create their own.
const (
	DefaultFileID = "default"
	DefaultNoteID = "default"
)

// File is a single editable text file inside a room.
type File struct {
	ID       string `json:"id" bson:"id"`
	Name     string `json:"name" bson:"name"`
	Content  string `json:"content" bson:"content"`
	Language string `json:"language" bson:"language"`
}

// Note is a free-form text note inside a room.
type Note struct {
	ID      string `json:"id" bson:"id"`
	Name    string `json:"name" bson:"name"`
	Content string `json:"content" bson:"content"`
}

// Room is the persisted workspace document shared by the (at most two)
// members of a room. Files and Notes keep insertion order, which is also
// display order.
type Room struct {
	RoomKey      string    `json:"roomKey" bson:"roomKey"`
	Files        []File    `json:"files" bson:"files"`
	Notes        []Note    `json:"notes" bson:"notes"`
	ActiveFileID string    `json:"activeFileId" bson:"activeFileId"`
	ActiveNoteID string    `json:"activeNoteId" bson:"activeNoteId"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
	LastActivity time.Time `json:"lastActivity" bson:"lastActivity"`
}

// NewRoom builds the seed document for a fresh room: exactly one default
// file and one default note.
func NewRoom(roomKey string) *Room {
	now := time.Now().UTC()
	return &Room{
		RoomKey: roomKey,
		Files: []File{{
			ID:       DefaultFileID,
			Name:     "untitled.js",
			Content:  "// Start coding together...\n",
			Language: "javascript",
		}},
		Notes: []Note{{
			ID:      DefaultNoteID,
			Name:    "Notes",
			Content: "Shared notes for this room.\n",
		}},
		ActiveFileID: DefaultFileID,
		ActiveNoteID: DefaultNoteID,
		CreatedAt:    now,
		LastActivity: now,
	}
}

// Meta reduces a room to its cacheable metadata.
func (r *Room) Meta() *RoomMeta {
	return &RoomMeta{
		RoomKey:      r.RoomKey,
		FileCount:    len(r.Files),
		NoteCount:    len(r.Notes),
		CreatedAt:    r.CreatedAt,
		LastActivity: r.LastActivity,
	}
}

// RoomMeta is the document-derived slice of room state served by the HTTP
// lookup endpoint. The live user count is layered on top at request time
// and is never cached.
type RoomMeta struct {
	RoomKey      string    `json:"roomKey"`
	FileCount    int       `json:"fileCount"`
	NoteCount    int       `json:"noteCount"`
	CreatedAt    time.Time `json:"createdAt"`
	LastActivity time.Time `json:"lastActivity"`
}
