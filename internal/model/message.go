package model

// Inbound mutation payloads. Pointer fields distinguish "not provided"
// from "set to empty" so partial updates only touch the fields the client
// actually sent.

// FileUpdate updates the content and/or language of a file.
type FileUpdate struct {
	FileID   string  `json:"fileId"`
	Content  *string `json:"content,omitempty"`
	Language *string `json:"language,omitempty"`
}

// FileRename changes a file's display name.
type FileRename struct {
	FileID string `json:"fileId"`
	Name   string `json:"name"`
}

// FileDelete removes a file by id.
type FileDelete struct {
	FileID string `json:"fileId"`
}

// NoteUpdate updates a note's content.
type NoteUpdate struct {
	NoteID  string  `json:"noteId"`
	Content *string `json:"content,omitempty"`
}

// NoteRename changes a note's display name.
type NoteRename struct {
	NoteID string `json:"noteId"`
	Name   string `json:"name"`
}

// NoteDelete removes a note by id.
type NoteDelete struct {
	NoteID string `json:"noteId"`
}

// Sync is the full document snapshot sent to a connection when it joins.
type Sync struct {
	Files        []File `json:"files"`
	Notes        []Note `json:"notes"`
	ActiveFileID string `json:"activeFileId"`
	ActiveNoteID string `json:"activeNoteId"`
}

// UsersUpdate carries the current member list of a room.
type UsersUpdate struct {
	Users []string `json:"users"`
}

// ErrorMessage is sent to a single connection when its request is rejected.
type ErrorMessage struct {
	Message string `json:"message"`
}

// CallRequest announces an incoming call and identifies the caller so the
// receiver knows whom to answer.
type CallRequest struct {
	From string `json:"from"`
}
