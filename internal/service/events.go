package service

// Inbound event types (client -> server).
const (
	EventJoinRoom = "join-room"

	EventFileCreate = "file-create"
	EventFileUpdate = "file-update"
	EventFileRename = "file-rename"
	EventFileDelete = "file-delete"

	EventNoteCreate = "note-create"
	EventNoteUpdate = "note-update"
	EventNoteRename = "note-rename"
	EventNoteDelete = "note-delete"

	EventChatMessage = "chat-message"
	EventTypingStart = "typing-start"
	EventTypingStop  = "typing-stop"

	EventVideoToggle       = "video-toggle"
	EventAudioToggle       = "audio-toggle"
	EventScreenShareToggle = "screen-share-toggle"

	EventCallRequest  = "call-request"
	EventCallAccepted = "call-accepted"
	EventCallRejected = "call-rejected"
	EventCallEnded    = "call-ended"

	EventOffer        = "offer"
	EventAnswer       = "answer"
	EventICECandidate = "ice-candidate"
)

// Outbound event types (server -> client).
const (
	EventUserID      = "user-id"
	EventRoomFull    = "room-full"
	EventSync        = "sync"
	EventUsersUpdate = "users-update"
	EventError       = "error"
)
