package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"pairdesk/internal/model"
)

// ErrLastItem is returned when a delete would leave a room with zero files
// or zero notes. Every room keeps at least one of each.
var ErrLastItem = errors.New("cannot delete the last item")

// RoomRepository is the durable store for room documents. Every operation
// is a single atomic store call keyed by roomKey; there are no multi-call
// transactions. Mutations targeting an absent room or item id are silent
// no-ops so duplicate delivery and retries are safe.
type RoomRepository interface {
	// GetOrCreate returns the room document, creating the seed document
	// (one default file, one default note) if the key is unseen. Concurrent
	// first-joiners race on a single upsert; the loser observes the
	// winner's document.
	GetOrCreate(ctx context.Context, roomKey string) (*model.Room, error)

	// Read returns the room document, or nil when the key is unknown.
	Read(ctx context.Context, roomKey string) (*model.Room, error)

	AppendFile(ctx context.Context, roomKey string, file model.File) error
	UpdateFile(ctx context.Context, roomKey string, upd model.FileUpdate) error
	RenameFile(ctx context.Context, roomKey, fileID, name string) error
	DeleteFile(ctx context.Context, roomKey, fileID string) error
	SetActiveFile(ctx context.Context, roomKey, fileID string) error

	AppendNote(ctx context.Context, roomKey string, note model.Note) error
	UpdateNote(ctx context.Context, roomKey string, upd model.NoteUpdate) error
	RenameNote(ctx context.Context, roomKey, noteID, name string) error
	DeleteNote(ctx context.Context, roomKey, noteID string) error
	SetActiveNote(ctx context.Context, roomKey, noteID string) error

	// SweepExpired deletes every room whose lastActivity is older than the
	// retention window and reports how many were removed.
	SweepExpired(ctx context.Context, retention time.Duration) (int64, error)
}

type roomRepository struct {
	collection *mongo.Collection
}

// NewRoomRepository creates a room repository backed by the "rooms"
// collection of the given database. The unique index on roomKey is what
// makes concurrent first-joiner upserts safe: without it two racing
// upserts could both insert.
func NewRoomRepository(ctx context.Context, db *mongo.Database) (RoomRepository, error) {
	collection := db.Collection("rooms")

	_, err := collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "roomKey", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return nil, err
	}

	return &roomRepository{
		collection: collection,
	}, nil
}

func (r *roomRepository) GetOrCreate(ctx context.Context, roomKey string) (*model.Room, error) {
	seed := model.NewRoom(roomKey)

	// roomKey comes from the filter on insert; seeding it again in
	// $setOnInsert would conflict with the query-derived document.
	update := bson.M{"$setOnInsert": bson.M{
		"files":        seed.Files,
		"notes":        seed.Notes,
		"activeFileId": seed.ActiveFileID,
		"activeNoteId": seed.ActiveNoteID,
		"createdAt":    seed.CreatedAt,
		"lastActivity": seed.LastActivity,
	}}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var room model.Room
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"roomKey": roomKey}, update, opts).Decode(&room)
	if mongo.IsDuplicateKeyError(err) {
		// Lost the insert race against the unique index. The winner's
		// document exists now, so the same upsert matches it.
		err = r.collection.FindOneAndUpdate(ctx, bson.M{"roomKey": roomKey}, update, opts).Decode(&room)
	}
	if err != nil {
		return nil, err
	}

	return &room, nil
}

func (r *roomRepository) Read(ctx context.Context, roomKey string) (*model.Room, error) {
	var room model.Room
	err := r.collection.FindOne(ctx, bson.M{"roomKey": roomKey}).Decode(&room)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil // Room not found
		}
		return nil, err
	}

	return &room, nil
}

func (r *roomRepository) AppendFile(ctx context.Context, roomKey string, file model.File) error {
	// A freshly created item also becomes the focused one.
	update := bson.M{
		"$push": bson.M{"files": file},
		"$set":  bson.M{"activeFileId": file.ID, "lastActivity": time.Now().UTC()},
	}
	_, err := r.collection.UpdateOne(ctx, bson.M{"roomKey": roomKey}, update)
	return err
}

func (r *roomRepository) UpdateFile(ctx context.Context, roomKey string, upd model.FileUpdate) error {
	set := bson.M{"lastActivity": time.Now().UTC()}
	if upd.Content != nil {
		set["files.$.content"] = *upd.Content
	}
	if upd.Language != nil {
		set["files.$.language"] = *upd.Language
	}

	filter := bson.M{"roomKey": roomKey, "files.id": upd.FileID}
	_, err := r.collection.UpdateOne(ctx, filter, bson.M{"$set": set})
	return err
}

func (r *roomRepository) RenameFile(ctx context.Context, roomKey, fileID, name string) error {
	filter := bson.M{"roomKey": roomKey, "files.id": fileID}
	update := bson.M{"$set": bson.M{"files.$.name": name, "lastActivity": time.Now().UTC()}}
	_, err := r.collection.UpdateOne(ctx, filter, update)
	return err
}

func (r *roomRepository) DeleteFile(ctx context.Context, roomKey, fileID string) error {
	// The "files.1 exists" guard makes the pull and the last-item check a
	// single atomic operation: the update matches only while the room still
	// has at least two files.
	filter := bson.M{"roomKey": roomKey, "files.1": bson.M{"$exists": true}}
	update := bson.M{
		"$pull": bson.M{"files": bson.M{"id": fileID}},
		"$set":  bson.M{"lastActivity": time.Now().UTC()},
	}

	res, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount > 0 {
		return nil
	}

	// No match: either the room is gone (no-op) or it is down to one file.
	room, err := r.Read(ctx, roomKey)
	if err != nil {
		return err
	}
	if room != nil && len(room.Files) == 1 && room.Files[0].ID == fileID {
		return ErrLastItem
	}
	return nil
}

func (r *roomRepository) SetActiveFile(ctx context.Context, roomKey, fileID string) error {
	update := bson.M{"$set": bson.M{"activeFileId": fileID}}
	_, err := r.collection.UpdateOne(ctx, bson.M{"roomKey": roomKey}, update)
	return err
}

func (r *roomRepository) AppendNote(ctx context.Context, roomKey string, note model.Note) error {
	update := bson.M{
		"$push": bson.M{"notes": note},
		"$set":  bson.M{"activeNoteId": note.ID, "lastActivity": time.Now().UTC()},
	}
	_, err := r.collection.UpdateOne(ctx, bson.M{"roomKey": roomKey}, update)
	return err
}

func (r *roomRepository) UpdateNote(ctx context.Context, roomKey string, upd model.NoteUpdate) error {
	set := bson.M{"lastActivity": time.Now().UTC()}
	if upd.Content != nil {
		set["notes.$.content"] = *upd.Content
	}

	filter := bson.M{"roomKey": roomKey, "notes.id": upd.NoteID}
	_, err := r.collection.UpdateOne(ctx, filter, bson.M{"$set": set})
	return err
}

func (r *roomRepository) RenameNote(ctx context.Context, roomKey, noteID, name string) error {
	filter := bson.M{"roomKey": roomKey, "notes.id": noteID}
	update := bson.M{"$set": bson.M{"notes.$.name": name, "lastActivity": time.Now().UTC()}}
	_, err := r.collection.UpdateOne(ctx, filter, update)
	return err
}

func (r *roomRepository) DeleteNote(ctx context.Context, roomKey, noteID string) error {
	filter := bson.M{"roomKey": roomKey, "notes.1": bson.M{"$exists": true}}
	update := bson.M{
		"$pull": bson.M{"notes": bson.M{"id": noteID}},
		"$set":  bson.M{"lastActivity": time.Now().UTC()},
	}

	res, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount > 0 {
		return nil
	}

	room, err := r.Read(ctx, roomKey)
	if err != nil {
		return err
	}
	if room != nil && len(room.Notes) == 1 && room.Notes[0].ID == noteID {
		return ErrLastItem
	}
	return nil
}

func (r *roomRepository) SetActiveNote(ctx context.Context, roomKey, noteID string) error {
	update := bson.M{"$set": bson.M{"activeNoteId": noteID}}
	_, err := r.collection.UpdateOne(ctx, bson.M{"roomKey": roomKey}, update)
	return err
}

func (r *roomRepository) SweepExpired(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-retention)
	res, err := r.collection.DeleteMany(ctx, bson.M{"lastActivity": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
