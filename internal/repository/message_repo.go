package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/oguzkopan/careerrougelike-sub002/internal/model"
)

// ErrMessageNotFound means a message id was not present in a meeting's log.
var ErrMessageNotFound = errors.New("message not found")

// MessageRepo is the append-only message log, keyed by
// (meetingId, sequenceNumber).
type MessageRepo interface {
	// Append inserts the batch in order. Sequence numbers are assigned by
	// the caller; the unique index rejects duplicates.
	Append(ctx context.Context, messages []model.Message) error

	// ListSince returns all messages of a meeting with sequence number
	// strictly greater than afterSeq, in increasing order. Pass -1 for the
	// full log.
	ListSince(ctx context.Context, meetingID string, afterSeq int64) ([]model.Message, error)

	GetByID(ctx context.Context, meetingID, messageID string) (*model.Message, error)
}

type messageRepo struct {
	collection *mongo.Collection
}

func NewMessageRepo(db *mongo.Database) MessageRepo {
	return &messageRepo{
		collection: db.Collection("meeting_messages"),
	}
}

// EnsureMessageIndexes creates the unique (meetingId, sequenceNumber) index
// the log depends on. Called once at startup.
func EnsureMessageIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection("meeting_messages").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "meetingId", Value: 1}, {Key: "sequenceNumber", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create message index: %w", err)
	}
	return nil
}

func (r *messageRepo) Append(ctx context.Context, messages []model.Message) error {
	if len(messages) == 0 {
		return nil
	}
	docs := make([]interface{}, len(messages))
	for i := range messages {
		docs[i] = messages[i]
	}
	_, err := r.collection.InsertMany(ctx, docs, options.InsertMany().SetOrdered(true))
	if err != nil {
		return fmt.Errorf("append messages: %w", err)
	}
	return nil
}

func (r *messageRepo) ListSince(ctx context.Context, meetingID string, afterSeq int64) ([]model.Message, error) {
	filter := bson.M{
		"meetingId":      meetingID,
		"sequenceNumber": bson.M{"$gt": afterSeq},
	}
	opts := options.Find().SetSort(bson.D{{Key: "sequenceNumber", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	messages := []model.Message{}
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

func (r *messageRepo) GetByID(ctx context.Context, meetingID, messageID string) (*model.Message, error) {
	var msg model.Message
	err := r.collection.FindOne(ctx, bson.M{"meetingId": meetingID, "id": messageID}).Decode(&msg)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrMessageNotFound
		}
		return nil, err
	}
	return &msg, nil
}
