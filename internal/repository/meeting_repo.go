package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/oguzkopan/careerrougelike-sub002/internal/model"
)

var (
	ErrNotFound = errors.New("meeting not found")

	// ErrVersionConflict means the record changed between the read and the
	// write of an update; the caller lost the race and must re-fetch.
	ErrVersionConflict = errors.New("meeting version conflict")
)

type MeetingRepo interface {
	Create(ctx context.Context, meeting *model.Meeting) error
	GetByID(ctx context.Context, id string) (*model.Meeting, error)

	// UpdateVersioned replaces the record only if its stored version still
	// equals fromVersion, bumping the version by one. Returns
	// ErrVersionConflict when another writer got there first.
	UpdateVersioned(ctx context.Context, meeting *model.Meeting, fromVersion int64) error
}

type meetingRepo struct {
	collection *mongo.Collection
}

func NewMeetingRepo(db *mongo.Database) MeetingRepo {
	return &meetingRepo{
		collection: db.Collection("meetings"),
	}
}

func (r *meetingRepo) Create(ctx context.Context, meeting *model.Meeting) error {
	_, err := r.collection.InsertOne(ctx, meeting)
	if err != nil {
		return fmt.Errorf("insert meeting: %w", err)
	}
	return nil
}

func (r *meetingRepo) GetByID(ctx context.Context, id string) (*model.Meeting, error) {
	var meeting model.Meeting
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&meeting)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &meeting, nil
}

func (r *meetingRepo) UpdateVersioned(ctx context.Context, meeting *model.Meeting, fromVersion int64) error {
	next := *meeting
	next.Version = fromVersion + 1

	res, err := r.collection.ReplaceOne(ctx, bson.M{"_id": meeting.ID, "version": fromVersion}, &next)
	if err != nil {
		return fmt.Errorf("replace meeting: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrVersionConflict
	}

	meeting.Version = next.Version
	return nil
}
