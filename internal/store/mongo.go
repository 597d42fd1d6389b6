package store

import (
	"context"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names.
const (
	collKudos    = "kudos"
	collBounties = "bounties"
	collEvents   = "calendar_events"
	collFeedback = "feedback"
)

// MongoStore is the document-database implementation of Store. The
// underlying client is connected once and reused for the life of the
// process; the driver is safe for concurrent use and a broken connection
// surfaces as an error on the next operation, not a crash.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewMongoStore connects to the database and verifies the connection
// with a ping before returning.
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return &MongoStore{
		client: client,
		db:     client.Database(database),
	}, nil
}

// newID mints a ULID document id. ULIDs sort by creation time, which
// keeps _id order consistent with createdAt order.
func (s *MongoStore) newID() string {
	return ulid.Make().String()
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// Ping verifies the connection is alive.
func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close disconnects the client.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// ListKudos returns one page of the kudos feed, newest first. It fetches
// one extra document past the limit to learn whether more remain; the
// next cursor is the createdAt of the last returned entry.
func (s *MongoStore) ListKudos(ctx context.Context, q KudosQuery) (*KudosPage, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = 10
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(int64(limit + 1))
	cursor, err := s.db.Collection(collKudos).Find(ctx, kudosFilter(q), opts)
	if err != nil {
		return nil, fmt.Errorf("find kudos: %w", err)
	}

	var kudos []Kudos
	if err := cursor.All(ctx, &kudos); err != nil {
		return nil, fmt.Errorf("decode kudos: %w", err)
	}

	page := &KudosPage{Kudos: kudos}
	if len(kudos) > limit {
		page.HasMore = true
		page.Kudos = kudos[:limit]
	}
	if n := len(page.Kudos); n > 0 {
		page.NextCursor = page.Kudos[n-1].CreatedAt
	}
	return page, nil
}

// CreateKudos inserts a kudos entry and returns its id.
func (s *MongoStore) CreateKudos(ctx context.Context, k Kudos) (string, error) {
	k.ID = s.newID()
	k.CreatedAt = now()
	if _, err := s.db.Collection(collKudos).InsertOne(ctx, k); err != nil {
		return "", fmt.Errorf("insert kudos: %w", err)
	}
	return k.ID, nil
}

// ListBounties returns bounties, newest first, optionally filtered by
// status.
func (s *MongoStore) ListBounties(ctx context.Context, q BountyQuery) ([]Bounty, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(int64(limit))
	cursor, err := s.db.Collection(collBounties).Find(ctx, bountyFilter(q), opts)
	if err != nil {
		return nil, fmt.Errorf("find bounties: %w", err)
	}

	var bounties []Bounty
	if err := cursor.All(ctx, &bounties); err != nil {
		return nil, fmt.Errorf("decode bounties: %w", err)
	}
	return bounties, nil
}

// CreateBounty inserts a bounty in open status and returns its id.
func (s *MongoStore) CreateBounty(ctx context.Context, b Bounty) (string, error) {
	b.ID = s.newID()
	b.Status = "open"
	b.CreatedAt = now()
	if _, err := s.db.Collection(collBounties).InsertOne(ctx, b); err != nil {
		return "", fmt.Errorf("insert bounty: %w", err)
	}
	return b.ID, nil
}

// UpdateBountyStatus moves a bounty through its lifecycle. The claimant
// is recorded when provided (claiming) and cleared when a bounty reopens.
func (s *MongoStore) UpdateBountyStatus(ctx context.Context, id, status string, claimant *UserStamp) error {
	if !ValidBountyStatus(status) {
		return ErrInvalidStatus
	}

	set := bson.M{"status": status, "updatedAt": now()}
	update := bson.M{"$set": set}
	if claimant != nil {
		set["claimedBy"] = claimant
	} else if status == "open" {
		update["$unset"] = bson.M{"claimedBy": ""}
	}

	res, err := s.db.Collection(collBounties).UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("update bounty: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ListEvents returns calendar events ordered by start date.
func (s *MongoStore) ListEvents(ctx context.Context, q EventQuery) ([]CalendarEvent, error) {
	opts := options.Find().SetSort(bson.D{{Key: "startDate", Value: 1}})
	cursor, err := s.db.Collection(collEvents).Find(ctx, eventFilter(q), opts)
	if err != nil {
		return nil, fmt.Errorf("find events: %w", err)
	}

	var events []CalendarEvent
	if err := cursor.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("decode events: %w", err)
	}
	return events, nil
}

// CreateEvent inserts a calendar event and returns its id. The legacy
// single-owner fields mirror the first participant.
func (s *MongoStore) CreateEvent(ctx context.Context, e CalendarEvent) (string, error) {
	e.ID = s.newID()
	e.CreatedAt = now()
	if len(e.Participants) > 0 {
		e.UserID = e.Participants[0].UserID
		e.UserEmail = e.Participants[0].Email
		e.UserName = e.Participants[0].Name
	}
	if _, err := s.db.Collection(collEvents).InsertOne(ctx, e); err != nil {
		return "", fmt.Errorf("insert event: %w", err)
	}
	return e.ID, nil
}

// UpdateEvent replaces the mutable fields of an event.
func (s *MongoStore) UpdateEvent(ctx context.Context, id string, e CalendarEvent) error {
	set := bson.M{
		"title":        e.Title,
		"type":         e.Type,
		"startDate":    e.StartDate,
		"endDate":      e.EndDate,
		"allDay":       e.AllDay,
		"participants": e.Participants,
		"description":  e.Description,
	}
	if len(e.Participants) > 0 {
		set["userId"] = e.Participants[0].UserID
		set["userEmail"] = e.Participants[0].Email
		set["userName"] = e.Participants[0].Name
	}

	res, err := s.db.Collection(collEvents).UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteEvent removes an event.
func (s *MongoStore) DeleteEvent(ctx context.Context, id string) error {
	res, err := s.db.Collection(collEvents).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ListFeedback returns one page of feedback, newest first, with totals
// for the pager.
func (s *MongoStore) ListFeedback(ctx context.Context, q FeedbackQuery) (*FeedbackList, error) {
	page := q.Page
	if page <= 0 {
		page = 1
	}
	pageSize := q.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	filter := feedbackFilter(q)
	coll := s.db.Collection(collFeedback)

	total, err := coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("count feedback: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64((page - 1) * pageSize)).
		SetLimit(int64(pageSize))
	cursor, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find feedback: %w", err)
	}

	var feedbacks []Feedback
	if err := cursor.All(ctx, &feedbacks); err != nil {
		return nil, fmt.Errorf("decode feedback: %w", err)
	}

	totalPages := total / int64(pageSize)
	if total%int64(pageSize) != 0 {
		totalPages++
	}

	return &FeedbackList{
		Feedbacks:  feedbacks,
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
	}, nil
}

// CreateFeedback inserts a feedback entry and returns its id.
func (s *MongoStore) CreateFeedback(ctx context.Context, f Feedback) (string, error) {
	f.ID = s.newID()
	f.Resolved = false
	f.CreatedAt = now()
	f.UpdatedAt = f.CreatedAt
	if _, err := s.db.Collection(collFeedback).InsertOne(ctx, f); err != nil {
		return "", fmt.Errorf("insert feedback: %w", err)
	}
	return f.ID, nil
}

// SetFeedbackResolved flips the resolved flag.
func (s *MongoStore) SetFeedbackResolved(ctx context.Context, id string, resolved bool) error {
	res, err := s.db.Collection(collFeedback).UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"resolved": resolved, "updatedAt": now()}})
	if err != nil {
		return fmt.Errorf("update feedback: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
