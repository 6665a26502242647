// Package store provides the Directory and HistorySink collaborators:
// Mongo-backed for production, in-memory for tests and single-binary
// setups.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/huddlechat/huddle/internal/domain"
)

var ErrUserNotFound = errors.New("user not found")

// MongoStore reads the user/friend graph and appends call system
// messages the same way the chat backend does.
type MongoStore struct {
	client        *mongo.Client
	users         *mongo.Collection
	conversations *mongo.Collection
	messages      *mongo.Collection
}

func NewMongoStore(ctx context.Context, uri, dbName string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	db := client.Database(dbName)
	log.Info().Str("module", "store.mongo").Str("db", dbName).Msg("connected")
	return &MongoStore{
		client:        client,
		users:         db.Collection("users"),
		conversations: db.Collection("conversations"),
		messages:      db.Collection("messages"),
	}, nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

type userDoc struct {
	ID       primitive.ObjectID   `bson:"_id"`
	Username string               `bson:"username"`
	Friends  []primitive.ObjectID `bson:"friends"`
}

func (s *MongoStore) findUser(ctx context.Context, id domain.UserID) (*userDoc, error) {
	oid, err := primitive.ObjectIDFromHex(string(id))
	if err != nil {
		return nil, ErrUserNotFound
	}
	var doc userDoc
	if err := s.users.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &doc, nil
}

func (s *MongoStore) Lookup(ctx context.Context, id domain.UserID) (domain.User, error) {
	doc, err := s.findUser(ctx, id)
	if err != nil {
		return domain.User{}, err
	}
	return domain.User{ID: domain.UserID(doc.ID.Hex()), Username: doc.Username}, nil
}

func (s *MongoStore) FriendIDs(ctx context.Context, id domain.UserID) (map[domain.UserID]struct{}, error) {
	doc, err := s.findUser(ctx, id)
	if err != nil {
		return nil, err
	}
	out := make(map[domain.UserID]struct{}, len(doc.Friends))
	for _, f := range doc.Friends {
		out[domain.UserID(f.Hex())] = struct{}{}
	}
	return out, nil
}

// LogCallEvent appends a call system message to the user's direct
// conversation. A user without one is skipped, not an error.
func (s *MongoStore) LogCallEvent(ctx context.Context, ev domain.CallEvent) error {
	oid, err := primitive.ObjectIDFromHex(string(ev.UserID))
	if err != nil {
		return ErrUserNotFound
	}

	var conv struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	err = s.conversations.FindOne(ctx, bson.M{
		"participants": oid,
		"type":         "DIRECT",
	}).Decode(&conv)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("find conversation: %w", err)
	}

	_, err = s.messages.InsertOne(ctx, bson.M{
		"author":       oid,
		"content":      callEventContent(ev),
		"type":         "DIRECT",
		"messageType":  "call",
		"conversation": conv.ID,
		"createdAt":    time.Now(),
	})
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

func callEventContent(ev domain.CallEvent) string {
	switch ev.Kind {
	case domain.CallEventJoinedRoom:
		return fmt.Sprintf("%s joined the call", ev.Username)
	case domain.CallEventLeftRoom:
		return fmt.Sprintf("%s left the call", ev.Username)
	case domain.CallEventAccepted:
		return fmt.Sprintf("%s accepted the call", ev.Username)
	case domain.CallEventRejected:
		return fmt.Sprintf("%s rejected the call", ev.Username)
	}
	return fmt.Sprintf("%s: %s", ev.Username, ev.Kind)
}
