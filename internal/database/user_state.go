package repository

import (
	"VerifyFlow/entity"
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// GetUserState returns nil when the user has no state yet.
func (m *MongoDB) GetUserState(ctx context.Context, userID string) (*entity.UserState, error) {
	connection, err := m.connect()
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(userStatesCollection)
	filter := bson.D{{"user_id", userID}}

	var state entity.UserState
	err = collection.FindOne(ctx, filter).Decode(&state)
	if err != nil {
		return nil, m.findError(err)
	}
	if state.Data == nil {
		state.Data = make(map[string]any)
	}
	return &state, nil
}

// PutUserState writes state if the stored version still equals state.Version.
// A version of zero means the record must not exist yet. On success state.Version is advanced.
func (m *MongoDB) PutUserState(ctx context.Context, state *entity.UserState) error {
	connection, err := m.connect()
	if err != nil {
		return err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(userStatesCollection)

	next := *state
	next.Version = state.Version + 1
	next.UpdatedAt = time.Now()

	if state.Version == 0 {
		_, err = collection.InsertOne(ctx, &next)
		if mongo.IsDuplicateKeyError(err) {
			return entity.ErrVersionConflict
		}
		if err != nil {
			return fmt.Errorf("mongodb insert error: %w", err)
		}
	} else {
		filter := bson.D{{"user_id", state.UserID}, {"version", state.Version}}
		res, err := collection.ReplaceOne(ctx, filter, &next)
		if err != nil {
			return fmt.Errorf("mongodb replace error: %w", err)
		}
		if res.MatchedCount == 0 {
			return entity.ErrVersionConflict
		}
	}

	state.Version = next.Version
	state.UpdatedAt = next.UpdatedAt
	return nil
}

// SetUserStep forces a step. Used only by administrative suspension.
func (m *MongoDB) SetUserStep(ctx context.Context, userID string, step entity.WorkflowStep) error {
	connection, err := m.connect()
	if err != nil {
		return err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(userStatesCollection)
	filter := bson.D{{"user_id", userID}}
	update := bson.D{
		{"$set", bson.D{{"current_step", step}, {"updated_at", time.Now()}}},
		{"$inc", bson.D{{"version", 1}}},
	}
	res, err := collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("mongodb update error: %w", err)
	}
	if res.MatchedCount == 0 {
		return entity.ErrNotFound
	}
	return nil
}
