package repository

import (
	"VerifyFlow/entity"
	"context"
	"fmt"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
	"time"
)

func (m *MongoDB) CreateUser(ctx context.Context, user *entity.User) error {
	connection, err := m.connect()
	if err != nil {
		return err
	}
	defer m.disconnect(connection)

	user.LastNameKey = entity.NameKey(user.LastName)

	collection := connection.Database(m.database).Collection(usersCollection)
	_, err = collection.InsertOne(ctx, user)
	if err != nil {
		return fmt.Errorf("mongodb insert error: %w", err)
	}
	return nil
}

// UpdateUser refreshes a returning user's contact data after re-verification.
func (m *MongoDB) UpdateUser(ctx context.Context, user *entity.User) error {
	connection, err := m.connect()
	if err != nil {
		return err
	}
	defer m.disconnect(connection)

	user.LastSeen = time.Now()
	user.LastNameKey = entity.NameKey(user.LastName)

	collection := connection.Database(m.database).Collection(usersCollection)
	filter := bson.D{{"uuid", user.UUID}}
	update := bson.D{{"$set", bson.D{
		{"session_id", user.SessionID},
		{"first_name", user.FirstName},
		{"phone", user.Phone},
		{"country_code", user.CountryCode},
		{"verified_at", user.VerifiedAt},
		{"last_seen", user.LastSeen},
	}}}

	res, err := collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("mongodb update error: %w", err)
	}
	if res.MatchedCount == 0 {
		return entity.ErrNotFound
	}
	return nil
}

// FindByEmailAndLastName matches the lowercased email and case-folded last name.
func (m *MongoDB) FindByEmailAndLastName(ctx context.Context, email, lastName string) (*entity.User, error) {
	connection, err := m.connect()
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(usersCollection)
	filter := bson.D{
		{"email", email},
		{"last_name_key", entity.NameKey(lastName)},
	}
	// a blocked record wins over any unblocked duplicate
	opts := options.FindOne().SetSort(bson.D{{"blocked", -1}})

	var user entity.User
	err = collection.FindOne(ctx, filter, opts).Decode(&user)
	if err != nil {
		return nil, m.findError(err)
	}
	return &user, nil
}

func (m *MongoDB) GetUserByUUID(ctx context.Context, uuid string) (*entity.User, error) {
	connection, err := m.connect()
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(usersCollection)
	filter := bson.D{{"uuid", uuid}}

	var user entity.User
	err = collection.FindOne(ctx, filter).Decode(&user)
	if err != nil {
		return nil, m.findError(err)
	}
	return &user, nil
}
