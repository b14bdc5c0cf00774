package repository

import (
	"VerifyFlow/internal/config"
	"VerifyFlow/internal/lib/sl"
	"context"
	"errors"
	"fmt"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"log/slog"
	"time"
)

const (
	usersCollection      = "users"
	userStatesCollection = "user_states"
	apiKeysCollection    = "api-keys"
)

type MongoDB struct {
	ctx           context.Context
	clientOptions *options.ClientOptions
	database      string
	log           *slog.Logger
}

func NewMongoClient(conf *config.Config, logger *slog.Logger) (*MongoDB, error) {
	if !conf.Mongo.Enabled {
		return nil, nil
	}
	connectionUri := fmt.Sprintf("mongodb://%s:%s", conf.Mongo.Host, conf.Mongo.Port)
	clientOptions := options.Client().ApplyURI(connectionUri).SetConnectTimeout(10 * time.Second)
	if conf.Mongo.User != "" {
		clientOptions.SetAuth(options.Credential{
			Username:   conf.Mongo.User,
			Password:   conf.Mongo.Password,
			AuthSource: conf.Mongo.Database,
		})
	}
	client := &MongoDB{
		ctx:           context.Background(),
		clientOptions: clientOptions,
		database:      conf.Mongo.Database,
		log:           logger.With(sl.Module("mongodb")),
	}
	return client, nil
}

func (m *MongoDB) connect() (*mongo.Client, error) {
	connection, err := mongo.Connect(m.ctx, m.clientOptions)
	if err != nil {
		return nil, fmt.Errorf("mongodb connect error: %w", err)
	}
	return connection, nil
}

func (m *MongoDB) disconnect(connection *mongo.Client) {
	_ = connection.Disconnect(m.ctx)
}

func (m *MongoDB) findError(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil
	}
	return fmt.Errorf("mongodb find error: %w", err)
}

// EnsureIndexes creates the unique keys the compare-and-swap writes rely on.
func (m *MongoDB) EnsureIndexes(ctx context.Context) error {
	connection, err := m.connect()
	if err != nil {
		return err
	}
	defer m.disconnect(connection)

	db := connection.Database(m.database)

	_, err = db.Collection(userStatesCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{"user_id", 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("user_states index: %w", err)
	}

	_, err = db.Collection(usersCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{"uuid", 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{"email", 1}, {"last_name_key", 1}}},
	})
	if err != nil {
		return fmt.Errorf("users index: %w", err)
	}

	_, err = db.Collection(apiKeysCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{"key", 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("api-keys index: %w", err)
	}
	return nil
}

func (m *MongoDB) CheckApiKey(key string) (string, error) {
	connection, err := m.connect()
	if err != nil {
		return "", err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(apiKeysCollection)
	filter := bson.D{{"key", key}}

	var result struct {
		Username string `bson:"username"`
		Key      string `bson:"key"`
	}
	err = collection.FindOne(m.ctx, filter).Decode(&result)
	if err != nil {
		return "", err
	}

	if result.Username == "" {
		return "", fmt.Errorf("api key not found")
	}

	return result.Username, nil
}

func (m *MongoDB) getKeyByUsername(username string) (string, error) {
	connection, err := m.connect()
	if err != nil {
		return "", err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(apiKeysCollection)
	filter := bson.D{{"username", username}}

	var result struct {
		Key string `bson:"key"`
	}
	err = collection.FindOne(m.ctx, filter).Decode(&result)
	if err != nil {
		return "", m.findError(err)
	}

	return result.Key, nil
}

// GenerateApiKey returns the existing key of username or stores a new one.
func (m *MongoDB) GenerateApiKey(username string) (string, error) {
	k, err := m.getKeyByUsername(username)
	if err != nil {
		return "", fmt.Errorf("failed to get existing API key: %w", err)
	}
	if k != "" {
		return k, nil
	}

	connection, err := m.connect()
	if err != nil {
		return "", err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(apiKeysCollection)
	key := uuid.NewString()

	doc := bson.D{
		{"username", username},
		{"key", key},
		{"created_at", time.Now()},
	}

	_, err = collection.InsertOne(m.ctx, doc)
	if err != nil {
		return "", fmt.Errorf("mongodb insert error: %w", err)
	}

	return key, nil
}
