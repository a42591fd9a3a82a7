package database

import (
	"context"
	"errors"
	"fmt"
	"net"

	"entrypass/entity"
	"entrypass/internal/config"
	"entrypass/lib/apperr"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const collectionUsers = "users"

// MongoDB stores staff accounts.
type MongoDB struct {
	client   *mongo.Client
	database string
}

func NewMongoClient(ctx context.Context, conf *config.Config) (*MongoDB, error) {
	if !conf.Mongo.Enabled {
		return nil, nil
	}
	connectionUri := fmt.Sprintf("mongodb://%s", net.JoinHostPort(conf.Mongo.Host, conf.Mongo.Port))
	clientOptions := options.Client().ApplyURI(connectionUri)
	if conf.Mongo.User != "" {
		clientOptions.SetAuth(options.Credential{
			Username:   conf.Mongo.User,
			Password:   conf.Mongo.Password,
			AuthSource: conf.Mongo.Database,
		})
	}
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("mongodb connect: %w", err)
	}
	if err = client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongodb ping: %w", err)
	}

	m := &MongoDB{
		client:   client,
		database: conf.Mongo.Database,
	}
	if err = m.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return m, nil
}

func (m *MongoDB) Close(ctx context.Context) {
	_ = m.client.Disconnect(ctx)
}

func (m *MongoDB) users() *mongo.Collection {
	return m.client.Database(m.database).Collection(collectionUsers)
}

func (m *MongoDB) ensureIndexes(ctx context.Context) error {
	_, err := m.users().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
	})
	if err != nil {
		return fmt.Errorf("mongodb indexes: %w", err)
	}
	return nil
}

func (m *MongoDB) findUser(ctx context.Context, filter bson.D, what string) (*entity.User, error) {
	var user entity.User
	err := m.users().FindOne(ctx, filter).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.NotFound("user %s", what)
		}
		return nil, fmt.Errorf("mongodb find: %w", err)
	}
	return &user, nil
}

func (m *MongoDB) UserByUsername(ctx context.Context, username string) (*entity.User, error) {
	return m.findUser(ctx, bson.D{{Key: "username", Value: username}}, username)
}

func (m *MongoDB) UserById(ctx context.Context, id int64) (*entity.User, error) {
	return m.findUser(ctx, bson.D{{Key: "id", Value: id}}, fmt.Sprintf("%d", id))
}

// SaveUser upserts a staff account keyed by username.
func (m *MongoDB) SaveUser(ctx context.Context, user *entity.User) error {
	filter := bson.D{{Key: "username", Value: user.Username}}
	update := bson.D{{Key: "$set", Value: user}}
	opts := options.Update().SetUpsert(true)
	_, err := m.users().UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return fmt.Errorf("mongodb save user: %w", err)
	}
	return nil
}
