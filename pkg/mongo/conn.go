package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"baterysul.com.br/ledger/pkg/global"
)

func GetMongoClient(uri string) (*mongo.Client, error) {
	serverAPI := options.ServerAPI(options.ServerAPIVersion1)

	clientOptions := options.Client().ApplyURI(uri).SetServerAPIOptions(serverAPI)
	client, err := mongo.Connect(clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to create MongoDB client: %w", err)
	}
	return client, nil
}

// Connect pings MongoDB, ensures indexes and returns the state store
func Connect(ctx context.Context) (*Store, error) {
	client, err := GetMongoClient(global.GetMongoURI())
	if err != nil {
		return nil, err
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	global.Logger().Info("Connected to MongoDB successfully")

	db := client.Database(global.GetDatabaseName())
	if err := EnsureIndexes(ctx, db); err != nil {
		client.Disconnect(ctx)
		return nil, err
	}

	return NewStore(client, db.Collection(StateCollection)), nil
}
