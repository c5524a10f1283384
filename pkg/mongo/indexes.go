package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"baterysul.com.br/ledger/pkg/global"
)

type IndexConfig struct {
	CollectionName string
	IndexModel     mongo.IndexModel
}

var requiredIndexes = []IndexConfig{
	// Last-write lookup for backups and debugging
	{
		CollectionName: StateCollection,
		IndexModel: mongo.IndexModel{
			Keys:    bson.D{{Key: "updated_at", Value: -1}},
			Options: options.Index().SetName("idx_state_updated_at"),
		},
	},
}

func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	for _, idxConfig := range requiredIndexes {
		indexName, err := db.Collection(idxConfig.CollectionName).Indexes().CreateOne(ctx, idxConfig.IndexModel)
		if err != nil {
			return fmt.Errorf("failed to create index on collection %s: %w", idxConfig.CollectionName, err)
		}

		global.Logger().WithFields(map[string]interface{}{
			"index":      indexName,
			"collection": idxConfig.CollectionName,
		}).Debug("Ensured index")
	}
	return nil
}
