package bootstrap

import (
	"context"
	"fmt"

	"baterysul.com.br/ledger/pkg/global"
	"baterysul.com.br/ledger/pkg/mongo"
	"baterysul.com.br/ledger/pkg/redis"
	"baterysul.com.br/ledger/pkg/store"
)

const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
	BackendMemory = "memory"
)

// OpenStore connects the key-value backend named by STORE_BACKEND
func OpenStore(ctx context.Context, backend string) (store.Store, error) {
	switch backend {
	case BackendSQLite:
		path := global.GetEnvOrDefault("SQLITE_PATH", "./ledger.db")
		s, err := store.OpenSQLite(ctx, path)
		if err != nil {
			return nil, err
		}
		global.Logger().WithField("path", path).Info("Opened SQLite store")
		return s, nil
	case BackendRedis:
		return redis.Connect(ctx)
	case BackendMongo:
		return mongo.Connect(ctx)
	case BackendMemory:
		global.Logger().Warn("Using in-memory store, state is lost on exit")
		return store.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", backend)
	}
}
