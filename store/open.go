// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/danielhkuo/securevote/cliparse"
)

// Open selects the storage strategy named by cfg.DatabaseType.
func Open(ctx context.Context, cfg cliparse.Config) (Store, error) {
	switch cfg.DatabaseType {
	case cliparse.StorageMemory:
		slog.Warn("using in-memory storage, data is lost on restart")
		return NewMemoryStore(), nil
	case cliparse.StorageSQLite:
		return OpenSQL(ctx, DialectSQLite, cfg.DatabaseURL)
	case cliparse.StoragePostgres:
		return OpenSQL(ctx, DialectPostgres, cfg.DatabaseURL)
	case cliparse.StorageRedis:
		return OpenRedis(ctx, cfg.RedisURL)
	default:
		return nil, fmt.Errorf("unknown database type %q", cfg.DatabaseType)
	}
}
