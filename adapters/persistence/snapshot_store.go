package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/mattn/go-sqlite3"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/khoahotran/blog-search/internal/config"
	"github.com/khoahotran/blog-search/internal/domain/search"
	"github.com/khoahotran/blog-search/pkg/logger"
)

// NewSnapshotStore picks the snapshot backend named by search.snapshot_driver.
// Only the connection that driver needs has to be non-nil.
func NewSnapshotStore(cfg config.Config, pool *pgxpool.Pool, rdb *redis.Client) (search.SnapshotStore, error) {
	key := cfg.Search.SnapshotKey
	switch cfg.Search.SnapshotDriver {
	case config.SnapshotDriverRedis:
		if rdb == nil {
			return nil, errors.New("redis snapshot driver requires a redis client")
		}
		return NewRedisSnapshotStore(rdb, key), nil
	case config.SnapshotDriverPostgres:
		if pool == nil {
			return nil, errors.New("postgres snapshot driver requires a database pool")
		}
		return NewPostgresSnapshotStore(pool, key), nil
	case config.SnapshotDriverSQLite:
		return NewSQLiteSnapshotStore(cfg.Search.SQLitePath, key)
	default:
		return nil, fmt.Errorf("unknown snapshot driver %q", cfg.Search.SnapshotDriver)
	}
}

// OpenSnapshotStore connects whatever the configured driver needs and returns
// the store with a func releasing those connections. pool is only used by the
// postgres driver.
func OpenSnapshotStore(ctx context.Context, cfg config.Config, pool *pgxpool.Pool, log logger.Logger) (search.SnapshotStore, func(), error) {
	var rdb *redis.Client
	if cfg.Search.SnapshotDriver == config.SnapshotDriverRedis {
		var err error
		if rdb, err = NewRedisClient(ctx, cfg, log); err != nil {
			return nil, nil, err
		}
	}

	store, err := NewSnapshotStore(cfg, pool, rdb)
	if err != nil {
		if rdb != nil {
			_ = rdb.Close()
		}
		return nil, nil, err
	}
	log.Info("Snapshot store ready", zap.String("driver", cfg.Search.SnapshotDriver))

	return store, func() {
		if rdb != nil {
			_ = rdb.Close()
		}
		if c, ok := store.(*SQLiteSnapshotStore); ok {
			_ = c.Close()
		}
	}, nil
}

type redisSnapshotStore struct {
	rdb *redis.Client
	key string
}

func NewRedisSnapshotStore(rdb *redis.Client, key string) search.SnapshotStore {
	return &redisSnapshotStore{rdb: rdb, key: key}
}

func (s *redisSnapshotStore) Load(ctx context.Context) ([]byte, error) {
	data, err := s.rdb.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", s.key, err)
	}
	return data, nil
}

func (s *redisSnapshotStore) Save(ctx context.Context, data []byte) error {
	if err := s.rdb.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", s.key, err)
	}
	return nil
}

type postgresSnapshotStore struct {
	db  *pgxpool.Pool
	key string
}

func NewPostgresSnapshotStore(db *pgxpool.Pool, key string) search.SnapshotStore {
	return &postgresSnapshotStore{db: db, key: key}
}

func (s *postgresSnapshotStore) Load(ctx context.Context) ([]byte, error) {
	query, args, err := psql.Select("data").
		From("search_snapshots").
		Where("key = ?", s.key).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build load snapshot query: %w", err)
	}

	var data []byte
	err = s.db.QueryRow(ctx, query, args...).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot %s: %w", s.key, err)
	}
	return data, nil
}

func (s *postgresSnapshotStore) Save(ctx context.Context, data []byte) error {
	query, args, err := psql.Insert("search_snapshots").
		Columns("key", "data", "updated_at").
		Values(s.key, data, sq.Expr("NOW()")).
		Suffix("ON CONFLICT (key) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build save snapshot query: %w", err)
	}

	if _, err := s.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to save snapshot %s: %w", s.key, err)
	}
	return nil
}

// SQLiteSnapshotStore keeps the snapshot in a local SQLite file for
// single-node deployments without Redis or Postgres.
type SQLiteSnapshotStore struct {
	db  *sql.DB
	key string
}

var sqlitePsql = sq.StatementBuilder.PlaceholderFormat(sq.Question)

func NewSQLiteSnapshotStore(path, key string) (*SQLiteSnapshotStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	const schema = `CREATE TABLE IF NOT EXISTS search_snapshots (
		key        TEXT PRIMARY KEY,
		data       BLOB NOT NULL,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create sqlite snapshot table: %w", err)
	}
	return &SQLiteSnapshotStore{db: db, key: key}, nil
}

func (s *SQLiteSnapshotStore) Load(ctx context.Context) ([]byte, error) {
	var data []byte
	err := sqlitePsql.Select("data").
		From("search_snapshots").
		Where(sq.Eq{"key": s.key}).
		RunWith(s.db).
		QueryRowContext(ctx).
		Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load sqlite snapshot %s: %w", s.key, err)
	}
	return data, nil
}

func (s *SQLiteSnapshotStore) Save(ctx context.Context, data []byte) error {
	_, err := sqlitePsql.Insert("search_snapshots").
		Columns("key", "data", "updated_at").
		Values(s.key, data, sq.Expr("CURRENT_TIMESTAMP")).
		Suffix("ON CONFLICT (key) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at").
		RunWith(s.db).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to save sqlite snapshot %s: %w", s.key, err)
	}
	return nil
}

func (s *SQLiteSnapshotStore) Close() error {
	return s.db.Close()
}
