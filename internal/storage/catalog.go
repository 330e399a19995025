package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	speechmodel "github.com/zhouzirui/blogcaster/backend/internal/model/speech"
)

//go:embed schema.sql
var schemaFiles embed.FS

// Catalog 用 SQLite 记录音频元数据。列表接口仍以目录为准，目录中存在但未登记的文件照常可播放。
type Catalog struct {
	db     *sql.DB
	path   string
	logger *zap.Logger
}

// OpenCatalog 打开（必要时创建）元数据库并执行建表
func OpenCatalog(path string, logger *zap.Logger) (*Catalog, error) {
	if path == "" {
		return nil, errors.New("catalog path is empty")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create catalog directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}

	if err := configureSQLite(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure SQLite: %w", err)
	}

	schema, err := schemaFiles.ReadFile("schema.sql")
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to read schema.sql: %w", err)
	}
	if _, err := db.Exec(string(schema)); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate catalog: %w", err)
	}

	logger = logger.With(zap.String("component", "catalog"))
	logger.Info("catalog opened", zap.String("path", path))

	return &Catalog{db: db, path: path, logger: logger}, nil
}

func configureSQLite(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute pragma %q: %w", pragma, err)
		}
	}
	return nil
}

// Record 写入一条元数据，同名文件覆盖旧记录
func (c *Catalog) Record(ctx context.Context, artifact *speechmodel.GeneratedArtifact) error {
	if artifact == nil || artifact.Filename == "" {
		return errors.New("artifact filename is required")
	}

	const query = `
		INSERT INTO artifacts (filename, path, created_at, format, sample_rate, size_bytes, backend)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(filename) DO UPDATE SET
			path = excluded.path,
			created_at = excluded.created_at,
			format = excluded.format,
			sample_rate = excluded.sample_rate,
			size_bytes = excluded.size_bytes,
			backend = excluded.backend`

	_, err := c.db.ExecContext(ctx, query,
		artifact.Filename,
		artifact.Path,
		artifact.CreatedAt.UTC().Format(time.RFC3339Nano),
		string(artifact.Format),
		artifact.SampleRate,
		artifact.Size,
		artifact.Backend,
	)
	if err != nil {
		return fmt.Errorf("failed to record artifact: %w", err)
	}

	c.logger.Debug("artifact recorded", zap.String("filename", artifact.Filename))
	return nil
}

// Get 按文件名查询元数据，未登记时返回 ErrNotFound
func (c *Catalog) Get(ctx context.Context, filename string) (*speechmodel.GeneratedArtifact, error) {
	const query = `
		SELECT filename, path, created_at, format, sample_rate, size_bytes, backend
		FROM artifacts
		WHERE filename = ?`

	var (
		artifact  speechmodel.GeneratedArtifact
		createdAt string
		format    string
	)
	err := c.db.QueryRowContext(ctx, query, filename).Scan(
		&artifact.Filename,
		&artifact.Path,
		&createdAt,
		&format,
		&artifact.SampleRate,
		&artifact.Size,
		&artifact.Backend,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, filename)
		}
		return nil, fmt.Errorf("failed to query artifact: %w", err)
	}

	artifact.Format = speechmodel.Format(format)
	if artifact.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("invalid created_at %q: %w", createdAt, err)
	}

	return &artifact, nil
}

// Close 关闭数据库连接
func (c *Catalog) Close() error {
	if c.db == nil {
		return nil
	}
	c.logger.Info("closing catalog", zap.String("path", c.path))
	return c.db.Close()
}
