package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// SnapshotManager writes point-in-time copies of the ledger database next to it.
type SnapshotManager struct {
	db           *sql.DB
	snapshotsDir string
}

// SnapshotMetadata is persisted beside each snapshot file.
type SnapshotMetadata struct {
	CreatedAt     time.Time      `json:"created_at"`
	RowCounts     map[string]int `json:"row_counts"`
	ID            string         `json:"id"`
	Description   string         `json:"description"`
	FileSize      int64          `json:"file_size"`
	SchemaVersion int            `json:"schema_version"`
	IsAuto        bool           `json:"is_auto"`
}

// Snapshot errors.
var (
	ErrSnapshotNotFound = errors.New("snapshot not found")
	ErrSnapshotExists   = errors.New("snapshot already exists")
	ErrInvalidSnapshot  = errors.New("invalid snapshot tag")
	ErrInMemoryDatabase = errors.New("in-memory databases cannot be snapshotted")
)

// maxAutoSnapshots bounds how many automatic snapshots are retained.
const maxAutoSnapshots = 5

// NewSnapshotManager creates a snapshot manager for this storage instance.
func (s *SQLiteStorage) NewSnapshotManager() (*SnapshotManager, error) {
	if s.dbPath == ":memory:" {
		return nil, ErrInMemoryDatabase
	}

	dir := filepath.Join(filepath.Dir(s.dbPath), "snapshots")
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create snapshots directory: %w", err)
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve snapshots directory: %w", err)
	}

	return &SnapshotManager{
		db:           s.db,
		snapshotsDir: absDir,
	}, nil
}

// Create writes a snapshot tagged tag. An empty tag gets a timestamped name.
func (m *SnapshotManager) Create(ctx context.Context, tag, description string) (*SnapshotMetadata, error) {
	return m.create(ctx, tag, description, false)
}

// Auto writes an automatic snapshot before a bulk operation and prunes old ones.
func (m *SnapshotManager) Auto(ctx context.Context, prefix string) (*SnapshotMetadata, error) {
	tag := fmt.Sprintf("auto-%s-%s", prefix, time.Now().Format("2006-01-02-150405"))
	meta, err := m.create(ctx, tag, fmt.Sprintf("Automatic snapshot before %s", prefix), true)
	if err != nil {
		return nil, fmt.Errorf("failed to create auto-snapshot: %w", err)
	}

	if err := m.pruneAuto(ctx); err != nil {
		slog.Warn("failed to prune old auto-snapshots", "error", err)
	}
	return meta, nil
}

func (m *SnapshotManager) create(ctx context.Context, tag, description string, auto bool) (*SnapshotMetadata, error) {
	if tag == "" {
		tag = fmt.Sprintf("snapshot-%s", time.Now().Format("2006-01-02-1504"))
	}
	if err := validateTag(tag); err != nil {
		return nil, err
	}

	snapshotPath := m.pathFor(tag)
	if _, err := os.Stat(snapshotPath); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrSnapshotExists, tag)
	}

	var schemaVersion int
	if err := m.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&schemaVersion); err != nil {
		return nil, fmt.Errorf("failed to get schema version: %w", err)
	}

	rowCounts, err := m.collectRowCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to collect row counts: %w", err)
	}

	if _, err := m.db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return nil, fmt.Errorf("failed to checkpoint WAL: %w", err)
	}
	// VACUUM INTO cannot take a bound parameter; the tag is validated and the
	// directory is ours, so only quote characters need guarding.
	if strings.ContainsAny(snapshotPath, `'";`) {
		return nil, fmt.Errorf("%w: path contains forbidden characters", ErrInvalidSnapshot)
	}
	// #nosec G201 - snapshotPath is validated above
	if _, err := m.db.ExecContext(ctx, fmt.Sprintf("VACUUM INTO '%s'", snapshotPath)); err != nil {
		return nil, fmt.Errorf("failed to write snapshot: %w", err)
	}

	info, err := os.Stat(snapshotPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat snapshot: %w", err)
	}

	meta := SnapshotMetadata{
		ID:            tag,
		CreatedAt:     time.Now().UTC(),
		Description:   description,
		FileSize:      info.Size(),
		RowCounts:     rowCounts,
		SchemaVersion: schemaVersion,
		IsAuto:        auto,
	}

	if err := m.saveMetadata(meta); err != nil {
		if rmErr := os.Remove(snapshotPath); rmErr != nil {
			slog.Error("failed to remove snapshot after metadata save failure", "error", rmErr)
		}
		return nil, fmt.Errorf("failed to save metadata: %w", err)
	}

	if _, err := m.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO snapshot_metadata (id, created_at, description, file_size, schema_version)
		VALUES (?, ?, ?, ?, ?)`,
		meta.ID, meta.CreatedAt, meta.Description, meta.FileSize, meta.SchemaVersion,
	); err != nil {
		// Non-fatal: the file on disk is the snapshot
		slog.Warn("failed to record snapshot metadata in database", "error", err)
	}

	slog.Info("created snapshot", "id", meta.ID, "size", meta.FileSize)
	return &meta, nil
}

// List returns all snapshots, newest first.
func (m *SnapshotManager) List(_ context.Context) ([]SnapshotMetadata, error) {
	entries, err := os.ReadDir(m.snapshotsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshots directory: %w", err)
	}

	snapshots := make([]SnapshotMetadata, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".meta.json") {
			continue
		}
		meta, err := m.loadMetadata(filepath.Join(m.snapshotsDir, entry.Name()))
		if err != nil {
			// Skip corrupted metadata files
			slog.Debug("skipping unreadable snapshot metadata", "file", entry.Name(), "error", err)
			continue
		}
		snapshots = append(snapshots, *meta)
	}

	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].CreatedAt.After(snapshots[j].CreatedAt)
	})
	return snapshots, nil
}

// Delete removes a snapshot and its metadata.
func (m *SnapshotManager) Delete(ctx context.Context, tag string) error {
	if err := validateTag(tag); err != nil {
		return err
	}

	snapshotPath := m.pathFor(tag)
	if _, err := os.Stat(snapshotPath); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrSnapshotNotFound, tag)
		}
		return fmt.Errorf("failed to access snapshot: %w", err)
	}

	if err := os.Remove(snapshotPath); err != nil {
		return fmt.Errorf("failed to remove snapshot file: %w", err)
	}
	if err := os.Remove(m.metaPathFor(tag)); err != nil {
		slog.Debug("failed to remove metadata file", "error", err, "id", tag)
	}
	if _, err := m.db.ExecContext(ctx, "DELETE FROM snapshot_metadata WHERE id = ?", tag); err != nil {
		slog.Debug("failed to remove snapshot metadata from database", "error", err, "id", tag)
	}
	return nil
}

// Verify runs SQLite's integrity check against a snapshot file.
func (m *SnapshotManager) Verify(ctx context.Context, tag string) error {
	if err := validateTag(tag); err != nil {
		return err
	}
	snapshotPath := m.pathFor(tag)
	if _, err := os.Stat(snapshotPath); err != nil {
		return fmt.Errorf("%w: %s", ErrSnapshotNotFound, tag)
	}

	db, err := sql.Open("sqlite3", snapshotPath)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	var result string
	if err := db.QueryRowContext(ctx, "PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("failed to run integrity check: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("integrity check failed: %s", result)
	}
	return nil
}

func (m *SnapshotManager) pruneAuto(ctx context.Context) error {
	snapshots, err := m.List(ctx)
	if err != nil {
		return err
	}

	autoCount := 0
	for _, snap := range snapshots {
		if !snap.IsAuto {
			continue
		}
		autoCount++
		if autoCount > maxAutoSnapshots {
			if err := m.Delete(ctx, snap.ID); err != nil {
				slog.Debug("failed to delete old auto-snapshot", "error", err, "id", snap.ID)
			}
		}
	}
	return nil
}

func (m *SnapshotManager) collectRowCounts(ctx context.Context) (map[string]int, error) {
	// Explicit queries per table keep table names out of string formatting.
	tableQueries := map[string]string{
		"accounts":     "SELECT COUNT(*) FROM accounts",
		"transactions": "SELECT COUNT(*) FROM transactions",
		"categories":   "SELECT COUNT(*) FROM categories",
	}

	counts := make(map[string]int, len(tableQueries))
	for table, query := range tableQueries {
		var count int
		if err := m.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", table, err)
		}
		counts[table] = count
	}
	return counts, nil
}

func (m *SnapshotManager) saveMetadata(meta SnapshotMetadata) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}

	path := m.metaPathFor(meta.ID)
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return err
	}
	// Atomic rename
	return os.Rename(tmpPath, path)
}

func (m *SnapshotManager) loadMetadata(path string) (*SnapshotMetadata, error) {
	// #nosec G304 - path is built from the snapshots directory listing
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var meta SnapshotMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (m *SnapshotManager) pathFor(tag string) string {
	return filepath.Join(m.snapshotsDir, tag+".db")
}

func (m *SnapshotManager) metaPathFor(tag string) string {
	return filepath.Join(m.snapshotsDir, tag+".meta.json")
}

func validateTag(tag string) error {
	if strings.TrimSpace(tag) == "" || strings.ContainsAny(tag, `/\'";`) || strings.Contains(tag, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidSnapshot, tag)
	}
	return nil
}
