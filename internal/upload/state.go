package upload

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/claude/coachplan/internal/models"
	_ "modernc.org/sqlite"
)

// StateDB tracks which plan files have been uploaded, per client and kind,
// so unchanged files are not re-sent.
type StateDB struct {
	db *sql.DB
}

// fileKey identifies one upload of a file's current content.
type fileKey struct {
	relPath  string
	clientID int
	kind     models.PlanKind
	size     int64
	hash     string
}

// OpenStateDB opens (or creates) the SQLite state database at dir/state.db.
func OpenStateDB(dir string) (*StateDB, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating state dir %s: %w", dir, err)
	}

	dbPath := filepath.Join(dir, "state.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening state db: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS uploaded_plans (
		path        TEXT NOT NULL,
		client_id   INTEGER NOT NULL,
		kind        TEXT NOT NULL,
		size        INTEGER NOT NULL,
		hash        TEXT NOT NULL,
		days        INTEGER NOT NULL DEFAULT 0,
		uploaded_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (path, client_id, kind)
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating state table: %w", err)
	}

	return &StateDB{db: db}, nil
}

// IsUploaded checks if a file has already been uploaded with the same size and hash.
func (s *StateDB) IsUploaded(k fileKey) (bool, error) {
	var count int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM uploaded_plans
		 WHERE path = ? AND client_id = ? AND kind = ? AND size = ? AND hash = ?`,
		k.relPath, k.clientID, string(k.kind), k.size, k.hash,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking state for %s: %w", k.relPath, err)
	}
	return count > 0, nil
}

// MarkUploaded records that a file was successfully uploaded.
func (s *StateDB) MarkUploaded(k fileKey, days int) error {
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO uploaded_plans (path, client_id, kind, size, hash, days)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		k.relPath, k.clientID, string(k.kind), k.size, k.hash, days,
	)
	if err != nil {
		return fmt.Errorf("marking %s uploaded: %w", k.relPath, err)
	}
	return nil
}

// Close closes the state database.
func (s *StateDB) Close() error {
	return s.db.Close()
}

// HashFile computes the SHA-256 hash of a file.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
