package store

import (
	"context"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/crypto/blake2b"

	"subtext/internal/report"
)

// sessionKey is the fixed key both session tables are keyed by. The
// service manages a single session, so each table holds at most one row.
const sessionKey = "current"

// ReportStore persists the active report in Postgres.
type ReportStore struct {
	db *sql.DB
}

func NewReportStore(db *sql.DB) *ReportStore {
	return &ReportStore{db: db}
}

// Save serializes and persists the report, overwriting any previous one.
func (s *ReportStore) Save(ctx context.Context, r report.Report) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO session_reports (session_key, payload, saved_at)
		VALUES ($1, $2, now())
		ON CONFLICT (session_key) DO UPDATE SET payload = EXCLUDED.payload, saved_at = now()
	`, sessionKey, payload)
	if err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	return nil
}

// Load returns the persisted report, or absent when none is stored.
// A corrupt payload is returned as an error for the caller to absorb
// as absence.
func (s *ReportStore) Load(ctx context.Context) (report.Report, bool, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM session_reports WHERE session_key = $1`, sessionKey).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return report.Report{}, false, nil
	}
	if err != nil {
		return report.Report{}, false, fmt.Errorf("load report: %w", err)
	}

	r, err := report.Parse(payload)
	if err != nil {
		return report.Report{}, false, fmt.Errorf("stored report unreadable: %w", err)
	}
	return r, true, nil
}

// Clear removes the persisted report. Idempotent.
func (s *ReportStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM session_reports WHERE session_key = $1`, sessionKey); err != nil {
		return fmt.Errorf("clear report: %w", err)
	}
	return nil
}

func (s *ReportStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// ArtifactStore persists the uploaded document bytes in Postgres.
type ArtifactStore struct {
	db *sql.DB
}

func NewArtifactStore(db *sql.DB) *ArtifactStore {
	return &ArtifactStore{db: db}
}

// Put overwrites the stored artifact together with a content checksum.
func (s *ArtifactStore) Put(ctx context.Context, data []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO session_artifacts (session_key, content, checksum, saved_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (session_key) DO UPDATE SET content = EXCLUDED.content, checksum = EXCLUDED.checksum, saved_at = now()
	`, sessionKey, data, contentDigest(data))
	if err != nil {
		return fmt.Errorf("store artifact: %w", err)
	}
	return nil
}

// Get returns the stored artifact bytes, or absent when none is
// stored. A checksum mismatch is returned as an error for the caller
// to absorb as absence.
func (s *ArtifactStore) Get(ctx context.Context) ([]byte, bool, error) {
	var (
		data     []byte
		checksum string
	)
	err := s.db.QueryRowContext(ctx, `SELECT content, checksum FROM session_artifacts WHERE session_key = $1`, sessionKey).Scan(&data, &checksum)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load artifact: %w", err)
	}

	if checksum != contentDigest(data) {
		return nil, false, fmt.Errorf("artifact checksum mismatch")
	}
	return data, true, nil
}

// Clear removes the stored artifact. Idempotent.
func (s *ArtifactStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM session_artifacts WHERE session_key = $1`, sessionKey); err != nil {
		return fmt.Errorf("clear artifact: %w", err)
	}
	return nil
}

func (s *ArtifactStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func contentDigest(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}
