package catalogcache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"ecomigrate/internal/catalog"
	"ecomigrate/internal/logging"
)

// Snapshot kinds.
const (
	KindDatasets = "datasets"
	KindFlows    = "flows"
)

// Fingerprint summarizes the files a snapshot was built from. A snapshot is
// reused only while the fingerprint still matches.
type Fingerprint struct {
	Files   int   `json:"files"`
	Size    int64 `json:"size"`
	ModTime int64 `json:"mod_time"`
}

// Snapshot describes one cached catalog or flow listing.
type Snapshot struct {
	Kind        string      `json:"kind"`
	Version     string      `json:"version"`
	SystemModel string      `json:"system_model"`
	SourcePath  string      `json:"source_path"`
	Fingerprint Fingerprint `json:"fingerprint"`
	Entries     int         `json:"entries"`
	CreatedAt   time.Time   `json:"created_at"`
}

// DirFingerprint counts the dataset files in dir and records their total
// size and newest modification time.
func DirFingerprint(dir string) (Fingerprint, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return Fingerprint{}, fmt.Errorf("read datasets directory: %w", err)
	}
	var fp Fingerprint
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		if !catalog.IsDatasetFile(file.Name()) {
			continue
		}
		info, err := file.Info()
		if err != nil {
			return Fingerprint{}, fmt.Errorf("stat %s: %w", file.Name(), err)
		}
		fp.Files++
		fp.Size += info.Size()
		if mt := info.ModTime().UnixNano(); mt > fp.ModTime {
			fp.ModTime = mt
		}
	}
	return fp, nil
}

// FileFingerprint fingerprints a single file.
func FileFingerprint(path string) (Fingerprint, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Fingerprint{}, fmt.Errorf("stat %s: %w", path, err)
	}
	return Fingerprint{Files: 1, Size: info.Size(), ModTime: info.ModTime().UnixNano()}, nil
}

// Catalog returns the process catalog for a release, parsing dir only when
// no matching snapshot is cached.
func (s *Store) Catalog(ctx context.Context, version, systemModel, dir string) (*catalog.Catalog, error) {
	ctx = ensureContext(ctx)
	name := catalog.DatabaseName(version, systemModel)
	fp, err := DirFingerprint(dir)
	if err != nil {
		return nil, err
	}

	id, ok, err := s.lookup(ctx, KindDatasets, version, systemModel, fp)
	if err != nil {
		return nil, err
	}
	if ok {
		entries, err := s.readDatasets(ctx, id)
		if err != nil {
			return nil, err
		}
		s.logger.Debug("catalog cache hit",
			logging.String(logging.FieldDatabase, name),
			logging.Int("datasets", len(entries)),
		)
		return catalog.New(name, entries), nil
	}

	s.logger.Info("parsing release datasets",
		logging.String(logging.FieldDatabase, name),
		logging.String(logging.FieldPath, dir),
		logging.Int("files", fp.Files),
	)
	entries, err := catalog.LoadDir(ctx, dir, s.logger)
	if err != nil {
		return nil, err
	}
	snap := Snapshot{Kind: KindDatasets, Version: version, SystemModel: systemModel, SourcePath: dir, Fingerprint: fp, Entries: len(entries)}
	if err := s.withWriteLock(ctx, func() error {
		return s.replace(ctx, snap, func(tx *sql.Tx, id int64) error { return insertDatasets(ctx, tx, id, entries) })
	}); err != nil {
		return nil, err
	}
	return catalog.New(name, entries), nil
}

// Flows returns the elementary flow listing at path, cached like Catalog.
func (s *Store) Flows(ctx context.Context, version, systemModel, path string) (*catalog.FlowListing, error) {
	ctx = ensureContext(ctx)
	fp, err := FileFingerprint(path)
	if err != nil {
		return nil, err
	}
	id, ok, err := s.lookup(ctx, KindFlows, version, systemModel, fp)
	if err != nil {
		return nil, err
	}
	if ok {
		flows, err := s.readFlows(ctx, id)
		if err != nil {
			return nil, err
		}
		return catalog.NewFlowListing(flows), nil
	}

	listing, err := catalog.LoadFlows(path)
	if err != nil {
		return nil, err
	}
	flows := listing.Flows()
	snap := Snapshot{Kind: KindFlows, Version: version, SystemModel: systemModel, SourcePath: path, Fingerprint: fp, Entries: len(flows)}
	if err := s.withWriteLock(ctx, func() error {
		return s.replace(ctx, snap, func(tx *sql.Tx, id int64) error { return insertFlows(ctx, tx, id, flows) })
	}); err != nil {
		return nil, err
	}
	return listing, nil
}

func (s *Store) lookup(ctx context.Context, kind, version, systemModel string, fp Fingerprint) (int64, bool, error) {
	var (
		id     int64
		stored Fingerprint
	)
	err := retryOnBusy(ctx, func() error {
		return s.db.QueryRowContext(ctx,
			`SELECT id, source_files, source_size, source_mtime FROM snapshots WHERE kind = ? AND version = ? AND system_model = ?`,
			kind, version, systemModel,
		).Scan(&id, &stored.Files, &stored.Size, &stored.ModTime)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("lookup snapshot: %w", err)
	}
	if stored != fp {
		s.logger.Debug("cached snapshot is stale",
			logging.String("kind", kind),
			logging.String(logging.FieldSourceVersion, version),
		)
		return 0, false, nil
	}
	return id, true, nil
}

func (s *Store) replace(ctx context.Context, snap Snapshot, fill func(*sql.Tx, int64) error) error {
	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin snapshot tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM snapshots WHERE kind = ? AND version = ? AND system_model = ?`,
			snap.Kind, snap.Version, snap.SystemModel,
		); err != nil {
			return fmt.Errorf("drop stale snapshot: %w", err)
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO snapshots (kind, version, system_model, source_path, source_files, source_size, source_mtime, entries, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			snap.Kind, snap.Version, snap.SystemModel, snap.SourcePath,
			snap.Fingerprint.Files, snap.Fingerprint.Size, snap.Fingerprint.ModTime, snap.Entries,
			time.Now().UTC().Format(time.RFC3339Nano),
		)
		if err != nil {
			return fmt.Errorf("insert snapshot: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("snapshot id: %w", err)
		}
		if err := fill(tx, id); err != nil {
			return err
		}
		return tx.Commit()
	})
}

func insertDatasets(ctx context.Context, tx *sql.Tx, id int64, entries []catalog.Entry) error {
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO datasets (snapshot_id, position, activity_name, geography, product_name, unit, production_volume, filename)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare dataset insert: %w", err)
	}
	defer stmt.Close()
	for i, e := range entries {
		if _, err := stmt.ExecContext(ctx, id, i, e.ActivityName, e.Geography, e.ProductName, e.Unit, e.ProductionVolume, e.Filename); err != nil {
			return fmt.Errorf("insert dataset %s: %w", e.Filename, err)
		}
	}
	return nil
}

func insertFlows(ctx context.Context, tx *sql.Tx, id int64, flows []catalog.Flow) error {
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO flows (snapshot_id, position, uuid, name, formula, unit) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare flow insert: %w", err)
	}
	defer stmt.Close()
	for i, f := range flows {
		if _, err := stmt.ExecContext(ctx, id, i, f.UUID, f.Name, f.Formula, f.Unit); err != nil {
			return fmt.Errorf("insert flow %s: %w", f.UUID, err)
		}
	}
	return nil
}

func (s *Store) readDatasets(ctx context.Context, id int64) ([]catalog.Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT activity_name, geography, product_name, unit, production_volume, filename
		 FROM datasets WHERE snapshot_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("read cached datasets: %w", err)
	}
	defer rows.Close()
	var entries []catalog.Entry
	for rows.Next() {
		var e catalog.Entry
		if err := rows.Scan(&e.ActivityName, &e.Geography, &e.ProductName, &e.Unit, &e.ProductionVolume, &e.Filename); err != nil {
			return nil, fmt.Errorf("scan cached dataset: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *Store) readFlows(ctx context.Context, id int64) ([]catalog.Flow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT uuid, name, formula, unit FROM flows WHERE snapshot_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("read cached flows: %w", err)
	}
	defer rows.Close()
	var flows []catalog.Flow
	for rows.Next() {
		var f catalog.Flow
		if err := rows.Scan(&f.UUID, &f.Name, &f.Formula, &f.Unit); err != nil {
			return nil, fmt.Errorf("scan cached flow: %w", err)
		}
		flows = append(flows, f)
	}
	return flows, rows.Err()
}

// List returns every cached snapshot, newest first.
func (s *Store) List(ctx context.Context) ([]Snapshot, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		`SELECT kind, version, system_model, source_path, source_files, source_size, source_mtime, entries, created_at
		 FROM snapshots ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()
	var out []Snapshot
	for rows.Next() {
		var (
			snap    Snapshot
			created string
		)
		if err := rows.Scan(&snap.Kind, &snap.Version, &snap.SystemModel, &snap.SourcePath,
			&snap.Fingerprint.Files, &snap.Fingerprint.Size, &snap.Fingerprint.ModTime, &snap.Entries, &created); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		snap.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		out = append(out, snap)
	}
	return out, rows.Err()
}

// Clear removes every snapshot and returns how many were dropped.
func (s *Store) Clear(ctx context.Context) (int, error) {
	ctx = ensureContext(ctx)
	var removed int64
	err := s.withWriteLock(ctx, func() error {
		return retryOnBusy(ctx, func() error {
			res, err := s.db.ExecContext(ctx, `DELETE FROM snapshots`)
			if err != nil {
				return err
			}
			removed, err = res.RowsAffected()
			return err
		})
	})
	if err != nil {
		return 0, fmt.Errorf("clear cache: %w", err)
	}
	s.logger.Info("cleared catalog cache", logging.Int64("snapshots", removed))
	return int(removed), nil
}
