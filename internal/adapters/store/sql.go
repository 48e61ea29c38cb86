package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	"go.trai.ch/forge/internal/core/domain"
	"go.trai.ch/forge/internal/core/ports"
	"go.trai.ch/zerr"
	_ "modernc.org/sqlite" // registers the "sqlite" database/sql driver
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var _ ports.Store = (*SQL)(nil)

// SQL implements ports.Store on database/sql. Queries are written with "?" placeholders
// and rebound for PostgreSQL.
type SQL struct {
	DB       *sql.DB
	postgres bool
	now      func() time.Time
}

// OpenSQLite opens (and migrates) a SQLite database.
func OpenSQLite(ctx context.Context, dsn string) (*SQL, error) {
	uri, err := sqliteDSN(dsn)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(DriverSQLite, uri)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrStoreOpenFailed.Error()), "driver", DriverSQLite)
	}
	// A single connection serializes writers and keeps ":memory:" databases shared.
	db.SetMaxOpenConns(1)

	return newSQL(ctx, db, false)
}

// OpenPostgres opens (and migrates) a PostgreSQL database through the pgx stdlib driver.
func OpenPostgres(ctx context.Context, dsn string) (*SQL, error) {
	if dsn == "" {
		return nil, zerr.With(zerr.Wrap(domain.ErrStoreOpenFailed, "postgres dsn is empty"), "driver", DriverPgx)
	}

	db, err := sql.Open(DriverPgx, dsn)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrStoreOpenFailed.Error()), "driver", DriverPgx)
	}
	db.SetMaxOpenConns(20)
	db.SetConnMaxLifetime(5 * time.Minute)

	return newSQL(ctx, db, true)
}

func newSQL(ctx context.Context, db *sql.DB, postgres bool) (*SQL, error) {
	s := &SQL{DB: db, postgres: postgres, now: time.Now}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, zerr.Wrap(err, domain.ErrStoreOpenFailed.Error())
	}
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// WithClock replaces the clock used to stamp revisions and record order.
func (s *SQL) WithClock(now func() time.Time) *SQL {
	s.now = now
	return s
}

// Close closes the database.
func (s *SQL) Close() error {
	if s == nil || s.DB == nil {
		return nil
	}
	return s.DB.Close()
}

type migration struct {
	Version int
	Name    string
	SQL     string
}

// Migrate applies the embedded migrations that are not recorded in schema_migrations.
func (s *SQL) Migrate(ctx context.Context) error {
	if _, err := s.DB.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS schema_migrations (
  version INTEGER PRIMARY KEY,
  applied_at BIGINT NOT NULL
)`); err != nil {
		return zerr.Wrap(err, domain.ErrStoreMigrationFailed.Error())
	}

	applied, err := s.appliedVersions(ctx)
	if err != nil {
		return err
	}

	files, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return zerr.Wrap(err, domain.ErrStoreMigrationFailed.Error())
	}

	var migs []migration
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".sql") {
			continue
		}
		v, err := parseMigrationVersion(f.Name())
		if err != nil {
			return err
		}
		body, err := migrationsFS.ReadFile("migrations/" + f.Name())
		if err != nil {
			return zerr.Wrap(err, domain.ErrStoreMigrationFailed.Error())
		}
		migs = append(migs, migration{Version: v, Name: f.Name(), SQL: string(body)})
	}
	sort.Slice(migs, func(i, j int) bool { return migs[i].Version < migs[j].Version })

	for _, m := range migs {
		if applied[m.Version] {
			continue
		}
		if err := s.applyMigration(ctx, m); err != nil {
			return zerr.With(zerr.Wrap(err, domain.ErrStoreMigrationFailed.Error()), "migration", m.Name)
		}
	}
	return nil
}

func (s *SQL) appliedVersions(ctx context.Context) (map[int]bool, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrStoreMigrationFailed.Error())
	}
	defer func() { _ = rows.Close() }()

	out := make(map[int]bool)
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, zerr.Wrap(err, domain.ErrStoreMigrationFailed.Error())
		}
		out[v] = true
	}
	return out, rows.Err()
}

func (s *SQL) applyMigration(ctx context.Context, m migration) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, s.rebind(`INSERT INTO schema_migrations(version, applied_at) VALUES(?, ?)`),
		m.Version, s.now().Unix()); err != nil {
		return err
	}
	return tx.Commit()
}

func parseMigrationVersion(filename string) (int, error) {
	base := strings.TrimSuffix(filename, ".sql")
	prefix, _, _ := strings.Cut(base, "_")
	v, err := strconv.Atoi(prefix)
	if err != nil {
		return 0, zerr.With(zerr.Wrap(domain.ErrStoreMigrationFailed, "invalid migration version"), "migration", filename)
	}
	return v, nil
}

// rebind rewrites "?" placeholders to "$n" for PostgreSQL.
func (s *SQL) rebind(query string) string {
	if !s.postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// LatestRevision returns the newest revision of a configuration, or nil if none exists.
func (s *SQL) LatestRevision(ctx context.Context, id domain.ConfigurationID) (*domain.BuildConfigurationRevision, error) {
	row := s.DB.QueryRowContext(ctx, s.rebind(`
SELECT configuration_id, revision, name, build_script, work_dir, dependencies, fingerprint, created_at
FROM revisions WHERE configuration_id = ? ORDER BY revision DESC LIMIT 1`), string(id))

	rev, err := scanRevision(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrStoreReadFailed.Error()), "configuration", id.String())
	}
	return rev, nil
}

// CreateRevision snapshots cfg as the next revision number.
func (s *SQL) CreateRevision(
	ctx context.Context,
	cfg *domain.BuildConfiguration,
	fingerprint string,
) (*domain.BuildConfigurationRevision, error) {
	fail := func(err error) error {
		return zerr.With(zerr.Wrap(err, domain.ErrStoreWriteFailed.Error()), "configuration", cfg.ID.String())
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fail(err)
	}
	defer func() { _ = tx.Rollback() }()

	var latest int
	if err := tx.QueryRowContext(ctx, s.rebind(`SELECT COALESCE(MAX(revision), 0) FROM revisions WHERE configuration_id = ?`),
		string(cfg.ID)).Scan(&latest); err != nil {
		return nil, fail(err)
	}

	rev := domain.NewRevision(cfg, latest+1, fingerprint, s.now())
	deps, err := encodeJSON(rev.Dependencies)
	if err != nil {
		return nil, fail(err)
	}

	if _, err := tx.ExecContext(ctx, s.rebind(`
INSERT INTO revisions (configuration_id, revision, name, build_script, work_dir, dependencies, fingerprint, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		string(rev.ConfigurationID), rev.Revision, rev.Name.String(), rev.BuildScript.String(), rev.WorkDir.String(),
		deps, rev.Fingerprint, encodeTime(rev.CreatedAt)); err != nil {
		return nil, fail(err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fail(err)
	}
	return &rev, nil
}

// Revision returns a specific revision.
func (s *SQL) Revision(ctx context.Context, id domain.RevisionID) (*domain.BuildConfigurationRevision, error) {
	row := s.DB.QueryRowContext(ctx, s.rebind(`
SELECT configuration_id, revision, name, build_script, work_dir, dependencies, fingerprint, created_at
FROM revisions WHERE configuration_id = ? AND revision = ?`), string(id.ConfigurationID), id.Revision)

	rev, err := scanRevision(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, zerr.With(zerr.Wrap(domain.ErrRevisionNotFound, "revision lookup failed"), "revision", id.String())
	}
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrStoreReadFailed.Error()), "revision", id.String())
	}
	return rev, nil
}

const recordColumns = `id, task_id, configuration_id, revision, status, artifacts, start_time, end_time`

// LatestBuildRecord returns the newest record of a configuration, or nil if none exists.
func (s *SQL) LatestBuildRecord(ctx context.Context, id domain.ConfigurationID) (*domain.BuildRecord, error) {
	return s.queryRecord(ctx, `SELECT `+recordColumns+` FROM build_records
WHERE configuration_id = ? ORDER BY recorded_at DESC, id DESC LIMIT 1`, "configuration", string(id))
}

// LatestSuccessfulBuildRecord returns the newest successful record of a configuration.
func (s *SQL) LatestSuccessfulBuildRecord(ctx context.Context, id domain.ConfigurationID) (*domain.BuildRecord, error) {
	return s.queryRecord(ctx, `SELECT `+recordColumns+` FROM build_records
WHERE configuration_id = ? AND status IN (?, ?) ORDER BY recorded_at DESC, id DESC LIMIT 1`,
		"configuration", string(id), string(domain.StatusSuccess), string(domain.StatusNoRebuildRequired))
}

// BuildRecordForTask returns the record produced by a task, or nil if none exists.
func (s *SQL) BuildRecordForTask(ctx context.Context, id domain.TaskID) (*domain.BuildRecord, error) {
	return s.queryRecord(ctx, `SELECT `+recordColumns+` FROM build_records
WHERE task_id = ? ORDER BY recorded_at DESC, id DESC LIMIT 1`, "task_id", string(id))
}

func (s *SQL) queryRecord(ctx context.Context, query, key string, args ...any) (*domain.BuildRecord, error) {
	rec, err := scanRecord(s.DB.QueryRowContext(ctx, s.rebind(query), args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrStoreReadFailed.Error()), key, args[0])
	}
	return rec, nil
}

// PutBuildRecord stores a record. A record with the same id is replaced.
func (s *SQL) PutBuildRecord(ctx context.Context, rec *domain.BuildRecord) error {
	artifacts, err := encodeJSON(rec.Artifacts)
	if err == nil {
		_, err = s.DB.ExecContext(ctx, s.rebind(`
INSERT INTO build_records (id, task_id, configuration_id, revision, status, artifacts, start_time, end_time, recorded_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
  task_id = excluded.task_id,
  configuration_id = excluded.configuration_id,
  revision = excluded.revision,
  status = excluded.status,
  artifacts = excluded.artifacts,
  start_time = excluded.start_time,
  end_time = excluded.end_time`),
			rec.ID, string(rec.TaskID), string(rec.Revision.ConfigurationID), rec.Revision.Revision,
			string(rec.Status), artifacts, encodeTime(rec.StartTime), encodeTime(rec.EndTime), s.now().UnixNano())
	}
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrStoreWriteFailed.Error()), "record_id", rec.ID)
	}
	return nil
}

// SaveBuildSet creates or replaces a build set record.
func (s *SQL) SaveBuildSet(ctx context.Context, rec *domain.BuildConfigSetRecord) error {
	fail := func(err error) error {
		return zerr.With(zerr.Wrap(err, domain.ErrStoreWriteFailed.Error()), "build_set_id", rec.ID.String())
	}

	members, err := encodeJSON(rec.Members)
	if err != nil {
		return fail(err)
	}
	tasks, err := encodeJSON(rec.Tasks)
	if err != nil {
		return fail(err)
	}
	reused, err := encodeJSON(rec.Reused)
	if err != nil {
		return fail(err)
	}

	if _, err := s.DB.ExecContext(ctx, s.rebind(`
INSERT INTO build_sets (id, group_name, members, tasks, reused, status, start_time, end_time)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
  group_name = excluded.group_name,
  members = excluded.members,
  tasks = excluded.tasks,
  reused = excluded.reused,
  status = excluded.status,
  start_time = excluded.start_time,
  end_time = excluded.end_time`),
		string(rec.ID), rec.GroupName, members, tasks, reused, string(rec.Status),
		encodeTime(rec.StartTime), encodeTime(rec.EndTime)); err != nil {
		return fail(err)
	}
	return nil
}

// BuildSet returns a build set record.
func (s *SQL) BuildSet(ctx context.Context, id domain.BuildSetID) (*domain.BuildConfigSetRecord, error) {
	row := s.DB.QueryRowContext(ctx, s.rebind(`
SELECT id, group_name, members, tasks, reused, status, start_time, end_time
FROM build_sets WHERE id = ?`), string(id))

	var (
		rec                    domain.BuildConfigSetRecord
		setID, status          string
		members, tasks, reused string
		start, end             int64
	)
	err := row.Scan(&setID, &rec.GroupName, &members, &tasks, &reused, &status, &start, &end)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, zerr.With(zerr.Wrap(domain.ErrBuildSetNotFound, "build set lookup failed"), "build_set_id", id.String())
	}
	if err == nil {
		err = errors.Join(
			decodeJSON(members, &rec.Members),
			decodeJSON(tasks, &rec.Tasks),
			decodeJSON(reused, &rec.Reused),
		)
	}
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrStoreReadFailed.Error()), "build_set_id", id.String())
	}

	rec.ID = domain.BuildSetID(setID)
	rec.Status = domain.BuildStatus(status)
	rec.StartTime = decodeTime(start)
	rec.EndTime = decodeTime(end)
	return &rec, nil
}

// OpenBuildSets returns the ids of build sets whose status is not terminal, sorted.
func (s *SQL) OpenBuildSets(ctx context.Context) ([]domain.BuildSetID, error) {
	var open []any
	for _, status := range domain.AllStatuses {
		if !status.IsTerminal() {
			open = append(open, string(status))
		}
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(open)), ", ")

	rows, err := s.DB.QueryContext(ctx,
		s.rebind(`SELECT id FROM build_sets WHERE status IN (`+placeholders+`) ORDER BY id`), open...)
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrStoreReadFailed.Error())
	}
	defer func() { _ = rows.Close() }()

	var ids []domain.BuildSetID
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, zerr.Wrap(err, domain.ErrStoreReadFailed.Error())
		}
		ids = append(ids, domain.BuildSetID(id))
	}
	if err := rows.Err(); err != nil {
		return nil, zerr.Wrap(err, domain.ErrStoreReadFailed.Error())
	}
	return ids, nil
}

func scanRevision(row *sql.Row) (*domain.BuildConfigurationRevision, error) {
	var (
		rev                 domain.BuildConfigurationRevision
		cfgID, name, script string
		workDir, deps       string
		created             int64
	)
	if err := row.Scan(&cfgID, &rev.Revision, &name, &script, &workDir, &deps, &rev.Fingerprint, &created); err != nil {
		return nil, err
	}
	if err := decodeJSON(deps, &rev.Dependencies); err != nil {
		return nil, err
	}
	rev.ConfigurationID = domain.ConfigurationID(cfgID)
	rev.Name = domain.NewInternedString(name)
	rev.BuildScript = domain.NewInternedString(script)
	rev.WorkDir = domain.NewInternedString(workDir)
	rev.CreatedAt = decodeTime(created)
	return &rev, nil
}

func scanRecord(row *sql.Row) (*domain.BuildRecord, error) {
	var (
		rec                   domain.BuildRecord
		taskID, cfgID, status string
		artifacts             string
		start, end            int64
	)
	if err := row.Scan(&rec.ID, &taskID, &cfgID, &rec.Revision.Revision, &status, &artifacts, &start, &end); err != nil {
		return nil, err
	}
	if err := decodeJSON(artifacts, &rec.Artifacts); err != nil {
		return nil, err
	}
	rec.TaskID = domain.TaskID(taskID)
	rec.Revision.ConfigurationID = domain.ConfigurationID(cfgID)
	rec.Status = domain.BuildStatus(status)
	rec.StartTime = decodeTime(start)
	rec.EndTime = decodeTime(end)
	return &rec, nil
}

func encodeJSON(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodeJSON(data string, target any) error {
	if data == "" || data == "null" {
		return nil
	}
	return json.Unmarshal([]byte(data), target)
}

// encodeTime stores times as Unix nanoseconds; the zero time is stored as 0.
func encodeTime(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func decodeTime(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}
