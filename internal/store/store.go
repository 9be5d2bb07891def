// Package store is the persistence layer for the sourcing pipeline. A Store
// wraps a db.Queryer, so the same operations run against the pool directly
// or inside a dataset's transaction.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/vaxsource/immunize-cli/internal/db"
	"github.com/vaxsource/immunize-cli/internal/model"
)

// Store executes entity reads and writes against a single Queryer.
type Store struct {
	q db.Queryer
}

// New creates a Store over the given Queryer (pool or transaction).
func New(q db.Queryer) *Store {
	return &Store{q: q}
}

var metricCols = strings.Join(model.MetricFields, ", ")

// ListDatasets returns every known dataset in id order.
func (s *Store) ListDatasets(ctx context.Context) ([]model.Dataset, error) {
	rows, err := s.q.Query(ctx,
		`SELECT id, uid, fields_map, sourced, queued_date FROM imm.datasets ORDER BY id`)
	if err != nil {
		return nil, eris.Wrap(err, "store: list datasets")
	}
	defer rows.Close()

	var out []model.Dataset
	for rows.Next() {
		var d model.Dataset
		var fm []byte
		if err := rows.Scan(&d.ID, &d.UID, &fm, &d.Sourced, &d.QueuedDate); err != nil {
			return nil, eris.Wrap(err, "store: scan dataset")
		}
		if len(fm) > 0 {
			if err := json.Unmarshal(fm, &d.FieldsMap); err != nil {
				return nil, eris.Wrapf(err, "store: decode fields_map for dataset %s", d.UID)
			}
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// CreateDataset registers a new dataset uid with its field translation table.
func (s *Store) CreateDataset(ctx context.Context, uid string, fm model.FieldsMap) (*model.Dataset, error) {
	raw, err := json.Marshal(fm)
	if err != nil {
		return nil, eris.Wrap(err, "store: encode fields_map")
	}

	d := model.Dataset{UID: uid, FieldsMap: fm}
	err = s.q.QueryRow(ctx,
		`INSERT INTO imm.datasets (uid, fields_map) VALUES ($1, $2) RETURNING id`,
		uid, raw,
	).Scan(&d.ID)
	if err != nil {
		return nil, eris.Wrapf(err, "store: create dataset %s", uid)
	}
	return &d, nil
}

// MarkQueued points a dataset at a newer upstream uid and flags it for
// re-sourcing.
func (s *Store) MarkQueued(ctx context.Context, id int64, uid string, queuedAt time.Time) error {
	_, err := s.q.Exec(ctx,
		`UPDATE imm.datasets SET uid = $1, sourced = false, queued_date = $2 WHERE id = $3`,
		uid, queuedAt, id,
	)
	if err != nil {
		return eris.Wrapf(err, "store: queue dataset %d", id)
	}
	return nil
}

// MarkSourced flags a dataset as fully sourced. Only called inside the
// dataset's transaction, after entities and summaries are written.
func (s *Store) MarkSourced(ctx context.Context, id int64) error {
	_, err := s.q.Exec(ctx,
		`UPDATE imm.datasets SET sourced = true WHERE id = $1`, id)
	if err != nil {
		return eris.Wrapf(err, "store: mark dataset %d sourced", id)
	}
	return nil
}

// getOrCreateNamed implements get-or-create for the name-keyed sector tables:
// an insert that yields on conflict, then a read of the surviving row.
func (s *Store) getOrCreateNamed(ctx context.Context, table, name string) (int64, error) {
	_, err := s.q.Exec(ctx,
		fmt.Sprintf(`INSERT INTO imm.%s (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, table),
		name,
	)
	if err != nil {
		return 0, eris.Wrapf(err, "store: insert %s %q", table, name)
	}

	var id int64
	err = s.q.QueryRow(ctx,
		fmt.Sprintf(`SELECT id FROM imm.%s WHERE name = $1`, table),
		name,
	).Scan(&id)
	if err != nil {
		return 0, eris.Wrapf(err, "store: select %s %q", table, name)
	}
	return id, nil
}

// GetOrCreateCity resolves a city by name, creating it if absent.
func (s *Store) GetOrCreateCity(ctx context.Context, name string) (*model.City, error) {
	id, err := s.getOrCreateNamed(ctx, "cities", name)
	if err != nil {
		return nil, err
	}
	return &model.City{ID: id, Name: name}, nil
}

// GetOrCreateCounty resolves a county by name, creating it if absent.
func (s *Store) GetOrCreateCounty(ctx context.Context, name string) (*model.County, error) {
	id, err := s.getOrCreateNamed(ctx, "counties", name)
	if err != nil {
		return nil, err
	}
	return &model.County{ID: id, Name: name}, nil
}

// GetOrCreateDistrict resolves a district by name, creating it if absent.
func (s *Store) GetOrCreateDistrict(ctx context.Context, name string) (*model.District, error) {
	id, err := s.getOrCreateNamed(ctx, "districts", name)
	if err != nil {
		return nil, err
	}
	return &model.District{ID: id, Name: name}, nil
}

// GetOrCreateSchool resolves a school by its (code, city, county) key. The
// remaining fields are creation defaults only: an existing school's name and
// public flag are returned as stored, not overwritten.
func (s *Store) GetOrCreateSchool(ctx context.Context, sc model.School) (*model.School, error) {
	_, err := s.q.Exec(ctx,
		`INSERT INTO imm.schools (code, name, public, city_id, county_id)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (code, city_id, county_id) DO NOTHING`,
		sc.Code, sc.Name, sc.Public, sc.CityID, sc.CountyID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "store: insert school %s", sc.Code)
	}

	var got model.School
	err = s.q.QueryRow(ctx,
		`SELECT id, code, name, public, city_id, county_id, district_id
		 FROM imm.schools WHERE code = $1 AND city_id = $2 AND county_id = $3`,
		sc.Code, sc.CityID, sc.CountyID,
	).Scan(&got.ID, &got.Code, &got.Name, &got.Public, &got.CityID, &got.CountyID, &got.DistrictID)
	if err != nil {
		return nil, eris.Wrapf(err, "store: select school %s", sc.Code)
	}
	return &got, nil
}

// AttachDistrict links a school to its district.
func (s *Store) AttachDistrict(ctx context.Context, schoolID, districtID int64) error {
	_, err := s.q.Exec(ctx,
		`UPDATE imm.schools SET district_id = $1 WHERE id = $2`,
		districtID, schoolID,
	)
	if err != nil {
		return eris.Wrapf(err, "store: attach district to school %d", schoolID)
	}
	return nil
}

// UpsertRecord writes the (dataset, school) observation. On conflict every
// value column is overwritten; re-sourcing replaces, never merges.
func (s *Store) UpsertRecord(ctx context.Context, rec model.Record) error {
	cols := "dataset_id, school_id, reported, " + metricCols

	placeholders := make([]string, 0, 3+len(model.MetricFields))
	for i := range 3 + len(model.MetricFields) {
		placeholders = append(placeholders, fmt.Sprintf("$%d", i+1))
	}

	sets := []string{"reported = EXCLUDED.reported"}
	for _, m := range model.MetricFields {
		sets = append(sets, fmt.Sprintf("%s = EXCLUDED.%s", m, m))
	}

	args := []any{rec.DatasetID, rec.SchoolID, rec.Reported}
	for _, v := range rec.Metrics.Values() {
		args = append(args, v)
	}

	sql := fmt.Sprintf(
		`INSERT INTO imm.records (%s) VALUES (%s)
		 ON CONFLICT (dataset_id, school_id) DO UPDATE SET %s`,
		cols, strings.Join(placeholders, ", "), strings.Join(sets, ", "),
	)

	if _, err := s.q.Exec(ctx, sql, args...); err != nil {
		return eris.Wrapf(err, "store: upsert record for school %d", rec.SchoolID)
	}
	return nil
}

// sectorTable maps a sector kind to its backing table.
func sectorTable(kind model.SectorKind) string {
	switch kind {
	case model.SectorCity:
		return "cities"
	case model.SectorCounty:
		return "counties"
	default:
		return "districts"
	}
}

// sectorColumn maps a sector kind to the schools column referencing it.
func sectorColumn(kind model.SectorKind) string {
	switch kind {
	case model.SectorCity:
		return "city_id"
	case model.SectorCounty:
		return "county_id"
	default:
		return "district_id"
	}
}

// ListSectors returns every sector instance of the given kind.
func (s *Store) ListSectors(ctx context.Context, kind model.SectorKind) ([]model.Sector, error) {
	rows, err := s.q.Query(ctx,
		fmt.Sprintf(`SELECT id, name FROM imm.%s ORDER BY id`, sectorTable(kind)))
	if err != nil {
		return nil, eris.Wrapf(err, "store: list %s sectors", kind)
	}
	defer rows.Close()

	var out []model.Sector
	for rows.Next() {
		sec := model.Sector{Kind: kind}
		if err := rows.Scan(&sec.ID, &sec.Name); err != nil {
			return nil, eris.Wrapf(err, "store: scan %s sector", kind)
		}
		out = append(out, sec)
	}
	return out, rows.Err()
}

// ReportedRecords selects the reported observations of one dataset whose
// school belongs to the given sector, projected for aggregation.
func (s *Store) ReportedRecords(ctx context.Context, datasetID int64, kind model.SectorKind, sectorID int64) ([]model.SectorRecord, error) {
	sql := fmt.Sprintf(
		`SELECT s.public, %s
		 FROM imm.records r
		 JOIN imm.schools s ON s.id = r.school_id
		 WHERE r.dataset_id = $1 AND r.reported AND s.%s = $2`,
		prefixCols("r.", model.MetricFields), sectorColumn(kind),
	)

	rows, err := s.q.Query(ctx, sql, datasetID, sectorID)
	if err != nil {
		return nil, eris.Wrapf(err, "store: reported records for %s %d", kind, sectorID)
	}
	defer rows.Close()

	var out []model.SectorRecord
	for rows.Next() {
		var rec model.SectorRecord
		targets := append([]any{&rec.Public}, rec.Metrics.ScanTargets()...)
		if err := rows.Scan(targets...); err != nil {
			return nil, eris.Wrap(err, "store: scan reported record")
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// UpsertSummary caches the summary document for one (dataset, sector) pair.
func (s *Store) UpsertSummary(ctx context.Context, datasetID int64, kind model.SectorKind, sectorID int64, doc []byte) error {
	_, err := s.q.Exec(ctx,
		`INSERT INTO imm.summaries (dataset_id, sector_kind, sector_id, summary)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (dataset_id, sector_kind, sector_id) DO UPDATE SET summary = EXCLUDED.summary`,
		datasetID, string(kind), sectorID, doc,
	)
	if err != nil {
		return eris.Wrapf(err, "store: upsert summary for %s %d", kind, sectorID)
	}
	return nil
}

// prefixCols qualifies each column with the given table alias prefix.
func prefixCols(prefix string, cols []string) string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = prefix + c
	}
	return strings.Join(out, ", ")
}
