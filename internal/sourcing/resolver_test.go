package sourcing

import (
	"context"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaxsource/immunize-cli/internal/model"
	"github.com/vaxsource/immunize-cli/internal/portal"
)

func newMockResolver(t *testing.T) (pgxmock.PgxPoolIface, *Resolver) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })
	return mock, NewResolver(mock)
}

func expectCity(mock pgxmock.PgxPoolIface, name string, id int64) {
	mock.ExpectExec("INSERT INTO imm.cities").WithArgs(name).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))
	mock.ExpectQuery("SELECT id FROM imm.cities").WithArgs(name).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(id))
}

func expectCounty(mock pgxmock.PgxPoolIface, name string, id int64) {
	mock.ExpectExec("INSERT INTO imm.counties").WithArgs(name).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))
	mock.ExpectQuery("SELECT id FROM imm.counties").WithArgs(name).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(id))
}

func expectSchool(mock pgxmock.PgxPoolIface, sc model.School, id int64, districtID *int64) {
	mock.ExpectExec("INSERT INTO imm.schools").
		WithArgs(sc.Code, sc.Name, sc.Public, sc.CityID, sc.CountyID).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))
	mock.ExpectQuery("SELECT id, code, name, public, city_id, county_id, district_id").
		WithArgs(sc.Code, sc.CityID, sc.CountyID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "code", "name", "public", "city_id", "county_id", "district_id"}).
			AddRow(id, sc.Code, sc.Name, sc.Public, sc.CityID, sc.CountyID, districtID))
}

func expectRecord(mock pgxmock.PgxPoolIface, datasetID, schoolID int64, reported bool, m model.Metrics) {
	args := []any{datasetID, schoolID, reported}
	for _, v := range m.Values() {
		args = append(args, v)
	}
	mock.ExpectExec("INSERT INTO imm.records").WithArgs(args...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
}

func TestResolve_FullCascade(t *testing.T) {
	mock, r := newMockResolver(t)

	expectCity(mock, "Berkeley", 11)
	expectCounty(mock, "Alameda", 21)
	expectSchool(mock, model.School{
		Code: "0161234", Name: "Berkeley High", Public: true, CityID: 11, CountyID: 21,
	}, 31, nil)

	mock.ExpectExec("INSERT INTO imm.districts").WithArgs("Berkeley Unified").
		WillReturnResult(pgxmock.NewResult("INSERT", 0))
	mock.ExpectQuery("SELECT id FROM imm.districts").WithArgs("Berkeley Unified").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(41)))
	mock.ExpectExec("UPDATE imm.schools SET district_id").WithArgs(int64(41), int64(31)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	var m model.Metrics
	m.Set("up_to_date", 0.9)
	expectRecord(mock, 1, 31, true, m)

	err := r.Resolve(context.Background(), 1, portal.Entry{
		"city":        "BERKELEY",
		"county":      "ALAMEDA",
		"district":    "BERKELEY UNIFIED",
		"school_code": "0161234",
		"school_name": "BERKELEY HIGH",
		"public":      "PUBLIC",
		"reported":    "true",
		"up_to_date":  "0.9",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolve_InvalidDistrictStillPersistsSchoolAndRecord(t *testing.T) {
	mock, r := newMockResolver(t)

	expectCity(mock, "Oakland", 12)
	expectCounty(mock, "Alameda", 21)
	expectSchool(mock, model.School{
		Code: "0165678", Name: "Oakland Tech", Public: true, CityID: 12, CountyID: 21,
	}, 32, nil)
	expectRecord(mock, 1, 32, false, model.Metrics{})

	// No district field at all: school and record are written, no district
	// statements run.
	err := r.Resolve(context.Background(), 1, portal.Entry{
		"city":        "OAKLAND",
		"county":      "ALAMEDA",
		"school_code": "0165678",
		"school_name": "OAKLAND TECH",
		"public":      "public",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolve_DistrictAlreadyAttached(t *testing.T) {
	mock, r := newMockResolver(t)

	district := int64(41)
	expectCity(mock, "Berkeley", 11)
	expectCounty(mock, "Alameda", 21)
	expectSchool(mock, model.School{
		Code: "0161234", Name: "Berkeley High", Public: true, CityID: 11, CountyID: 21,
	}, 31, &district)

	mock.ExpectExec("INSERT INTO imm.districts").WithArgs("Berkeley Unified").
		WillReturnResult(pgxmock.NewResult("INSERT", 0))
	mock.ExpectQuery("SELECT id FROM imm.districts").WithArgs("Berkeley Unified").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(district))

	expectRecord(mock, 1, 31, false, model.Metrics{})

	// The school already references district 41; no UPDATE is issued.
	err := r.Resolve(context.Background(), 1, portal.Entry{
		"city":        "BERKELEY",
		"county":      "ALAMEDA",
		"district":    "BERKELEY UNIFIED",
		"school_code": "0161234",
		"school_name": "BERKELEY HIGH",
		"public":      "PUBLIC",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolve_MissingCityIsFatal(t *testing.T) {
	mock, r := newMockResolver(t)

	err := r.Resolve(context.Background(), 1, portal.Entry{
		"county":      "ALAMEDA",
		"school_code": "0161234",
		"school_name": "BERKELEY HIGH",
		"public":      "PUBLIC",
	})
	require.Error(t, err)

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, KindCity, vErr.Kind)
	assert.NoError(t, mock.ExpectationsWereMet())
}
