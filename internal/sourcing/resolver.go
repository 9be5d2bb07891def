package sourcing

import (
	"context"
	"errors"

	"github.com/vaxsource/immunize-cli/internal/db"
	"github.com/vaxsource/immunize-cli/internal/model"
	"github.com/vaxsource/immunize-cli/internal/portal"
	"github.com/vaxsource/immunize-cli/internal/store"
)

// Resolver turns one normalized entry into its entity cascade. Resolution
// order is fixed because later entities reference earlier ones: city and
// county first, then the school keyed on them, then the optional district,
// then the record.
type Resolver struct {
	st *store.Store
}

// NewResolver creates a Resolver writing through the given Queryer, which is
// the dataset's transaction during a sourcing run.
func NewResolver(q db.Queryer) *Resolver {
	return &Resolver{st: store.New(q)}
}

// Resolve validates and upserts the entities of one entry. A district that
// fails validation leaves the school without a district; every other
// validation failure is fatal to the entry.
func (r *Resolver) Resolve(ctx context.Context, datasetID int64, entry portal.Entry) error {
	cityF, err := validateCity(entry)
	if err != nil {
		return err
	}
	city, err := r.st.GetOrCreateCity(ctx, cityF.Name)
	if err != nil {
		return err
	}

	countyF, err := validateCounty(entry)
	if err != nil {
		return err
	}
	county, err := r.st.GetOrCreateCounty(ctx, countyF.Name)
	if err != nil {
		return err
	}

	schoolF, err := validateSchool(entry)
	if err != nil {
		return err
	}
	school, err := r.st.GetOrCreateSchool(ctx, model.School{
		Code:     schoolF.Code,
		Name:     schoolF.Name,
		Public:   schoolF.Public,
		CityID:   city.ID,
		CountyID: county.ID,
	})
	if err != nil {
		return err
	}

	if err := r.resolveDistrict(ctx, entry, school); err != nil {
		return err
	}

	recF, err := validateRecord(entry)
	if err != nil {
		return err
	}
	return r.st.UpsertRecord(ctx, model.Record{
		DatasetID: datasetID,
		SchoolID:  school.ID,
		Reported:  recF.Reported,
		Metrics:   recF.Metrics,
	})
}

// resolveDistrict attaches the entry's district to the school when the
// district fields validate. A ValidationError here is swallowed; store
// failures still propagate.
func (r *Resolver) resolveDistrict(ctx context.Context, entry portal.Entry, school *model.School) error {
	distF, err := validateDistrict(entry)
	if err != nil {
		var vErr *ValidationError
		if errors.As(err, &vErr) {
			return nil
		}
		return err
	}

	district, err := r.st.GetOrCreateDistrict(ctx, distF.Name)
	if err != nil {
		return err
	}
	if school.DistrictID != nil && *school.DistrictID == district.ID {
		return nil
	}
	return r.st.AttachDistrict(ctx, school.ID, district.ID)
}
