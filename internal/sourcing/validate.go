package sourcing

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cast"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/vaxsource/immunize-cli/internal/model"
	"github.com/vaxsource/immunize-cli/internal/portal"
)

// EntityKind names the entity a validator checks raw fields for.
type EntityKind string

const (
	KindCity     EntityKind = "city"
	KindCounty   EntityKind = "county"
	KindSchool   EntityKind = "school"
	KindDistrict EntityKind = "district"
	KindRecord   EntityKind = "record"
)

// ValidationError reports that a raw entry's fields do not validate for one
// entity kind. It is fatal to the entry except for KindDistrict, which the
// resolver recovers from.
type ValidationError struct {
	Kind EntityKind
	Err  error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validate %s: %v", e.Kind, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

var structValidate = validator.New()

// normalizeName trims and title-cases a raw name so that casing differences
// upstream do not split one sector into several.
func normalizeName(s string) string {
	return cases.Title(language.English).String(strings.TrimSpace(s))
}

type cityFields struct {
	Name string `validate:"required"`
}

func validateCity(entry portal.Entry) (*cityFields, error) {
	f := cityFields{Name: normalizeName(cast.ToString(entry["city"]))}
	if err := structValidate.Struct(&f); err != nil {
		return nil, &ValidationError{Kind: KindCity, Err: err}
	}
	return &f, nil
}

type countyFields struct {
	Name string `validate:"required"`
}

func validateCounty(entry portal.Entry) (*countyFields, error) {
	f := countyFields{Name: normalizeName(cast.ToString(entry["county"]))}
	if err := structValidate.Struct(&f); err != nil {
		return nil, &ValidationError{Kind: KindCounty, Err: err}
	}
	return &f, nil
}

type districtFields struct {
	Name string `validate:"required"`
}

func validateDistrict(entry portal.Entry) (*districtFields, error) {
	f := districtFields{Name: normalizeName(cast.ToString(entry["district"]))}
	if err := structValidate.Struct(&f); err != nil {
		return nil, &ValidationError{Kind: KindDistrict, Err: err}
	}
	return &f, nil
}

type schoolFields struct {
	Code   string `validate:"required"`
	Name   string `validate:"required"`
	Public bool
}

// validateSchool checks the school-identifying fields of an entry. The public
// flag is required and cannot carry a `required` tag (false is a legal
// value), so its presence is checked by hand.
func validateSchool(entry portal.Entry) (*schoolFields, error) {
	raw, ok := entry["public"]
	if !ok {
		return nil, &ValidationError{Kind: KindSchool, Err: fmt.Errorf("missing public flag")}
	}
	public, err := parsePublic(raw)
	if err != nil {
		return nil, &ValidationError{Kind: KindSchool, Err: err}
	}

	f := schoolFields{
		Code:   strings.TrimSpace(cast.ToString(entry["school_code"])),
		Name:   normalizeName(cast.ToString(entry["school_name"])),
		Public: public,
	}
	if err := structValidate.Struct(&f); err != nil {
		return nil, &ValidationError{Kind: KindSchool, Err: err}
	}
	return &f, nil
}

type recordFields struct {
	Reported bool
	Metrics  model.Metrics
}

// validateRecord parses the reported flag and every metric present in the
// entry. A missing reported flag means the school did not report this cycle.
func validateRecord(entry portal.Entry) (*recordFields, error) {
	var f recordFields

	if raw, ok := entry["reported"]; ok {
		reported, err := cast.ToBoolE(raw)
		if err != nil {
			return nil, &ValidationError{Kind: KindRecord, Err: fmt.Errorf("reported: %w", err)}
		}
		f.Reported = reported
	}

	for _, name := range model.MetricFields {
		raw, ok := entry[name]
		if !ok {
			continue
		}
		v, err := cast.ToFloat64E(raw)
		if err != nil {
			return nil, &ValidationError{Kind: KindRecord, Err: fmt.Errorf("%s: %w", name, err)}
		}
		f.Metrics.Set(name, v)
	}
	return &f, nil
}

// parsePublic interprets the ownership flag, which upstream publishes either
// as an ownership label or as a boolean.
func parsePublic(raw any) (bool, error) {
	if s, ok := raw.(string); ok {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "public":
			return true, nil
		case "private":
			return false, nil
		}
	}
	b, err := cast.ToBoolE(raw)
	if err != nil {
		return false, fmt.Errorf("public: %w", err)
	}
	return b, nil
}
