package model

// MetricFields lists the immunization metrics a record may carry, in the
// column order used by the records table and the summary documents.
var MetricFields = []string{
	"up_to_date", "conditional", "pme", "pbe",
	"dtp", "polio", "mmr", "hib", "hepb", "vari",
}

// School is a single institution. The dedup key is (code, city, county):
// the same code under a different city or county is a distinct school.
type School struct {
	ID         int64  `json:"id"`
	Code       string `json:"code"`
	Name       string `json:"name"`
	Public     bool   `json:"public"`
	CityID     int64  `json:"city_id"`
	CountyID   int64  `json:"county_id"`
	DistrictID *int64 `json:"district_id,omitempty"`
}

// Metrics holds the per-vaccine and aggregate rates for one record. A nil
// field means the dataset release did not report that metric for the school.
type Metrics struct {
	UpToDate    *float64 `json:"up_to_date,omitempty"`
	Conditional *float64 `json:"conditional,omitempty"`
	PME         *float64 `json:"pme,omitempty"`
	PBE         *float64 `json:"pbe,omitempty"`
	DTP         *float64 `json:"dtp,omitempty"`
	Polio       *float64 `json:"polio,omitempty"`
	MMR         *float64 `json:"mmr,omitempty"`
	HIB         *float64 `json:"hib,omitempty"`
	HepB        *float64 `json:"hepb,omitempty"`
	Vari        *float64 `json:"vari,omitempty"`
}

// fields returns pointers to every metric slot in MetricFields order.
func (m *Metrics) fields() []**float64 {
	return []**float64{
		&m.UpToDate, &m.Conditional, &m.PME, &m.PBE,
		&m.DTP, &m.Polio, &m.MMR, &m.HIB, &m.HepB, &m.Vari,
	}
}

// Values returns the metric slots in MetricFields order, for scanning and
// for building insert argument lists.
func (m *Metrics) Values() []*float64 {
	slots := m.fields()
	out := make([]*float64, len(slots))
	for i, s := range slots {
		out[i] = *s
	}
	return out
}

// ScanTargets returns scan destinations for the metric columns in
// MetricFields order.
func (m *Metrics) ScanTargets() []any {
	slots := m.fields()
	out := make([]any, len(slots))
	for i, s := range slots {
		out[i] = s
	}
	return out
}

// Set assigns the named metric. Unknown names are ignored.
func (m *Metrics) Set(name string, v float64) {
	for i, f := range MetricFields {
		if f == name {
			*m.fields()[i] = &v
			return
		}
	}
}

// Get returns the named metric, or nil if absent or unknown.
func (m *Metrics) Get(name string) *float64 {
	for i, f := range MetricFields {
		if f == name {
			return *m.fields()[i]
		}
	}
	return nil
}

// Record is one (dataset, school) observation. Re-sourcing the same dataset
// for the same school overwrites the prior values, never duplicates.
type Record struct {
	ID        int64   `json:"id"`
	DatasetID int64   `json:"dataset_id"`
	SchoolID  int64   `json:"school_id"`
	Reported  bool    `json:"reported"`
	Metrics   Metrics `json:"metrics"`
}

// SectorRecord is the projection of a record used by the summary
// aggregator: the owning school's public flag plus the metric values.
type SectorRecord struct {
	Public  bool
	Metrics Metrics
}
