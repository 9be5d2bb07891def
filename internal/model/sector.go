package model

// SectorKind names a geographic grouping that owns schools and can be
// aggregated over.
type SectorKind string

const (
	SectorCity     SectorKind = "city"
	SectorCounty   SectorKind = "county"
	SectorDistrict SectorKind = "district"
)

// SectorKinds lists every aggregable sector kind in summary-cache order.
var SectorKinds = []SectorKind{SectorCity, SectorCounty, SectorDistrict}

// Sector is one geographic aggregation unit (a city, county, or district row).
type Sector struct {
	Kind SectorKind `json:"kind"`
	ID   int64      `json:"id"`
	Name string     `json:"name"`
}

// City is a municipal sector. Deduplicated on its full validated field set,
// which is the name.
type City struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// County is a county sector, resolved independently of City.
type County struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// District is an optional school-district sector. A school without district
// information simply carries no district reference.
type District struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
