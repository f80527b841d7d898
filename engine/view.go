package engine

import "strconv"

// ============================================================================
// RECORD VIEW — Zero-Copy Data Access Interface
// ============================================================================
// Aggregations read records through this interface so one grouping and
// measure implementation serves all four record kinds.
//
// Implementations:
//   DomainView[T]  reads typed structs via accessor functions (zero-copy)
//   SubView        grouped subset (indices into parent, zero-copy)
//
// The four record kinds register their accessors once below.
// ============================================================================

// RecordView provides indexed access to a dataset.
// The engine calls Dimension/Measure in tight loops; keep implementations fast.
type RecordView interface {
	Len() int
	Dimension(index int, key string) string
	Measure(index int, key string) float64
	DimensionKeys() []string
	MeasureKeys() []string
}

// Dimension keys.
const (
	DimState        = "state"
	DimDistrict     = "district"
	DimArea         = "area"
	DimVehicleClass = "vehicle_class"
	DimFuel         = "fuel"
	DimYear         = "year"
	DimMonth        = "month"
	DimPeriod       = "period" // "2006-01"
	DimDisease      = "disease"
	DimStatus       = "status"
	DimGender       = "gender"
	DimPollutants   = "pollutants"
)

// Measure keys.
const (
	MeasureCount    = "count"
	MeasureCases    = "cases"
	MeasureDeaths   = "deaths"
	MeasureAQI      = "aqi"
	MeasureStations = "stations"
	MeasureRecords  = "record_count"
)

// ============================================================================
// RECORD KIND ADAPTERS
// ============================================================================

var vehicleAdapter = NewDomainAdapter[VehicleRecord]().
	Dimension(DimState, func(r VehicleRecord) string { return r.State }).
	Dimension(DimDistrict, func(r VehicleRecord) string { return r.District }).
	Dimension(DimVehicleClass, func(r VehicleRecord) string { return r.VehicleClass }).
	Dimension(DimFuel, func(r VehicleRecord) string { return r.FuelType }).
	Dimension(DimYear, func(r VehicleRecord) string { return strconv.Itoa(r.Year) }).
	Dimension(DimMonth, func(r VehicleRecord) string { return strconv.Itoa(r.Month) }).
	Dimension(DimPeriod, func(r VehicleRecord) string { return periodKey(r.Year, r.Month) }).
	Measure(MeasureCount, func(r VehicleRecord) float64 { return r.Count }).
	Measure(MeasureRecords, func(VehicleRecord) float64 { return 1 })

var outbreakAdapter = NewDomainAdapter[OutbreakRecord]().
	Dimension(DimState, func(r OutbreakRecord) string { return r.State }).
	Dimension(DimDistrict, func(r OutbreakRecord) string { return r.District }).
	Dimension(DimDisease, func(r OutbreakRecord) string { return r.Disease }).
	Dimension(DimStatus, func(r OutbreakRecord) string { return r.Status }).
	Measure(MeasureCases, func(r OutbreakRecord) float64 { return float64(r.Cases) }).
	Measure(MeasureDeaths, func(r OutbreakRecord) float64 { return float64(r.Deaths) }).
	Measure(MeasureRecords, func(OutbreakRecord) float64 { return 1 })

var populationAdapter = NewDomainAdapter[PopulationRecord]().
	Dimension(DimState, func(r PopulationRecord) string { return r.State }).
	Dimension(DimDistrict, func(r PopulationRecord) string { return r.District }).
	Dimension(DimGender, func(r PopulationRecord) string { return r.Gender }).
	Dimension(DimYear, func(r PopulationRecord) string { return strconv.Itoa(r.Year) }).
	Measure(MeasureCount, func(r PopulationRecord) float64 { return r.Count }).
	Measure(MeasureRecords, func(PopulationRecord) float64 { return 1 })

var airQualityAdapter = NewDomainAdapter[AirQualityRecord]().
	Dimension(DimState, func(r AirQualityRecord) string { return r.State }).
	Dimension(DimArea, func(r AirQualityRecord) string { return r.Area }).
	Dimension(DimStatus, func(r AirQualityRecord) string { return r.Status }).
	Dimension(DimPollutants, func(r AirQualityRecord) string { return r.Pollutants }).
	Measure(MeasureAQI, func(r AirQualityRecord) float64 { return r.AQI }).
	Measure(MeasureStations, func(r AirQualityRecord) float64 { return float64(r.StationCount) }).
	Measure(MeasureRecords, func(AirQualityRecord) float64 { return 1 })

// VehicleView binds vehicle records to a RecordView.
func VehicleView(records []VehicleRecord) RecordView { return vehicleAdapter.Bind(records) }

// OutbreakView binds outbreak records to a RecordView.
func OutbreakView(records []OutbreakRecord) RecordView { return outbreakAdapter.Bind(records) }

// PopulationView binds population records to a RecordView.
func PopulationView(records []PopulationRecord) RecordView {
	return populationAdapter.Bind(records)
}

// AirQualityView binds AQI records to a RecordView.
func AirQualityView(records []AirQualityRecord) RecordView {
	return airQualityAdapter.Bind(records)
}

func periodKey(year, month int) string {
	m := strconv.Itoa(month)
	if month < 10 {
		m = "0" + m
	}
	return strconv.Itoa(year) + "-" + m
}

// ============================================================================
// SUB VIEW — grouped subset (zero-copy)
// ============================================================================

// SubView is a subset of a parent RecordView.
// Holds indices into the parent, no data copy.
type SubView struct {
	parent  RecordView
	indices []int
}

func newSubView(parent RecordView, indices []int) RecordView {
	return &SubView{parent: parent, indices: indices}
}

func (v *SubView) Len() int { return len(v.indices) }

func (v *SubView) Dimension(i int, key string) string {
	if i < 0 || i >= len(v.indices) {
		return ""
	}
	return v.parent.Dimension(v.indices[i], key)
}

func (v *SubView) Measure(i int, key string) float64 {
	if i < 0 || i >= len(v.indices) {
		return 0
	}
	return v.parent.Measure(v.indices[i], key)
}

func (v *SubView) DimensionKeys() []string { return v.parent.DimensionKeys() }
func (v *SubView) MeasureKeys() []string   { return v.parent.MeasureKeys() }

// ============================================================================
// DOMAIN ADAPTER — Zero-copy typed struct access
// ============================================================================
//
// Usage:
//
//	adapter := engine.NewDomainAdapter[VehicleRecord]().
//	    Dimension("state", func(r VehicleRecord) string { return r.State }).
//	    Measure("count", func(r VehicleRecord) float64 { return r.Count })
//
//	view := adapter.Bind(records)
//
// ============================================================================

// DomainAdapter builds a RecordView from typed structs.
// Declare once, bind many times.
type DomainAdapter[T any] struct {
	dimOrder []string
	mesOrder []string
	dims     map[string]func(T) string
	meas     map[string]func(T) float64
}

// NewDomainAdapter creates a new adapter for type T.
func NewDomainAdapter[T any]() *DomainAdapter[T] {
	return &DomainAdapter[T]{
		dims: make(map[string]func(T) string),
		meas: make(map[string]func(T) float64),
	}
}

// Dimension registers a dimension accessor.
func (a *DomainAdapter[T]) Dimension(key string, fn func(T) string) *DomainAdapter[T] {
	if _, exists := a.dims[key]; !exists {
		a.dimOrder = append(a.dimOrder, key)
	}
	a.dims[key] = fn
	return a
}

// Measure registers a measure accessor.
func (a *DomainAdapter[T]) Measure(key string, fn func(T) float64) *DomainAdapter[T] {
	if _, exists := a.meas[key]; !exists {
		a.mesOrder = append(a.mesOrder, key)
	}
	a.meas[key] = fn
	return a
}

// Bind creates a RecordView from a data slice. Zero-copy, holds a reference.
func (a *DomainAdapter[T]) Bind(data []T) RecordView {
	return &DomainView[T]{
		data:     data,
		dims:     a.dims,
		meas:     a.meas,
		dimKeys:  a.dimOrder,
		measKeys: a.mesOrder,
	}
}

// DomainView reads typed struct fields via registered accessor functions.
type DomainView[T any] struct {
	data     []T
	dims     map[string]func(T) string
	meas     map[string]func(T) float64
	dimKeys  []string
	measKeys []string
}

func (v *DomainView[T]) Len() int { return len(v.data) }

func (v *DomainView[T]) Dimension(i int, key string) string {
	if i < 0 || i >= len(v.data) {
		return ""
	}
	if fn, ok := v.dims[key]; ok {
		return fn(v.data[i])
	}
	return ""
}

func (v *DomainView[T]) Measure(i int, key string) float64 {
	if i < 0 || i >= len(v.data) {
		return 0
	}
	if fn, ok := v.meas[key]; ok {
		return fn(v.data[i])
	}
	return 0
}

func (v *DomainView[T]) DimensionKeys() []string { return v.dimKeys }
func (v *DomainView[T]) MeasureKeys() []string   { return v.measKeys }
