// Package civiclens aggregates public civic datasets into dashboard analytics.
//
// Usage:
//
//	import (
//	    "github.com/spektr-org/civiclens/engine"
//	    "github.com/spektr-org/civiclens/source"
//	)
//
//	loader := source.NewLoader(provider, source.WithFallback(source.SyntheticProvider{Seed: 1}))
//	ds, err := loader.Get(ctx)
//	result := engine.Execute(ds, spec, engine.WithInsightLimit(8))
//
// The engine takes a FilterSpec and the four record sets (vehicle
// registrations, disease outbreaks, population, air quality) and returns
// filtered records, chart-ready analytics, insight cards and a data summary.
// It never performs I/O. Loading lives in the source package, the HTTP
// surface in server and the command line in cmd/civiclens.
package civiclens
