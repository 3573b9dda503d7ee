/*
Package observability turns search lifecycle events into Prometheus metrics.

The engine only knows about domain.SearchHooks; Metrics.Hooks adapts them so the
runtime stays metrics-agnostic and callers decide which registry to export.
*/
package observability
