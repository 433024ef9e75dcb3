package model

import "fmt"

// ConfigurationError reports a missing or invalid setting. It is fatal and
// raised before any network call.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s %s", e.Field, e.Reason)
}

// FetchError reports an upstream failure. Symbol is empty for batch-level
// failures, in which case Err usually joins the per-symbol causes.
type FetchError struct {
	Symbol string
	Err    error
}

func (e *FetchError) Error() string {
	if e.Symbol == "" {
		return fmt.Sprintf("fetch failed: %v", e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.Symbol, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// AnalysisError reports a malformed quote that reached the analyzer.
type AnalysisError struct {
	Symbol string
	Reason string
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("analyze %s: %s", e.Symbol, e.Reason)
}
