// Package pricing resolves per-line-item depreciation and
// material/labor/equipment splits for the estimate.
package pricing
