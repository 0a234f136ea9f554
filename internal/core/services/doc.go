// Package services implements the driving port interfaces.
// Services hold the ingestion, retrieval and synthesis logic and
// orchestrate calls to driven ports (adapters).
//
// Services are pure Go with no CGO.
package services
