// Package driven provides interfaces for infrastructure adapters
// (secondary/outbound ports): page normalisation, vision captioning,
// embedding generation, and index persistence.
//
// The core services depend only on these interfaces; concrete adapters
// live under internal/adapters/driven.
package driven
