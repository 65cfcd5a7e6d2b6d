// Package driving provides interfaces for primary/inbound ports.
// The CLI and any other serving surface drive the pipeline through
// these interfaces.
package driving
