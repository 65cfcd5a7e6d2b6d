// Package services implements the core pipeline: page classification,
// unit extraction, image summarisation, embedding, dual-index assembly,
// and the per-document orchestrator that drives them in order.
//
// Services depend on domain entities and driven ports only; all
// external calls go through the ports.
package services
