// Package domain models GSSHA model text files as they move through the
// conversion pipeline.
//
// # Data Source
//
// GSSHA (Gridded Surface Subsurface Hydrologic Analysis) models are
// distributed as a project of fixed-grammar text files. The pipeline watches
// a drop directory for these files, parses them with the codecs under
// internal/gssha, and publishes the normalized result to a Kafka topic for
// downstream storage and visualization services.
//
// # File Kinds
//
// Kinds are detected from the file extension:
//
//	.cif            channel input file (stream network)
//	.cmt            mapping table file (distributed parameters)
//	.gag            precipitation file (gage events)
//	.spn            storm pipe network file
//	.dep .swe .wms  WMS gridded dataset (time-stepped cell grids)
//
// Gridded datasets are not self-describing; the grid column count comes from
// a grid definition sidecar supplied by configuration.
//
// # ID Generation
//
// Document IDs are deterministic SHA-256 hashes of kind|path|content. This
// enables idempotent upserts downstream (ON CONFLICT DO NOTHING) and replay
// safety without distributed coordination: re-converting an unchanged file
// produces the same ID. See [generateID].
package domain
