// Package types contains the log data model shared by the stream, ingest,
// view and query packages.
//
// A LogEntry is decoded from one JSON object. The well-known fields (id,
// creation time, trace id, level, message) are lifted onto the struct and
// every other field is folded into Raw, so nothing the producer sent is lost:
//
//	{"ts":"2025-01-02T03:04:05Z","level":"warn","message":"disk","host":"a1"}
//
// decodes to CreatedAt=2025-01-02T03:04:05Z, Level="warn", Message="disk",
// Raw={"host":"a1"}.
package types
