// Package catalogxml turns vendor catalog dumps into typed records.
//
// A dump is a flat CATALOG > ITEM > field document. Parser walks it as a
// tag-scoped state machine and yields one RawItem per ITEM element. Build
// applies a per-kind Schema to a RawItem and returns a domain.Record, or a
// RejectReason when the item belongs to another kind. CountItems pre-scans a
// dump for the progress denominator.
//
// Text fields go through RepairEntities, which decodes the two-digit numeric
// character references the vendor export leaves double-escaped.
package catalogxml
