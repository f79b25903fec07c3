// Package settings caches per-user UI preferences and syncs them with the
// master's settings table.
//
// Each setting lives under a storage path and is described by a Type:
// Object for JSON objects written field by field, Scalar for values
// written whole. Decoding returns an explicit error; Get turns that error
// into a nil value so a corrupt or stale setting reads as "use the
// default".
//
// # Writes
//
// Set, SetPartial, Update and Remove change the local state first and then
// send remote writes in the background:
//
//   - structured types send one cell per field: (path, field, json)
//   - scalar types send one cell: (path, "_ROOT", json)
//   - Remove sends (path, "_ROOT", "null")
//
// Failed remote writes are logged and reported as a warning. The local
// value is kept; the next poll is what brings the two sides back together.
// Writes made before the first load go to the master only.
//
// # Polling
//
// Poll fetches every cell and folds it into the current state with Merge.
// Merge is pure so the reconciliation rules can be tested without a
// network. Local writes and poll results are not ordered against each
// other: whichever lands last wins.
package settings
