// Package core provides the business logic for card inventory imports and queries.
//
// This package is the heart of the inventory service, containing all domain logic
// independent of any UI or transport layer. It can be used by web handlers,
// the CLI, or tests without modification.
//
// # Architecture
//
// The package is organized around two pipelines:
//
//   - Import: CSV rows with arbitrary headers are reconciled against the
//     fixed canonical schema ([CanonicalFields]) by [MatchHeaders] and
//     [Canonicalize], reviewed in a staging [Session], and committed through
//     [Service.CommitSession].
//   - Query: persisted [Item] records are searched, sorted and paged with the
//     rules in [NormalizeQuery]. [Query] is the in-memory engine; SQL stores
//     push the same rules down into their queries.
//
// Operator-side state lives in explicit objects: [EditManager] for inline
// edits and two-step deletes, [QueryController] for debounced search and
// revalidation. Both talk to an [InventoryClient], which [Service] and the
// HTTP client both implement.
//
// # Header Matching
//
// Headers are compared by their normalized form ([NormalizeHeader]). For each
// canonical field the candidates are the field name followed by its synonyms,
// and the first candidate present in the file wins:
//
//	hm := core.MatchHeaders([]string{"Qty", "Card Name", "TCG ID"}, core.DefaultSynonyms())
//	src, _ := hm.Source(core.FieldQuantity) // "Qty"
//
// The match is computed once per session from the first row and reused for
// every row.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - INV001-INV004: Inventory errors (missing items, confirmations, invalid edits)
//   - IMP001-IMP004: Import errors (sessions, busy, empty imports)
//   - FILE001-FILE005: File errors (size, encoding, format)
//   - NET001-NET003: Transport errors (unreachable server, cancellation, timeouts)
package core
