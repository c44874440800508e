// Package core provides the business logic for master-data CSV imports.
//
// This package has no UI dependencies. Web handlers, the masterctl CLI and
// tests all drive it through [Service] or the lower-level [Pipeline].
//
// # Architecture
//
//   - Schemas: declarative field mappings registered at init time via
//     [Register]. Each [Schema] names its target collection, the column that
//     carries the business code, direct and grouped fields with their
//     coercions, and an optional flag-matrix rule.
//   - Pipeline: parses one file, validates each row, builds a document and
//     merge-upserts it keyed by code, one row at a time in file order.
//   - Service: runs imports in the background bounded by an [ImportLimiter],
//     fans progress out to subscribers and serves list views.
//
// # Schema Registry
//
//	core.Register(&core.Schema{
//	    Key:        "makers",
//	    Collection: "makers",
//	    Code:       core.CodeRule{From: core.Col("名称コード")},
//	    CodeField:  "code",
//	    Fields: []core.Field{
//	        core.Text("name", core.Col("名称")),
//	    },
//	})
//
// # Write Semantics
//
// Every write is an idempotent merge-upsert with an updatedAt timestamp.
// A failed write aborts the run; rows written before it stay committed and
// re-running the same file converges on the same state.
//
// # Error Handling
//
// Technical errors are mapped to user-facing messages using [MapError].
// Each error category has a code for support reference:
//
//   - STORE001-STORE004: document store errors
//   - FILE001-FILE006: file errors (size, encoding, layout)
//   - IMP001-IMP004, ENT001: import run errors (busy, not found, cancelled)
//   - AUTH001-AUTH003: sign-in and session errors
package core
