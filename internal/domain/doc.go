// Package domain defines the core business types for the chat gateway.
//
// Types in this package are pure value objects with no behavior, no network
// dependencies, and no HTTP concerns. They are the shared language between
// handlers, the session controller, and the dispatch engine.
//
// Rules for this package:
//   - No imports from other internal/ packages
//   - No live client handles, no http.Request, no context.Context in struct fields
//   - JSON tags are allowed (they're metadata, not behavior)
//   - Validation methods are allowed (they're pure functions on the type)
//   - Constants and enums belong here
package domain
