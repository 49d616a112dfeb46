// Package syntax provides string types for the atproto identifiers this bot handles: DIDs, handles, NSIDs, AT-URIs, and datetimes.
//
// Parse functions validate syntax only; they never perform network resolution.
package syntax
