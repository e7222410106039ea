// Package models defines the data model for the festive playlist service.
//
// Domain aggregates ([UserMusicProfile], [PlaylistNarrative]) are constructed
// fresh per request, never mutated after construction, and never persisted.
// The only persistent entity is [Credential], which implements [Model] for the
// SQLite-backed credential store.
package models
