// Package types defines the keepsake domain entities, the storage and
// resolver interfaces the core consumes, and the standard errors shared
// by every layer.
//
// Store-assigned ids (the ID fields) are local to one database. Only the
// natural keys (SourceID, ExternalID, Username, Name) are portable between
// installations and are the keys used to re-link records after a restore.
package types
