// Package navdata defines the records exchanged with the data collaborator
// that serves photo metadata, and the Provider interface the graph consumes.
//
// The JSON field names follow the upstream tile API: short keys for the
// positional fields, snake_case for the rest.
package navdata
