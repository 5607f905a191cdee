package core

import "github.com/google/uuid"

// IdentifierNew returns a unique ID for a GPU resource object. IDs show up
// in logs and in pipeline cache keys, so they must never repeat within a
// process.
func IdentifierNew() string {
	return uuid.New().String()
}
