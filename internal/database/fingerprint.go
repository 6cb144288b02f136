package database

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// Fingerprint returns the hex BLAKE2b-256 digest of a rendered grid. Two
// runs with the same fingerprint produced the same maze.
func Fingerprint(grid string) string {
	sum := blake2b.Sum256([]byte(grid))
	return hex.EncodeToString(sum[:])
}
