package analysis

import (
	"crypto/sha256"
	"fmt"
)

// Fingerprint returns the lowercase hex SHA-256 of the raw upload. It is
// both the dedup key and the job_id clients poll with.
func Fingerprint(content []byte) string {
	hash := sha256.Sum256(content)
	return fmt.Sprintf("%x", hash)
}
