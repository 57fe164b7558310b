package utils

import (
	"fmt"
	"hash/fnv"
)

// Fingerprint is the short content hash recorded in run summaries.
func Fingerprint(data []byte) string {
	h := fnv.New64a()
	_, _ = h.Write(data)
	return fmt.Sprintf("%016x", h.Sum64())
}
