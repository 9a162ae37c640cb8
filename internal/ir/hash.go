package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DomainSnapshot prefixes table snapshot hashes. The version suffix allows the
// encoding to change without colliding with older hashes.
const DomainSnapshot = "drillstore/snapshot/v1"

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// SnapshotHash hashes the canonical encoding of a table's rows.
// Rows must already be in a deterministic order (the store reads by id).
func SnapshotHash(table string, rows []Row) (string, error) {
	elems := make([]any, len(rows))
	for i, r := range rows {
		elems[i] = r
	}
	data, err := MarshalCanonical(map[string]any{
		"table": table,
		"rows":  elems,
	})
	if err != nil {
		return "", fmt.Errorf("SnapshotHash %s: %w", table, err)
	}
	return hashWithDomain(DomainSnapshot, data), nil
}
