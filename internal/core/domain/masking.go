package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// MaskType is a column masking strategy applied to result rows. The zero
// value means no mask.
type MaskType string

const (
	MaskRedact MaskType = "redact"
	MaskHash   MaskType = "hash"
	MaskNull   MaskType = "null"
)

// Valid reports whether the mask type is recognized ("" counts as no mask).
func (m MaskType) Valid() bool {
	switch m {
	case MaskRedact, MaskHash, MaskNull, "":
		return true
	}
	return false
}

// applyMask transforms one cell. Hash keeps values joinable across rows
// without revealing them; the digest is truncated because the full 64 hex
// characters add nothing for that purpose.
func applyMask(value any, mask MaskType) any {
	if value == nil {
		return nil
	}
	switch mask {
	case MaskRedact:
		return "***"
	case MaskHash:
		sum := sha256.Sum256([]byte(fmt.Sprintf("%v", value)))
		return hex.EncodeToString(sum[:8])
	case MaskNull:
		return nil
	default:
		return value
	}
}

// MaskRows applies column masks to result rows in place. Matching is by
// column name only.
func MaskRows(rows []map[string]any, masks map[string]MaskType) {
	if len(masks) == 0 {
		return
	}
	for _, row := range rows {
		for col, mask := range masks {
			if v, ok := row[col]; ok {
				row[col] = applyMask(v, mask)
			}
		}
	}
}
