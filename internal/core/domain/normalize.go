package domain

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"time"
)

// NormalizeValue converts one driver-returned cell into the uniform
// representation carried by ExecutionResult rows: timestamps become RFC 3339
// strings, raw bytes become hex, NULL stays nil, and everything else passes
// through. Keeping this in one place decouples value conversion from the
// transport code that produced the row.
func NormalizeValue(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case time.Time:
		return t.UTC().Format(time.RFC3339)
	case *time.Time:
		if t == nil {
			return nil
		}
		return t.UTC().Format(time.RFC3339)
	case []byte:
		return "0x" + hex.EncodeToString(t)
	case [16]byte: // uuid wire format
		return fmt.Sprintf("%x-%x-%x-%x-%x", t[0:4], t[4:6], t[6:8], t[8:10], t[10:16])
	case *big.Int:
		if t == nil {
			return nil
		}
		return t.String()
	default:
		return v
	}
}

// NormalizeRow applies NormalizeValue to every cell in place.
func NormalizeRow(row map[string]any) map[string]any {
	for k, v := range row {
		row[k] = NormalizeValue(v)
	}
	return row
}
