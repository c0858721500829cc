package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskRows(t *testing.T) {
	t.Parallel()

	rows := []map[string]any{
		{"id": 1, "email": "a@example.com", "ssn": "123-45-6789", "phone": "555-0100"},
		{"id": 2, "email": nil, "ssn": "987-65-4321", "phone": "555-0101"},
	}
	masks := map[string]MaskType{
		"email": MaskHash,
		"ssn":   MaskRedact,
		"phone": MaskNull,
	}

	MaskRows(rows, masks)

	assert.Equal(t, 1, rows[0]["id"])
	assert.Equal(t, "***", rows[0]["ssn"])
	assert.Nil(t, rows[0]["phone"])

	hashed, ok := rows[0]["email"].(string)
	assert.True(t, ok)
	assert.Len(t, hashed, 16) // truncated sha256, hex encoded
	assert.NotEqual(t, "a@example.com", hashed)

	// NULL cells stay NULL regardless of mask.
	assert.Nil(t, rows[1]["email"])
}

func TestMaskRows_SameInputSameHash(t *testing.T) {
	t.Parallel()

	a := []map[string]any{{"email": "a@example.com"}}
	b := []map[string]any{{"email": "a@example.com"}}
	masks := map[string]MaskType{"email": MaskHash}

	MaskRows(a, masks)
	MaskRows(b, masks)
	assert.Equal(t, a[0]["email"], b[0]["email"])
}

func TestMaskRows_NoMasksIsNoop(t *testing.T) {
	t.Parallel()

	rows := []map[string]any{{"email": "a@example.com"}}
	MaskRows(rows, nil)
	assert.Equal(t, "a@example.com", rows[0]["email"])
}

func TestMaskType_Valid(t *testing.T) {
	t.Parallel()

	assert.True(t, MaskRedact.Valid())
	assert.True(t, MaskHash.Valid())
	assert.True(t, MaskNull.Valid())
	assert.True(t, MaskType("").Valid())
	assert.False(t, MaskType("rot13").Valid())
}
