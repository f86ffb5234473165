package order

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestShortCode_Deterministic(t *testing.T) {
	id := uuid.New()
	require.Equal(t, ShortCode(id), ShortCode(id))
}

func TestShortCode_NumericFixedLength(t *testing.T) {
	for i := 0; i < 50; i++ {
		code := ShortCode(uuid.New())
		require.Len(t, code, 10)
		for _, r := range code {
			require.True(t, r >= '0' && r <= '9', "short code %q must be purely numeric", code)
		}
	}
}

func TestShortCode_KnownValue(t *testing.T) {
	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	// first 12 hex digits: 6ba7b8109dad -> 118368091807149 % 1e10
	require.Equal(t, "8091807149", ShortCode(id))
}
