package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGeneratePrefixes(t *testing.T) {
	g := NewReferenceGenerator()

	require.True(t, strings.HasPrefix(g.GenerateDepositRef(), "DEP-"))
	require.True(t, strings.HasPrefix(g.GenerateWithdrawalRef(), "WDR-"))
	require.True(t, strings.HasPrefix(g.GenerateClaimRef(), "CLM-"))
	require.True(t, strings.HasPrefix(g.GenerateAuditID(), "AUD-"))
}

func TestGenerateUnique(t *testing.T) {
	g := NewReferenceGenerator()
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		ref := g.GenerateDepositRef()
		require.False(t, seen[ref], "duplicate reference %s", ref)
		seen[ref] = true
	}
}

func TestValidateReference(t *testing.T) {
	g := NewReferenceGenerator()
	require.True(t, ValidateReference(g.GenerateDepositRef()))
	require.True(t, ValidateReference(g.GenerateClaimRef()))

	require.False(t, ValidateReference(""))
	require.False(t, ValidateReference("DEP"))
	require.False(t, ValidateReference("DEP-short"))
	require.False(t, ValidateReference("D-01ARZ3NDEKTSV4RRFFQ69G5FAV"))
}
