package confirm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string {
	return &s
}

func TestRequireExactPhrase(t *testing.T) {
	t.Parallel()

	err := Require(OperationDeleteSet, strPtr("DELETE SET"))
	require.NoError(t, err)
}

func TestRequireRejectsVariants(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		supplied *string
	}{
		{"nil", nil},
		{"empty string", strPtr("")},
		{"lowercase", strPtr("delete set")},
		{"mixed case", strPtr("Delete Set")},
		{"leading whitespace", strPtr(" DELETE SET")},
		{"trailing whitespace", strPtr("DELETE SET ")},
		{"wrong phrase", strPtr("ARCHIVE WITH CARDS")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := Require(OperationDeleteSet, tt.supplied)
			assert.Error(t, err)
		})
	}
}

func TestPhrases(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "MIGRATE WITH CONFLICTS", Phrase(OperationMigrateWithConflicts))
	assert.Equal(t, "ARCHIVE WITH CARDS", Phrase(OperationArchiveWithCards))
	assert.Equal(t, "DELETE SET", Phrase(OperationDeleteSet))
	assert.Equal(t, "PROMOTE TO CANONICAL", Phrase(OperationPromoteToCanonical))
}

func TestRequireUnknownOperation(t *testing.T) {
	t.Parallel()

	err := Require(Operation("drop_everything"), strPtr("DROP EVERYTHING"))
	assert.Error(t, err)
}
