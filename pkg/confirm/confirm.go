// Package confirm holds the typed confirmation phrases that gate destructive
// admin operations. The phrases are a deliberate friction device: the admin
// has to type them exactly, so comparison is strict string equality with no
// trimming and no case folding.
package confirm

import (
	"fmt"

	"github.com/cardbinder/cardbinder/pkg/errcodes"
)

// Operation identifies a destructive admin action that requires a typed
// confirmation phrase.
type Operation string

const (
	OperationMigrateWithConflicts Operation = "migrate_with_conflicts"
	OperationArchiveWithCards     Operation = "archive_with_cards"
	OperationDeleteSet            Operation = "delete_set"
	OperationPromoteToCanonical   Operation = "promote_to_canonical"
)

var phrases = map[Operation]string{
	OperationMigrateWithConflicts: "MIGRATE WITH CONFLICTS",
	OperationArchiveWithCards:     "ARCHIVE WITH CARDS",
	OperationDeleteSet:            "DELETE SET",
	OperationPromoteToCanonical:   "PROMOTE TO CANONICAL",
}

// Phrase returns the exact phrase required to confirm the given operation.
func Phrase(op Operation) string {
	return phrases[op]
}

// Require compares the supplied confirmation against the operation's required
// phrase. A nil confirmation is treated as the empty string. Any difference,
// including case or whitespace, is a validation error.
func Require(op Operation, supplied *string) error {
	phrase, ok := phrases[op]
	if !ok {
		return errcodes.ValidationError(fmt.Sprintf("Unknown confirmation operation %q.", string(op)))
	}

	value := ""
	if supplied != nil {
		value = *supplied
	}

	if value != phrase {
		return errcodes.ValidationError(fmt.Sprintf("This action requires the exact confirmation phrase %q.", phrase))
	}

	return nil
}
