package engine

import "fmt"

// InvalidWordError reports a word that cannot start a round.
type InvalidWordError struct {
	Word   string
	Reason string
}

func (e *InvalidWordError) Error() string {
	return fmt.Sprintf("invalid word %q: %s", e.Word, e.Reason)
}
