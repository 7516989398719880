package enrich

import "fmt"

// MismatchError reports a translator response whose length differs from the
// request.
type MismatchError struct {
	Want int
	Got  int
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("translator returned %d results for %d texts", e.Got, e.Want)
}
