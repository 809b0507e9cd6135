package util

import (
	"fmt"
)

// SafeOperation runs the user-supplied part of an operator such that panics are recovered and nice
// error messages are constructed. Errors returned by fn are passed through unmodified.
func SafeOperation(operator fmt.Stringer, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if anErr, ok := r.(error); ok {
				err = fmt.Errorf("Operator Panic in %s: %w\n%s", operator, anErr, GetTrace())
			} else {
				err = fmt.Errorf("Operator Panic in %s: %v\n%s", operator, r, GetTrace())
			}
		}
	}()
	err = fn()
	return
}
