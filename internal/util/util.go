package util

import (
	"fmt"
	"runtime"
	"strings"
)

// GetTrace renders the stack of its caller's caller, skipping runtime frames
func GetTrace() string {
	pcs := make([]uintptr, 32)
	n := runtime.Callers(3, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	var res strings.Builder
	for {
		frame, more := frames.Next()
		if !strings.HasPrefix(frame.Function, "runtime.") {
			fmt.Fprintf(&res, "%s\n\t%s:%d\n", frame.Function, frame.File, frame.Line)
		}
		if !more {
			break
		}
	}
	return res.String()
}

// FormatMultiError renders the errors of a multierror one per line, for go-multierror's ErrorFormat
func FormatMultiError(merrs []error) string {
	var res strings.Builder
	for _, err := range merrs {
		fmt.Fprintf(&res, "%+v\n", err)
	}
	return res.String()
}
