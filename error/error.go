package error

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
)

// SpecErrors is a list of diagnostics found in one grammar. The compiler reports all independent
// errors at once instead of stopping at the first one.
type SpecErrors []*SpecError

func (e SpecErrors) Error() string {
	if len(e) == 0 {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%v", e[0])
	for _, err := range e[1:] {
		fmt.Fprintf(&b, "\n%v", err)
	}

	return b.String()
}

// Sort orders the errors by their positions. Errors without a position come first.
func (e SpecErrors) Sort() {
	sort.SliceStable(e, func(i, j int) bool {
		if e[i].Row != e[j].Row {
			return e[i].Row < e[j].Row
		}
		return e[i].Col < e[j].Col
	})
}

// Quote copies the line each error points at out of src, so the message keeps it after the source is gone.
func (e SpecErrors) Quote(src []byte) {
	lines := bytes.Split(src, []byte("\n"))
	for _, err := range e {
		if err.Row <= 0 || err.Row > len(lines) {
			continue
		}
		err.SourceLine = strings.TrimRight(string(lines[err.Row-1]), "\r")
	}
}

type SpecError struct {
	Cause      error
	Detail     string
	SourceName string
	SourceLine string
	Row        int
	Col        int
}

func (e *SpecError) Error() string {
	var b strings.Builder
	if e.SourceName != "" {
		fmt.Fprintf(&b, "%v: ", e.SourceName)
	}
	if e.Row != 0 && e.Col != 0 {
		fmt.Fprintf(&b, "%v:%v: ", e.Row, e.Col)
	}
	fmt.Fprintf(&b, "error: %v", e.Cause)
	if e.Detail != "" {
		fmt.Fprintf(&b, ": %v", e.Detail)
	}

	if e.SourceLine != "" {
		fmt.Fprintf(&b, "\n    %v", e.SourceLine)
	}

	return b.String()
}

func (e *SpecError) Unwrap() error {
	return e.Cause
}
