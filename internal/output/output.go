// Package output switches command results between human-readable text
// and the --json machine format.
package output

import (
	"encoding/json"
	"fmt"
	"os"
)

// JSONMode is set by the root --json flag.
var JSONMode bool

// envelope is the wrapper every JSON-mode result ships in.
type envelope struct {
	OK    bool   `json:"ok"`
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

// Print emits data as a JSON envelope in JSON mode, otherwise runs the
// command's own text renderer.
func Print(data any, textFn func()) {
	if !JSONMode {
		textFn()
		return
	}
	out, err := json.MarshalIndent(envelope{OK: true, Data: data}, "", "  ")
	if err != nil {
		PrintError(err)
		return
	}
	fmt.Println(string(out))
}

// PrintError reports a command failure on the active format and exits
// non-zero.
func PrintError(err error) {
	if JSONMode {
		out, _ := json.MarshalIndent(envelope{Error: err.Error()}, "", "  ")
		fmt.Println(string(out))
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
