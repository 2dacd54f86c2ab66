package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"golang.org/x/term"
)

const (
	outputAuto  = "auto"
	outputTable = "table"
	outputJSON  = "json"
)

// tableOutput reports whether w should get a table rather than JSON. auto
// picks a table only for terminals.
func tableOutput(w io.Writer, format string) (bool, error) {
	switch format {
	case outputTable:
		return true, nil
	case outputJSON:
		return false, nil
	case outputAuto, "":
		f, ok := w.(*os.File)
		return ok && term.IsTerminal(int(f.Fd())), nil
	default:
		return false, fmt.Errorf("unknown output format %q", format)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}
