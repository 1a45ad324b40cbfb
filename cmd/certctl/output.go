package main

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/certportal/certportal/internal/bulk"
)

// render writes v in the requested format. text falls back to textFn.
func render(w io.Writer, format string, v interface{}, textFn func(io.Writer)) error {
	switch format {
	case "", "text":
		textFn(w)
		return nil
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q (want text, json or yaml)", format)
	}
}

func printReport(w io.Writer, rep *bulk.Report) {
	fmt.Fprintf(w, "%d total, %d succeeded, %d failed\n", rep.Total, rep.Succeeded, rep.Failed)
	for _, f := range rep.Failures {
		fmt.Fprintf(w, "  FAIL %s: %s\n", f.Item, f.Reason)
	}
	for _, path := range rep.Files {
		fmt.Fprintf(w, "  saved %s\n", path)
	}
}
