package dumpfs

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/deploymenttheory/go-fsrip/pkg/app"
)

// FormatOutput writes the dump summary. Records already went to stdout, so
// callers pass a separate writer such as stderr.
func FormatOutput(w io.Writer, response *Response, format string) error {
	switch format {
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(response)
	case "yaml":
		encoder := yaml.NewEncoder(w)
		defer encoder.Close()
		encoder.SetIndent(2)
		return encoder.Encode(response)
	case "table", "":
		return formatTable(w, response)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

func formatTable(out io.Writer, response *Response) error {
	p := app.NumberPrinter()
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	fmt.Fprintf(w, "VOL\tPARTITION\tTYPE\tSECTORS\tENTRIES\n")
	fmt.Fprintf(w, "---\t---------\t----\t-------\t-------\n")
	for _, fs := range response.Filesystems {
		p.Fprintf(w, "%d\t%s\t%s\t%d-%d\t%d\n", fs.VolumeIndex, fs.VolumeName, fs.TypeName, fs.StartSector, fs.EndSector, fs.Entries)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	p.Fprintf(out, "\n%s\n", FormatSummary(response))
	for _, r := range response.Reports {
		fmt.Fprintf(out, "Report: %s\n", r)
	}
	for _, e := range response.ReportErrors {
		fmt.Fprintf(out, "Report failed: %s\n", e)
	}
	return nil
}

// FormatSummary provides a one-line summary for logs
func FormatSummary(response *Response) string {
	p := app.NumberPrinter()
	s := response.Stats
	summary := p.Sprintf("Wrote %d records (%d synthesized) from %d filesystems", s.Entries, s.Synthetic, s.Filesystems)
	if s.Failed > 0 {
		summary += p.Sprintf(", %d entries failed", s.Failed)
	}
	if s.HardLinked > 0 {
		summary += p.Sprintf(", %d hard-linked inodes", s.HardLinked)
	}
	if s.Abandoned > 0 {
		summary += p.Sprintf(", %d filesystems abandoned", s.Abandoned)
	}
	if n := len(response.ReportErrors); n > 0 {
		summary += p.Sprintf(", %d reports failed", n)
	}
	return summary + fmt.Sprintf(" in %v", response.Elapsed)
}
