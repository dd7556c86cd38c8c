package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/rescale/rescale-browse/internal/events"
	"github.com/rescale/rescale-browse/internal/models"
	"github.com/rescale/rescale-browse/internal/progress"
)

// writeTable prints items as aligned columns in the order given.
func writeTable(w io.Writer, items []models.FileItem) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TYPE\tNAME\tSIZE\tMODIFIED")

	for _, item := range items {
		kind, size := "file", progress.FormatBytes(item.Size)
		if item.IsFolder {
			kind, size = "dir", "-"
		}
		name := item.Path
		if name == "" {
			name = item.Name
		}
		modified := "-"
		if !item.ModTime.IsZero() {
			modified = item.ModTime.UTC().Format("2006-01-02 15:04")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", kind, name, size, modified)
	}

	return tw.Flush()
}

// formatEvent renders a notification as one log line for --events.
func formatEvent(ev events.Event) string {
	switch e := ev.(type) {
	case *events.CollectionChangedEvent:
		s := fmt.Sprintf("#%d %s %s index=%d count=%d", e.Seq, e.Source, e.Action, e.Index, e.Count)
		if e.Final {
			s += " final"
		}
		return s
	case *events.CountChangedEvent:
		s := fmt.Sprintf("#%d %s count=%d", e.Seq, e.Source, e.Count)
		if e.Final {
			s += " final"
		}
		return s
	case *events.PropertyChangedEvent:
		return fmt.Sprintf("#%d %s property=%s", e.Seq, e.Source, e.Property)
	case *events.IngestEvent:
		s := fmt.Sprintf("%s %s run=%s added=%d", e.Type(), e.Source, e.RunID, e.Added)
		if e.Cancelled {
			s += " cancelled"
		}
		if e.Err != nil {
			s += " error=" + e.Err.Error()
		}
		return s
	default:
		return string(ev.Type())
	}
}
