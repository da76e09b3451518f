package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"

	"github.com/EdenOved/formpilot/internal/workflow"
)

// printSummary writes a short human readable report of res.
func printSummary(w io.Writer, res *workflow.Result) {
	if res == nil {
		return
	}

	switch res.State {
	case workflow.StateSucceeded:
		fmt.Fprintf(w, "%s Submission confirmed (%s)\n", color.GreenString("✓"), res.Outcome.Method)
	case workflow.StateRejected:
		fmt.Fprintf(w, "%s Form data rejected\n", color.RedString("✗"))
	default:
		fmt.Fprintf(w, "%s Run ended in state %s\n", color.RedString("✗"), color.RedString(string(res.State)))
	}

	fmt.Fprintf(w, "  Run ID:   %s\n", res.RunID)
	fmt.Fprintf(w, "  Duration: %s\n", res.Duration().Round(time.Millisecond))
	if res.SubmitAttempts > 0 {
		fmt.Fprintf(w, "  Attempts: %d\n", res.SubmitAttempts)
	}
	if res.Outcome != nil {
		fmt.Fprintf(w, "  Page URL: %s\n", res.Outcome.URL)
		for _, missing := range res.Outcome.MissingFragments {
			fmt.Fprintf(w, "  Missing:  %q\n", missing)
		}
	}
	for _, msg := range res.ValidationMessages {
		fmt.Fprintf(w, "  %s %s\n", color.YellowString("!"), msg)
	}
	if res.Error != "" {
		fmt.Fprintf(w, "  Error:    %s\n", color.RedString(res.Error))
	}
	for _, a := range res.Artifacts {
		fmt.Fprintf(w, "  %-18s %s\n", a.Category, a.Path)
	}
}
