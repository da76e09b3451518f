package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/EdenOved/formpilot/internal/artifacts"
	"github.com/EdenOved/formpilot/internal/browser"
	"github.com/EdenOved/formpilot/internal/config"
	"github.com/EdenOved/formpilot/internal/form"
	"github.com/EdenOved/formpilot/internal/humanoid"
	"github.com/EdenOved/formpilot/internal/observability"
	"github.com/EdenOved/formpilot/internal/workflow"
)

// Swapped out in tests.
var (
	newFs      = afero.NewOsFs
	launchPage = func(ctx context.Context, cfg *config.Config, fs afero.Fs, logger *zap.Logger) (workflow.Page, error) {
		return browser.Launch(ctx, cfg, fs, logger)
	}
	newRunID = uuid.NewString
)

func addDataFlags(flags *pflag.FlagSet) {
	flags.String("name", "", "full name to submit")
	flags.String("email", "", "email address to submit")
	flags.String("phone", "", "phone number to submit")
	flags.String("company", "", "company name to submit")
	flags.String("employees", "", "employee-count option value, when the form has one")
}

func newSubmitCmd() *cobra.Command {
	var noWait bool

	submitCmd := &cobra.Command{
		Use:   "submit",
		Short: "Fills and submits the configured form, then verifies the result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFromContext(cmd.Context())
			if err != nil {
				return err
			}
			if noWait {
				cfg.Run.WaitForExit = false
			}
			return runSubmit(cmd.Context(), cmd, cfg)
		},
	}

	addDataFlags(submitCmd.Flags())
	submitCmd.Flags().String("url", "", "address of the page holding the form")
	submitCmd.Flags().Bool("headless", false, "run the browser without a window")
	submitCmd.Flags().BoolVar(&noWait, "no-wait", false, "close the browser as soon as the run ends")
	return submitCmd
}

func runSubmit(ctx context.Context, cmd *cobra.Command, cfg *config.Config) error {
	runID := newRunID()
	logger := observability.WithRun(observability.GetLogger(), runID)

	spec := form.SpecFromConfig(cfg.Form)
	data := form.NewData(spec, form.ValuesFromConfig(cfg.Run.Data))

	fs := newFs()
	recorder, err := artifacts.NewRecorder(fs, cfg.Artifacts.Dir, runID)
	if err != nil {
		return err
	}
	if err := recorder.Prepare(); err != nil {
		return err
	}

	page, err := launchPage(ctx, cfg, fs, logger)
	if err != nil {
		return err
	}

	var epilogue workflow.Epilogue
	if cfg.Run.WaitForExit {
		epilogue = waitForEnter(cmd.InOrStdin(), cmd.OutOrStdout())
	}

	delay := humanoid.NewCadence(cfg.Humanoid).Delay()
	orch := workflow.FromConfig(logger, cfg, recorder, delay, runID, epilogue)

	res, err := orch.Run(ctx, page, spec, data)
	printSummary(cmd.OutOrStdout(), res)
	if err != nil {
		return err
	}
	if !res.Succeeded() {
		return fmt.Errorf("%w: run ended in state %s", ErrNotAccepted, res.State)
	}
	return nil
}

// waitForEnter keeps the browser open until the user presses Enter or ctx ends.
func waitForEnter(in io.Reader, out io.Writer) workflow.Epilogue {
	return func(ctx context.Context, res *workflow.Result) {
		fmt.Fprintf(out, "Run finished in state %s. Press Enter to close the browser...\n", res.State)
		done := make(chan struct{})
		go func() {
			defer close(done)
			_, _ = bufio.NewReader(in).ReadString('\n')
		}()
		select {
		case <-done:
			return
		case <-ctx.Done():
		}
		if unblockRead(in) {
			<-done
		}
	}
}

type readDeadliner interface {
	SetReadDeadline(t time.Time) error
}

// unblockRead interrupts a read pending on in and reports whether it could.
// Pollable files such as a terminal or pipe stdin take a read deadline;
// other closable readers are closed.
func unblockRead(in io.Reader) bool {
	if d, ok := in.(readDeadliner); ok {
		return d.SetReadDeadline(time.Now()) == nil
	}
	if c, ok := in.(io.Closer); ok {
		return c.Close() == nil
	}
	return false
}
