package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mfujita47/pmidcite/internal/document"
)

var watchDebounce time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch <file>",
	Short: "Reprocess a manuscript every time it is saved",
	Long: `Process a manuscript, then process it again whenever it changes.

The containing directory is watched so editors that save by replacing the
file are noticed too. Stop with Ctrl-C.

Examples:
  pmidcite watch paper.md
  pmidcite watch paper.md -o build/ --debounce 1s`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 300*time.Millisecond, "Wait this long after the last change before reprocessing")
}

func runWatch(cmd *cobra.Command, args []string) error {
	in := args[0]
	out, err := watchOutput(in, outputPath)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	ctx := cmd.Context()
	a, err := newApp(ctx, cmd)
	if err != nil {
		exitWithErr(err, "loading configuration")
	}
	defer a.Close()

	proc, err := a.processor()
	if err != nil {
		exitWithErr(err, "configuring processor")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		exitWithError(ExitError, "creating watcher: %v", err)
	}
	defer watcher.Close()
	if err := watcher.Add(filepath.Dir(in)); err != nil {
		exitWithError(ExitDataError, "watching %s: %v", in, err)
	}

	run := func() {
		reportWatch(processOne(ctx, proc, in, out))
	}
	run()
	a.logger.Info("Watching for changes", zap.String("input", in), zap.String("output", out))

	return watchLoop(ctx, watcher, in, out, watchDebounce, a.logger, run)
}

// watchOutput returns the output path for watching in. Stdin, stdout and
// an output that is the input itself are rejected: the tool's own writes
// would be indistinguishable from edits.
func watchOutput(in, outFlag string) (string, error) {
	if in == document.StdioPath {
		return "", errors.New("watch needs a file, not stdin")
	}
	out := document.OutputPath(in, outFlag)
	if out == document.StdioPath {
		return "", errors.New("watch cannot write to stdout")
	}
	if sameFile(in, out) {
		return "", fmt.Errorf("watch cannot overwrite its input %s; choose another -o", in)
	}
	return out, nil
}

func sameFile(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}

// watchLoop calls run once changes to in have settled for debounce. It
// returns when ctx is done.
func watchLoop(ctx context.Context, watcher *fsnotify.Watcher, in, out string, debounce time.Duration, logger *zap.Logger, run func()) error {
	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isInputChange(event, in, out) {
				continue
			}
			logger.Debug("File system event",
				zap.String("file", event.Name),
				zap.String("op", event.Op.String()))
			timer.Reset(debounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("File watcher error", zap.Error(err))
		case <-timer.C:
			run()
		}
	}
}

// isInputChange reports whether event is a write or re-creation of in.
// Events for out are ignored so the tool's own writes do not retrigger it.
func isInputChange(event fsnotify.Event, in, out string) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return false
	}
	name := filepath.Clean(event.Name)
	if name == filepath.Clean(out) {
		return false
	}
	return name == filepath.Clean(in)
}

func reportWatch(d DocumentResult) {
	if humanOutput {
		fmt.Println(time.Now().Format("15:04:05"), describeDocument(d))
		return
	}
	if d.Error != "" {
		outputError(ExitError, "%s: %s", d.Input, d.Error)
		return
	}
	outputJSON(d)
}

// processOne runs in through proc once.
func processOne(ctx context.Context, proc *document.Processor, in, out string) DocumentResult {
	res, err := proc.ProcessFile(ctx, in, out)
	return documentResult(document.JobResult{
		Job:    document.Job{Input: in, Output: out},
		Result: res,
		Err:    err,
	})
}
