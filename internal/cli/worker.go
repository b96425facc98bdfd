package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/example/shopsync/internal/models"
	"github.com/example/shopsync/internal/ports/secondary"
	"github.com/example/shopsync/internal/wire"
	"github.com/example/shopsync/internal/worker"
)

// WorkerCmd returns the hidden worker entry point. The pool manager execs
// it with a chunk file and a result file; it is not meant to be invoked by
// hand.
func WorkerCmd() *cobra.Command {
	return &cobra.Command{
		Use:    "worker <type> <id> <chunk-file> <result-file>",
		Hidden: true,
		Args:   cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			logError := func(msg string) { wire.Logger().Error(msg) }
			return runWorker(cmd.Context(), wire.Mailbox(), wire.NewRunner, logError, args)
		},
	}
}

// runWorker validates the argv contract and drives a chunk through the
// runner. Any failure before processing starts is written to the result
// file so the manager can surface it instead of seeing only a bare exit.
func runWorker(
	ctx context.Context,
	mailbox secondary.Mailbox,
	newRunner func(models.ItemKind, func(*models.WorkerResult)) (*worker.Runner, error),
	logError func(string),
	args []string,
) error {
	chunkPath, resultPath := args[2], args[3]

	persist := func(result *models.WorkerResult) {
		if err := mailbox.WriteResult(resultPath, result); err != nil {
			logError("failed to persist worker result")
		}
	}

	kind := models.ItemKind(args[0])
	workerID, idErr := strconv.Atoi(args[1])

	fail := func(err error) error {
		persist(&models.WorkerResult{
			WorkerID:   workerID,
			WorkerType: kind,
			Error:      err.Error(),
		})
		return err
	}

	if !kind.Valid() {
		return fail(fmt.Errorf("unknown worker type %q", args[0]))
	}
	if idErr != nil {
		return fail(fmt.Errorf("invalid worker id %q: %w", args[1], idErr))
	}

	items, err := mailbox.ReadChunk(chunkPath)
	if err != nil {
		return fail(fmt.Errorf("failed to read chunk: %w", err))
	}

	runner, err := newRunner(kind, persist)
	if err != nil {
		return fail(err)
	}

	// The manager delivers cancellation as an interrupt; finish the
	// item in flight and persist partial results before exiting.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stop)
	go func() {
		<-stop
		runner.Stop()
	}()

	runner.Run(ctx, workerID, items)
	return nil
}
