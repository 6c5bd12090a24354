package commands

import (
	"io"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/vkngwrapper/bufmgr/memutils/metadata"
	"golang.org/x/exp/slog"
)

type workloadOptions struct {
	verbose     bool
	buffers     int
	bufferSize  uint64
	subBuffers  int
	alignment   uint64
	strategy    string
	notResident bool
	unsynced    bool
}

var options workloadOptions

var rootCmd = &cobra.Command{
	Use:   "bufmgr-stats",
	Short: "Exercise the buffer manager and print residency statistics",
	Long: `bufmgr-stats creates pool buffers on an in-memory device, carves each one
into suballocated buffers, and prints the allocator's residency list and each
suballocator's block as JSON before tearing everything down again.

Leaks found during teardown are logged and reported as a failure.`,
	SilenceUsage: true,
	RunE:         runWorkload,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	flags := rootCmd.Flags()
	flags.BoolVarP(&options.verbose, "verbose", "v", false, "log buffer object lifecycle events")
	flags.IntVarP(&options.buffers, "buffers", "n", 4, "number of pool buffers to create")
	flags.Uint64VarP(&options.bufferSize, "size", "s", 65536, "requested size of each pool buffer in bytes")
	flags.IntVar(&options.subBuffers, "sub-buffers", 8, "number of suballocated buffers carved from each pool buffer")
	flags.Uint64Var(&options.alignment, "alignment", 0, "pool buffer size granularity, 0 for the default")
	flags.StringVar(&options.strategy, "strategy", "min-memory", "suballocation strategy: min-memory, min-time or min-offset")
	flags.BoolVar(&options.notResident, "not-resident", false, "create pool buffers evicted and make them resident explicitly")
	flags.BoolVar(&options.unsynced, "externally-synchronized", false, "disable the residency list mutex")
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	return slog.New(slog.HandlerOptions{Level: level}.NewTextHandler(w))
}

func parseStrategy(name string) (metadata.AllocationStrategy, error) {
	switch name {
	case "min-memory":
		return metadata.AllocationStrategyMinMemory, nil
	case "min-time":
		return metadata.AllocationStrategyMinTime, nil
	case "min-offset":
		return metadata.AllocationStrategyMinOffset, nil
	}

	return 0, errors.Newf("unknown suballocation strategy %q", name)
}
