package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/sarchlab/mmucache/datarecording"
	"github.com/sarchlab/mmucache/mem/vm/mmucache"
	"github.com/sarchlab/mmucache/monitoring"
)

var replayCmd = &cobra.Command{
	Use:   "replay <trace>",
	Short: "Replay a virtual address trace through an MMU cache.",
	Args:  cobra.ExactArgs(1),
	RunE:  runReplay,
}

func init() {
	addConfigFlags(replayCmd.Flags())

	replayCmd.Flags().String("name", "MMUCache", "name of the MMU cache")
	replayCmd.Flags().String("db", "",
		"record every translation step to this SQLite database")
	replayCmd.Flags().Bool("trace", false,
		"write every translation step to stderr as CSV")
	replayCmd.Flags().Bool("monitor", false,
		"serve the monitor and keep running after the replay")
	replayCmd.Flags().Int("port", 0, "port of the monitor")
	replayCmd.Flags().Bool("open-browser", false,
		"open the monitor in a browser")

	rootCmd.AddCommand(replayCmd)
}

type replayOptions struct {
	name        string
	dbPath      string
	trace       bool
	monitor     bool
	port        int
	openBrowser bool
}

func replayOptionsFromFlags(cmd *cobra.Command) replayOptions {
	flags := cmd.Flags()

	var o replayOptions
	o.name, _ = flags.GetString("name")
	o.dbPath, _ = flags.GetString("db")
	o.trace, _ = flags.GetBool("trace")
	o.monitor, _ = flags.GetBool("monitor")
	o.port, _ = flags.GetInt("port")
	o.openBrowser, _ = flags.GetBool("open-browser")

	return o
}

func runReplay(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd.Flags())
	if err != nil {
		return err
	}

	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	addrs, err := parseTrace(f)
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}

	opts := replayOptionsFromFlags(cmd)

	if !opts.monitor {
		return replay(cfg, opts, addrs, cmd.OutOrStdout(), cmd.ErrOrStderr())
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	return replayAndServe(ctx, cfg, opts, addrs, cmd.OutOrStdout(),
		cmd.ErrOrStderr())
}

func buildCache(cfg config, opts replayOptions, stderr io.Writer) (
	*mmucache.Comp, *mmucache.Recorder, error,
) {
	b, err := cfg.builder()
	if err != nil {
		return nil, nil, err
	}

	c := b.Build(opts.name)

	if opts.trace {
		c.AcceptHook(mmucache.NewTracer(stderr))
	}

	var recorder *mmucache.Recorder
	if opts.dbPath != "" {
		recorder = mmucache.NewRecorder(datarecording.New(opts.dbPath))
		c.AcceptHook(recorder)
	}

	return c, recorder, nil
}

func replay(
	cfg config,
	opts replayOptions,
	addrs []uint64,
	stdout, stderr io.Writer,
) error {
	c, recorder, err := buildCache(cfg, opts, stderr)
	if err != nil {
		return err
	}

	err = c.TranslateAll(addrs)
	finish(c, recorder, stdout)

	return err
}

func replayAndServe(
	ctx context.Context,
	cfg config,
	opts replayOptions,
	addrs []uint64,
	stdout, stderr io.Writer,
) error {
	c, recorder, err := buildCache(cfg, opts, stderr)
	if err != nil {
		return err
	}

	monitor := monitoring.NewMonitor().WithOpenBrowser(opts.openBrowser)
	if opts.port != 0 {
		monitor.WithPortNumber(opts.port)
	}

	monitor.RegisterComponent(c)
	monitor.StartServer()

	bar := monitor.CreateProgressBar(opts.name, uint64(len(addrs)))
	for _, addr := range addrs {
		bar.IncrementInProgress(1)

		err = c.Translate(addr)
		if err != nil {
			break
		}

		bar.MoveInProgressToFinished(1)
	}
	monitor.CompleteProgressBar(bar)

	finish(c, recorder, stdout)

	if err != nil {
		return err
	}

	fmt.Fprintln(stderr, "Replay finished. Press Ctrl+C to exit.")
	<-ctx.Done()

	return nil
}

func finish(c *mmucache.Comp, recorder *mmucache.Recorder, w io.Writer) {
	if recorder != nil {
		recorder.RecordStats(c)
		recorder.Flush()
	}

	printStats(w, c.Stats())
}

func printStats(w io.Writer, s mmucache.Stats) {
	fmt.Fprintf(w, "%s\n", s.Name)
	fmt.Fprintf(w, "  hits:        %d\n", s.Hits)
	fmt.Fprintf(w, "  misses:      %d\n", s.Misses)
	fmt.Fprintf(w, "  hit rate:    %.4f\n", s.HitRate)
	fmt.Fprintf(w, "  page tables: %d\n", s.NumPageTables)
	fmt.Fprintf(w, "  entries:     %d/%d\n", s.NumLiveEntries, s.NumEntries)
}
