// Package main is the entry point for the midistream CLI
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/james-see/midistream/pkg/api"
	"github.com/james-see/midistream/pkg/decode"
	"github.com/james-see/midistream/pkg/events"
	"github.com/james-see/midistream/pkg/midifile"
	"github.com/james-see/midistream/pkg/notes"
	"github.com/james-see/midistream/pkg/tui"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	workers    int
	trackIndex int
	limit      int
	cursor     string
	serverPort int
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "midistream",
	Short: "Stream-decode Standard MIDI Files",
	Long: `midistream decodes Standard MIDI File tracks event by event and merges
the notes of every track into one time-ordered stream.

Examples:
  midistream info song.mid
  midistream events song.mid --track 1 --limit 50
  midistream events song.mid --track 1 --limit 50 --cursor <cursor>
  midistream notes song.mid --limit 20
  midistream verify song.mid
  midistream tui
  midistream serve --port 8080`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	SilenceUsage:  true,
	SilenceErrors: true,
}

var infoCmd = &cobra.Command{
	Use:   "info <file.mid>",
	Short: "Show the header and per-track counts",
	Args:  cobra.ExactArgs(1),
	RunE:  runInfo,
}

var eventsCmd = &cobra.Command{
	Use:   "events <file.mid>",
	Short: "Print the decoded events of one track",
	Long: `Prints the events of one track with their delta times. With --limit the
output ends with a cursor that resumes decoding where it stopped.`,
	Args: cobra.ExactArgs(1),
	RunE: runEvents,
}

var notesCmd = &cobra.Command{
	Use:   "notes <file.mid>",
	Short: "Print the notes of all tracks in start order",
	Args:  cobra.ExactArgs(1),
	RunE:  runNotes,
}

var verifyCmd = &cobra.Command{
	Use:   "verify <file.mid>",
	Short: "Cross-check note events against the gomidi reader",
	Args:  cobra.ExactArgs(1),
	RunE:  runVerify,
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive terminal UI",
	RunE:  runTUI,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	RunE:  runServe,
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().IntVarP(&workers, "workers", "w", 0, "Parallel track decoders (0 = one per CPU)")

	// events command
	eventsCmd.Flags().IntVarP(&trackIndex, "track", "t", 0, "Track index")
	eventsCmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum events (0 = all)")
	eventsCmd.Flags().StringVarP(&cursor, "cursor", "c", "", "Resume from a cursor printed by a previous run")

	// notes command
	notesCmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum notes (0 = all)")

	// serve command
	serveCmd.Flags().IntVarP(&serverPort, "port", "p", 8080, "Server port")

	// Add commands
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(eventsCmd)
	rootCmd.AddCommand(notesCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(serveCmd)
}

func openFile(path string) (*midifile.File, *os.File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	st, err := fh.Stat()
	if err != nil {
		_ = fh.Close()
		return nil, nil, err
	}
	f, err := midifile.Open(fh, st.Size())
	if err != nil {
		_ = fh.Close()
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, fh, nil
}

func runInfo(cmd *cobra.Command, args []string) error {
	f, fh, err := openFile(args[0])
	if err != nil {
		return err
	}
	defer func() { _ = fh.Close() }()

	results, err := decode.Tracks(cmd.Context(), f, workers)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s: %s\n", args[0], decode.Summarize(f, results))
	for _, r := range results {
		chunk := f.Tracks[r.Index]
		fmt.Fprintf(out, "  track %d: %s events, %s notes, %d ticks, %s",
			r.Index, humanize.Comma(int64(len(r.Events))), humanize.Comma(int64(r.NoteCount())),
			r.Length(), humanize.Bytes(chunk.Length))
		if name := r.Name(); name != "" {
			fmt.Fprintf(out, " %q", name)
		}
		fmt.Fprintln(out)
		if r.Err != nil {
			fmt.Fprintf(out, "    error: %v\n", r.Err)
		}
	}
	return nil
}

func runEvents(cmd *cobra.Command, args []string) error {
	f, fh, err := openFile(args[0])
	if err != nil {
		return err
	}
	defer func() { _ = fh.Close() }()

	res, err := decode.Batch(f, trackIndex, cursor, limit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, ev := range res.Events {
		fmt.Fprintf(out, "%6d  %s\n", ev.Ticks, formatEvent(ev.Event))
	}
	if res.Err != nil {
		return res.Err
	}
	if res.Next != "" {
		fmt.Fprintf(out, "cursor: %s\n", res.Next)
	}
	return nil
}

func formatEvent(ev events.Event) string {
	switch e := ev.(type) {
	case events.Text:
		return fmt.Sprintf("%-22s %s %q", e.Kind(), e.TextKind, e.String())
	case events.Tempo:
		return fmt.Sprintf("%-22s %d µs/quarter (%.2f bpm)", e.Kind(), e.MicrosecondsPerQuarter, e.BPM())
	case events.SystemExclusive:
		id := "universal"
		if !e.Universal() {
			if m, err := e.Manufacturer(); err == nil {
				id = fmt.Sprintf("manufacturer % X", m)
			}
		}
		if !e.Terminated() {
			id += ", continued"
		}
		return fmt.Sprintf("%-22s %s, %s", e.Kind(), id, humanize.Bytes(uint64(len(e.Data))))
	default:
		return fmt.Sprintf("%-22s %+v", ev.Kind(), ev)
	}
}

func runNotes(cmd *cobra.Command, args []string) error {
	f, fh, err := openFile(args[0])
	if err != nil {
		return err
	}
	defer func() { _ = fh.Close() }()

	it, err := decode.Notes(f)
	if err != nil {
		return err
	}
	return printNotes(cmd.OutOrStdout(), it, limit)
}

func printNotes(out io.Writer, it notes.Iterator[notes.Note], limit int) error {
	list, err := notes.Collect(it, limit)
	for _, n := range list {
		fmt.Fprintf(out, "%8d  len %-6d track %-3d ch %-2d key %-3d vel %d\n",
			n.Time, n.Length, n.Track, n.Channel, n.Key, n.Velocity)
	}
	return err
}

func runVerify(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	rep, err := decode.Verify(data)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if rep.OK() {
		fmt.Fprintf(out, "OK: %s note events agree across %d tracks\n", humanize.Comma(int64(rep.Marks)), rep.Tracks)
		return nil
	}
	for _, m := range rep.Mismatches {
		fmt.Fprintf(out, "track %d, mark %d: %s\n", m.Track, m.Index, m.Detail)
	}
	return fmt.Errorf("%d tracks disagree with the reference reader", len(rep.Mismatches))
}

func runTUI(cmd *cobra.Command, args []string) error {
	return tui.Run(workers)
}

func runServe(cmd *cobra.Command, args []string) error {
	fmt.Printf("Starting API server on port %d...\n", serverPort)
	return api.StartServer(serverPort, workers)
}
