// Package sort provides the "pipecraft sort" command: external sort
// over the lines of a text file.
package sort

import (
	"bufio"
	"context"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pipecraft/pipecraft/cmd"
	"github.com/pipecraft/pipecraft/codec"
	"github.com/pipecraft/pipecraft/compressio"
	"github.com/pipecraft/pipecraft/pipe"
	sortlib "github.com/pipecraft/pipecraft/sort"
)

var (
	output        string
	tempDir       string
	inMemoryLimit int
	compression   string
	unique        bool
	reverse       bool
	useSystemSort bool
)

func init() {
	cmd.Root.AddCommand(commandDefinition)
	flags := commandDefinition.Flags()
	flags.StringVarP(&output, "output", "o", "-", "output file, or - for stdout")
	flags.StringVar(&tempDir, "temp-dir", "", "directory for spilled sort runs (must exist)")
	flags.IntVar(&inMemoryLimit, "in-memory-limit", sortlib.DefaultInMemoryLimit, "lines buffered before a run is spilled to disk")
	flags.StringVar(&compression, "compression", "none", "compression for spilled runs (none|gzip|zstd)")
	flags.BoolVarP(&unique, "unique", "u", false, "drop adjacent duplicate lines from the sorted output")
	flags.BoolVarP(&reverse, "reverse", "r", false, "sort in descending order")
	flags.BoolVar(&useSystemSort, "use-system-sort", false, "accelerate in-memory sorts with the OS sort binary when available (Linux only)")
}

var commandDefinition = &cobra.Command{
	Use:   "sort <input>",
	Short: "Sort the lines of a text file, spilling to disk above --in-memory-limit",
	Run: func(command *cobra.Command, args []string) {
		cmd.CheckArgs(1, 1, command, args)
		cmd.Must(run(args[0]))
	},
}

func run(input string) error {
	ctx := context.Background()

	in, err := cmd.OpenInput(input)
	if err != nil {
		return err
	}
	defer in.Close()

	lines, err := readLines(in)
	if err != nil {
		return err
	}

	kind, err := compressio.ParseKind(compression)
	if err != nil {
		return err
	}
	if tempDir != "" && !sortlib.IsValidTempDir(tempDir) {
		return errNotAValidTempDir(tempDir)
	}

	cmp := pipe.Comparator[string](strings.Compare)
	if reverse {
		cmp = func(a, b string) int { return strings.Compare(b, a) }
	}

	sorted := sortlib.External(pipe.FromSlice(lines), codec.Text, cmp, sortlib.Config{
		TempDir:       tempDir,
		InMemoryLimit: inMemoryLimit,
		Compression:   kind,
		UseSystemSort: useSystemSort,
		Reverse:       reverse,
	})
	if unique {
		sorted = dedupAdjacent(sorted, cmp)
	}

	out, err := cmd.OpenOutput(output)
	if err != nil {
		_ = sorted.Close()
		return err
	}
	defer out.Close()

	return drainToWriter(ctx, sorted, out)
}

func readLines(in io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines, scanner.Err()
}

// dedupAdjacent drops items equal (under cmp) to the item immediately
// preceding them - sound only because upstream is already sorted
// under the same comparator.
func dedupAdjacent(upstream pipe.Pipe[string], cmp pipe.Comparator[string]) pipe.Pipe[string] {
	first := true
	var prev string
	return pipe.Filter(upstream, func(item string) bool {
		if first || cmp(item, prev) != 0 {
			first = false
			prev = item
			return true
		}
		prev = item
		return false
	})
}

func drainToWriter(ctx context.Context, p pipe.Pipe[string], w io.Writer) error {
	if err := p.Start(ctx); err != nil {
		_ = p.Close()
		return err
	}
	enc := codec.Text.NewEncoder(w)
	for {
		line, err := p.Next(ctx)
		if err == pipe.EOF {
			break
		}
		if err != nil {
			_ = p.Close()
			return err
		}
		if err := enc.Encode(line); err != nil {
			_ = p.Close()
			return err
		}
	}
	return p.Close()
}

type errNotAValidTempDir string

func (e errNotAValidTempDir) Error() string {
	return "not a writable directory: " + string(e)
}
