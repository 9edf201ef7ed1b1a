// Package join provides the "pipecraft join" command: a hash-join
// over CSV files, keyed on each row's first column.
package join

import (
	"context"
	"encoding/csv"
	"encoding/gob"
	"fmt"
	"hash/fnv"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pipecraft/pipecraft/cmd"
	"github.com/pipecraft/pipecraft/codec"
	"github.com/pipecraft/pipecraft/compressio"
	joinlib "github.com/pipecraft/pipecraft/join"
	"github.com/pipecraft/pipecraft/pipe"
)

var (
	output      string
	mode        string
	partitions  int
	tempDir     string
	compression string
)

func init() {
	cmd.Root.AddCommand(commandDefinition)
	flags := commandDefinition.Flags()
	flags.StringVarP(&output, "output", "o", "-", "output file, or - for stdout")
	flags.StringVar(&mode, "mode", "outer", "join mode (left|inner|full_inner|outer)")
	flags.IntVar(&partitions, "partitions", 1, "number of on-disk hash partitions")
	flags.StringVar(&tempDir, "temp-dir", "", "directory for partition files (must exist)")
	flags.StringVar(&compression, "compression", "none", "compression for partition files (none|gzip|zstd)")
}

var commandDefinition = &cobra.Command{
	Use:   "join <left.csv> <right.csv>...",
	Short: "Hash-join CSV files keyed on each row's first column",
	Run: func(command *cobra.Command, args []string) {
		cmd.CheckArgs(2, -1, command, args)
		cmd.Must(run(args[0], args[1:]))
	},
}

func parseMode(s string) (joinlib.Mode, error) {
	switch strings.ToLower(s) {
	case "left":
		return joinlib.LEFT, nil
	case "inner":
		return joinlib.INNER, nil
	case "full_inner", "fullinner":
		return joinlib.FULL_INNER, nil
	case "outer":
		return joinlib.OUTER, nil
	default:
		return 0, fmt.Errorf("unknown join mode %q", s)
	}
}

func run(leftPath string, rightPaths []string) error {
	ctx := context.Background()

	m, err := parseMode(mode)
	if err != nil {
		return err
	}
	kind, err := compressio.ParseKind(compression)
	if err != nil {
		return err
	}

	left, err := readPairs(leftPath)
	if err != nil {
		return err
	}
	rights := make([]pipe.Pipe[joinlib.Pair[string, string]], len(rightPaths))
	for i, p := range rightPaths {
		pairs, err := readPairs(p)
		if err != nil {
			return err
		}
		rights[i] = pipe.FromSlice(pairs)
	}

	result := joinlib.HashJoin(pipe.FromSlice(left), rights, pairCodec(), hashKey, m, joinlib.Config{
		TempDir:     tempDir,
		Partitions:  partitions,
		Compression: kind,
	})

	out, err := cmd.OpenOutput(output)
	if err != nil {
		_ = result.Close()
		return err
	}
	defer out.Close()

	return writeRecords(ctx, result, out)
}

// readPairs loads a CSV file into Pair[string, string] records: the
// first column is the key, the remaining columns are joined back with
// commas into a single value.
func readPairs(path string) ([]joinlib.Pair[string, string], error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	var pairs []joinlib.Pair[string, string]
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(row) == 0 {
			continue
		}
		pairs = append(pairs, joinlib.Pair[string, string]{
			Key:   row[0],
			Value: strings.Join(row[1:], ","),
		})
	}
	return pairs, nil
}

func hashKey(key string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(key))
	return h.Sum64()
}

// pairCodec is the binary codec HashJoin uses for its on-disk
// partition files - a caller-supplied codec per §4.5, built on
// encoding/gob the way join's own tests stand one up for Pair[K, V].
func pairCodec() codec.Codec[joinlib.Pair[string, string]] {
	return codec.Func[joinlib.Pair[string, string]]{
		EncoderFn: func(w io.Writer) codec.Encoder[joinlib.Pair[string, string]] {
			return gobEncoder[joinlib.Pair[string, string]]{gob.NewEncoder(w)}
		},
		DecoderFn: func(r io.Reader) codec.Decoder[joinlib.Pair[string, string]] {
			return gobDecoder[joinlib.Pair[string, string]]{gob.NewDecoder(r)}
		},
	}
}

type gobEncoder[T any] struct{ enc *gob.Encoder }

func (g gobEncoder[T]) Encode(item T) error { return g.enc.Encode(item) }

type gobDecoder[T any] struct{ dec *gob.Decoder }

func (g gobDecoder[T]) Decode() (T, error) {
	var item T
	err := g.dec.Decode(&item)
	if err == io.EOF {
		return item, io.EOF
	}
	return item, err
}

func writeRecords(ctx context.Context, p pipe.Pipe[joinlib.JoinRecord[string, string]], w io.Writer) error {
	if err := p.Start(ctx); err != nil {
		_ = p.Close()
		return err
	}
	cw := csv.NewWriter(w)
	for {
		rec, err := p.Next(ctx)
		if err == pipe.EOF {
			break
		}
		if err != nil {
			_ = p.Close()
			return err
		}
		row := []string{rec.Key, strings.Join(rec.LeftValues, ";")}
		for _, rv := range rec.RightValues {
			row = append(row, strings.Join(rv, ";"))
		}
		if err := cw.Write(row); err != nil {
			_ = p.Close()
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		_ = p.Close()
		return err
	}
	return p.Close()
}
