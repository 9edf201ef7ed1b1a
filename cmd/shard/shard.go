// Package shard provides the "pipecraft shard" command: partition a
// CSV file's rows into shard files keyed on one column.
package shard

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/pipecraft/pipecraft/cmd"
	"github.com/pipecraft/pipecraft/codec"
	"github.com/pipecraft/pipecraft/compressio"
	"github.com/pipecraft/pipecraft/pipe"
	shardlib "github.com/pipecraft/pipecraft/shard"
)

var (
	outDir      string
	by          string
	field       int
	numShards   int
	compression string
)

func init() {
	cmd.Root.AddCommand(commandDefinition)
	flags := commandDefinition.Flags()
	flags.StringVar(&outDir, "out-dir", ".", "directory shard files are written under (must exist)")
	flags.StringVar(&by, "by", "item", "sharding strategy (item|hash|run)")
	flags.IntVar(&field, "field", 0, "zero-based CSV column used as the shard feature")
	flags.IntVar(&numShards, "shards", 4, "number of shards for --by=hash")
	flags.StringVar(&compression, "compression", "none", "compression for shard files (none|gzip|zstd)")
}

var commandDefinition = &cobra.Command{
	Use:   "shard <input.csv>",
	Short: "Partition a CSV file's rows into shard files keyed on one column",
	Run: func(command *cobra.Command, args []string) {
		cmd.CheckArgs(1, 1, command, args)
		cmd.Must(run(args[0]))
	},
}

func run(input string) error {
	ctx := context.Background()

	rows, err := readRows(input)
	if err != nil {
		return err
	}
	kind, err := compressio.ParseKind(compression)
	if err != nil {
		return err
	}

	feature := func(row []string) string {
		if field < 0 || field >= len(row) {
			return ""
		}
		return row[field]
	}

	cfg := shardlib.Config{Dir: outDir, Compression: kind}
	upstream := pipe.FromSlice(rows)

	var result pipe.Pipe[map[string]int]
	switch by {
	case "item":
		result = shardlib.ByItem(upstream, codec.CSV, feature, cfg)
	case "hash":
		result = shardlib.ByHash(upstream, codec.CSV, feature, numShards, cfg)
	case "run":
		result = shardlib.ByContiguousRun(upstream, codec.CSV, feature, cfg)
	default:
		return fmt.Errorf("unknown shard strategy %q", by)
	}

	counts, err := drain(ctx, result)
	if err != nil {
		return err
	}
	printCounts(counts)
	return nil
}

func readRows(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	var rows [][]string
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// drain runs the sharder to completion. Every ByItem/ByHash/
// ByContiguousRun drains upstream fully before emitting its single
// shardId -> count summary, so one Next call is always enough.
func drain(ctx context.Context, p pipe.Pipe[map[string]int]) (map[string]int, error) {
	if err := p.Start(ctx); err != nil {
		_ = p.Close()
		return nil, err
	}
	counts, err := p.Next(ctx)
	if err != nil && err != pipe.EOF {
		_ = p.Close()
		return nil, err
	}
	return counts, p.Close()
}

func printCounts(counts map[string]int) {
	ids := make([]string, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		fmt.Println(id + "\t" + strconv.Itoa(counts[id]))
	}
}
