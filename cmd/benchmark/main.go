package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jamiealquiza/tachymeter"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v3"

	"github.com/mossblaser/yarp"
)

const (
	itersKey = "iters"
	traceKey = "trace"
)

var (
	ww = []int{1, 10, 100}
	hh = []int{1, 10, 100}
)

func main() {
	cmd := &cli.Command{
		Name:  "benchmark",
		Usage: "Measure yarp value graph propagation latency",
		Flags: []cli.Flag{
			&cli.UintFlag{
				Name:  itersKey,
				Usage: "Propagations per graph shape",
				Value: 100,
			},
			&cli.BoolFlag{
				Name:  traceKey,
				Usage: "Print graph trace statistics per shape",
				Value: true,
			},
		},
		Action: run,
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func addOne(args ...any) (any, error) {
	return args[0].(int) + 1, nil
}

func run(ctx context.Context, cmd *cli.Command) error {
	iters := int(cmd.Uint(itersKey))
	shouldTrace := cmd.Bool(traceKey)

	log.Print("Starting yarp propagation benchmark, please wait...")
	defer log.Print("Finished yarp propagation benchmark")

	tbl := table.NewWriter()
	tbl.SetTitle("yarp propagation")
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(table.Row{"benchmark", "avg", "min", "p75", "p99", "max"})

	summary := tablewriter.NewWriter(os.Stdout)
	summary.SetHeader([]string{"size", "nodes", "edges", "depth", "updates", "updates/s"})

	for _, w := range ww {
		for _, h := range hh {
			var trace *yarp.GraphTrace
			if shouldTrace {
				trace = yarp.TraceGraph()
			}

			src := yarp.NewValue(1)
			var updates int64
			for i := 0; i < w; i++ {
				last := src
				for j := 0; j < h; j++ {
					next, err := yarp.Lift(addOne)(last)
					if err != nil {
						return fmt.Errorf("build %dx%d: %w", w, h, err)
					}
					last = next
				}
				last.OnChange(func(any) error {
					updates++
					return nil
				})
			}
			yarp.StopTracing()

			tach := tachymeter.New(&tachymeter.Config{Size: iters})
			begin := time.Now()
			for i := 0; i < iters; i++ {
				start := time.Now()
				if err := src.Set(src.Get().(int) + 1); err != nil {
					return fmt.Errorf("propagate %dx%d: %w", w, h, err)
				}
				tach.AddTime(time.Since(start))
			}
			elapsed := time.Since(begin)

			calc := tach.Calc()
			tbl.AppendRows([]table.Row{
				{
					fmt.Sprintf("propagate: %d * %d", w, h),
					calc.Time.Avg,
					calc.Time.Min,
					calc.Time.P75,
					calc.Time.P99,
					calc.Time.Max,
				},
			})

			updateRate := float64(updates) / elapsed.Seconds()
			row := []string{
				fmt.Sprintf("%dx%d", w, h),
				"-", "-", "-",
				humanize.Comma(updates),
				humanize.Comma(int64(updateRate)),
			}
			if trace != nil {
				row[1] = humanize.Comma(int64(trace.Nodes()))
				row[2] = humanize.Comma(int64(trace.Edges()))
				row[3] = humanize.Comma(int64(trace.Depth()))
			}
			summary.Append(row)
		}
	}

	tbl.Render()
	summary.Render()
	return nil
}
