package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"

	"icrhDiag/config"
	"icrhDiag/derived"
	"icrhDiag/fileSync"
	"icrhDiag/record"
	"icrhDiag/reviewServer"
	"icrhDiag/schema"
	"icrhDiag/shot"
	"icrhDiag/shotPlot"
)

var (
	syncFast   bool
	syncCondi  bool
	syncDryRun bool
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Copy the most recent records missing locally from the acquisition host",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		if !syncFast && !syncCondi {
			syncFast, syncCondi = true, true
		}
		var failed bool
		for _, target := range syncTargets(syncFast, syncCondi) {
			if syncDryRun {
				missing, present, err := target.syncer.Pending(ctx)
				if err != nil {
					return err
				}
				infoc.Printf("%v: %v files to copy, %v already present\n", target.name, len(missing), len(present))
				for _, name := range missing {
					fmt.Printf("  %v\n", name)
				}
				continue
			}
			infoc.Printf("Syncing %v into %v\n", target.name, target.syncer.LocalDir)
			report, err := target.syncer.Sync(ctx)
			printReport(report)
			if err != nil {
				return err
			}
			if report.Err() != nil {
				failed = true
			}
		}
		if failed {
			return errors.New("some files could not be copied")
		}
		return nil
	},
}

type syncTarget struct {
	name   string
	syncer *fileSync.Syncer
}

func syncTargets(fast, condi bool) []syncTarget {
	targets := make([]syncTarget, 0, 2)
	if condi {
		targets = append(targets, syncTarget{name: "conditioning", syncer: cfg.ConditioningSyncer()})
	}
	if fast {
		targets = append(targets, syncTarget{name: "fast data", syncer: cfg.FastDataSyncer()})
	}
	return targets
}

func printReport(report fileSync.Report) {
	for _, name := range report.Copied {
		okc.Printf("  copied %v\n", name)
	}
	for _, name := range report.Deleted {
		okc.Printf("  deleted %v\n", name)
	}
	for name, err := range report.Failed {
		errc.Printf("  %v: %v\n", name, err)
	}
	fmt.Printf("  %v copied, %v deleted, %v up to date, %v failed\n", len(report.Copied), len(report.Deleted),
		len(report.Skipped), len(report.Failed))
}

var shotsCmd = &cobra.Command{
	Use:   "shots",
	Short: "List the local shots, most recent first",
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := fastDataFiles()
		if err != nil {
			return err
		}
		grouping := shot.GroupByEvent(files)
		for _, id := range grouping.EventIDs() {
			fmt.Printf("%8d  %d files\n", id, len(grouping.Files(id)))
		}
		if grouping.Unrecognized > 0 {
			errc.Printf("%v files do not follow the shot_<event>_<board>.<ext> convention\n", grouping.Unrecognized)
		}
		return nil
	},
}

func parseEventID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id < 0 {
		return 0, fmt.Errorf("invalid shot number %q", arg)
	}
	return id, nil
}

//loadShot decodes the bundle of the event named by arg. A shot without any file is an error on the command line
func loadShot(arg string) (*shot.Bundle, error) {
	id, err := parseEventID(arg)
	if err != nil {
		return nil, err
	}
	files, err := fastDataFiles()
	if err != nil {
		return nil, err
	}
	b := newLoader().LoadBundle(id, files)
	if b.Empty() {
		return nil, fmt.Errorf("no files for shot %v in %v", id, cfg.Data.FastDataDir)
	}
	return b, nil
}

func span(values []float64) string {
	if len(values) == 0 {
		return "-"
	}
	return fmt.Sprintf("[%.3f, %.3f]", floats.Min(values), floats.Max(values))
}

var showCmd = &cobra.Command{
	Use:   "show <shot>",
	Short: "Summarize the records and derived series of a shot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := loadShot(args[0])
		if err != nil {
			return err
		}
		infoc.Printf("Shot %v\n", b.EventID)
		sets := derived.ComputeAll(b)
		for _, key := range b.Keys() {
			rec := b.Records[key]
			fmt.Printf("%v (%v, %v rows, %v)\n", key, rec.Schema.Name, rec.Len(), filepath.Base(b.Files[key]))
			if rec.Empty() {
				fmt.Println("  no data")
				continue
			}
			fmt.Printf("  %-8s %v\n", rec.Schema.DisplayTimeLabel, span(rec.DisplayTime()))
			for _, ch := range rec.Columns {
				values, err := rec.Channel(ch)
				if err != nil {
					return err
				}
				fmt.Printf("  %-8s %v\n", ch, span(values))
			}
			for _, s := range sets[key].Series {
				okc.Printf("  %-16s %v %v\n", s.Name, span(s.Values), s.Unit)
			}
			for name, err := range sets[key].Errors {
				errc.Printf("  %v: %v\n", name, err)
			}
		}
		failedKeys := make([]shot.Key, 0, len(b.Errors))
		for key := range b.Errors {
			failedKeys = append(failedKeys, key)
		}
		shot.SortKeys(failedKeys)
		for _, key := range failedKeys {
			errc.Printf("%v: %v\n", key, b.Errors[key])
		}
		return nil
	},
}

var condiCmd = &cobra.Command{
	Use:   "condi [file]",
	Short: "List the conditioning logs or print the parameters of one log",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			names, err := fileSync.ListLocal(cfg.Data.ConditioningDir)
			if err != nil {
				return err
			}
			for _, name := range names {
				fmt.Println(name)
			}
			return nil
		}
		md, err := record.ExtractMetadata(conditioningPath(args[0]))
		if err != nil {
			return err
		}
		for _, key := range md.Keys {
			fmt.Printf("%-24s %v\n", key, md.Values[key])
		}
		return nil
	},
}

//conditioningPath resolves bare names against the conditioning directory
func conditioningPath(arg string) string {
	if arg == filepath.Base(arg) {
		return filepath.Join(cfg.Data.ConditioningDir, arg)
	}
	return arg
}

var plotOut string

var plotCmd = &cobra.Command{
	Use:   "plot",
	Short: "Render shots or conditioning logs as PNG figures",
}

var plotShotCmd = &cobra.Command{
	Use:   "shot <shot>",
	Short: "Plot power, voltage, VSWR and relative phases of a shot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := loadShot(args[0])
		if err != nil {
			return err
		}
		plots, err := shotPlot.BundleFigure(b)
		if err != nil {
			return err
		}
		out := plotOut
		if out == "" {
			out = fmt.Sprintf("shot_%v.png", b.EventID)
		}
		return storeFigure(plots, out)
	},
}

var plotCondiCmd = &cobra.Command{
	Use:   "condi <file>",
	Short: "Plot powers and voltages of a conditioning log",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := schema.Lookup(schema.Conditioning)
		if err != nil {
			return err
		}
		path := conditioningPath(args[0])
		rec, err := record.Decode(path, s)
		if err != nil {
			return err
		}
		plots, err := shotPlot.ConditioningFigure(rec)
		if err != nil {
			return err
		}
		out := plotOut
		if out == "" {
			out = filepath.Base(path) + ".png"
		}
		return storeFigure(plots, out)
	},
}

func storeFigure(plots [][]*plot.Plot, out string) error {
	path, err := StorePlot(plots, out, cfg.Plot.Width, cfg.Plot.Height)
	if err != nil {
		return err
	}
	okc.Printf("wrote %v\n", path)
	return nil
}

var exportDir string

var exportCmd = &cobra.Command{
	Use:   "export <shot>",
	Short: "Write the derived series of a shot as csv files",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := loadShot(args[0])
		if err != nil {
			return err
		}
		if err := os.MkdirAll(exportDir, 0755); err != nil {
			return err
		}
		sets := derived.ComputeAll(b)
		for _, key := range b.Keys() {
			set := sets[key]
			if len(set.Series) == 0 {
				continue
			}
			out := filepath.Join(exportDir, fmt.Sprintf("shot_%v_%v.csv", b.EventID, key))
			path, err := StoreSeriesCSV(b.Records[key], set.Series, out)
			if err != nil {
				return err
			}
			okc.Printf("wrote %v\n", path)
		}
		return nil
	},
}

var (
	deleteCondi bool
	deleteYes   bool
)

var deleteCmd = &cobra.Command{
	Use:   "delete <file>...",
	Short: "Delete files on the acquisition host and locally",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target := syncTargets(!deleteCondi, deleteCondi)[0]
		if !deleteYes {
			infoc.Printf("would delete from %v (pass --yes to confirm):\n", target.name)
			for _, name := range args {
				fmt.Printf("  %v\n", name)
			}
			return nil
		}
		report, err := target.syncer.Delete(cmd.Context(), args)
		printReport(report)
		if err != nil {
			return err
		}
		return report.Err()
	},
}

var emptyCmd = &cobra.Command{
	Use:   "empty",
	Short: "List the zero byte files left behind by interrupted transfers",
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, dir := range []string{cfg.Data.ConditioningDir, cfg.Data.FastDataDir} {
			names, err := fileSync.EmptyFiles(dir)
			if err != nil {
				return err
			}
			infoc.Printf("%v: %v empty files\n", dir, len(names))
			for _, name := range names {
				fmt.Printf("  %v\n", name)
			}
		}
		return nil
	},
}

//pickLayout chooses the conditioning layout for files of the conditioning directory and the board family
//for fast acquisition files
func pickLayout(conditioningDir string) record.LayoutPicker {
	return func(path string) ([]*schema.ChannelSchema, error) {
		if filepath.Dir(path) == filepath.Clean(conditioningDir) {
			s, err := schema.Lookup(schema.Conditioning)
			if err != nil {
				return nil, err
			}
			return []*schema.ChannelSchema{s}, nil
		}
		ref, err := shot.ParseFilename(path)
		if err != nil {
			return nil, err
		}
		return schema.Family(ref.Key.Kind)
	}
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Decode every local file and report the damaged ones",
	RunE: func(cmd *cobra.Command, args []string) error {
		var paths []string
		for _, dir := range []string{cfg.Data.ConditioningDir, cfg.Data.FastDataDir} {
			dirPaths, err := localPaths(dir)
			if err != nil {
				return err
			}
			paths = append(paths, dirPaths...)
		}
		var failed int
		for _, res := range record.DecodeBatch(paths, pickLayout(cfg.Data.ConditioningDir)) {
			if res.Err != nil {
				failed++
				errc.Printf("%v\n", res.Err)
			}
		}
		infoc.Printf("%v files checked, %v failed\n", len(paths), failed)
		if failed > 0 {
			return fmt.Errorf("%v damaged files", failed)
		}
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve shot summaries, figures and metrics over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		srv := reviewServer.NewServer(reviewServer.Options{
			FastDataDir:     cfg.Data.FastDataDir,
			ConditioningDir: cfg.Data.ConditioningDir,
			Loader:          newLoader(),
			Syncers: map[string]reviewServer.Syncer{
				"conditioning": cfg.ConditioningSyncer(),
				"fast_data":    cfg.FastDataSyncer(),
			},
			PlotWidth:  cfg.Plot.Width,
			PlotHeight: cfg.Plot.Height,
		})
		httpServer := &http.Server{Addr: cfg.Server.Addr, Handler: srv.Routes()}
		serveErr := make(chan error, 1)
		go func() {
			serveErr <- httpServer.ListenAndServe()
		}()
		infoc.Printf("Listening on %v\n", cfg.Server.Addr)
		select {
		case err := <-serveErr:
			return err
		case <-ctx.Done():
		}
		log.Printf("shutting down review server")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		return httpServer.Shutdown(shutdownCtx)
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration as yaml",
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := config.Dump(cfg)
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(raw)
		return err
	},
}

var versionCmd = &cobra.Command{
	Use:         "version",
	Short:       "Print the version",
	Annotations: map[string]string{"config": "none"},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version)
	},
}

func init() {
	syncCmd.Flags().BoolVar(&syncFast, "fast", false, "sync the fast acquisition files")
	syncCmd.Flags().BoolVar(&syncCondi, "condi", false, "sync the conditioning logs")
	syncCmd.Flags().BoolVarP(&syncDryRun, "dry-run", "n", false, "only list the files that would be copied")

	plotCmd.PersistentFlags().StringVarP(&plotOut, "out", "o", "", "output png file")
	plotCmd.AddCommand(plotShotCmd, plotCondiCmd)

	exportCmd.Flags().StringVarP(&exportDir, "out", "o", ".", "output directory")

	deleteCmd.Flags().BoolVar(&deleteCondi, "condi", false, "delete conditioning logs instead of fast acquisition files")
	deleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "really delete")
}
