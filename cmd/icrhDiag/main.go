//icrhDiag mirrors the ICRH acquisition directories, decodes conditioning logs and fast acquisition shots and
//renders their derived quantities (VSWR, relative phases) on the command line, as PNG/CSV files or through
//the review server
package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"icrhDiag/config"
	"icrhDiag/fileSync"
	"icrhDiag/record"
	"icrhDiag/shot"
)

//version is overwritten at build time with -ldflags "-X main.version=..."
var version = "dev"

var (
	cfgFile string
	verbose bool
	cfg     *config.Config
)

var (
	infoc = color.New(color.FgBlue, color.Bold)
	okc   = color.New(color.FgGreen)
	errc  = color.New(color.FgRed, color.Bold)
)

var rootCmd = &cobra.Command{
	Use:   "icrhDiag",
	Short: "ICRH conditioning and fast acquisition record viewer",
	Long: `icrhDiag copies the ICRH records from the acquisition host, decodes conditioning logs and
fast acquisition shots and derives VSWR and relative phase series from them.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if !verbose {
			log.SetOutput(io.Discard)
		}
		if cmd.Annotations["config"] == "none" {
			return nil
		}
		var err error
		cfg, err = config.Load(viper.GetViper(), cfgFile)
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./icrhDiag.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log decoding and transfer details")
	rootCmd.PersistentFlags().String("fast-data-dir", "", "local fast acquisition directory")
	rootCmd.PersistentFlags().String("conditioning-dir", "", "local conditioning log directory")
	rootCmd.PersistentFlags().String("remote-mode", "", `remote access, "ssh" or "dir"`)
	rootCmd.PersistentFlags().String("remote-host", "", "user@host of the acquisition computer")

	bindPFlag("data.fast_data_dir", "fast-data-dir")
	bindPFlag("data.conditioning_dir", "conditioning-dir")
	bindPFlag("remote.mode", "remote-mode")
	bindPFlag("remote.host", "remote-host")

	rootCmd.AddCommand(syncCmd, shotsCmd, showCmd, condiCmd, plotCmd, exportCmd, deleteCmd, emptyCmd,
		checkCmd, serveCmd, configCmd, versionCmd)
}

func bindPFlag(key, flag string) {
	if err := viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(fmt.Sprintf("failed to bind flag %v : %v", flag, err))
	}
}

//fastDataFiles returns the paths of the local fast acquisition files, most recent first
func fastDataFiles() ([]string, error) {
	return localPaths(cfg.Data.FastDataDir)
}

func localPaths(dir string) ([]string, error) {
	names, err := fileSync.ListLocal(dir)
	if err != nil {
		return nil, err
	}
	paths := make([]string, len(names))
	for i, name := range names {
		paths[i] = filepath.Join(dir, name)
	}
	return paths, nil
}

func newLoader() *shot.Loader {
	cache := shot.NewCache(cfg.Cache.MaxEvents, cfg.CacheBytes())
	cache.OnEvict = func(eventID int, reason string) {
		log.Printf("evicted shot %v from cache (%v)", eventID, reason)
	}
	return shot.NewLoader(record.FileDecoder{}, cache)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		errc.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
