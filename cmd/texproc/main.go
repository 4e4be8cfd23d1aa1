package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	// register the default backends
	_ "github.com/texproc/texproc/backends/dxtex"
	_ "github.com/texproc/texproc/backends/soft"
)

var rootCmd = &cobra.Command{
	Use:          "texproc",
	Short:        "texproc processes texture containers",
	Long:         "texproc loads, converts, resizes and exports texture containers",
	SilenceUsage: true,
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
		os.Exit(1)
	},
}

func init() {
	cobra.EnablePrefixMatching = true
	rootCmd.PersistentFlags().BoolVar(&debug, `debug`, false, `debug errors`)
	rootCmd.PersistentFlags().BoolVar(&verbose, `verbose`, false, `log pipeline steps`)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var (
	debug   bool
	verbose bool
)

func logger() *slog.Logger {
	if !verbose {
		return nil
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func run(fn func() error) {
	if fn == nil {
		return
	}
	if err := fn(); err != nil {
		if stackFramer, ok := err.(interface{ ErrorStack() string }); debug && ok {
			fmt.Println(stackFramer.ErrorStack())
			os.Exit(1)
		}
		log.Fatal(err)
	}
}
