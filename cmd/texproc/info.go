package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/texproc/texproc/tex"
)

func init() {
	infoCmd.Flags().StringVar(&infoBackend, `backend`, ``, `load through one registered backend only`)
	rootCmd.AddCommand(infoCmd)
}

var infoBackend string

var infoCmd = &cobra.Command{
	Use:   `info <file>`,
	Short: `print container metadata`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		run(infoFunc(args[0]))
	},
}

func infoFunc(path string) func() error {
	return func() error {
		opts := tex.Options{tex.SetLogger(logger())}
		if infoBackend != `` {
			b := tex.GetRegBackendByName(infoBackend)
			if b == nil {
				return fmt.Errorf(`no registered backend named %q`, infoBackend)
			}
			opts = append(opts, tex.SetBackends(b))
		}
		d, err := tex.NewDispatcher(opts)
		if err != nil {
			return err
		}
		img := &tex.Image{}
		if _, err := d.Process(img, tex.Load{Path: path}); err != nil {
			return err
		}
		defer d.Release(img)

		fmt.Printf("%s\n", path)
		fmt.Printf("  format:     %s\n", img.Format)
		fmt.Printf("  dimension:  %s\n", img.Dimension)
		fmt.Printf("  size:       %dx%dx%d\n", img.Width, img.Height, img.Depth)
		fmt.Printf("  mip levels: %d\n", img.MipLevels)
		fmt.Printf("  layers:     %d\n", img.ArraySize)
		fmt.Printf("  subimages:  %d\n", len(img.Subimages))
		fmt.Printf("  bytes:      %d\n", len(img.View()))
		return nil
	}
}
