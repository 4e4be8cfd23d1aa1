package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/texproc/texproc/backends/dxtex"
	"github.com/texproc/texproc/backends/soft"
	"github.com/texproc/texproc/resample/rdefault"
	"github.com/texproc/texproc/tex"
)

func init() {
	convertCmd.Flags().BoolVar(&convDecompress, `decompress`, false, `decompress block formats to RGBA8 first`)
	convertCmd.Flags().StringVar(&convCompress, `compress`, ``, `target format, e.g. BC1, BC3, RGBA8, BGRA8`)
	convertCmd.Flags().StringVar(&convResize, `resize`, ``, `target size WxH or scale factor like 0.5x`)
	convertCmd.Flags().StringVar(&convFilter, `filter`, `bilinear`, `resampling filter: nearest, box, bilinear, bicubic`)
	convertCmd.Flags().BoolVar(&convMipmaps, `mipmaps`, false, `generate a full mip chain`)
	convertCmd.Flags().BoolVar(&convPremultiply, `premultiply`, false, `premultiply alpha`)
	convertCmd.Flags().IntVar(&convMinMipSize, `min-mip-size`, 0, `drop mips smaller than this on export`)
	convertCmd.Flags().StringVar(&convResampler, `resampler`, `default`, `resampler library: default, gift, imaging, bild, nfnt, rez, xdraw`)
	rootCmd.AddCommand(convertCmd)
}

var (
	convDecompress  bool
	convCompress    string
	convResize      string
	convFilter      string
	convMipmaps     bool
	convPremultiply bool
	convMinMipSize  int
	convResampler   string
)

var convertCmd = &cobra.Command{
	Use:   `convert <in> <out>`,
	Short: `run a processing chain over a texture`,
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		run(convertFunc(args[0], args[1]))
	},
}

func convertFunc(in, out string) func() error {
	return func() error {
		filter, err := tex.ParseFilter(convFilter)
		if err != nil {
			return err
		}
		reqs := []tex.Request{tex.Load{Path: in}}
		if convDecompress {
			reqs = append(reqs, tex.Decompress{})
		}
		if convResize != `` {
			rescale, err := parseResize(convResize, filter)
			if err != nil {
				return err
			}
			reqs = append(reqs, rescale)
		}
		if convMipmaps {
			reqs = append(reqs, tex.GenerateMipMaps{Filter: filter})
		}
		if convPremultiply {
			reqs = append(reqs, tex.PremultiplyAlpha{})
		}
		if convCompress != `` {
			target, err := tex.ParseFormat(convCompress)
			if err != nil {
				return err
			}
			reqs = append(reqs, tex.Compress{TargetFormat: target})
		}
		reqs = append(reqs, tex.Export{Path: out, MinimumMipSize: convMinMipSize})

		resampler, err := rdefault.ByName(convResampler)
		if err != nil {
			return err
		}
		softBackend := soft.New()
		softBackend.Resampler, softBackend.Log = resampler, logger()
		dxtexBackend := dxtex.New()
		dxtexBackend.Resampler, dxtexBackend.Log = resampler, logger()

		d, err := tex.NewDispatcher(
			tex.SetBackends(softBackend, dxtexBackend),
			tex.SetLogger(logger()),
		)
		if err != nil {
			return err
		}
		img := &tex.Image{}
		if _, err := d.Process(img, reqs...); err != nil {
			return err
		}
		defer d.Release(img)
		fmt.Printf("%s: %s %dx%d, %d mips -> %s\n",
			out, img.Format, img.Width, img.Height, img.MipLevels, img.Dimension)
		return nil
	}
}

func parseResize(spec string, filter tex.Filter) (tex.Rescale, error) {
	if scaleStr, ok := strings.CutSuffix(spec, `x`); ok && !strings.Contains(scaleStr, `x`) {
		var scale float64
		if _, err := fmt.Sscanf(scaleStr, "%g", &scale); err == nil && scale > 0 {
			return tex.Rescale{Scale: scale, Filter: filter}, nil
		}
	}
	var w, h int
	if _, err := fmt.Sscanf(spec, "%dx%d", &w, &h); err != nil || w < 1 || h < 1 {
		return tex.Rescale{}, fmt.Errorf(`cannot parse resize spec %q`, spec)
	}
	return tex.Rescale{Width: w, Height: h, Filter: filter}, nil
}
