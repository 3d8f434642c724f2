package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/evilarceus/go-binserializer/pkg/binser"
	"github.com/evilarceus/go-binserializer/pkg/encoders"
)

var (
	decodeCodec   string
	decodeEncode  bool
	decodeOutPath string
)

var decodeCmd = &cobra.Command{
	Use:   "decode <file>",
	Short: "Run a stream codec over a file into a new file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		enc, err := encoders.ByName(decodeCodec)
		if err != nil {
			return err
		}
		out := decodeOutPath
		if out == "" {
			if decodeEncode {
				out = args[0] + "." + enc.Name()
			} else {
				out = args[0] + ".decoded"
			}
		}

		fm := binser.NewOSFileManager()
		src, err := fm.GetReadStream(args[0])
		if err != nil {
			return err
		}
		defer src.Close()

		var transformed io.Reader
		if decodeEncode {
			transformed, err = enc.Encode(src)
		} else {
			transformed, err = enc.Decode(src)
		}
		if err != nil {
			return err
		}

		dst, err := fm.GetWriteStream(out, true)
		if err != nil {
			return err
		}
		defer dst.Close()

		n, err := io.Copy(dst, transformed)
		if err != nil {
			return err
		}
		if !quiet {
			fmt.Printf("wrote %d bytes to %s\n", n, out)
		}
		return nil
	},
}

func init() {
	decodeCmd.Flags().StringVar(&decodeCodec, "codec", "gzip", "codec (gzip, zlib, zstd, snappy, lz4)")
	decodeCmd.Flags().BoolVar(&decodeEncode, "encode", false, "encode instead of decode")
	decodeCmd.Flags().StringVarP(&decodeOutPath, "out", "o", "", "output path")
	rootCmd.AddCommand(decodeCmd)
}
