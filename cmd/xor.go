package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/evilarceus/go-binserializer/pkg/binser"
)

var xorOutPath string

var xorCmd = &cobra.Command{
	Use:   "xor <file> <key>",
	Short: "Mask or unmask a whole file with an XOR key",
	Long: `Masks every byte of the input with the repeating hex key and writes the
result next to the input. XOR is its own inverse, so running the command
twice with the same key restores the original.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := parseXORKey(args[1])
		if err != nil {
			return err
		}
		if key == nil {
			return fmt.Errorf("empty XOR key")
		}
		out := xorOutPath
		if out == "" {
			out = args[0] + ".xor"
		}

		fm := binser.NewOSFileManager()
		src, err := fm.GetReadStream(args[0])
		if err != nil {
			return err
		}
		defer src.Close()

		r, err := binser.NewReader(src, binser.LittleEndian)
		if err != nil {
			return err
		}
		r.BeginXOR(key)
		data, err := r.ReadBytes(r.Length())
		if err != nil {
			return err
		}

		dst, err := fm.GetWriteStream(out, true)
		if err != nil {
			return err
		}
		defer dst.Close()
		if _, err := dst.Write(data); err != nil {
			return err
		}
		if !quiet {
			fmt.Printf("wrote %d bytes to %s\n", len(data), out)
		}
		return nil
	},
}

func init() {
	xorCmd.Flags().StringVarP(&xorOutPath, "out", "o", "", "output path")
	rootCmd.AddCommand(xorCmd)
}
