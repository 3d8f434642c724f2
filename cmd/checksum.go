package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/evilarceus/go-binserializer/pkg/binser"
	"github.com/evilarceus/go-binserializer/pkg/checksum"
)

var (
	checksumAlgo   string
	checksumOffset string
	checksumLength int64
)

var checksumCmd = &cobra.Command{
	Use:   "checksum <file>",
	Short: "Compute a checksum over a file region",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		calc, err := calculatorByName(checksumAlgo)
		if err != nil {
			return err
		}
		offset, err := parseNumber(checksumOffset)
		if err != nil {
			return fmt.Errorf("invalid offset: %w", err)
		}

		fm := binser.NewOSFileManager()
		s, err := fm.GetReadStream(args[0])
		if err != nil {
			return err
		}
		defer s.Close()

		r, err := binser.NewReader(s, binser.LittleEndian)
		if err != nil {
			return err
		}
		if err := r.Seek(offset); err != nil {
			return err
		}
		length := checksumLength
		if length <= 0 || offset+length > r.Length() {
			length = r.Length() - offset
		}

		r.BeginChecksum(calc)
		if _, err := r.ReadBytes(length); err != nil {
			return err
		}
		sum := r.EndChecksum()

		if quiet {
			fmt.Printf("%016X\n", sum)
			return nil
		}
		fmt.Printf("%s over %d bytes at 0x%X: 0x%016X\n", checksumAlgo, length, offset, sum)
		return nil
	},
}

func init() {
	checksumCmd.Flags().StringVar(&checksumAlgo, "algo", "fletcher64", "checksum algorithm (fletcher64, xxhash64, crc32, additive16)")
	checksumCmd.Flags().StringVar(&checksumOffset, "offset", "0", "start offset (decimal or 0x hex)")
	checksumCmd.Flags().Int64Var(&checksumLength, "length", 0, "number of bytes to hash (0 = to end)")
	rootCmd.AddCommand(checksumCmd)
}

func calculatorByName(name string) (binser.ChecksumCalculator, error) {
	switch name {
	case "fletcher64":
		return checksum.NewFletcher64(), nil
	case "xxhash64":
		return checksum.NewXXHash64(), nil
	case "crc32":
		return checksum.NewCRC32(), nil
	case "additive16":
		return checksum.NewAdditive16(), nil
	}
	return nil, fmt.Errorf("unknown checksum algorithm %q", name)
}
