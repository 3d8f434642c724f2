package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/evilarceus/go-binserializer/internal/hex"
	"github.com/evilarceus/go-binserializer/pkg/binser"
	"github.com/evilarceus/go-binserializer/pkg/xorenc"
)

var (
	hexdumpOffset string
	hexdumpLength int64
	hexdumpXORKey string
)

var hexdumpCmd = &cobra.Command{
	Use:   "hexdump <file>",
	Short: "Dump a file region as hex, optionally XOR-unmasked",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		offset, err := parseNumber(hexdumpOffset)
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
		if key, err := parseXORKey(hexdumpXORKey); err != nil {
			return err
		} else if key != nil {
			r.BeginXOR(key)
		}

		length := hexdumpLength
		if length <= 0 || offset+length > r.Length() {
			length = r.Length() - offset
		}
		data, err := r.ReadBytes(length)
		if err != nil {
			return err
		}
		return hex.Dump(os.Stdout, data, offset)
	},
}

func init() {
	hexdumpCmd.Flags().StringVar(&hexdumpOffset, "offset", "0", "start offset (decimal or 0x hex)")
	hexdumpCmd.Flags().Int64Var(&hexdumpLength, "length", 0, "number of bytes to dump (0 = to end)")
	hexdumpCmd.Flags().StringVar(&hexdumpXORKey, "xor", "", "XOR key bytes as hex, e.g. 5A or 5AC3")
	rootCmd.AddCommand(hexdumpCmd)
}

func parseNumber(s string) (int64, error) {
	return strconv.ParseInt(s, 0, 64)
}

// parseXORKey turns a hex string into an XOR calculator, nil for no key.
func parseXORKey(s string) (binser.XORCalculator, error) {
	if s == "" {
		return nil, nil
	}
	if len(s)%2 != 0 {
		return nil, fmt.Errorf("XOR key %q must have an even number of hex digits", s)
	}
	key := make([]byte, len(s)/2)
	for i := range key {
		v, err := strconv.ParseUint(s[i*2:i*2+2], 16, 8)
		if err != nil {
			return nil, fmt.Errorf("invalid XOR key %q: %w", s, err)
		}
		key[i] = byte(v)
	}
	if len(key) == 1 {
		return xorenc.NewKey8(key[0]), nil
	}
	return xorenc.NewKeyArray(key), nil
}
