package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/evilarceus/go-binserializer/pkg/binser"
)

var coverageCmd = &cobra.Command{
	Use:   "coverage <map-file>",
	Short: "Summarize a read-coverage map image",
	Long: `Reads a coverage map exported by the serializer (0xFF per read byte,
0x00 per untouched byte) and prints totals plus the number of unread gaps;
with --verbose each gap is listed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fm := binser.NewOSFileManager()
		s, err := fm.GetReadStream(args[0])
		if err != nil {
			return err
		}
		defer s.Close()

		data, err := io.ReadAll(s)
		if err != nil {
			return err
		}

		read := 0
		type gap struct{ start, end int }
		var gaps []gap
		for i := 0; i < len(data); {
			if data[i] != 0 {
				read++
				i++
				continue
			}
			start := i
			for i < len(data) && data[i] == 0 {
				i++
			}
			gaps = append(gaps, gap{start, i})
		}

		if len(data) == 0 {
			fmt.Println("empty coverage map")
			return nil
		}
		fmt.Printf("%d of %d bytes read (%.1f%%), %d unread gaps\n",
			read, len(data), float64(read)*100/float64(len(data)), len(gaps))
		if verbose {
			for _, g := range gaps {
				fmt.Printf("  0x%08X-0x%08X (%d bytes)\n", g.start, g.end, g.end-g.start)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(coverageCmd)
}
