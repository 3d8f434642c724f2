// Package hex renders byte blocks as classic offset/hex/ASCII dump lines
// for the CLI.
package hex

import (
	"fmt"
	"io"
)

const bytesPerLine = 16

// Dump writes data to w as hex dump lines, labeling offsets starting at
// base.
func Dump(w io.Writer, data []byte, base int64) error {
	for off := 0; off < len(data); off += bytesPerLine {
		end := off + bytesPerLine
		if end > len(data) {
			end = len(data)
		}
		line := data[off:end]

		if _, err := fmt.Fprintf(w, "%08X  ", base+int64(off)); err != nil {
			return err
		}
		for i := 0; i < bytesPerLine; i++ {
			if i == bytesPerLine/2 {
				fmt.Fprint(w, " ")
			}
			if i < len(line) {
				fmt.Fprintf(w, "%02X ", line[i])
			} else {
				fmt.Fprint(w, "   ")
			}
		}
		fmt.Fprint(w, " |")
		for _, b := range line {
			if b >= 0x20 && b < 0x7F {
				fmt.Fprintf(w, "%c", b)
			} else {
				fmt.Fprint(w, ".")
			}
		}
		if _, err := fmt.Fprintln(w, "|"); err != nil {
			return err
		}
	}
	return nil
}
