package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// dump writes a canonical hex dump of data, one sector per paragraph,
// labelling each 16-byte line with its absolute card offset.
func dump(w io.Writer, data []byte, base int64) error {
	const line = 16
	for off := 0; off < len(data); off += line {
		if off > 0 && off%512 == 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		end := min(off+line, len(data))
		row := data[off:end]
		if _, err := fmt.Fprintf(w, "%08x  %-47s  |%s|\n", base+int64(off), hexBytes(row), printable(row)); err != nil {
			return err
		}
	}
	return nil
}

func hexBytes(b []byte) string {
	out := make([]byte, 0, len(b)*3)
	for i, c := range b {
		if i > 0 {
			out = append(out, ' ')
		}
		out = hex.AppendEncode(out, []byte{c})
	}
	return string(out)
}

func printable(b []byte) string {
	out := make([]byte, len(b))
	for i, c := range b {
		if c < 0x20 || c > 0x7e {
			c = '.'
		}
		out[i] = c
	}
	return string(out)
}
