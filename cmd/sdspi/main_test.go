package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/urfave/cli/v2"

	"github.com/ardnew/softsd/pkg"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &errOut
	app.Reader = strings.NewReader(stdin)
	err := app.Run(append([]string{"sdspi"}, args...))
	return out.String(), err
}

func newImage(t *testing.T, blocks string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "card.img")
	if _, err := run(t, "", "mkimage", "--blocks", blocks, path); err != nil {
		t.Fatalf("mkimage: %v", err)
	}
	return path
}

func TestMkimage(t *testing.T) {
	path := newImage(t, "2048")
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() != 2048*512 {
		t.Errorf("image size = %d, want %d", info.Size(), 2048*512)
	}

	if _, err := run(t, "", "mkimage"); !errors.Is(err, pkg.ErrParameter) {
		t.Errorf("mkimage without path error = %v, want ErrParameter", err)
	}
}

func TestInfo(t *testing.T) {
	tests := []struct {
		card   string
		blocks string
		want   []string
	}{
		{"sdhc", "2048", []string{"type:     SD2|BLOCK", "sectors:  2048", "capacity: 1.0 MiB", "cid:"}},
		{"sdsc", "2048", []string{"type:     SD2", "sectors:  2048"}},
		{"sdv1", "1024", []string{"type:     SD1", "sectors:  1024", "capacity: 512.0 KiB"}},
		{"mmc", "1024", []string{"type:     MMC"}},
	}

	for _, tt := range tests {
		t.Run(tt.card, func(t *testing.T) {
			path := newImage(t, tt.blocks)
			out, err := run(t, "", "--card", tt.card, "-d", path, "info")
			if err != nil {
				t.Fatalf("info: %v", err)
			}
			for _, want := range tt.want {
				if !strings.Contains(out, want) {
					t.Errorf("info output missing %q:\n%s", want, out)
				}
			}
		})
	}
}

func TestStatus(t *testing.T) {
	path := newImage(t, "2048")
	out, err := run(t, "", "-d", path, "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(out, "status: ok") {
		t.Errorf("status output = %q", out)
	}
}

func TestWriteRead(t *testing.T) {
	for _, addressing := range []string{"true", "false"} {
		t.Run("block-addressing="+addressing, func(t *testing.T) {
			// Byte addressing an SDHC card scales sectors by 512, so sectors 1
			// and 2 land on blocks 512 and 1024 of the image.
			path := newImage(t, "2048")
			payload := strings.Repeat("softsd", 100) // 600 bytes, two sectors

			if _, err := run(t, payload, "--block-addressing="+addressing, "-d", path, "write", "1"); err != nil {
				t.Fatalf("write: %v", err)
			}

			out, err := run(t, "", "--block-addressing="+addressing, "-d", path, "read", "--raw", "1", "2")
			if err != nil {
				t.Fatalf("read: %v", err)
			}
			if len(out) != 1024 {
				t.Fatalf("read %d bytes, want 1024", len(out))
			}
			if out[:600] != payload {
				t.Error("read data does not match written payload")
			}
			if strings.Trim(out[600:], "\x00") != "" {
				t.Error("last sector is not zero padded")
			}
		})
	}
}

func TestWriteLandsAtSector(t *testing.T) {
	path := newImage(t, "2048")
	if _, err := run(t, "marker", "-d", path, "write", "5"); err != nil {
		t.Fatalf("write: %v", err)
	}

	image, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := string(image[5*512 : 5*512+6]); got != "marker" {
		t.Errorf("image at sector 5 = %q, want %q", got, "marker")
	}
}

func TestReadHexAndOut(t *testing.T) {
	path := newImage(t, "2048")
	if _, err := run(t, "hello", "-d", path, "write", "1"); err != nil {
		t.Fatalf("write: %v", err)
	}

	out, err := run(t, "", "-d", path, "read", "--hex", "1")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	first := strings.SplitN(out, "\n", 2)[0]
	if !strings.HasPrefix(first, "00000200  68 65 6c 6c 6f 00") || !strings.HasSuffix(first, "|hello...........|") {
		t.Errorf("first dump line = %q", first)
	}

	file := filepath.Join(t.TempDir(), "sector.bin")
	if _, err := run(t, "", "-d", path, "read", "--out", file, "1"); err != nil {
		t.Fatalf("read --out: %v", err)
	}
	data, err := os.ReadFile(file)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != 512 || string(data[:5]) != "hello" {
		t.Errorf("output file holds %d bytes starting %q", len(data), data[:5])
	}
}

func TestReadOnly(t *testing.T) {
	path := newImage(t, "2048")
	if _, err := run(t, "data", "--read-only", "-d", path, "write", "0"); err == nil {
		t.Error("write to read-only image succeeded")
	}
}

func TestArgumentErrors(t *testing.T) {
	path := newImage(t, "2048")
	tests := []struct {
		name string
		args []string
	}{
		{"missing sector", []string{"-d", path, "read"}},
		{"bad sector", []string{"-d", path, "read", "x"}},
		{"zero count", []string{"-d", path, "read", "0", "0"}},
		{"beyond card", []string{"-d", path, "read", "2047", "2"}},
		{"huge count", []string{"-d", path, "read", "0", "4294967295"}},
		{"sector past end", []string{"-d", path, "read", "4096"}},
		{"empty write", []string{"-d", path, "write", "0"}},
		{"unknown transport", []string{"-t", "usb", "-d", path, "info"}},
		{"unknown card", []string{"--card", "xd", "-d", path, "info"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, "", tt.args...)
			if err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestMissingImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.img")
	if _, err := run(t, "", "-d", path, "info"); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("error = %v, want ErrNotExist", err)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		n    uint64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{32 << 20, "32.0 MiB"},
		{4 << 30, "4.0 GiB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.n); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestDump(t *testing.T) {
	var out bytes.Buffer
	data := make([]byte, 520)
	copy(data, "AB")
	if err := dump(&out, data, 0); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	// 32 full lines, a blank separator, one partial line
	if len(lines) != 34 {
		t.Fatalf("dump has %d lines, want 34", len(lines))
	}
	if want := "00000000  41 42 00 00 00 00 00 00 00 00 00 00 00 00 00 00  |AB..............|"; lines[0] != want {
		t.Errorf("line 0 = %q, want %q", lines[0], want)
	}
	if lines[32] != "" {
		t.Errorf("line 32 = %q, want sector separator", lines[32])
	}
	if !strings.HasPrefix(lines[33], "00000200  00 00 00 00 00 00 00 00 ") {
		t.Errorf("line 33 = %q", lines[33])
	}
}

func TestGlobalFlags(t *testing.T) {
	seen := map[string]bool{}
	builtin := append(cli.HelpFlag.Names(), cli.VersionFlag.Names()...)
	for _, name := range builtin {
		seen[name] = true
	}
	for _, f := range newApp().Flags {
		for _, name := range f.Names() {
			if seen[name] {
				t.Errorf("flag name %q defined twice", name)
			}
			seen[name] = true
		}
	}

	for _, args := range [][]string{{"--help"}, {"--version"}, {"-v"}} {
		out, err := run(t, "", args...)
		if err != nil {
			t.Errorf("%v: %v", args, err)
		}
		if out == "" {
			t.Errorf("%v printed nothing", args)
		}
	}

	path := newImage(t, "2048")
	if _, err := run(t, "", "--verbose", "-d", path, "status"); err != nil {
		t.Errorf("--verbose status: %v", err)
	}
}
