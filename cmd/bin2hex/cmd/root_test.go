package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestUsageErrors(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.bin")
	if err := os.WriteFile(in, []byte{1}, 0644); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "out.hex")

	tests := []struct {
		name string
		args []string
	}{
		{name: "no arguments", args: nil},
		{name: "one argument", args: []string{in}},
		{name: "three arguments", args: []string{in, out, "extra"}},
		{name: "unknown flag", args: []string{"--bogus", in, out}},
		{name: "record size zero", args: []string{"--record-size", "0", in, out}},
		{name: "bad start", args: []string{"--start", "70000", in, out}},
		{name: "bad line ending", args: []string{"--line-ending", "cr", in, out}},
		{name: "bad overflow policy", args: []string{"--address-overflow", "clamp", in, out}},
		{name: "bad manifest format", args: []string{"--manifest-format", "xml", in, out}},
		{name: "batch odd arguments", args: []string{"batch", in, out, in}},
		{name: "batch no arguments", args: []string{"batch"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, stdout, _ := runCLI(t, tt.args...)
			if code != exitUsage {
				t.Errorf("exit code = %d, want %d", code, exitUsage)
			}
			if !strings.Contains(stdout, "Usage:") {
				t.Errorf("expected usage on stdout, got: %s", stdout)
			}
			if _, err := os.Stat(out); !os.IsNotExist(err) {
				t.Errorf("output file written on usage error")
			}
		})
	}
}

func TestConvert(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.bin")
	data := make([]byte, 32)
	for i := range data {
		data[i] = byte(i)
	}
	if err := os.WriteFile(in, data, 0644); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "out.hex")

	code, stdout, stderr := runCLI(t, "--line-ending", "lf", in, out)
	if code != exitOK {
		t.Fatalf("exit code = %d, stderr: %s", code, stderr)
	}
	if stdout != "" {
		t.Errorf("unexpected stdout: %s", stdout)
	}

	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	want := ":20000000000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1ff0\n:00000001FF\n"
	if string(got) != want {
		t.Errorf("output:\n%s\nwant:\n%s", got, want)
	}
}

func TestConvertFlags(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.bin")
	if err := os.WriteFile(in, []byte("address gap"), 0644); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "out.hex")
	manifest := filepath.Join(dir, "out.records")

	code, _, stderr := runCLI(t,
		"--start", "16", "--upper", "--line-ending", "crlf",
		"--manifest", manifest, "--manifest-format", "cbor",
		in, out)
	if code != exitOK {
		t.Fatalf("exit code = %d, stderr: %s", code, stderr)
	}

	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if want := ":0B0010006164647265737320676170A7\r\n:00000001FF\r\n"; string(got) != want {
		t.Errorf("output = %q, want %q", got, want)
	}
	if fi, err := os.Stat(manifest); err != nil || fi.Size() == 0 {
		t.Errorf("manifest not written: %v", err)
	}
}

func TestConvertIOError(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.hex")

	code, stdout, stderr := runCLI(t, filepath.Join(dir, "missing.bin"), out)
	if code != exitError {
		t.Errorf("exit code = %d, want %d", code, exitError)
	}
	if !strings.Contains(stderr, "bin2hex: read") {
		t.Errorf("stderr = %q, want read error", stderr)
	}
	if strings.Contains(stdout, "Usage:") {
		t.Errorf("usage printed for an IO error: %s", stdout)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Error("output file written after read failure")
	}
}

func TestAddressOverflowFlag(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.bin")
	if err := os.WriteFile(in, make([]byte, 64), 0644); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "out.hex")

	code, _, stderr := runCLI(t, "--start", "0xffe0", "--address-overflow", "reject", in, out)
	if code != exitError {
		t.Errorf("exit code = %d, want %d", code, exitError)
	}
	if !strings.Contains(stderr, "16-bit address space") {
		t.Errorf("stderr = %q", stderr)
	}

	code, _, stderr = runCLI(t, "--start", "0xffe0", in, out)
	if code != exitOK {
		t.Fatalf("wrap: exit code = %d, stderr: %s", code, stderr)
	}
	if stderr != "" {
		t.Errorf("wrap without overlap logged: %s", stderr)
	}

	big := filepath.Join(dir, "big.bin")
	if err := os.WriteFile(big, make([]byte, 1<<16+16), 0644); err != nil {
		t.Fatal(err)
	}
	code, _, stderr = runCLI(t, big, out)
	if code != exitOK {
		t.Fatalf("aliasing: exit code = %d, stderr: %s", code, stderr)
	}
	if !strings.Contains(stderr, "aliased_bytes=16") {
		t.Errorf("expected aliasing warning, got: %s", stderr)
	}
}

func TestMetricsFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.bin")
	if err := os.WriteFile(in, make([]byte, 50), 0644); err != nil {
		t.Fatal(err)
	}
	metrics := filepath.Join(dir, "bin2hex.prom")

	code, _, stderr := runCLI(t, "--metrics-file", metrics, in, filepath.Join(dir, "out.hex"))
	if code != exitOK {
		t.Fatalf("exit code = %d, stderr: %s", code, stderr)
	}

	got, err := os.ReadFile(metrics)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		`bin2hex_conversions_total{result="ok"} 1`,
		`bin2hex_records_total{type="data"} 2`,
		`bin2hex_input_bytes_total 50`,
	} {
		if !strings.Contains(string(got), want) {
			t.Errorf("metrics file missing %q:\n%s", want, got)
		}
	}
}

func TestBatch(t *testing.T) {
	dir := t.TempDir()
	var args []string
	args = append(args, "batch", "--jobs", "2", "--manifests")
	for _, name := range []string{"a", "b", "c"} {
		in := filepath.Join(dir, name+".bin")
		if err := os.WriteFile(in, []byte(name), 0644); err != nil {
			t.Fatal(err)
		}
		args = append(args, in, filepath.Join(dir, name+".hex"))
	}

	code, _, stderr := runCLI(t, args...)
	if code != exitOK {
		t.Fatalf("exit code = %d, stderr: %s", code, stderr)
	}

	for _, name := range []string{"a", "b", "c"} {
		if _, err := os.Stat(filepath.Join(dir, name+".hex")); err != nil {
			t.Errorf("%s.hex: %v", name, err)
		}
		if _, err := os.Stat(filepath.Join(dir, name+".hex.records.json")); err != nil {
			t.Errorf("%s manifest: %v", name, err)
		}
	}
}

func TestInputNamedLikeSubcommand(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(wd) })

	for _, name := range []string{"batch", "help"} {
		t.Run(name, func(t *testing.T) {
			if err := os.WriteFile(name, []byte{0x01}, 0644); err != nil {
				t.Fatal(err)
			}
			out := name + ".hex"

			code, stdout, stderr := runCLI(t, "--line-ending", "lf", name, out)
			if code != exitOK {
				t.Fatalf("exit code = %d, stdout: %s, stderr: %s", code, stdout, stderr)
			}
			if stdout != "" {
				t.Errorf("unexpected stdout: %s", stdout)
			}

			got, err := os.ReadFile(out)
			if err != nil {
				t.Fatal(err)
			}
			if want := ":0100000001fe\n:00000001FF\n"; string(got) != want {
				t.Errorf("output = %q, want %q", got, want)
			}
		})
	}
}

func TestIsConversion(t *testing.T) {
	tests := []struct {
		args []string
		want bool
	}{
		{args: []string{"in.bin", "out.hex"}, want: true},
		{args: []string{"batch", "out.hex"}, want: true},
		{args: []string{"--log-level", "debug", "--start", "16", "help", "out.hex"}, want: true},
		{args: []string{"batch"}, want: false},
		{args: []string{"batch", "a.bin", "a.hex"}, want: false},
		{args: []string{"batch", "--jobs", "2", "a.bin", "a.hex"}, want: false},
		{args: []string{"help"}, want: false},
		{args: []string{"--help"}, want: false},
	}
	for _, tt := range tests {
		if got := isConversion(tt.args); got != tt.want {
			t.Errorf("isConversion(%q) = %v, want %v", tt.args, got, tt.want)
		}
	}
}

func TestParseLineEnding(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"lf", "\n"},
		{"crlf", "\r\n"},
	}
	for _, tc := range tests {
		got, err := parseLineEnding(tc.in)
		if err != nil || got != tc.want {
			t.Errorf("parseLineEnding(%q) = %q, %v", tc.in, got, err)
		}
	}

	if native, err := parseLineEnding("native"); err != nil || (native != "\n" && native != "\r\n") {
		t.Errorf("parseLineEnding(\"native\") = %q, %v", native, err)
	}
}
