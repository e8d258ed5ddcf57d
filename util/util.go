// Package util holds small helpers shared by the CLI commands.
package util

import (
	"fmt"
	"os"
	"strings"

	"github.com/reel-cli/reel/filesystem"
)

// Quantify formats count with the singular or plural label.
func Quantify(count int, singular, plural string) string {
	if count == 1 {
		return fmt.Sprintf("%d %s", count, singular)
	}
	return fmt.Sprintf("%d %s", count, plural)
}

// Capitalize upper-cases the first byte of s.
func Capitalize(s string) string {
	if len(s) == 0 {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// PrintErasable prints msg on stderr without a newline and returns a function that erases it.
func PrintErasable(msg string) (eraser func()) {
	_, _ = fmt.Fprintf(os.Stderr, "\r%s", msg)
	return func() {
		_, _ = fmt.Fprintf(os.Stderr, "\r%s\r", strings.Repeat(" ", len(msg)))
	}
}

// Ignore calls f and drops its error.
func Ignore(f func() error) {
	_ = f()
}

// Delete removes path, recursively for directories.
func Delete(path string) error {
	fs := filesystem.API()
	stat, err := fs.Stat(path)
	if err != nil {
		return err
	}

	if stat.IsDir() {
		return fs.RemoveAll(path)
	}
	return fs.Remove(path)
}

// ParseHeaders turns "Name: value" or "name=value" pairs into a header map.
func ParseHeaders(pairs []string) (map[string]string, error) {
	headers := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, ":")
		if !ok {
			name, value, ok = strings.Cut(pair, "=")
		}

		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid header %q, expected name:value", pair)
		}
		headers[name] = strings.TrimSpace(value)
	}
	return headers, nil
}
