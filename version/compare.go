package version

import (
	"fmt"
	"strings"

	"golang.org/x/exp/slices"
)

// Compare orders two major.minor.patch versions: 1 if a is newer, -1 if older, 0 if equal.
// A leading "v" is ignored.
func Compare(a, b string) (int, error) {
	av, err := parse(a)
	if err != nil {
		return 0, err
	}

	bv, err := parse(b)
	if err != nil {
		return 0, err
	}

	return slices.Compare(av[:], bv[:]), nil
}

func parse(s string) ([3]int, error) {
	var v [3]int
	if _, err := fmt.Sscanf(strings.TrimPrefix(s, "v"), "%d.%d.%d", &v[0], &v[1], &v[2]); err != nil {
		return v, fmt.Errorf("version %q: %w", s, err)
	}
	return v, nil
}
