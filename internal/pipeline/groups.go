package pipeline

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatPageRange renders a page group the way it is stored and displayed:
// "3-5" for a multi-page resume, "7" for a single page.
func FormatPageRange(group []int) string {
	if len(group) == 0 {
		return ""
	}
	if len(group) == 1 {
		return strconv.Itoa(group[0])
	}
	return fmt.Sprintf("%d-%d", group[0], group[len(group)-1])
}

// ParsePageGroups parses an operator-supplied group list like "1-2,3,4-6"
// into ordered page groups. Page numbers are 1-based; ranges are inclusive.
func ParsePageGroups(spec string) ([][]int, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, fmt.Errorf("empty page group spec")
	}

	var groups [][]int
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			return nil, fmt.Errorf("empty group in spec %q", spec)
		}
		lo, hi, found := strings.Cut(part, "-")
		first, err := strconv.Atoi(strings.TrimSpace(lo))
		if err != nil || first < 1 {
			return nil, fmt.Errorf("invalid page number %q", lo)
		}
		last := first
		if found {
			last, err = strconv.Atoi(strings.TrimSpace(hi))
			if err != nil || last < first {
				return nil, fmt.Errorf("invalid page range %q", part)
			}
		}
		group := make([]int, 0, last-first+1)
		for p := first; p <= last; p++ {
			group = append(group, p)
		}
		groups = append(groups, group)
	}
	return groups, nil
}
