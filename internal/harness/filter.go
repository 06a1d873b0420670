package harness

import (
	"fmt"
	"regexp"
	"strings"
)

// Filter is a function that can determine whether to run a specific test or not.
type Filter func(TestID) bool

type RegexFilters struct {
	MustMatch    RegexList
	MustNotMatch RegexList
}

// AsFilter selects tests the way "go test -run/-skip" does: each pattern is
// split on "/" and every element is matched against the test name at the
// same depth.
func (r RegexFilters) AsFilter(id TestID) bool {
	return (!r.MustMatch.IsDefined() || r.MustMatch.selects(id.Path)) &&
		!r.MustNotMatch.excludes(id.Path)
}

// RegexList is a flag.Value collecting one pattern per occurrence.
type RegexList struct {
	raw      []string
	patterns [][]*regexp.Regexp
}

func (r RegexList) String() string {
	ss := make([]string, 0, len(r.raw))
	for _, p := range r.raw {
		ss = append(ss, `"`+p+`"`)
	}
	return strings.Join(ss, " or ")
}

// Set is called by the command line parser
func (r *RegexList) Set(value string) error {
	var levels []*regexp.Regexp
	for _, elem := range strings.Split(value, "/") {
		rx, err := regexp.Compile(elem)
		if err != nil {
			return fmt.Errorf("invalid regex: %w", err)
		}
		levels = append(levels, rx)
	}
	r.raw = append(r.raw, value)
	r.patterns = append(r.patterns, levels)
	return nil
}

func (r RegexList) IsDefined() bool {
	return len(r.patterns) != 0
}

// selects reports whether path is on the way to, or inside, a match.
func (r RegexList) selects(path []string) bool {
	for _, levels := range r.patterns {
		if matchLevels(levels, path) {
			return true
		}
	}
	return false
}

// excludes reports whether path is at or below a complete match.
func (r RegexList) excludes(path []string) bool {
	for _, levels := range r.patterns {
		if len(path) >= len(levels) && matchLevels(levels, path) {
			return true
		}
	}
	return false
}

func matchLevels(levels []*regexp.Regexp, path []string) bool {
	for i := 0; i < len(levels) && i < len(path); i++ {
		if !levels[i].MatchString(path[i]) {
			return false
		}
	}
	return true
}
