package chunk

import (
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"
)

var (
	sprintPattern = regexp.MustCompile(`Sprint\s+(\d+)`)
	datePattern   = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)
	weekPattern   = regexp.MustCompile(`Week of ([^/]+)`)
)

// scanContext tracks the current header hierarchy and the fields derived from
// it while a document is scanned top to bottom. Fields are sticky: a value set
// by one header persists until a later header supplies a new value for the
// same field.
type scanContext struct {
	headers []string
	sprint  int
	date    *time.Time
	week    string
}

// snapshot returns a deep copy of the context. Every chunk flush captures a
// snapshot so later header mutations cannot retroactively alter chunks that
// were already emitted.
func (c *scanContext) snapshot() scanContext {
	snap := scanContext{
		headers: slices.Clone(c.headers),
		sprint:  c.sprint,
		week:    c.week,
	}
	if c.date != nil {
		date := *c.date
		snap.date = &date
	}
	return snap
}

// applyHeader replaces the header stack at the given level and re-derives the
// sticky fields from the header title. The stack is truncated to depth
// level-1 and the new title appended, discarding any deeper headers.
func (c *scanContext) applyHeader(level int, title string) {
	depth := level - 1
	if depth > len(c.headers) {
		depth = len(c.headers)
	}
	c.headers = append(c.headers[:depth], title)

	if m := sprintPattern.FindStringSubmatch(title); m != nil {
		if sprint, err := strconv.Atoi(m[1]); err == nil {
			c.sprint = sprint
		}
	}
	if m := datePattern.FindString(title); m != "" {
		if date, err := time.Parse("2006-01-02", m); err == nil {
			c.date = &date
		}
	}
	if m := weekPattern.FindStringSubmatch(title); m != nil {
		c.week = strings.TrimSpace(m[1])
	}
}
