package group

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/loamlabs/noteseek/core"
)

// SprintSummary aggregates the indexed documents belonging to one sprint.
type SprintSummary struct {
	Sprint      string
	Documents   int
	FirstDate   string
	LastDate    string
	Activities  map[string]int
	TotalChunks int
}

// Summary describes the shape of an index built from retrieval documents,
// organized by sprint.
type Summary struct {
	Sprints     []SprintSummary
	NoSprint    SprintSummary
	Documents   int
	TotalChunks int
}

// BuildSummary aggregates documents into a per-sprint index summary.
// Documents without a sprint land in the NoSprint bucket.
func BuildSummary(documents []*core.RetrievalDocument) *Summary {
	bySprint := make(map[string]*SprintSummary)
	noSprint := SprintSummary{Activities: make(map[string]int)}
	summary := &Summary{}

	for _, doc := range documents {
		summary.Documents++
		chunks := doc.ChunkCount
		if chunks < 1 {
			chunks = 1
		}
		summary.TotalChunks += chunks

		bucket := &noSprint
		if sprint := doc.Metadata["sprint"]; sprint != "" {
			if bySprint[sprint] == nil {
				bySprint[sprint] = &SprintSummary{Sprint: sprint, Activities: make(map[string]int)}
			}
			bucket = bySprint[sprint]
		}

		bucket.Documents++
		bucket.TotalChunks += chunks
		if activity := doc.Metadata["activity"]; activity != "" {
			bucket.Activities[activity]++
		}
		if date := doc.Metadata["date"]; date != "" {
			if bucket.FirstDate == "" || date < bucket.FirstDate {
				bucket.FirstDate = date
			}
			if date > bucket.LastDate {
				bucket.LastDate = date
			}
		}
	}

	sprints := make([]SprintSummary, 0, len(bySprint))
	for _, s := range bySprint {
		sprints = append(sprints, *s)
	}
	sort.Slice(sprints, func(i, j int) bool {
		return sprintSortKey(sprints[i].Sprint) < sprintSortKey(sprints[j].Sprint)
	})

	summary.Sprints = sprints
	summary.NoSprint = noSprint
	return summary
}

// sprintSortKey orders numeric sprint labels numerically, pushing
// non-numeric labels to the end.
func sprintSortKey(sprint string) int {
	n, err := strconv.Atoi(sprint)
	if err != nil {
		return int(^uint(0) >> 1)
	}
	return n
}

// WriteTo renders the summary as a human-readable report.
func (s *Summary) WriteTo(w io.Writer) (int64, error) {
	var written int64

	printf := func(format string, args ...any) error {
		n, err := fmt.Fprintf(w, format, args...)
		written += int64(n)
		return err
	}

	if err := printf("=== INDEX SUMMARY ===\n\nDOCUMENTS BY SPRINT:\n"); err != nil {
		return written, err
	}

	writeBucket := func(b SprintSummary) error {
		if err := printf("  Documents: %d\n", b.Documents); err != nil {
			return err
		}
		if b.FirstDate != "" {
			if err := printf("  Period: %s to %s\n", b.FirstDate, b.LastDate); err != nil {
				return err
			}
		}
		if len(b.Activities) > 0 {
			if err := printf("  Activities:\n"); err != nil {
				return err
			}
			names := make([]string, 0, len(b.Activities))
			for name := range b.Activities {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				if err := printf("    - %s (%d documents)\n", name, b.Activities[name]); err != nil {
					return err
				}
			}
		}
		return printf("  Total chunks: %d\n", b.TotalChunks)
	}

	for _, sprint := range s.Sprints {
		if err := printf("\nSprint %s:\n", sprint.Sprint); err != nil {
			return written, err
		}
		if err := writeBucket(sprint); err != nil {
			return written, err
		}
	}

	if s.NoSprint.Documents > 0 {
		if err := printf("\nDOCUMENTS WITHOUT SPRINT:\n"); err != nil {
			return written, err
		}
		if err := writeBucket(s.NoSprint); err != nil {
			return written, err
		}
	}

	err := printf("\nTOTALS:\n  Documents: %d\n  Sprints: %d\n  Chunks: %d\n",
		s.Documents, len(s.Sprints), s.TotalChunks)
	return written, err
}
