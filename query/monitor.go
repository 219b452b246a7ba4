package query

import (
	"github.com/loamlabs/noteseek/core"
)

// QueryMonitor provides hooks to observe the query pipeline.
// Implement this interface to track intermediate steps and results during a query.
type QueryMonitor interface {
	Start(query string)
	AfterEnrichment(meta *core.QueryMetadata)
	AfterSimilaritySearch(results []*core.SearchResult)
	AfterRerank(candidates []*core.Candidate)
	Finish(answer string)
}

// noopMonitor is a no-op implementation of QueryMonitor
type noopMonitor struct{}

var _ QueryMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                              {}
func (n *noopMonitor) AfterEnrichment(_ *core.QueryMetadata)       {}
func (n *noopMonitor) AfterSimilaritySearch(_ []*core.SearchResult) {}
func (n *noopMonitor) AfterRerank(_ []*core.Candidate)             {}
func (n *noopMonitor) Finish(_ string)                             {}
