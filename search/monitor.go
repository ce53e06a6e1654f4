package search

import (
	"github.com/poiesic/vicinity/core"
	"github.com/poiesic/vicinity/storage"
)

// QueryMonitor provides hooks to observe the query process.
// Implement this interface to track intermediate steps during a query.
type QueryMonitor interface {
	Start(req *core.QueryRequest)
	AfterRadiusSearch(matches []storage.LocationMatch)
	AfterEmbeddingFetch(found int)
	Finish(results []core.ScoredResult)
}

// noopMonitor is a no-op implementation of QueryMonitor
type noopMonitor struct{}

var _ QueryMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ *core.QueryRequest)                   {}
func (n *noopMonitor) AfterRadiusSearch(_ []storage.LocationMatch)  {}
func (n *noopMonitor) AfterEmbeddingFetch(_ int)                    {}
func (n *noopMonitor) Finish(_ []core.ScoredResult)                 {}
