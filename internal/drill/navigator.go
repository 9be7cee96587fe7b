// Package drill holds the client-side navigation state machine:
// Year -> Month -> Day, one aggregation request per transition.
package drill

import (
	"sync"

	"fleet-analytics-service/internal/model"
)

// Request identifies one outgoing drill fetch. Seq is a logical
// sequence number: responses carrying a stale Seq are discarded on
// arrival, so a slow earlier fetch can never overwrite newer state.
type Request struct {
	Level  model.DrillLevel
	Parent string
	Seq    uint64
}

// Navigator tracks the current drill position. The zero value is not
// usable; construct with New.
type Navigator struct {
	mu     sync.Mutex
	level  model.DrillLevel
	parent string
	seq    uint64
}

// New starts at Year with no parent.
func New() *Navigator {
	return &Navigator{level: model.LevelYear}
}

// Current returns the request matching the present state without
// advancing the sequence.
func (n *Navigator) Current() Request {
	n.mu.Lock()
	defer n.mu.Unlock()
	return Request{Level: n.level, Parent: n.parent, Seq: n.seq}
}

// DrillDown descends one level using the clicked period key as the new
// parent. At Day it is a no-op and reports false.
func (n *Navigator) DrillDown(clickedPeriodKey string) (Request, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()

	switch n.level {
	case model.LevelYear:
		n.level = model.LevelMonth
	case model.LevelMonth:
		n.level = model.LevelDay
	default:
		return Request{Level: n.level, Parent: n.parent, Seq: n.seq}, false
	}
	n.parent = clickedPeriodKey
	n.seq++
	return Request{Level: n.level, Parent: n.parent, Seq: n.seq}, true
}

// DrillUp ascends one level: Day goes back to its month's year, Month
// back to the unparented Year view. At Year it is a no-op and reports
// false.
func (n *Navigator) DrillUp() (Request, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()

	switch n.level {
	case model.LevelDay:
		n.level = model.LevelMonth
		if len(n.parent) >= 4 {
			n.parent = n.parent[:4]
		}
	case model.LevelMonth:
		n.level = model.LevelYear
		n.parent = ""
	default:
		return Request{Level: n.level, Parent: n.parent, Seq: n.seq}, false
	}
	n.seq++
	return Request{Level: n.level, Parent: n.parent, Seq: n.seq}, true
}

// Accept reports whether a response for the given sequence number may
// be applied. Only the request issued last wins; everything older is
// stale and must be dropped.
func (n *Navigator) Accept(seq uint64) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return seq == n.seq
}
