package coordinator

import (
	"github.com/s0up4200/dexbrowse/catalog"
)

// Mode is what the list is currently showing
type Mode int

const (
	ModeBrowse Mode = iota
	ModeSearch
	ModeCategory
)

// String returns the string representation of a Mode
func (m Mode) String() string {
	switch m {
	case ModeBrowse:
		return "browse"
	case ModeSearch:
		return "search"
	case ModeCategory:
		return "category"
	default:
		return "unknown"
	}
}

// State is a read-only snapshot of the coordinator
type State struct {
	Items    []catalog.ItemDetail
	Mode     Mode
	Category string
	Query    string
	// Offset is the next browse page offset; unused outside ModeBrowse
	Offset int
	// QueueLen is the number of refs waiting for detail fetch
	QueueLen  int
	IsLoading bool
	IsOffline bool
	// Error is the last surfaced failure, nil when the last operation succeeded
	Error     *DisplayError
	Exhausted bool
}

// loadPlan is the work captured when a load starts
type loadPlan struct {
	gen    uint64
	mode   Mode
	offset int
	refs   []catalog.ItemRef
}
