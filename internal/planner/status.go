package planner

import "fmt"

// BriefStatus is the production state of a content brief.
// Briefs move black → orange → yellow → blue → green, one step at a time.
type BriefStatus string

// Brief statuses in workflow order
const (
	StatusBlack  BriefStatus = "black"  // brief not ready
	StatusOrange BriefStatus = "orange" // brief ready
	StatusYellow BriefStatus = "yellow" // writing in progress
	StatusBlue   BriefStatus = "blue"   // written, awaiting publication
	StatusGreen  BriefStatus = "green"  // published
)

// AllStatuses lists every status in workflow order
var AllStatuses = []BriefStatus{StatusBlack, StatusOrange, StatusYellow, StatusBlue, StatusGreen}

// Valid reports whether s is a known status
func (s BriefStatus) Valid() bool {
	return s.index() >= 0
}

func (s BriefStatus) index() int {
	for i, st := range AllStatuses {
		if st == s {
			return i
		}
	}
	return -1
}

// Next returns the following status, or false at green
func (s BriefStatus) Next() (BriefStatus, bool) {
	i := s.index()
	if i < 0 || i == len(AllStatuses)-1 {
		return "", false
	}
	return AllStatuses[i+1], true
}

// Previous returns the preceding status, or false at black
func (s BriefStatus) Previous() (BriefStatus, bool) {
	i := s.index()
	if i <= 0 {
		return "", false
	}
	return AllStatuses[i-1], true
}

// CanTransition reports whether a brief may move from s to to.
// Only a single step forward or a single step back is allowed.
func (s BriefStatus) CanTransition(to BriefStatus) bool {
	if next, ok := s.Next(); ok && next == to {
		return true
	}
	if prev, ok := s.Previous(); ok && prev == to {
		return true
	}
	return false
}

// Label returns the human readable meaning of the status
func (s BriefStatus) Label() string {
	switch s {
	case StatusBlack:
		return "Brief not ready"
	case StatusOrange:
		return "Brief ready"
	case StatusYellow:
		return "Writing in progress"
	case StatusBlue:
		return "Awaiting publication"
	case StatusGreen:
		return "Published"
	}
	return string(s)
}

func checkTransition(from, to BriefStatus) error {
	if !to.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrTransition, to)
	}
	if !from.CanTransition(to) {
		return fmt.Errorf("%w: %s -> %s", ErrTransition, from, to)
	}
	return nil
}
