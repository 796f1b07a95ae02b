package offers

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// SortKey names a sortable column of the offers table
type SortKey string

const (
	SortByAPR  SortKey = "average_apr"
	SortByTerm SortKey = "average_term"
)

// ParseSortKey accepts the wire names plus the camelCase forms older clients send
func ParseSortKey(s string) (SortKey, error) {
	switch strings.TrimSpace(s) {
	case "average_apr", "averageApr":
		return SortByAPR, nil
	case "average_term", "averageTerm":
		return SortByTerm, nil
	}
	return "", fmt.Errorf("unknown sort key %q", s)
}

// SortDirection is the order of a sorted column
type SortDirection string

const (
	Ascending  SortDirection = "asc"
	Descending SortDirection = "desc"
)

// Indicator is the tri-state header marker shown next to a sortable column
type Indicator string

const (
	IndicatorNone Indicator = "none"
	IndicatorAsc  Indicator = "asc"
	IndicatorDesc Indicator = "desc"
)

// SortConfig is the active sort: one column and its direction
type SortConfig struct {
	Key       SortKey       `json:"key"`
	Direction SortDirection `json:"direction"`
}

// ViewState is the per-session display state of the offers table. The filtered and
// unfiltered views keep separate sort selections.
type ViewState struct {
	EligibleOnly   bool        `json:"eligible_only"`
	UnfilteredSort *SortConfig `json:"unfiltered_sort,omitempty"`
	FilteredSort   *SortConfig `json:"filtered_sort,omitempty"`
}

func defaultFilteredSort() *SortConfig {
	return &SortConfig{Key: SortByAPR, Direction: Ascending}
}

// ActiveSort returns the sort of the view currently shown, or nil when unsorted
func (v *ViewState) ActiveSort() *SortConfig {
	if v.EligibleOnly {
		if v.FilteredSort == nil {
			v.FilteredSort = defaultFilteredSort()
		}
		return v.FilteredSort
	}
	return v.UnfilteredSort
}

// RequestSort selects a column. Selecting the active column flips its direction,
// any other column starts ascending.
func (v *ViewState) RequestSort(key SortKey) SortConfig {
	current := v.ActiveSort()
	next := &SortConfig{Key: key, Direction: Ascending}
	if current != nil && current.Key == key && current.Direction == Ascending {
		next.Direction = Descending
	}
	if v.EligibleOnly {
		v.FilteredSort = next
	} else {
		v.UnfilteredSort = next
	}
	return *next
}

// SetEligibleOnly switches the filter. Turning it on resets the filtered view to APR
// ascending; turning it off leaves both sort selections untouched.
func (v *ViewState) SetEligibleOnly(on bool) {
	if on && !v.EligibleOnly {
		v.FilteredSort = defaultFilteredSort()
	}
	v.EligibleOnly = on
}

// Indicators returns the header marker for every sortable column
func (v *ViewState) Indicators() map[SortKey]Indicator {
	out := map[SortKey]Indicator{SortByAPR: IndicatorNone, SortByTerm: IndicatorNone}
	if active := v.ActiveSort(); active != nil {
		if active.Direction == Descending {
			out[active.Key] = IndicatorDesc
		} else {
			out[active.Key] = IndicatorAsc
		}
	}
	return out
}

// Ranker filters and orders normalized offers
type Ranker struct {
	eligible map[string]struct{}
}

// NewRanker creates a ranker that treats the named lenders as eligible. Names must match
// exactly.
func NewRanker(eligibleLenders []string) *Ranker {
	set := make(map[string]struct{}, len(eligibleLenders))
	for _, name := range eligibleLenders {
		set[name] = struct{}{}
	}
	return &Ranker{eligible: set}
}

// IsEligible reports whether lender is on the eligible list
func (r *Ranker) IsEligible(lender string) bool {
	_, ok := r.eligible[lender]
	return ok
}

// Apply returns a new list: filtered to eligible lenders when asked, then stably sorted.
// Offers whose key is NaN always come last, in input order. The input is not modified.
func (r *Ranker) Apply(list []NormalizedOffer, eligibleOnly bool, cfg *SortConfig) []NormalizedOffer {
	out := make([]NormalizedOffer, 0, len(list))
	for _, o := range list {
		if eligibleOnly && !r.IsEligible(o.Lender) {
			continue
		}
		out = append(out, o)
	}
	if cfg == nil {
		return out
	}

	key := sortValue(cfg.Key)
	desc := cfg.Direction == Descending
	sort.SliceStable(out, func(i, j int) bool {
		a, b := key(out[i]), key(out[j])
		switch {
		case math.IsNaN(a):
			return false
		case math.IsNaN(b):
			return true
		case desc:
			return a > b
		default:
			return a < b
		}
	})
	return out
}

// View applies the state's filter and active sort
func (r *Ranker) View(list []NormalizedOffer, state *ViewState) []NormalizedOffer {
	return r.Apply(list, state.EligibleOnly, state.ActiveSort())
}

func sortValue(key SortKey) func(NormalizedOffer) float64 {
	if key == SortByTerm {
		return func(o NormalizedOffer) float64 { return o.AverageTerm }
	}
	return func(o NormalizedOffer) float64 { return o.AverageAPR }
}
