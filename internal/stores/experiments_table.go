package stores

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/five82/mlconsole/internal/api"
)

// Filter is a compiled boolean expression over an experiment, e.g.
//
//	state == "ACTIVE" && progress > 0.5
//	"tuned" in labels || user == "admin"
//
// Available variables: id, name, description, state, user, project,
// workspace, trials, progress, archived, searcher, pool, labels.
type Filter struct {
	source  string
	program *vm.Program
}

// CompileFilter parses source. An empty source matches everything.
func CompileFilter(source string) (*Filter, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return &Filter{}, nil
	}
	program, err := expr.Compile(source, expr.Env(experimentEnv(api.Experiment{})), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile filter: %w", err)
	}
	return &Filter{source: source, program: program}, nil
}

func (f *Filter) String() string { return f.source }

// Match evaluates the filter against one experiment.
func (f *Filter) Match(e api.Experiment) (bool, error) {
	if f == nil || f.program == nil {
		return true, nil
	}
	out, err := expr.Run(f.program, experimentEnv(e))
	if err != nil {
		return false, fmt.Errorf("evaluate filter on experiment %d: %w", e.ID, err)
	}
	ok, _ := out.(bool)
	return ok, nil
}

// Apply keeps the experiments that match, preserving order.
func (f *Filter) Apply(list []api.Experiment) ([]api.Experiment, error) {
	out := make([]api.Experiment, 0, len(list))
	for _, e := range list {
		ok, err := f.Match(e)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, e)
		}
	}
	return out, nil
}

func experimentEnv(e api.Experiment) map[string]any {
	labels := e.Labels
	if labels == nil {
		labels = []string{}
	}
	return map[string]any{
		"id":          e.ID,
		"name":        e.Name,
		"description": e.Description,
		"state":       e.State,
		"user":        e.Username,
		"project":     e.ProjectID,
		"workspace":   e.WorkspaceID,
		"trials":      e.NumTrials,
		"progress":    e.Progress,
		"archived":    e.Archived,
		"searcher":    e.SearcherType,
		"pool":        e.ResourcePool,
		"labels":      labels,
	}
}

// SortKey names a sortable experiment column.
type SortKey string

const (
	SortByID       SortKey = "id"
	SortByName     SortKey = "name"
	SortByState    SortKey = "state"
	SortByUser     SortKey = "user"
	SortByProgress SortKey = "progress"
	SortByStart    SortKey = "start"
	SortByTrials   SortKey = "trials"
)

// SortKeys lists the keys Sort understands.
var SortKeys = []SortKey{SortByID, SortByName, SortByState, SortByUser, SortByProgress, SortByStart, SortByTrials}

// Sort returns a sorted copy of list. Ties fall back to ID order.
func Sort(list []api.Experiment, key SortKey, desc bool) []api.Experiment {
	out := slices.Clone(list)
	slices.SortStableFunc(out, func(a, b api.Experiment) int {
		c := compareBy(key, a, b)
		if c == 0 {
			c = cmp.Compare(a.ID, b.ID)
		}
		if desc {
			return -c
		}
		return c
	})
	return out
}

func compareBy(key SortKey, a, b api.Experiment) int {
	switch key {
	case SortByName:
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	case SortByState:
		return strings.Compare(a.State, b.State)
	case SortByUser:
		return strings.Compare(a.Username, b.Username)
	case SortByProgress:
		return cmp.Compare(a.Progress, b.Progress)
	case SortByStart:
		return a.Started().Compare(b.Started())
	case SortByTrials:
		return cmp.Compare(a.NumTrials, b.NumTrials)
	default:
		return cmp.Compare(a.ID, b.ID)
	}
}

// Page returns list[offset:offset+limit], clamped. A non-positive limit
// returns everything from offset.
func Page(list []api.Experiment, offset, limit int) []api.Experiment {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(list) {
		return []api.Experiment{}
	}
	end := len(list)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return list[offset:end]
}

// TableQuery is the filter, sort and page state of an experiment table.
type TableQuery struct {
	Filter string
	Sort   SortKey
	Desc   bool
	Offset int
	Limit  int
}

// TableResult is one page plus the number of rows that matched.
type TableResult struct {
	Rows  []api.Experiment
	Total int
}

// Run filters, sorts and pages list.
func (q TableQuery) Run(list []api.Experiment) (TableResult, error) {
	filter, err := CompileFilter(q.Filter)
	if err != nil {
		return TableResult{}, err
	}
	matched, err := filter.Apply(list)
	if err != nil {
		return TableResult{}, err
	}
	sorted := Sort(matched, q.Sort, q.Desc)
	return TableResult{Rows: Page(sorted, q.Offset, q.Limit), Total: len(matched)}, nil
}
