package merge

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"
)

type Status string

const (
	NotExist   Status = "NOT_EXIST"
	NoUpdate   Status = "NO_UPDATE"
	Updated    Status = "UPDATED"
	NewlyAdded Status = "NEWLY_ADDED"
)

// Policy selects what happens when a source row key matches more than one target row.
type Policy string

const (
	// PolicyFirst uses the first matching target row (in target row order) and records a warning.
	PolicyFirst Policy = "first"

	// PolicyReject fails the run with ErrAmbiguousKeyMatch.
	PolicyReject Policy = "reject"
)

const (
	DefaultStatusColumn = "Check Update"
)

var DefaultKeyColumns = []string{"Opp No", "Detail Key"}

type Options struct {
	Keys   []string
	Status string
	Policy Policy

	// Ignore excludes matching column titles from comparison and from inserted rows. Key
	// columns are never excluded.
	Ignore []glob.Glob
}

func DefaultOptions() Options {
	return Options{
		Keys:   append([]string{}, DefaultKeyColumns...),
		Status: DefaultStatusColumn,
		Policy: PolicyFirst,
	}
}

func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(PolicyFirst):
		return PolicyFirst, nil

	case string(PolicyReject):
		return PolicyReject, nil

	default:
		return "", fmt.Errorf("invalid match policy '%v' - expected 'first' or 'reject'", s)
	}
}

func CompileIgnore(patterns []string) ([]glob.Glob, error) {
	list := []glob.Glob{}
	for _, p := range patterns {
		if p = strings.TrimSpace(p); p == "" {
			continue
		}

		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid ignore pattern '%v' (%w)", p, err)
		}

		list = append(list, g)
	}

	return list, nil
}

func (o Options) withDefaults() Options {
	if len(o.Keys) == 0 {
		o.Keys = append([]string{}, DefaultKeyColumns...)
	}

	if o.Status == "" {
		o.Status = DefaultStatusColumn
	}

	if o.Policy == "" {
		o.Policy = PolicyFirst
	}

	return o
}

func (o Options) ignored(title string) bool {
	for _, g := range o.Ignore {
		if g.Match(title) {
			return true
		}
	}

	return false
}
