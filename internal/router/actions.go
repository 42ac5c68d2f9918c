package router

import (
	"fmt"
	"sort"
)

// ActionMap maps recognized client actions to the tier that must serve them.
type ActionMap struct {
	tiers map[string]Tier
}

// NewActionMap validates and copies the action table.
func NewActionMap(m map[string]string) (ActionMap, error) {
	tiers := make(map[string]Tier, len(m))
	for action, t := range m {
		tier := Tier(t)
		if !tier.Valid() {
			return ActionMap{}, fmt.Errorf("action %q: unknown tier %q", action, t)
		}
		tiers[action] = tier
	}
	return ActionMap{tiers: tiers}, nil
}

// Lookup returns the tier for a recognized action.
func (a ActionMap) Lookup(action string) (Tier, bool) {
	if action == "" {
		return "", false
	}
	t, ok := a.tiers[action]
	return t, ok
}

// Names returns the recognized actions sorted by name.
func (a ActionMap) Names() []string {
	names := make([]string, 0, len(a.tiers))
	for n := range a.tiers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
