package schema

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// GroupName identifies a display bucket for custom fields.
type GroupName string

const (
	GroupBasic          GroupName = "basic"
	GroupSpecifications GroupName = "specifications"
	GroupDimensions     GroupName = "dimensions"
	GroupPublishing     GroupName = "publishing"
	GroupOther          GroupName = "other"
)

// GroupOrder is the order in which groups are presented.
var GroupOrder = []GroupName{
	GroupBasic, GroupSpecifications, GroupDimensions, GroupPublishing, GroupOther,
}

// Group is a named set of fields, in schema order.
type Group struct {
	Name   GroupName `yaml:"name" json:"name"`
	Fields []Field   `yaml:"fields" json:"fields"`
}

// Groups is a classification result. Empty groups are never present.
type Groups []Group

// Get returns the fields of a group, or nil if the group is absent.
func (g Groups) Get(name GroupName) []Field {
	for _, grp := range g {
		if grp.Name == name {
			return grp.Fields
		}
	}
	return nil
}

// Map returns the classification keyed by group name.
func (g Groups) Map() map[GroupName][]Field {
	m := make(map[GroupName][]Field, len(g))
	for _, grp := range g {
		m[grp.Name] = grp.Fields
	}
	return m
}

// GroupRule sends a field to Group when its lower-cased name contains any
// of the Contains keywords.
type GroupRule struct {
	Group    GroupName `yaml:"group" json:"group"`
	Contains []string  `yaml:"contains" json:"contains"`
}

// Matches reports whether the rule applies to a field name.
func (r GroupRule) Matches(name string) bool {
	name = strings.ToLower(name)
	for _, kw := range r.Contains {
		if kw != "" && strings.Contains(name, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// DefaultGroupRules are evaluated in order; the first match wins and
// unmatched fields go to GroupOther.
var DefaultGroupRules = []GroupRule{
	{Group: GroupPublishing, Contains: []string{"author", "publisher", "isbn"}},
	{Group: GroupDimensions, Contains: []string{"weight", "dimension", "size"}},
	{Group: GroupSpecifications, Contains: []string{"spec", "feature", "detail"}},
	{Group: GroupBasic, Contains: []string{"title", "name", "description"}},
}

// Classify groups fields with DefaultGroupRules.
func Classify(fields []Field) Groups {
	return ClassifyWith(DefaultGroupRules, fields)
}

// ClassifyWith groups fields using the given rules. Every field lands in
// exactly one group. Groups follow GroupOrder; groups named by rules but
// missing from GroupOrder come after it in first-use order.
func ClassifyWith(rules []GroupRule, fields []Field) Groups {
	buckets := make(map[GroupName][]Field)
	var extra []GroupName

	for _, f := range fields {
		name := GroupOther
		for _, r := range rules {
			if r.Matches(f.Name) {
				name = r.Group
				break
			}
		}
		if _, seen := buckets[name]; !seen && !isOrdered(name) {
			extra = append(extra, name)
		}
		buckets[name] = append(buckets[name], f)
	}

	var out Groups
	for _, name := range append(append([]GroupName(nil), GroupOrder...), extra...) {
		if fs := buckets[name]; len(fs) > 0 {
			out = append(out, Group{Name: name, Fields: fs})
		}
	}
	return out
}

func isOrdered(name GroupName) bool {
	for _, n := range GroupOrder {
		if n == name {
			return true
		}
	}
	return false
}

// LoadGroupRules parses a rule list from YAML:
//
//	rules:
//	  - group: publishing
//	    contains: [author, publisher, isbn]
func LoadGroupRules(data []byte) ([]GroupRule, error) {
	var cfg struct {
		Rules []GroupRule `yaml:"rules"`
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing group rules: %w", err)
	}
	for i, r := range cfg.Rules {
		if r.Group == "" {
			return nil, fmt.Errorf("group rule %d: missing group", i)
		}
	}
	return cfg.Rules, nil
}
