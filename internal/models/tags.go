package models

import (
	"encoding/json"

	"gopkg.in/yaml.v3"
)

// TagSet is a set of genre tags that remembers first-seen order.
// Membership is exact string match.
type TagSet struct {
	seen  map[string]struct{}
	order []string
}

// NewTagSet creates a tag set holding the given tags.
func NewTagSet(tags ...string) *TagSet {
	s := &TagSet{seen: make(map[string]struct{})}
	s.Add(tags...)

	return s
}

// Add inserts tags not yet present. Empty strings are ignored.
func (s *TagSet) Add(tags ...string) {
	if s.seen == nil {
		s.seen = make(map[string]struct{})
	}

	for _, tag := range tags {
		if tag == "" {
			continue
		}

		if _, ok := s.seen[tag]; ok {
			continue
		}

		s.seen[tag] = struct{}{}
		s.order = append(s.order, tag)
	}
}

// Contains reports whether tag is in the set.
func (s *TagSet) Contains(tag string) bool {
	if s == nil {
		return false
	}

	_, ok := s.seen[tag]

	return ok
}

// Len returns the number of tags.
func (s *TagSet) Len() int {
	if s == nil {
		return 0
	}

	return len(s.order)
}

// Values returns a copy of the tags in first-seen order.
func (s *TagSet) Values() []string {
	if s == nil {
		return nil
	}

	out := make([]string, len(s.order))
	copy(out, s.order)

	return out
}

// MarshalJSON encodes the set as a list.
func (s *TagSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Values())
}

// MarshalYAML encodes the set as a list.
func (s *TagSet) MarshalYAML() (any, error) {
	return s.Values(), nil
}

// UnmarshalYAML decodes a list, dropping duplicates.
func (s *TagSet) UnmarshalYAML(node *yaml.Node) error {
	var tags []string
	if err := node.Decode(&tags); err != nil {
		return err
	}

	*s = TagSet{}
	s.Add(tags...)

	return nil
}
