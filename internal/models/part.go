// Package models defines data structures shared by the sync stages.
package models

import "time"

// PartFragment is the metadata extracted from a part's detail page.
type PartFragment struct {
	ModifiedAt *time.Time `json:"modifiedAt,omitempty" yaml:"modified_at,omitempty"`
	Annotation string     `json:"annotation,omitempty" yaml:"annotation,omitempty"`
	GenreTags  []string   `json:"genreTags,omitempty" yaml:"genre_tags,omitempty"`
}

// PartDescriptor describes one serialized part of a publication.
type PartDescriptor struct {
	ModifiedAt *time.Time `json:"modifiedAt,omitempty" yaml:"modified_at,omitempty"`
	// SourceRef is the href the part was found under, unique within a publication.
	SourceRef  string `json:"sourceRef" yaml:"source_ref"`
	OrderLabel string `json:"orderLabel" yaml:"order_label"`
	Title      string `json:"title" yaml:"title"`
	Annotation string `json:"annotation,omitempty" yaml:"annotation,omitempty"`
	// IsModified is computed once at scan time against the watermark.
	IsModified bool `json:"isModified" yaml:"is_modified"`
	// MetadataKnown is false when the detail page could not be fetched.
	MetadataKnown bool `json:"metadataKnown" yaml:"metadata_known"`
}

// Merge copies the extracted fragment into the descriptor.
func (p *PartDescriptor) Merge(f PartFragment) {
	p.Annotation = f.Annotation
	p.ModifiedAt = f.ModifiedAt
	p.MetadataKnown = true
}

// DisplayName returns "{label} - {title}", the form shown to operators.
func (p *PartDescriptor) DisplayName() string {
	return p.OrderLabel + " - " + p.Title
}

// Publication is the result of scanning an index page.
type Publication struct {
	IndexURL string           `json:"indexUrl" yaml:"index_url"`
	Title    string           `json:"title" yaml:"title"`
	Parts    []PartDescriptor `json:"parts" yaml:"parts"`
	Tags     *TagSet          `json:"tags" yaml:"tags"`
}

// Part returns the descriptor with the given source reference.
func (p *Publication) Part(ref string) (PartDescriptor, bool) {
	for _, part := range p.Parts {
		if part.SourceRef == ref {
			return part, true
		}
	}

	return PartDescriptor{}, false
}

// ModifiedCount returns how many parts are flagged as modified.
func (p *Publication) ModifiedCount() int {
	n := 0

	for _, part := range p.Parts {
		if part.IsModified {
			n++
		}
	}

	return n
}
