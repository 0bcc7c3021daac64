package models

// Manifest is the aggregated metadata handed to archive assembly.
type Manifest struct {
	Title     string   `json:"title" yaml:"title"`
	Narrative string   `json:"narrative" yaml:"narrative"`
	Language  string   `json:"language" yaml:"language"`
	SourceURL string   `json:"sourceUrl" yaml:"source_url"`
	Tags      []string `json:"tags" yaml:"tags"`
	Files     []string `json:"files" yaml:"files"`
}
