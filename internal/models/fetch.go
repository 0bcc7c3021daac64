package models

// FetchPlan is the operator-ordered list of parts to materialize.
type FetchPlan []PartDescriptor

// Refs returns the source references in plan order.
func (p FetchPlan) Refs() []string {
	refs := make([]string, len(p))
	for i, part := range p {
		refs[i] = part.SourceRef
	}

	return refs
}

// FetchResult is the outcome for one planned part.
// Path is set when the file was downloaded or already present; Err marks an absence.
type FetchResult struct {
	Err       error
	SourceRef string
	Path      string
}

// OK reports whether the part is available locally.
func (r FetchResult) OK() bool {
	return r.Err == nil && r.Path != ""
}

// Paths returns the local paths of the available parts, in order.
func Paths(results []FetchResult) []string {
	var paths []string

	for _, r := range results {
		if r.OK() {
			paths = append(paths, r.Path)
		}
	}

	return paths
}
