// Package manifest folds per-part metadata into the manifest handed to archive assembly.
package manifest

import (
	"strings"

	"serialsync/internal/models"
)

// Aggregate builds the manifest from the plan and its fetch results, in plan order.
// Parts without a local file are skipped. An annotation is added only when the
// narrative accumulated so far does not already contain it verbatim.
func Aggregate(pub *models.Publication, plan models.FetchPlan, results []models.FetchResult, language string) models.Manifest {
	var narrative strings.Builder

	var files []string

	for i, part := range plan {
		if i >= len(results) || !results[i].OK() {
			continue
		}

		narrative.WriteString(part.OrderLabel + " - " + part.Title + "\n\n")

		if !strings.Contains(narrative.String(), part.Annotation) {
			narrative.WriteString(part.Annotation + "\n\n")
		}

		files = append(files, results[i].Path)
	}

	return models.Manifest{
		Title:     pub.Title,
		Narrative: narrative.String(),
		Language:  language,
		SourceURL: pub.IndexURL,
		Tags:      pub.Tags.Values(),
		Files:     files,
	}
}
