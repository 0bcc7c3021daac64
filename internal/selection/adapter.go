// Package selection turns an operator's choice of parts into an ordered fetch plan.
package selection

import "serialsync/internal/models"

// Adapt builds the fetch plan for the chosen refs, keeping the chosen order.
// Duplicates pass through; refs not in all are dropped.
func Adapt(all []models.PartDescriptor, chosen []string) models.FetchPlan {
	plan, _ := AdaptWithUnknown(all, chosen)

	return plan
}

// AdaptWithUnknown is Adapt that also returns the refs it could not resolve.
func AdaptWithUnknown(all []models.PartDescriptor, chosen []string) (models.FetchPlan, []string) {
	byRef := make(map[string]models.PartDescriptor, len(all))
	for _, part := range all {
		byRef[part.SourceRef] = part
	}

	plan := make(models.FetchPlan, 0, len(chosen))

	var unknown []string

	for _, ref := range chosen {
		part, ok := byRef[ref]
		if !ok {
			unknown = append(unknown, ref)

			continue
		}

		plan = append(plan, part)
	}

	return plan, unknown
}
