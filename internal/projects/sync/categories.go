package sync

import "github.com/designstudio/portfolio-backend/internal/projects/domain"

// AllCategories selects every project in FilterByCategory.
const AllCategories = "all"

// Categories returns the distinct categories in order of first appearance.
// Categories are case-sensitive.
func Categories(projects []domain.Project) []string {
	seen := make(map[string]struct{}, len(projects))
	var out []string
	for _, p := range projects {
		if _, ok := seen[p.Category]; ok {
			continue
		}
		seen[p.Category] = struct{}{}
		out = append(out, p.Category)
	}
	return out
}

// FilterByCategory keeps projects in category. An empty category or
// AllCategories keeps everything.
func FilterByCategory(projects []domain.Project, category string) []domain.Project {
	if category == "" || category == AllCategories {
		return append([]domain.Project(nil), projects...)
	}
	var out []domain.Project
	for _, p := range projects {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out
}
