package sync

import "github.com/designstudio/portfolio-backend/internal/projects/domain"

const samplePlaceholder = "/placeholder.svg?height=600&width=800"

// SampleProjects is the built-in list shown in degraded mode. The IDs are
// prefixed so they can never be mistaken for server records.
func SampleProjects() []domain.Project {
	return []domain.Project{
		{ID: "sample-1", Title: "Brand Identity", Category: "branding", Description: "Complete brand identity design for a tech startup", Image: samplePlaceholder},
		{ID: "sample-2", Title: "Product Packaging", Category: "packaging", Description: "Eco-friendly packaging design for cosmetics brand", Image: samplePlaceholder},
		{ID: "sample-3", Title: "Editorial Design", Category: "print", Description: "Magazine layout and editorial design", Image: samplePlaceholder},
		{ID: "sample-4", Title: "Mobile App UI", Category: "ui", Description: "User interface design for fitness tracking app", Image: samplePlaceholder},
	}
}
