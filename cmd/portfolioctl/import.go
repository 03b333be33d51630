package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/designstudio/portfolio-backend/internal/projects/domain"
	projsync "github.com/designstudio/portfolio-backend/internal/projects/sync"
)

type seedFile struct {
	Projects []seedProject `yaml:"projects"`
}

type seedProject struct {
	Title       string `yaml:"title"`
	Category    string `yaml:"category"`
	Description string `yaml:"description"`
	Image       string `yaml:"image"`
	Video       string `yaml:"video"`
}

func (s seedProject) project() domain.Project {
	return domain.Project{
		Title:       s.Title,
		Category:    s.Category,
		Description: s.Description,
		Image:       s.Image,
		Video:       s.Video,
	}
}

func parseSeed(data []byte) ([]domain.Project, error) {
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	out := make([]domain.Project, 0, len(f.Projects))
	for i, sp := range f.Projects {
		p := sp.project()
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("project %d: %w", i+1, err)
		}
		if !p.HasExclusiveMedia() {
			return nil, fmt.Errorf("project %d: %w", i+1, domain.NewValidationError("image and video are mutually exclusive", "image", "video"))
		}
		out = append(out, p)
	}
	return out, nil
}

func (c *cli) importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.yaml>",
		Short: "Create projects from a YAML seed file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			projects, err := parseSeed(data)
			if err != nil {
				return err
			}

			api, _, err := c.connect()
			if err != nil {
				return err
			}
			engine := projsync.NewEngine(api)
			for _, p := range projects {
				if _, err := engine.AddProject(cmd.Context(), p); err != nil {
					return fmt.Errorf("import %q: %w", p.Title, err)
				}
			}
			fmt.Fprintf(c.out, "Imported %d projects\n", len(projects))
			return nil
		},
	}
}
