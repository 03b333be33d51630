package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	authsvc "github.com/designstudio/portfolio-backend/internal/auth/service"
	"github.com/designstudio/portfolio-backend/internal/media"
	"github.com/designstudio/portfolio-backend/internal/projects/client"
	"github.com/designstudio/portfolio-backend/internal/projects/domain"
	"github.com/designstudio/portfolio-backend/internal/projects/session"
	projsync "github.com/designstudio/portfolio-backend/internal/projects/sync"
)

const defaultServer = "http://localhost:8080"

type cli struct {
	out    io.Writer
	server string
}

func newRootCmd(out io.Writer) *cobra.Command {
	c := &cli{out: out}

	root := &cobra.Command{
		Use:           "portfolioctl",
		Short:         "Manage portfolio projects",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&c.server, "server", "", "API base URL (defaults to the logged-in server)")

	root.AddCommand(
		c.loginCmd(),
		c.logoutCmd(),
		c.listCmd(),
		c.categoriesCmd(),
		c.addCmd(),
		c.editCmd(),
		c.deleteCmd(),
		c.watchCmd(),
		c.importCmd(),
		c.hashPasswordCmd(),
	)
	return root
}

// connect builds an API client from flags and the saved session.
func (c *cli) connect() (*client.Client, *Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	server := c.server
	if server == "" {
		server = cfg.BaseURL
	}
	if server == "" {
		server = defaultServer
	}
	api, err := client.New(server)
	if err != nil {
		return nil, nil, err
	}
	if cfg.SessionToken != "" && (cfg.BaseURL == "" || cfg.BaseURL == api.BaseURL()) {
		api.SetSessionToken(cfg.SessionToken)
	}
	return api, cfg, nil
}

func (c *cli) loginCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in as the portfolio admin",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if password == "" {
				password = os.Getenv("PORTFOLIO_PASSWORD")
			}
			if email == "" || password == "" {
				return fmt.Errorf("--email and --password (or PORTFOLIO_PASSWORD) are required")
			}
			api, cfg, err := c.connect()
			if err != nil {
				return err
			}
			if err := api.Login(cmd.Context(), email, password); err != nil {
				return fmt.Errorf("login failed: %w", err)
			}
			cfg.BaseURL = api.BaseURL()
			cfg.SessionToken = api.SessionToken()
			if err := saveConfig(cfg); err != nil {
				return err
			}
			fmt.Fprintf(c.out, "Logged in to %s\n", cfg.BaseURL)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Admin email")
	cmd.Flags().StringVar(&password, "password", "", "Admin password")
	return cmd
}

func (c *cli) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			api, cfg, err := c.connect()
			if err != nil {
				return err
			}
			if err := api.Logout(cmd.Context()); err != nil && !errors.Is(err, domain.ErrNetwork) {
				return err
			}
			cfg.SessionToken = ""
			if err := saveConfig(cfg); err != nil {
				return err
			}
			fmt.Fprintln(c.out, "Logged out")
			return nil
		},
	}
}

func (c *cli) listCmd() *cobra.Command {
	var category string
	var samples bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List projects, most recent first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			api, _, err := c.connect()
			if err != nil {
				return err
			}
			var opts []projsync.Option
			if samples {
				opts = append(opts, projsync.WithFallback(projsync.SampleProjects()))
			}
			engine := projsync.NewEngine(api, opts...)
			if err := engine.Load(cmd.Context()); err != nil && !samples {
				return err
			}

			snap := engine.Snapshot()
			if snap.Degraded {
				fmt.Fprintf(c.out, "WARNING: server unavailable (%v); showing built-in samples\n", snap.Err)
			}
			printProjects(c.out, projsync.FilterByCategory(snap.Projects, category))
			return nil
		},
	}
	cmd.Flags().StringVar(&category, "category", projsync.AllCategories, "Only show this category")
	cmd.Flags().BoolVar(&samples, "samples", false, "Show built-in samples if the server is unreachable")
	return cmd
}

func (c *cli) categoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List the categories in use",
		RunE: func(cmd *cobra.Command, _ []string) error {
			api, _, err := c.connect()
			if err != nil {
				return err
			}
			engine := projsync.NewEngine(api)
			if err := engine.Load(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(c.out, projsync.AllCategories)
			for _, cat := range projsync.Categories(engine.Projects()) {
				fmt.Fprintln(c.out, cat)
			}
			return nil
		},
	}
}

type editFlags struct {
	title, category, description string
	file, imageURL, videoURL     string
	clearMedia                   bool
	timeout                      time.Duration
}

func (f *editFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.title, "title", "", "Project title")
	cmd.Flags().StringVar(&f.category, "category", "", "Project category")
	cmd.Flags().StringVar(&f.description, "description", "", "Project description")
	cmd.Flags().StringVar(&f.file, "file", "", "Upload this image, video or audio file")
	cmd.Flags().StringVar(&f.imageURL, "image-url", "", "Use an existing image URL")
	cmd.Flags().StringVar(&f.videoURL, "video-url", "", "Use an existing video or audio URL")
	cmd.Flags().BoolVar(&f.clearMedia, "clear-media", false, "Remove the media reference")
	cmd.Flags().DurationVar(&f.timeout, "timeout", session.DefaultSaveTimeout, "Save timeout")
}

// apply stages every flag the user set on s.
func (f *editFlags) apply(ctx context.Context, cmd *cobra.Command, s *session.Session) error {
	changed := cmd.Flags().Changed
	if changed("title") {
		if err := s.SetTitle(f.title); err != nil {
			return err
		}
	}
	if changed("category") {
		if err := s.SetCategory(f.category); err != nil {
			return err
		}
	}
	if changed("description") {
		if err := s.SetDescription(f.description); err != nil {
			return err
		}
	}
	if f.clearMedia {
		if err := s.ClearMedia(); err != nil {
			return err
		}
	}
	if f.imageURL != "" {
		if err := s.SetImageURL(f.imageURL); err != nil {
			return err
		}
	}
	if f.videoURL != "" {
		if err := s.SetVideoURL(f.videoURL); err != nil {
			return err
		}
	}
	if f.file != "" {
		file, closeFile, err := openMedia(f.file)
		if err != nil {
			return err
		}
		defer closeFile()
		if _, err := s.AttachMedia(ctx, file); err != nil {
			return fmt.Errorf("upload %s: %w", f.file, err)
		}
	}
	return nil
}

func openMedia(path string) (media.File, func(), error) {
	f, err := os.Open(path)
	if err != nil {
		return media.File{}, nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return media.File{}, nil, err
	}
	return media.File{
		Name:     filepath.Base(path),
		MIMEType: mime.TypeByExtension(strings.ToLower(filepath.Ext(path))),
		Size:     info.Size(),
		Body:     f,
	}, func() { f.Close() }, nil
}

// runSession stages flags and saves, printing the committed project.
func (c *cli) runSession(cmd *cobra.Command, api *client.Client, flags *editFlags, existing *domain.Project) error {
	ctx := cmd.Context()
	engine := projsync.NewEngine(api)
	coordinator := media.NewCoordinator(api, api)

	var s *session.Session
	if existing == nil {
		s = session.NewCreate(engine, coordinator, session.WithSaveTimeout(flags.timeout))
	} else {
		s = session.NewEdit(engine, coordinator, *existing, session.WithSaveTimeout(flags.timeout))
	}

	if err := flags.apply(ctx, cmd, s); err != nil {
		_ = s.Abandon()
		return err
	}

	p, err := s.Save(ctx)
	if err != nil {
		if fields := domain.ValidationFields(err); len(fields) > 0 {
			return fmt.Errorf("missing or invalid: %s", strings.Join(fields, ", "))
		}
		return err
	}
	printProjects(c.out, []domain.Project{p})
	return nil
}

func (c *cli) addCmd() *cobra.Command {
	flags := &editFlags{}
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a project",
		RunE: func(cmd *cobra.Command, _ []string) error {
			api, _, err := c.connect()
			if err != nil {
				return err
			}
			return c.runSession(cmd, api, flags, nil)
		},
	}
	flags.register(cmd)
	return cmd
}

func (c *cli) editCmd() *cobra.Command {
	flags := &editFlags{}
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, _, err := c.connect()
			if err != nil {
				return err
			}
			existing, err := api.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return c.runSession(cmd, api, flags, &existing)
		},
	}
	flags.register(cmd)
	return cmd
}

func (c *cli) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, _, err := c.connect()
			if err != nil {
				return err
			}
			engine := projsync.NewEngine(api)
			if err := engine.DeleteProject(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(c.out, "Deleted %s\n", args[0])
			return nil
		},
	}
}

func (c *cli) watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Follow project changes live",
		RunE: func(cmd *cobra.Command, _ []string) error {
			api, _, err := c.connect()
			if err != nil {
				return err
			}
			engine := projsync.NewEngine(api)
			return api.Watch(cmd.Context(), func(m client.Message) {
				if m.Change == nil {
					engine.Replace(m.Projects)
					fmt.Fprintf(c.out, "%d projects\n", len(engine.Projects()))
					return
				}
				engine.Apply(*m.Change)
				title := ""
				if m.Change.Project != nil {
					title = m.Change.Project.Title
				}
				fmt.Fprintf(c.out, "%s\t%s\t%s\t%s\t(%d projects)\n",
					m.Change.At.Format(time.RFC3339), m.Event, m.Change.ID, title, len(engine.Projects()))
			})
		},
	}
}

func (c *cli) hashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password",
		Short: "Read a password from stdin and print its bcrypt hash for ADMIN_PASSWORD_HASH",
		RunE: func(cmd *cobra.Command, _ []string) error {
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && !errors.Is(err, io.EOF) {
				return err
			}
			hash, err := authsvc.HashPassword(strings.TrimRight(line, "\r\n"))
			if err != nil {
				return err
			}
			fmt.Fprintln(c.out, hash)
			return nil
		},
	}
}

func printProjects(out io.Writer, projects []domain.Project) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tCATEGORY\tMEDIA")
	for _, p := range projects {
		mediaRef := "-"
		if kind, ok := media.AttachedKind(p); ok {
			url := p.Image
			if kind.UsesVideoSlot() {
				url = p.Video
			}
			mediaRef = fmt.Sprintf("%s %s", kind, url)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.ID, p.Title, p.Category, mediaRef)
	}
	tw.Flush()
}
