// Package audit implements the one-shot audit command: crawl a site,
// classify its checklist, and render the result as a table.
package audit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/rivalworks/rivalaudit/internal/config"
	"github.com/rivalworks/rivalaudit/internal/crawler"
	"github.com/rivalworks/rivalaudit/internal/database"
	"github.com/rivalworks/rivalaudit/internal/domain"
	"github.com/rivalworks/rivalaudit/internal/lifecycle"
	"github.com/rivalworks/rivalaudit/internal/logger"
	"github.com/rivalworks/rivalaudit/internal/orchestrator"
)

// sectionTitles maps each section key to its display heading.
var sectionTitles = map[domain.Section]string{
	domain.SectionOnPage:      "On-Page SEO",
	domain.SectionStructure:   "Structure & Navigation",
	domain.SectionContact:     "Contact Page",
	domain.SectionService:     "Service Pages",
	domain.SectionLocation:    "Location Pages",
	domain.SectionServiceArea: "Service Area Pages",
}

// Command returns the audit command.
func Command(cfgFile *string) *cobra.Command {
	var maxPages int

	cmd := &cobra.Command{
		Use:   "audit URL",
		Short: "Run a one-shot audit against a website",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), *cfgFile, args[0], maxPages)
		},
	}
	cmd.Flags().IntVar(&maxPages, "max-pages", 0, "page-count ceiling for the crawl (0 uses the configured default)")

	return cmd
}

func run(ctx context.Context, cfgFile, targetURL string, maxPages int) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if maxPages > 0 {
		cfg.Audit.MaxPages = maxPages
	}

	log, err := logger.New(&logger.Config{
		Level:       logger.ErrorLevel,
		Development: true,
		Encoding:    "console",
	})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	store := database.NewMemoryStore()
	manager := lifecycle.NewManager(store, log, nil, cfg.Audit.TTL)

	httpClient := &http.Client{}
	var robots crawler.RobotsAllower
	if cfg.Audit.RespectRobots {
		robots = crawler.NewRobotsChecker(httpClient, cfg.App.UserAgent)
	}
	siteCrawler := crawler.New(
		crawler.NewHTTPFetcher(httpClient, cfg.App.UserAgent),
		robots,
		log,
		crawler.Config{
			MaxPages:      cfg.Audit.MaxPages,
			MaxDuration:   cfg.Audit.MaxDuration,
			FetchTimeout:  cfg.Audit.FetchTimeout,
			Workers:       cfg.Audit.Workers,
			RespectRobots: cfg.Audit.RespectRobots,
		},
	)
	orch := orchestrator.New(store, manager, siteCrawler, log)

	fmt.Printf("Auditing %s (up to %d pages)...\n", targetURL, cfg.Audit.MaxPages)

	audit, err := orch.Start(ctx, targetURL, nil)
	if err != nil {
		return fmt.Errorf("failed to start audit: %w", err)
	}
	orch.Wait()

	audit, err = manager.Get(ctx, audit.ID)
	if err != nil {
		return fmt.Errorf("failed to load audit result: %w", err)
	}
	if audit.Status == domain.StatusFailed {
		reason := "unknown"
		if audit.ErrorMessage != nil {
			reason = *audit.ErrorMessage
		}
		return errors.New("audit failed: " + reason)
	}

	render(audit)
	return nil
}

// render prints the section tables and the roll-up summary.
func render(audit *domain.AuditRecord) {
	fmt.Printf("\nAnalyzed %d pages", audit.PagesAnalyzed)
	if audit.ReachedMaxPages {
		fmt.Print(" (stopped at the page limit; more pages remain)")
	}
	fmt.Println()

	for _, section := range domain.AllSections() {
		items := audit.Results[section]

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.SetTitle(sectionTitles[section])
		t.AppendHeader(table.Row{"Item", "Importance", "Status", "Notes"})
		for i := range items {
			item := &items[i]
			t.AppendRow(table.Row{
				item.Name,
				item.Importance,
				statusCell(item.Status),
				text.WrapSoft(domain.StripNotesBlock(item.Notes), 48),
			})
		}
		t.SetStyle(table.StyleLight)
		t.Render()
		fmt.Println()
	}

	if audit.Summary != nil {
		s := audit.Summary
		fmt.Printf("Summary: %d Priority OFI, %d OFI, %d OK, %d N/A (%d items)\n",
			s.PriorityOFICount, s.OFICount, s.OKCount, s.NACount, s.Total)
	}
}

// statusCell colors the status for terminal display.
func statusCell(status domain.ItemStatus) string {
	switch status {
	case domain.ItemStatusPriorityOFI:
		return text.FgRed.Sprint(string(status))
	case domain.ItemStatusOFI:
		return text.FgYellow.Sprint(string(status))
	case domain.ItemStatusOK:
		return text.FgGreen.Sprint(string(status))
	default:
		return string(status)
	}
}
