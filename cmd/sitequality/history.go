package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/chrisarusso/ai-website-quality-analyzer-sub000/internal/config"
	"github.com/chrisarusso/ai-website-quality-analyzer-sub000/internal/database"
	"github.com/chrisarusso/ai-website-quality-analyzer-sub000/internal/report"
	"github.com/chrisarusso/ai-website-quality-analyzer-sub000/internal/urlnorm"
)

// defaultHistoryLimit is how many audits history lists by default.
const defaultHistoryLimit = 20

// errNotEnoughAudits is returned by --compare when fewer than two audits exist.
var errNotEnoughAudits = errors.New("at least two stored audits are needed to compare")

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [URL]",
		Short: "List and compare stored audits",
		Long: `History shows audits stored by 'sitequality audit'.

Without a URL it lists every audited site. With a URL it lists that site's
audits, newest first. --compare shows which issues appeared and which were
resolved between the two latest audits.

Examples:
  # List audited sites
  sitequality history

  # List audits of a site
  sitequality history https://example.com

  # Compare the two latest audits
  sitequality history --compare https://example.com

  # Show a stored report
  sitequality history --show 0b6e5c1e-...

  # Delete a stored audit
  sitequality history --delete 0b6e5c1e-...`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "n", defaultHistoryLimit, "Maximum number of audits to list")
	cmd.Flags().Bool("compare", false, "Compare the two latest audits of the site")
	cmd.Flags().String("show", "", "Print the stored report of the given audit ID")
	cmd.Flags().String("delete", "", "Delete the audit with the given ID")
	cmd.Flags().BoolP("json", "j", false, "Output JSON")
	cmd.Flags().String("db-dir", config.XDGDataDir(), "Directory of the audit database")

	return cmd
}

type historyOptions struct {
	target  string
	limit   int
	compare bool
	show    string
	remove  string
	asJSON  bool
}

func runHistoryCmd(cmd *cobra.Command, args []string) error {
	var opts historyOptions
	var err error
	if opts.limit, err = cmd.Flags().GetInt("limit"); err != nil {
		return err
	}
	if opts.compare, err = cmd.Flags().GetBool("compare"); err != nil {
		return err
	}
	if opts.show, err = cmd.Flags().GetString("show"); err != nil {
		return err
	}
	if opts.remove, err = cmd.Flags().GetString("delete"); err != nil {
		return err
	}
	if opts.asJSON, err = cmd.Flags().GetBool("json"); err != nil {
		return err
	}
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}

	// Validate before opening the database.
	if len(args) == 1 {
		if opts.target, err = urlnorm.Normalize(args[0]); err != nil {
			return fmt.Errorf("invalid URL %q: %w", args[0], err)
		}
	}
	if opts.compare && opts.target == "" {
		return errors.New("--compare needs a site URL")
	}

	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	return runHistory(cmd.Context(), db, opts, cmd.OutOrStdout())
}

func runHistory(ctx context.Context, db *database.AuditDB, opts historyOptions, out io.Writer) error {
	switch {
	case opts.remove != "":
		if err := db.DeleteAudit(ctx, opts.remove); err != nil {
			return fmt.Errorf("delete audit %s: %w", opts.remove, err)
		}
		fmt.Fprintf(out, "Deleted audit %s\n", opts.remove)
		return nil

	case opts.show != "":
		r, err := db.GetAudit(ctx, opts.show)
		if err != nil {
			return fmt.Errorf("load audit %s: %w", opts.show, err)
		}
		var w report.Writer = report.NewSimpleWriter(out)
		if opts.asJSON {
			w = report.NewJSONWriter(out, report.WithPrettyPrint())
		}
		_, err = w.Write(r)
		return err

	case opts.compare:
		return compareLatest(ctx, db, opts, out)

	case opts.target == "":
		return listSites(ctx, db, out)

	default:
		return listAudits(ctx, db, opts, out)
	}
}

func compareLatest(ctx context.Context, db *database.AuditDB, opts historyOptions, out io.Writer) error {
	audits, err := db.LatestAudits(ctx, opts.target, 2)
	if err != nil {
		return err
	}
	if len(audits) < 2 {
		return fmt.Errorf("%w (found %d for %s)", errNotEnoughAudits, len(audits), opts.target)
	}

	c := report.Compare(audits[1], audits[0])
	if opts.asJSON {
		_, err = report.NewJSONWriter(out, report.WithPrettyPrint()).WriteComparison(c)
		return err
	}
	_, err = report.NewSimpleWriter(out).WriteComparison(c)
	return err
}

func listSites(ctx context.Context, db *database.AuditDB, out io.Writer) error {
	targets, err := db.ListTargets(ctx)
	if err != nil {
		return err
	}
	if len(targets) == 0 {
		fmt.Fprintln(out, "No audits stored yet. Run 'sitequality audit URL' first.")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SITE\tLAST AUDIT\tSCORE\tISSUES")
	for _, target := range targets {
		latest, err := db.ListAudits(ctx, target, 1)
		if err != nil {
			return err
		}
		if len(latest) == 0 {
			continue
		}
		m := latest[0]
		fmt.Fprintf(tw, "%s\t%s\t%.1f\t%d\n", target, m.StartedAt.Local().Format("2006-01-02 15:04"), m.OverallScore, m.TotalIssues)
	}
	return tw.Flush()
}

func listAudits(ctx context.Context, db *database.AuditDB, opts historyOptions, out io.Writer) error {
	audits, err := db.ListAudits(ctx, opts.target, opts.limit)
	if err != nil {
		return err
	}
	if len(audits) == 0 {
		fmt.Fprintf(out, "No audits stored for %s\n", opts.target)
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTARTED\tSTATUS\tPAGES\tISSUES\tSCORE")
	for _, m := range audits {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%.1f\n",
			m.ID, m.StartedAt.Local().Format("2006-01-02 15:04"), m.Status, m.TotalPages, m.TotalIssues, m.OverallScore)
	}
	return tw.Flush()
}
