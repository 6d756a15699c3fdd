package cli

import (
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/mrlokans/librarian/internal/config"
	"github.com/mrlokans/librarian/internal/database"
	"github.com/mrlokans/librarian/internal/database/authors"
	"github.com/mrlokans/librarian/internal/database/books"
	"github.com/mrlokans/librarian/internal/database/publishers"
)

// StatsCommand prints book counts per publisher and the author totals.
type StatsCommand struct {
	DatabasePath string

	Config *config.Config
	Out    io.Writer
}

func NewStatsCommand(cfg *config.Config) *StatsCommand {
	return &StatsCommand{Config: cfg}
}

func (cmd *StatsCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("stats", flag.ContinueOnError)
	fs.StringVar(&cmd.DatabasePath, "db", "", "SQLite database file (default: DATABASE_* environment settings)")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s stats [options]\n\n", os.Args[0])
		fs.PrintDefaults()
	}
	return fs.Parse(args)
}

func (cmd *StatsCommand) Run() error {
	db, err := openDatabase(cmd.Config, cmd.DatabasePath, false)
	if err != nil {
		return err
	}
	defer db.Close()

	return PrintStats(db, stdout(cmd.Out))
}

// PrintStats writes a publisher table followed by author totals. Authors
// linked to no book are counted as orphaned; deleting a book keeps them.
func PrintStats(db *database.Database, out io.Writer) error {
	pubs, err := publishers.NewRepository(db.DB).ListAll()
	if err != nil {
		return fmt.Errorf("failed to list publishers: %w", err)
	}

	bookRepo := books.NewRepository(db.DB)
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPUBLISHER\tBOOKS")
	for _, p := range pubs {
		n, err := bookRepo.CountByPublisher(p.ID)
		if err != nil {
			return fmt.Errorf("failed to count books of %s: %w", p.Name, err)
		}
		fmt.Fprintf(tw, "%d\t%s\t%d\n", p.ID, p.Name, n)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	authorRepo := authors.NewRepository(db.DB)
	all, err := authorRepo.ListAll()
	if err != nil {
		return fmt.Errorf("failed to list authors: %w", err)
	}

	orphans := 0
	for _, a := range all {
		orphan, err := authorRepo.IsOrphan(a.ID)
		if err != nil {
			return fmt.Errorf("failed to inspect author %s: %w", a.Name, err)
		}
		if orphan {
			orphans++
		}
	}

	fmt.Fprintf(out, "\nAuthors: %d (%d without books)\n", len(all), orphans)
	return nil
}
