package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mrlokans/librarian/internal/config"
	"github.com/mrlokans/librarian/internal/database/publishers"
)

// CreatePublisherCommand registers a publisher.
type CreatePublisherCommand struct {
	DatabasePath string
	Name         string

	Config *config.Config
	Out    io.Writer
}

func NewCreatePublisherCommand(cfg *config.Config) *CreatePublisherCommand {
	return &CreatePublisherCommand{Config: cfg}
}

func (cmd *CreatePublisherCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("create-publisher", flag.ContinueOnError)

	fs.StringVar(&cmd.DatabasePath, "db", "", "SQLite database file (default: DATABASE_* environment settings)")
	fs.StringVar(&cmd.Name, "name", "", "Publisher name (required)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s create-publisher -name <name> [options]\n\n", os.Args[0])
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	cmd.Name = strings.TrimSpace(cmd.Name)
	if cmd.Name == "" {
		return errors.New("required flag -name not provided")
	}
	return nil
}

func (cmd *CreatePublisherCommand) Run() error {
	db, err := openDatabase(cmd.Config, cmd.DatabasePath, false)
	if err != nil {
		return err
	}
	defer db.Close()

	publisher, err := publishers.NewRepository(db.DB).Create(cmd.Name)
	if err != nil {
		return fmt.Errorf("failed to create publisher %q: %w", cmd.Name, err)
	}

	fmt.Fprintf(stdout(cmd.Out), "Created publisher %q with id %d\n", publisher.Name, publisher.ID)
	return nil
}
