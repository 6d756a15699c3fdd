package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/mrlokans/librarian/internal/auth"
	"github.com/mrlokans/librarian/internal/config"
	"github.com/mrlokans/librarian/internal/database/publishers"
)

// CreateUserCommand creates a user, optionally acting for a publisher, and
// prints an API token for them.
type CreateUserCommand struct {
	DatabasePath string
	Username     string
	Email        string
	Password     string
	PublisherID  uint

	Config *config.Config
	Out    io.Writer
}

func NewCreateUserCommand(cfg *config.Config) *CreateUserCommand {
	return &CreateUserCommand{Config: cfg}
}

func (cmd *CreateUserCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("create-user", flag.ContinueOnError)

	fs.StringVar(&cmd.DatabasePath, "db", "", "SQLite database file (default: DATABASE_* environment settings)")
	fs.StringVar(&cmd.Username, "username", "", "Username (required)")
	fs.StringVar(&cmd.Email, "email", "", "Email address (required)")
	fs.StringVar(&cmd.Password, "password", "", "Password, at least 12 characters (required)")
	fs.UintVar(&cmd.PublisherID, "publisher", 0, "ID of the publisher the user acts for (0: none, read-only)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s create-user -username <name> -email <email> -password <password> [-publisher <id>]\n\n", os.Args[0])
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.Username == "" || cmd.Email == "" || cmd.Password == "" {
		return errors.New("flags -username, -email and -password are required")
	}
	return nil
}

func (cmd *CreateUserCommand) Run() error {
	db, err := openDatabase(cmd.Config, cmd.DatabasePath, false)
	if err != nil {
		return err
	}
	defer db.Close()

	var publisherID *uint
	if cmd.PublisherID != 0 {
		publisher, err := publishers.NewRepository(db.DB).GetByID(cmd.PublisherID)
		if err != nil {
			return fmt.Errorf("publisher %d not found: %w", cmd.PublisherID, err)
		}
		publisherID = &publisher.ID
	}

	svc := auth.NewService(db.DB, cmd.Config.Auth)

	user, err := svc.CreateUser(cmd.Username, cmd.Email, cmd.Password, publisherID)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	token, err := svc.GenerateToken(user.ID)
	if err != nil {
		return fmt.Errorf("failed to issue API token: %w", err)
	}

	out := stdout(cmd.Out)
	fmt.Fprintf(out, "Created user %q with id %d\n", user.Username, user.ID)
	if publisherID == nil {
		fmt.Fprintln(out, "The user acts for no publisher and cannot change books.")
	}
	fmt.Fprintf(out, "API token (shown once): %s\n", token)
	return nil
}
