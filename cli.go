package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/coreybb/bookforge/auth"
	"github.com/coreybb/bookforge/datastore"
	"github.com/coreybb/bookforge/models"
	"github.com/coreybb/bookforge/processing"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newRootCommand(cfg *config) *cobra.Command {
	root := &cobra.Command{
		Use:          "bookforge",
		Short:        "Export books to PDF and Word documents",
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&cfg.dbDriver, "db-driver", cfg.dbDriver, "database driver: postgres or sqlite3")
	flags.StringVar(&cfg.databaseURL, "db", cfg.databaseURL, "database connection string (sqlite3: file path)")
	flags.StringVar(&cfg.appRoot, "app-root", cfg.appRoot, "directory that stored cover references resolve against")
	flags.StringVar(&cfg.uploadsDir, "uploads-dir", cfg.uploadsDir, "uploads directory, relative to the app root")

	root.AddCommand(
		newServeCommand(cfg),
		newMigrateCommand(cfg),
		newUserCommand(cfg),
		newImportCommand(cfg),
		newTokenCommand(cfg),
		newExportCommand(cfg),
	)
	return root
}

func newServeCommand(cfg *config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP export service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cfg)
		},
	}
	cmd.Flags().StringVar(&cfg.port, "port", cfg.port, "port to listen on")
	cmd.Flags().IntVar(&cfg.exportRateLimit, "rate-limit", cfg.exportRateLimit, "export requests per minute per IP (0 disables)")
	return cmd
}

func newMigrateCommand(cfg *config) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create any missing database tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := cfg.openDatabase()
			if err != nil {
				return err
			}
			defer db.Close()
			if err := datastore.Migrate(cmd.Context(), db); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Schema is up to date")
			return nil
		},
	}
}

func newUserCommand(cfg *config) *cobra.Command {
	var name, email string
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Create a user and print its ID",
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" {
				return errors.New("--email is required")
			}
			db, err := cfg.openDatabase()
			if err != nil {
				return err
			}
			defer db.Close()

			user := &models.User{
				ID:        uuid.NewString(),
				CreatedAt: time.Now().UTC(),
				Name:      name,
				Email:     email,
			}
			if err := datastore.NewUserRepository(db).CreateUser(cmd.Context(), user); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), user.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&email, "email", "", "email address")
	return cmd
}

func newImportCommand(cfg *config) *cobra.Command {
	var owner string
	cmd := &cobra.Command{
		Use:   "import FILE.json",
		Short: "Insert a book and its chapters from a JSON file and print its ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			book, err := readBookFile(args[0])
			if err != nil {
				return err
			}
			if owner != "" {
				book.UserID = owner
			}

			db, err := cfg.openDatabase()
			if err != nil {
				return err
			}
			defer db.Close()

			if err := datastore.NewBookRepository(db).CreateBook(cmd.Context(), book); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), book.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&owner, "user", "", "owner user ID (overrides user_id in the file)")
	return cmd
}

func readBookFile(path string) (*models.Book, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read book file: %w", err)
	}
	var book models.Book
	if err := json.Unmarshal(data, &book); err != nil {
		return nil, fmt.Errorf("failed to parse book file %s: %w", path, err)
	}
	if book.Title == "" || book.Author == "" {
		return nil, fmt.Errorf("book file %s: title and author are required", path)
	}
	return &book, nil
}

func newTokenCommand(cfg *config) *cobra.Command {
	var userID string
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.jwtSecret == "" {
				return errors.New("JWT_SECRET must be set to issue tokens")
			}
			if _, err := uuid.Parse(userID); err != nil {
				return fmt.Errorf("invalid --user: %w", err)
			}
			token, err := auth.NewAuthenticator(cfg.jwtSecret, nil).IssueToken(userID)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user ID the token identifies")
	return cmd
}

func newExportCommand(cfg *config) *cobra.Command {
	var bookID, userID, format, outDir string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Render a book to a file, applying the same ownership checks as the HTTP service",
		RunE: func(cmd *cobra.Command, args []string) error {
			exportFormat, ok := models.IsValidExportFormat(format)
			if !ok {
				return fmt.Errorf("unsupported format %q: use pdf or docx", format)
			}

			db, err := cfg.openDatabase()
			if err != nil {
				return err
			}
			defer db.Close()

			sink := processing.NewFileSink(outDir)
			req := models.ExportRequest{BookID: bookID, RequesterID: userID, Format: exportFormat}
			exportErr := cfg.newExportProcessor(db).Export(cmd.Context(), req, sink)
			if err := sink.Close(); err != nil && exportErr == nil {
				exportErr = err
			}
			if exportErr != nil {
				if sink.Started() {
					_ = os.Remove(sink.Path)
				}
				return exportErr
			}

			abs, _ := filepath.Abs(sink.Path)
			fmt.Fprintln(cmd.OutOrStdout(), abs)
			return nil
		},
	}
	cmd.Flags().StringVar(&bookID, "book", "", "book ID")
	cmd.Flags().StringVar(&userID, "user", "", "requesting user ID (must own the book)")
	cmd.Flags().StringVar(&format, "format", string(models.ExportFormatPDF), "pdf or docx")
	cmd.Flags().StringVar(&outDir, "out", ".", "output directory")
	return cmd
}
