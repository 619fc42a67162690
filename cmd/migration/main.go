package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/infrastructure/repository/postgres"
	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/platform/logging"
)

var errUsage = errors.New("usage")

// migrator is the subset of *migrate.Migrate the commands drive.
type migrator interface {
	Up() error
	Steps(n int) error
	Migrate(version uint) error
	Force(version int) error
	Version() (uint, bool, error)
}

type command struct {
	usage string
	run   func(m migrator, args []string, out io.Writer) error
}

var commands = map[string]command{
	"up": {usage: "up", run: func(m migrator, _ []string, _ io.Writer) error {
		return ignoreNoChange(m.Up())
	}},
	"down": {usage: "down [steps=1]", run: func(m migrator, args []string, _ io.Writer) error {
		steps, err := parseSteps(args)
		if err != nil {
			return err
		}
		return ignoreNoChange(m.Steps(-steps))
	}},
	"goto": {usage: "goto <version>", run: func(m migrator, args []string, _ io.Writer) error {
		if len(args) == 0 {
			return fmt.Errorf("%w: goto requires a target version", errUsage)
		}
		target, err := strconv.ParseUint(strings.TrimSpace(args[0]), 10, 0)
		if err != nil {
			return fmt.Errorf("invalid target version %q: %w", args[0], err)
		}
		return ignoreNoChange(m.Migrate(uint(target)))
	}},
	"force": {usage: "force <version>", run: func(m migrator, args []string, _ io.Writer) error {
		if len(args) == 0 {
			return fmt.Errorf("%w: force requires a version", errUsage)
		}
		version, err := strconv.Atoi(strings.TrimSpace(args[0]))
		if err != nil || version < -1 {
			return fmt.Errorf("invalid version %q", args[0])
		}
		return m.Force(version)
	}},
	"version": {usage: "version", run: func(m migrator, _ []string, out io.Writer) error {
		version, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			_, err = fmt.Fprintln(out, "version: none\ndirty: false")
			return err
		}
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(out, "version: %d\ndirty: %t\n", version, dirty)
		return err
	}},
}

func main() {
	logger := logging.NewJSON(logging.LevelInfo).Named("migration")
	if err := run(os.Args[1:], logger); err != nil {
		if errors.Is(err, errUsage) {
			printUsage(os.Stderr)
			os.Exit(2)
		}
		logger.Error("migration failed", "error", err)
		_ = logger.Sync()
		os.Exit(1)
	}
	_ = logger.Sync()
}

func run(args []string, logger *logging.Logger) error {
	if len(args) == 0 {
		return errUsage
	}
	name := strings.ToLower(strings.TrimSpace(args[0]))
	if name == "migrate" {
		name = "goto"
	}
	cmd, ok := commands[name]
	if !ok {
		return fmt.Errorf("%w: unknown command %q", errUsage, args[0])
	}

	dbURL := strings.TrimSpace(os.Getenv("DB_URL"))
	if dbURL == "" {
		return errors.New("DB_URL is required")
	}
	disableBinary, _ := strconv.ParseBool(strings.TrimSpace(os.Getenv("DB_DISABLE_PREPARED_BINARY_RESULT")))

	dir, err := migrationsDir()
	if err != nil {
		return err
	}
	source := "file://" + filepath.ToSlash(dir)
	m, err := migrate.New(source, postgres.DSN(dbURL, disableBinary))
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	defer func() {
		srcErr, dbErr := m.Close()
		if err := errors.Join(srcErr, dbErr); err != nil {
			logger.Warn("close migrator", "error", err)
		}
	}()

	if err := cmd.run(m, args[1:], os.Stdout); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	logger.Info("migration command finished", "command", name, "source", source)
	return nil
}

func ignoreNoChange(err error) error {
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return err
}

func parseSteps(args []string) (int, error) {
	if len(args) == 0 {
		return 1, nil
	}
	steps, err := strconv.Atoi(strings.TrimSpace(args[0]))
	if err != nil {
		return 0, fmt.Errorf("invalid down steps %q: %w", args[0], err)
	}
	if steps <= 0 {
		return 0, errors.New("down steps must be > 0")
	}
	return steps, nil
}

// migrationsDir returns the first existing directory among MIGRATIONS_DIR,
// ./db/migrations and /app/db/migrations.
func migrationsDir() (string, error) {
	candidates := []string{strings.TrimSpace(os.Getenv("MIGRATIONS_DIR")), "./db/migrations", "/app/db/migrations"}
	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		abs, err := filepath.Abs(candidate)
		if err != nil {
			continue
		}
		if info, err := os.Stat(abs); err == nil && info.IsDir() {
			return abs, nil
		}
	}
	return "", errors.New("migrations directory not found (checked MIGRATIONS_DIR, ./db/migrations, /app/db/migrations)")
}

func printUsage(w io.Writer) {
	bin := filepath.Base(os.Args[0])
	fmt.Fprintf(w, "usage: %s <command> [args]\ncommands:\n", bin)
	for _, name := range []string{"up", "down", "goto", "force", "version"} {
		fmt.Fprintf(w, "  %s %s\n", bin, commands[name].usage)
	}
}
