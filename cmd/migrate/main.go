// Command migrate applies the embedded schema migrations to DATABASE_URL.
//
//	migrate up [N]      apply all pending migrations, or the next N
//	migrate down [N]    roll back N migrations (default 1)
//	migrate version     print the applied and latest versions
//	migrate force V     mark version V as applied and clean
package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/ieltsprep/ielts-backend/internal/config"
	"github.com/ieltsprep/ielts-backend/internal/logger"
	"github.com/ieltsprep/ielts-backend/migrations"
	"github.com/rs/zerolog"
)

func main() {
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat).With().Str("cmd", "migrate").Logger()
	if cfg.DatabaseURL == "" {
		log.Fatal().Msg("DATABASE_URL is not set")
	}

	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open embedded migrations")
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize migrations")
	}
	m.Log = migrateLogger{log: log}
	defer m.Close() //nolint:errcheck

	if err := run(m, src, flag.Args(), log); err != nil {
		log.Fatal().Err(err).Str("command", flag.Arg(0)).Msg("Migration failed")
	}
}

func run(m *migrate.Migrate, src source.Driver, args []string, log zerolog.Logger) error {
	switch args[0] {
	case "up":
		n, err := stepsArg(args, 0)
		if err != nil {
			return err
		}
		if n == 0 {
			err = m.Up()
		} else {
			err = m.Steps(n)
		}
		if err := ignoreNoChange(err, log); err != nil {
			return err
		}
	case "down":
		n, err := stepsArg(args, 1)
		if err != nil {
			return err
		}
		if err := ignoreNoChange(m.Steps(-n), log); err != nil {
			return err
		}
	case "version":
		// Reported below.
	case "force":
		if len(args) < 2 {
			return errors.New("force requires a version")
		}
		v, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid version %q: %w", args[1], err)
		}
		if err := m.Force(v); err != nil {
			return err
		}
	default:
		flag.Usage()
		return fmt.Errorf("unknown command %q", args[0])
	}

	return logVersion(m, src, log)
}

// stepsArg parses the optional step count after a command.
func stepsArg(args []string, def int) (int, error) {
	if len(args) < 2 {
		return def, nil
	}
	n, err := strconv.Atoi(args[1])
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid step count %q", args[1])
	}
	return n, nil
}

func ignoreNoChange(err error, log zerolog.Logger) error {
	if errors.Is(err, migrate.ErrNoChange) {
		log.Info().Msg("No change")
		return nil
	}
	return err
}

func logVersion(m *migrate.Migrate, src source.Driver, log zerolog.Logger) error {
	latest, err := latestVersion(src)
	if err != nil {
		return fmt.Errorf("read latest version: %w", err)
	}
	current, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		current, err = 0, nil
	}
	if err != nil {
		return fmt.Errorf("read version: %w", err)
	}

	log.Info().
		Uint("version", current).
		Uint("latest", latest).
		Bool("dirty", dirty).
		Msg("Schema version")
	return nil
}

// latestVersion walks the source to its last migration.
func latestVersion(src source.Driver) (uint, error) {
	v, err := src.First()
	if err != nil {
		return 0, err
	}
	for {
		next, err := src.Next(v)
		if errors.Is(err, fs.ErrNotExist) {
			return v, nil
		}
		if err != nil {
			return 0, err
		}
		v = next
	}
}

// migrateLogger routes golang-migrate progress lines into zerolog.
type migrateLogger struct {
	log zerolog.Logger
}

func (l migrateLogger) Printf(format string, v ...any) {
	l.log.Info().Msgf(format, v...)
}

func (l migrateLogger) Verbose() bool {
	return l.log.GetLevel() <= zerolog.DebugLevel
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: migrate <up [N] | down [N] | version | force V>")
	fmt.Fprintln(os.Stderr, "Reads DATABASE_URL and LOG_* from the environment.")
}
