package cli

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"time"

	goflags "github.com/jessevdk/go-flags"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/zatekoja/ai-event-scanner/backend/internal/adapters/database"
	"github.com/zatekoja/ai-event-scanner/backend/internal/application/services"
	"github.com/zatekoja/ai-event-scanner/backend/internal/domain/entities"
	"github.com/zatekoja/ai-event-scanner/backend/internal/infrastructure/observability"
	"github.com/zatekoja/ai-event-scanner/backend/pkg/config"
)

// Backend is the discovery surface the commands drive
type Backend interface {
	Discover(ctx context.Context, req services.DiscoverRequest) (*services.DiscoveryResult, error)
	RecentRuns(ctx context.Context, limit int) ([]*entities.EventDiscoveryLog, error)
}

// Opener builds a Backend from the config file at path. The returned func
// releases it.
type Opener func(ctx context.Context, path string) (Backend, func(), error)

// GlobalFlags are accepted by every subcommand
type GlobalFlags struct {
	Config string `long:"config" short:"c" description:"Path to config file"`
}

// RunCommand runs one discovery pass
type RunCommand struct {
	Location string `long:"location" short:"l" description:"City or region to search" required:"true"`
	Platform string `long:"platform" short:"p" description:"Platform to search (luma, meetup)"`
	Month    int    `long:"month" description:"Month to search, 1-12 (default: current)"`
	Year     int    `long:"year" description:"Year to search (default: current)"`

	env *environment
}

// HistoryCommand prints recent discovery runs
type HistoryCommand struct {
	Limit int `long:"limit" short:"n" description:"Maximum runs to show" default:"20"`

	env *environment
}

type environment struct {
	globals *GlobalFlags
	out     io.Writer
	open    Opener
}

type runOutput struct {
	Location string                  `json:"location"`
	Platform entities.Platform       `json:"platform"`
	Month    int                     `json:"month"`
	Year     int                     `json:"year"`
	Range    string                  `json:"date_range"`
	Created  int                     `json:"created"`
	Updated  int                     `json:"updated"`
	Events   []entities.EventSummary `json:"events"`
}

func buildParser(out io.Writer, open Opener) *goflags.Parser {
	env := &environment{globals: &GlobalFlags{}, out: out, open: open}

	parser := goflags.NewParser(env.globals, goflags.Default)
	parser.Name = "discover"
	parser.LongDescription = "Discover AI-related events with the configured search provider and store."

	parser.AddCommand("run", "Run one discovery pass",
		"Search a platform for AI events in a month, classify and store them.", &RunCommand{env: env})
	parser.AddCommand("history", "Show recent discovery runs",
		"Print the most recent discovery log rows, newest first.", &HistoryCommand{env: env})

	return parser
}

// Run parses os.Args and executes the matched subcommand against the
// configured store
func Run() error {
	return RunWithArgs(os.Args[1:], os.Stdout, OpenBackend)
}

// RunWithArgs parses args and executes the matched subcommand, writing JSON
// to out
func RunWithArgs(args []string, out io.Writer, open Opener) error {
	_, err := buildParser(out, open).ParseArgs(args)
	var flagsErr *goflags.Error
	if errors.As(err, &flagsErr) && flagsErr.Type == goflags.ErrHelp {
		return nil
	}
	return err
}

// Execute implements the go-flags Commander interface for RunCommand
func (c *RunCommand) Execute(_ []string) error {
	ctx := context.Background()

	backend, release, err := c.env.open(ctx, c.env.globals.Config)
	if err != nil {
		return err
	}
	defer release()

	result, err := backend.Discover(ctx, services.DiscoverRequest{
		Location: c.Location,
		Platform: c.Platform,
		Month:    c.Month,
		Year:     c.Year,
	})
	if err != nil {
		return err
	}

	return c.env.write(runOutput{
		Location: c.Location,
		Platform: result.Platform,
		Month:    result.Month,
		Year:     result.Year,
		Range:    result.DateRange,
		Created:  result.Created,
		Updated:  result.Updated,
		Events:   result.Events,
	})
}

// Execute implements the go-flags Commander interface for HistoryCommand
func (c *HistoryCommand) Execute(_ []string) error {
	ctx := context.Background()

	backend, release, err := c.env.open(ctx, c.env.globals.Config)
	if err != nil {
		return err
	}
	defer release()

	runs, err := backend.RecentRuns(ctx, c.Limit)
	if err != nil {
		return err
	}
	return c.env.write(runs)
}

func (e *environment) write(v any) error {
	enc := json.NewEncoder(e.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// OpenBackend wires a DiscoveryService against the configured store and
// search provider. The search client is built on the first search, so
// history needs no API key. Logs go to stderr so stdout stays JSON.
func OpenBackend(ctx context.Context, path string) (Backend, func(), error) {
	cfg, err := config.LoadFile(path)
	if err != nil {
		return nil, nil, err
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Environment)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	store, err := database.Open(ctx, &cfg.Database)
	if err != nil {
		return nil, nil, err
	}

	service := services.NewDiscoveryService(
		newLazySearcher(&cfg.Perplexity),
		database.NewEventAdapter(store),
		database.NewDiscoveryLogAdapter(store),
	).WithDefaultPlatform(entities.Platform(cfg.Discovery.DefaultPlatform))

	return service, func() { _ = store.Close() }, nil
}
