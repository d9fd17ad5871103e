package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/musicutil/internal/repositories"
	"github.com/desertthunder/musicutil/internal/shared"
	"github.com/desertthunder/musicutil/internal/source"
	"github.com/desertthunder/musicutil/internal/tasks"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	input      io.Reader
	fs         afero.Fs
	src        source.Source
	db         *sql.DB
	ownsDB     bool
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Input      io.Reader
	// Fs backs the on-disk cache. Defaults to the OS filesystem.
	Fs afero.Fs
	// Source replaces the source named in the config.
	Source source.Source
	// DB replaces the database named in the config.
	DB *sql.DB
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.ConfigPath == "" {
		opts.ConfigPath = "config.toml"
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		input:      opts.Input,
		fs:         opts.Fs,
		src:        opts.Source,
		db:         opts.DB,
	}
}

func (r *Runner) app() *cli.Command {
	return &cli.Command{
		Name:    "musicutil",
		Usage:   "Search chiasenhac.vn and collect song download links",
		Version: "0.3.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Log at debug level",
			},
		},
		Before:   r.Before,
		Commands: r.register(),
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		searchCommand, linksCommand, infoCommand, songCommand, fetchCommand, pickCommand,
		refreshURLCommand, sizeCommand, sourcesCommand, qualityCommand, cacheCommand,
		libraryCommand, spotifyCommand, setupCommand, onlineCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Before loads the file named by --config, when given and present, and applies --verbose.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.IsSet("config") {
		r.configPath = cmd.String("config")
		if _, err := os.Stat(r.configPath); err == nil {
			config, err := shared.LoadConfig(r.configPath)
			if err != nil {
				return ctx, fmt.Errorf("failed to load config: %w", err)
			}
			r.config = config
		} else {
			r.logger.Debug("config file not found, using defaults", "path", r.configPath)
		}
	}

	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}
	return ctx, nil
}

// Close releases the database connection opened by the runner.
func (r *Runner) Close() error {
	if r.db == nil || !r.ownsDB {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

// SetLogger replaces the runner's logger.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// source returns the configured source, building it on first use.
func (r *Runner) source() (source.Source, error) {
	if r.src != nil {
		return r.src, nil
	}

	opts, err := r.sourceOptions()
	if err != nil {
		return nil, err
	}

	src, err := source.New(r.config.Source.Name, opts)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("source ready", "name", src.Name())
	r.src = src
	return src, nil
}

func (r *Runner) sourceOptions() (source.Options, error) {
	opts, err := source.OptionsFromConfig(r.config, r.logger)
	if err != nil {
		return opts, fmt.Errorf("failed to build source options: %w", err)
	}
	opts.HTTPClient = r.httpClient
	opts.CacheFs = r.fs
	return opts, nil
}

// database returns the song library connection, opening and migrating it on first use.
func (r *Runner) database() (*sql.DB, error) {
	if r.db != nil {
		return r.db, nil
	}

	r.logger.Debug("opening database", "path", r.config.Database.Path)
	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	r.db = db
	r.ownsDB = true
	return db, nil
}

func (r *Runner) songs() (*repositories.SongRepository, error) {
	db, err := r.database()
	if err != nil {
		return nil, err
	}
	return repositories.NewSongRepository(db), nil
}

// engine builds a task engine over the configured source. With save set
// the engine stores songs in the library.
func (r *Runner) engine(save bool) (*tasks.Engine, error) {
	src, err := r.source()
	if err != nil {
		return nil, err
	}

	if !save {
		return tasks.NewEngine(src, nil), nil
	}

	songs, err := r.songs()
	if err != nil {
		return nil, err
	}
	return tasks.NewEngine(src, songs), nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writeBytes(data []byte) error {
	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	return r.writeBytes([]byte(fmt.Sprintf(format, args...)))
}

func (r *Runner) writePlainln(format string, args ...any) error {
	return r.writeBytes([]byte("\n" + fmt.Sprintf(format, args...) + "\n"))
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
