package actions

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/xid"
	"github.com/sparkify/sparkify-etl/catalog"
	"github.com/sparkify/sparkify-etl/config"
	c "github.com/sparkify/sparkify-etl/constants"
	"github.com/sparkify/sparkify-etl/loader"
	"github.com/sparkify/sparkify-etl/logger"
	"github.com/sparkify/sparkify-etl/operators"
	"github.com/sparkify/sparkify-etl/pipeline"
	"github.com/sparkify/sparkify-etl/rdbms"
	"github.com/sparkify/sparkify-etl/rdbms/shared"
	"github.com/sparkify/sparkify-etl/runner"
)

// RunConfig holds the values shared by every command.
type RunConfig struct {
	ConfigFile       string
	Connection       string
	LogLevel         string
	Retries          int    // negative to keep the configured value
	RetryDelay       string // empty to keep the configured value
	StackDumpOnPanic bool
	TwelveFactor     bool // allow the config to come from the environment alone
}

// openConnection is swapped out by tests.
var openConnection operators.OpenFunc = rdbms.OpenDbConnection

// session is the state a single command invocation works with.
type session struct {
	log      *logger.LoggerImpl
	cfg      *config.Config
	provider *operators.ConnectionProvider
	factory  *operators.Factory
	runId    string
}

// newSession loads and validates the config and sets up logging with a fresh run id.
func newSession(rc *RunConfig) (*session, error) {
	return newSessionWithExit(rc, nil)
}

// newSessionWithExit is newSession with onFatal called before a fatal log exits the process.
func newSessionWithExit(rc *RunConfig, onFatal func()) (*session, error) {
	if rc == nil {
		return nil, errors.New("nil pointer to run config supplied")
	}
	var cfg *config.Config
	var err error
	if rc.TwelveFactor {
		cfg, err = config.LoadOrEnv(rc.ConfigFile)
	} else {
		cfg, err = config.Load(rc.ConfigFile)
	}
	if err != nil {
		return nil, errors.Wrap(err, "unable to load config")
	}
	if err = applyOverrides(rc, cfg); err != nil {
		return nil, err
	}
	if err = cfg.Validate(); err != nil {
		return nil, err
	}
	runId := xid.New().String()
	var base *logger.LoggerImpl
	if onFatal != nil {
		base = logger.NewWebLogger(c.AppName, cfg.LogLevel, rc.StackDumpOnPanic, onFatal)
	} else {
		base = logger.NewLogger(c.AppName, cfg.LogLevel, rc.StackDumpOnPanic)
	}
	log := base.WithField("run", runId)
	log.Debug("config loaded from ", cfg.Source)
	provider := operators.NewConnectionProviderWithOpener(log, cfg, openConnection)
	return &session{
		log:      log,
		cfg:      cfg,
		provider: provider,
		factory:  operators.NewFactory(log, cfg, provider),
		runId:    runId,
	}, nil
}

func applyOverrides(rc *RunConfig, cfg *config.Config) error {
	if rc.LogLevel != "" {
		cfg.LogLevel = rc.LogLevel
	}
	if rc.Retries >= 0 {
		cfg.Pipeline.Retries = rc.Retries
	}
	if rc.RetryDelay != "" {
		d, err := time.ParseDuration(rc.RetryDelay)
		if err != nil {
			return fmt.Errorf("invalid retry delay %q: %w", rc.RetryDelay, err)
		}
		cfg.Pipeline.RetryDelay = d
	}
	return nil
}

func (s *session) close() {
	s.provider.Close()
}

// connect opens the warehouse named in rc, or the default warehouse.
func (s *session) connect(rc *RunConfig) (shared.Connector, *catalog.Catalog, error) {
	conn, cat, err := s.factory.Connect(rc.Connection)
	if err != nil {
		return nil, nil, errors.Wrap(err, "unable to connect to the warehouse")
	}
	return conn, cat, nil
}

// withSession runs fn with a session and a context that is cancelled on SIGINT.
func withSession(rc *RunConfig, fn func(ctx context.Context, s *session) error) error {
	s, err := newSession(rc)
	if err != nil {
		return err
	}
	defer s.close()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return fn(ctx, s)
}

// RunCreateTables drops and recreates every table.
// Statement failures are logged and do not fail the command.
func RunCreateTables(rc *RunConfig) error {
	return withSession(rc, func(ctx context.Context, s *session) error {
		conn, cat, err := s.connect(rc)
		if err != nil {
			return err
		}
		s.log.Info("creating tables on ", conn.GetType(), " warehouse")
		runner.RunLifecycle(ctx, runner.NewExecutor(s.log, conn), cat)
		return nil
	})
}

// RunEtl copies the raw data into staging and then builds the analytics tables.
// Statement failures are logged and do not fail the command.
func RunEtl(rc *RunConfig) error {
	return withSession(rc, func(ctx context.Context, s *session) error {
		conn, cat, err := s.connect(rc)
		if err != nil {
			return err
		}
		r := &runner.LoadRunner{
			Executor: runner.NewExecutor(s.log, conn),
			Catalog:  cat,
			Sources:  s.factory.CopySources(),
			Copier:   loader.New(s.log, cat, s.factory.NewClient),
		}
		_, err = r.Run(ctx)
		return err
	})
}

// RunStage reloads one staging table.
func RunStage(rc *RunConfig, p operators.StageParams) error {
	if p.Connection == "" {
		p.Connection = rc.Connection
	}
	return withSession(rc, func(ctx context.Context, s *session) error {
		op, err := s.factory.Stage(p)
		if err != nil {
			return err
		}
		return op.Execute(ctx)
	})
}

// RunLoad loads one dimension or fact table from staging.
func RunLoad(rc *RunConfig, p operators.LoadParams) error {
	if p.Connection == "" {
		p.Connection = rc.Connection
	}
	return withSession(rc, func(ctx context.Context, s *session) error {
		op, err := s.factory.Load(p)
		if err != nil {
			return err
		}
		return op.Execute(ctx)
	})
}

// RunCheck runs the data quality checks and fails on the first mismatch.
func RunCheck(rc *RunConfig) error {
	return withSession(rc, func(ctx context.Context, s *session) error {
		op, err := s.factory.Quality(rc.Connection)
		if err != nil {
			return err
		}
		return op.Execute(ctx)
	})
}

// RunPipeline executes the whole task list with retries.
func RunPipeline(rc *RunConfig) error {
	return withSession(rc, func(ctx context.Context, s *session) error {
		p := &pipeline.Pipeline{
			Log:        s.log,
			Tasks:      pipeline.DefaultTasks(),
			Retries:    s.cfg.Pipeline.Retries,
			RetryDelay: s.cfg.Pipeline.RetryDelay,
		}
		results, err := p.Run(ctx, pipeline.NewFactoryBuilder(s.factory, rc.Connection))
		for _, r := range results {
			s.log.Debug("task ", r.ID, " took ", r.Elapsed.Round(time.Millisecond), " over ", r.Attempts, " attempts")
		}
		return err
	})
}

// RunPlan writes the ordered task list to w as yaml or json.
func RunPlan(format string, w io.Writer) error {
	data, err := pipeline.Plan(pipeline.DefaultTasks(), format)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
