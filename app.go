package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type AppProvider interface {
	Run() error
	Serve() func() error
	Stop(context.Context, context.Context) func() error
}

type App struct {
	logger         *zap.Logger
	config         *Config
	serverMode     bool
	library        *LibraryService
	server         *http.Server
	in             io.Reader
	out            io.Writer
	cleanups       []func()
	queueConsumers []func(context.Context) error
}

// NewApp provides an instance of App. The catalog is restored from the
// data file before any frontend is started.
func NewApp(serverMode bool, in io.Reader, out io.Writer) (AppProvider, error) {
	config, err := LoadAndInitConfigs(GitCommit, GitTag, BuildTime)
	if err != nil {
		return nil, fmt.Errorf("failed to setup app configuration: %s", err)
	}

	clock := NewClock(config.IsProduction)
	ids := NewIDsGenerator()

	// Setup the logging module. The console menu owns stdout so
	// logs only go to the files in that mode.
	logWriter := NewRSyncWriter(config, clock)
	closer := func() {
		if cerr := logWriter.Close(); cerr != nil {
			fmt.Println("error during closing of log file: ", cerr)
		}
	}
	logger, flusher := SetupLogging(config, logWriter, serverMode)

	app := &App{
		logger:     logger,
		config:     config,
		serverMode: serverMode,
		in:         in,
		out:        out,
		cleanups:   []func(){flusher, closer},
	}

	catalog := NewCatalog(logger, clock, NewFileSnapshotStore(logger, config.DataFile))
	if err = catalog.Load(context.Background()); err != nil {
		app.Clean()
		return nil, fmt.Errorf("failed to load library data from %s: %s", config.DataFile, err)
	}

	queue, journal, err := app.setupJournal()
	if err != nil {
		app.Clean()
		return nil, err
	}
	app.library = NewLibraryService(logger, catalog, clock, ids, queue, journal)

	if serverMode {
		app.server = app.setupServer(clock, ids)
	}
	return app, nil
}

// setupJournal opens the loan journal and its queue when enabled. It
// registers the consumer and the cleanups of the opened clients.
func (app *App) setupJournal() (Queuer, LoanJournal, error) {
	if !app.config.Journal.Enabled {
		app.logger.Info("loan journal disabled")
		return nil, nil, nil
	}

	boltDBClient, err := GetBoltDBClient(app.config)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open boltDB journal: %s", err)
	}
	app.cleanups = append([]func(){func() {
		if cerr := boltDBClient.Close(); cerr != nil {
			app.logger.Error("failed to close boltDB journal", zap.Error(cerr))
		}
	}}, app.cleanups...)
	journal := NewBoltLoanJournal(app.logger, &app.config.BoltDB, boltDBClient)

	var queue Queuer
	switch app.config.Journal.Queue {
	case QueueRedis:
		redisClient, err := GetRedisClient(app.config)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to redis server: %s", err)
		}
		app.cleanups = append([]func(){func() { _ = redisClient.Close() }}, app.cleanups...)
		queue = NewRedisQueue(redisClient)
	default:
		queue = NewMemoryQueue(app.config.Journal.QueueSize)
	}

	consumer := NewJournalConsumer(app.logger, queue, journal)
	app.queueConsumers = append(app.queueConsumers, consumer.Consume)
	app.logger.Info("loan journal enabled",
		zap.String("journal.queue", app.config.Journal.Queue),
		zap.String("journal.file", app.config.BoltDB.FilePath),
	)
	return queue, journal, nil
}

// setupServer builds the api server definition over the library service.
func (app *App) setupServer(clock Clocker, ids UIDGenerator) *http.Server {
	apiService := NewAPIHandler(
		app.logger,
		app.config,
		&Statistics{
			version:  app.config.GitTag,
			started:  clock.Now(),
			runtime:  runtime.Version(),
			platform: runtime.GOOS + "/" + runtime.GOARCH,
		},
		clock,
		ids,
		app.library,
	)

	// Use git commit in case the tag is not set.
	if app.config.GitTag == "" {
		apiService.stats.version = app.config.GitCommit
	}

	// Build the map of middlewares stacks.
	middlewaresPublic, middlewaresOps := apiService.MiddlewaresStacks()

	// Configure the endpoints with their handlers and middlewares.
	router := apiService.SetupRoutes(httprouter.New(),
		&MiddlewareMap{
			public: middlewaresPublic.Chain,
			ops:    middlewaresOps.Chain,
		},
	)
	// Wrap the router with the default http timeout handler.
	routerWithTimeout := http.TimeoutHandler(
		router,
		app.config.Server.RequestTimeout,
		"Timeout. Processing taking too long. Please reach out to support.")

	return &http.Server{
		Addr:           fmt.Sprintf("%s:%s", app.config.Server.Host, app.config.Server.Port),
		Handler:        routerWithTimeout,
		ReadTimeout:    app.config.Server.ReadTimeout,
		WriteTimeout:   app.config.Server.WriteTimeout,
		MaxHeaderBytes: 1 << 20, // Max headers size : 1MB
	}
}

// Run starts the console menu or the api server depending on the mode.
// The queue consumers run in the background in both cases.
func (app *App) Run() error {
	defer app.Clean()
	nCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	rCtx, cancel := context.WithCancel(nCtx)
	defer cancel()

	g, gCtx := errgroup.WithContext(rCtx)
	g.Go(app.ConsumeQueues(gCtx, g))

	if app.serverMode {
		g.Go(app.Serve())
		g.Go(app.Stop(rCtx, gCtx))
		g.Go(app.WaitForEnter(gCtx, cancel))
	} else {
		g.Go(app.Interact(gCtx, cancel))
	}

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	app.logger.Info("application stopped", zap.Bool("app.server", app.serverMode), zap.Error(err))
	return err
}

// Clean calls all registered cleanups functions.
func (app *App) Clean() {
	for _, f := range app.cleanups {
		f()
	}
}

// Interact runs the console menu and requests the stop once it exits.
// A signal does not wait for the pending input read.
func (app *App) Interact(gCtx context.Context, cancel context.CancelFunc) func() error {
	return func() error {
		defer cancel()
		done := make(chan error, 1)
		go func() {
			done <- NewConsole(app.logger, app.library, app.in, app.out).Run(gCtx)
		}()
		select {
		case err := <-done:
			return err
		case <-gCtx.Done():
			app.logger.Info("console stopping. reason: requested to stop")
			return nil
		}
	}
}

// WaitForEnter requests the stop once a line (or EOF) is read from the
// input. The read runs apart so that a signal does not wait for it.
func (app *App) WaitForEnter(gCtx context.Context, cancel context.CancelFunc) func() error {
	return func() error {
		fmt.Fprintln(app.out, "Press Enter to stop the server...")
		entered := make(chan struct{})
		go func() {
			_, _ = bufio.NewReader(app.in).ReadString('\n')
			close(entered)
		}()
		select {
		case <-entered:
			app.logger.Info("stop requested from the console")
			cancel()
		case <-gCtx.Done():
		}
		return nil
	}
}

// Serve starts the api web server. It returned error
// will be caught by the errorgroup.
func (app *App) Serve() func() error {
	return func() error {
		app.logger.Info("api server starting",
			zap.String("app.host", app.config.Server.Host),
			zap.String("app.port", app.config.Server.Port),
		)
		fmt.Fprintf(app.out, "Server running on http://%s\n", app.server.Addr)
		err := app.server.ListenAndServe()
		if err == http.ErrServerClosed {
			err = nil
		}
		return err
	}
}

// Stop listens for the group context and triggers the server graceful shutdown.
// It states the reason of its call. We proceed with a brutal shutdown if the
// the graceful did not complete successfully. We explicitly return `nil` to
// allow the errorgroup catches only the `Serve` method result.
func (app *App) Stop(nCtx, gCtx context.Context) func() error {
	return func() error {
		<-gCtx.Done()

		if nCtx.Err() != nil {
			app.logger.Info("api server stopping. reason: requested to stop")
		} else {
			app.logger.Info("api server stopping. reason: errored at running")
		}

		sCtx, cancel := context.WithTimeout(context.Background(), app.config.Server.ShutdownTimeout)
		defer cancel()
		err := app.server.Shutdown(sCtx)
		switch err {
		case nil, http.ErrServerClosed:
			app.logger.Info("api server graceful shutdown succeeded")
		case context.DeadlineExceeded:
			app.logger.Info("api server graceful shutdown timed out")
		default:
			app.logger.Info("api server graceful shutdown failed", zap.Error(err))
		}

		if err != nil && err != http.ErrServerClosed {
			app.logger.Info("api server going to force shutdown", zap.Error(app.server.Close()))
		}
		return nil
	}
}

// ConsumeQueues runs all queue consumers into separate controlled goroutines.
func (app *App) ConsumeQueues(gCtx context.Context, g *errgroup.Group) func() error {
	return func() error {
		for _, consume := range app.queueConsumers {
			consume := consume
			g.Go(func() error {
				return consume(gCtx)
			})
		}
		return nil
	}
}
