// Package app provides the dependency injection container for the application.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5"

	"github.com/runoshun/board/internal/board"
	"github.com/runoshun/board/internal/domain"
	"github.com/runoshun/board/internal/drag"
	"github.com/runoshun/board/internal/infra/config"
	"github.com/runoshun/board/internal/infra/gitstore"
	"github.com/runoshun/board/internal/infra/httpapi"
	"github.com/runoshun/board/internal/infra/jsonstore"
	"github.com/runoshun/board/internal/infra/logging"
	"github.com/runoshun/board/internal/infra/redisstore"
	"github.com/runoshun/board/internal/infra/sqlitestore"
	"github.com/runoshun/board/internal/infra/storeapi"
	"github.com/runoshun/board/internal/reconcile"
	"github.com/runoshun/board/internal/server"
	"github.com/runoshun/board/internal/usecase"
)

// Config holds the application paths.
type Config struct {
	ProjectRoot string // Directory holding .board (or the git work tree root)
	BoardDir    string // Path to .board directory
}

// newConfig derives the paths for a project root.
func newConfig(root string) Config {
	return Config{
		ProjectRoot: root,
		BoardDir:    domain.RepoBoardDir(root),
	}
}

// Container provides dependency injection for the application.
// It holds all port implementations and provides factory methods for use cases.
type Container struct {
	// Ports (interfaces bound to implementations)
	API              domain.BoardAPI
	Store            domain.SnapshotStore    // nil for the http backend
	StoreInitializer domain.StoreInitializer // nil for the http backend
	Clock            domain.Clock
	IDs              domain.IDGenerator
	ConfigLoader     domain.ConfigLoader
	ConfigManager    domain.ConfigManager
	BoardLogger      domain.Logger

	// Pointer fields
	Logger    *slog.Logger
	Model     *board.Model
	Gateway   *reconcile.Gateway
	Machine   *drag.Machine
	AppConfig *domain.Config

	closers []func() error

	// Configuration
	Config Config
}

// New creates a Container for the project containing dir.
func New(ctx context.Context, dir string) (*Container, error) {
	root, err := FindProjectRoot(dir)
	if err != nil {
		return nil, err
	}
	cfg := newConfig(root)

	configLoader := config.NewLoader(cfg.BoardDir)
	appConfig, err := configLoader.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	level := logging.ParseLevel(appConfig.Log.Level)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	for _, w := range appConfig.Warnings {
		logger.Warn("config", "warning", w)
	}

	c := &Container{
		Clock:         domain.RealClock{},
		IDs:           domain.UUIDGenerator{},
		ConfigLoader:  configLoader,
		ConfigManager: config.NewManager(cfg.BoardDir),
		Logger:        logger,
		AppConfig:     appConfig,
		Config:        cfg,
	}

	if err := c.openStore(ctx); err != nil {
		_ = c.Close()
		return nil, err
	}

	// File logging only once the board directory exists; 'board init' creates it.
	if info, statErr := os.Stat(cfg.BoardDir); statErr == nil && info.IsDir() {
		fileLogger := logging.New(cfg.BoardDir, level)
		c.BoardLogger = fileLogger
		c.closers = append(c.closers, fileLogger.Close)
	} else {
		c.BoardLogger = domain.NopLogger{}
	}

	c.wire()
	return c, nil
}

// NewWithDeps creates a new Container with custom dependencies for testing.
func NewWithDeps(cfg Config, appConfig *domain.Config, api domain.BoardAPI, store domain.SnapshotStore, storeInit domain.StoreInitializer, clock domain.Clock, ids domain.IDGenerator, logger *slog.Logger) *Container {
	if appConfig == nil {
		appConfig = domain.NewDefaultConfig()
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	c := &Container{
		API:              api,
		Store:            store,
		StoreInitializer: storeInit,
		Clock:            clock,
		IDs:              ids,
		BoardLogger:      domain.NopLogger{},
		Logger:           logger,
		AppConfig:        appConfig,
		Config:           cfg,
	}
	c.wire()
	return c
}

// wire builds the ordering model, the gateway and the drag machine.
func (c *Container) wire() {
	c.Model = board.New()
	c.Machine = drag.NewMachine(c.Model)
	c.Gateway = reconcile.New(c.API, c.Model, reconcile.Options{
		Logger:  c.BoardLogger,
		Policy:  c.AppConfig.Reconcile.Policy,
		Timeout: c.AppConfig.Store.RequestTimeout(),
	})
	if c.AppConfig.Reconcile.ShouldRefetchOnFailure() {
		c.Gateway.Subscribe(c.refetchOnFailure)
	}
}

// refetchOnFailure resynchronizes the model after a failed mutation, since
// optimistic changes are never rolled back.
func (c *Container) refetchOnFailure(o reconcile.Outcome) {
	if !o.Failed() || o.Op == reconcile.OpFetchBoard || errors.Is(o.Err, domain.ErrGatewayClosed) {
		return
	}
	c.Logger.Debug("refetching board after failure", "op", o.Op, "err", o.Err)
	c.Gateway.Submit(context.Background(), reconcile.FetchBoardMutation())
}

// openStore connects the configured backend.
func (c *Container) openStore(ctx context.Context) error {
	sc := c.AppConfig.Store
	switch sc.Backend {
	case domain.BackendJSON, "":
		path := c.resolve(sc.Path, domain.StoreFileName)
		store := jsonstore.New(path)
		c.useStore(store, store)
	case domain.BackendGit:
		store, err := gitstore.New(c.Config.ProjectRoot, sc.Namespace)
		if err != nil {
			return fmt.Errorf("open git store: %w", err)
		}
		store.SetClock(c.Clock)
		c.useStore(store, store)
	case domain.BackendRedis:
		store, err := redisstore.Open(ctx, sc.RedisURL, sc.RedisKey)
		if err != nil {
			return err
		}
		c.closers = append(c.closers, store.Close)
		c.useStore(store, store)
	case domain.BackendSQLite:
		store, err := sqlitestore.Open(ctx, c.resolve(sc.SQLitePath, domain.SQLiteFileName))
		if err != nil {
			return fmt.Errorf("open sqlite store: %w", err)
		}
		c.closers = append(c.closers, store.Close)
		c.useStore(store, store)
	case domain.BackendHTTP:
		c.API = httpapi.New(sc.RemoteURL, sc.RequestTimeout())
	default:
		return fmt.Errorf("%w: %q", domain.ErrUnknownBackend, sc.Backend)
	}
	return nil
}

func (c *Container) useStore(store domain.SnapshotStore, init domain.StoreInitializer) {
	c.Store = store
	c.StoreInitializer = init
	c.API = storeapi.New(store, c.Clock)
}

// resolve returns path relative to the project root, or the default file
// inside the board directory when path is empty.
func (c *Container) resolve(path, defaultName string) string {
	if path == "" {
		return filepath.Join(c.Config.BoardDir, defaultName)
	}
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.Config.ProjectRoot, path)
}

// Close waits for in-flight mutations and releases backend connections.
func (c *Container) Close() error {
	if c.Gateway != nil {
		c.Gateway.Close()
	}
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}

// FindProjectRoot returns the nearest ancestor of dir containing a .board
// directory, else the root of the enclosing git work tree, else dir itself.
func FindProjectRoot(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for d := abs; ; d = filepath.Dir(d) {
		if info, err := os.Stat(domain.RepoBoardDir(d)); err == nil && info.IsDir() {
			return d, nil
		}
		if filepath.Dir(d) == d {
			break
		}
	}
	repo, err := git.PlainOpenWithOptions(abs, &git.PlainOpenOptions{DetectDotGit: true})
	if err == nil {
		if wt, err := repo.Worktree(); err == nil {
			return wt.Filesystem.Root(), nil
		}
	}
	return abs, nil
}

// UseCase factory methods

// InitBoardUseCase returns a new InitBoard use case.
func (c *Container) InitBoardUseCase() *usecase.InitBoard {
	return usecase.NewInitBoard(c.StoreInitializer, c.Store, c.Clock)
}

// InitConfigUseCase returns a new InitConfig use case.
func (c *Container) InitConfigUseCase() *usecase.InitConfig {
	return usecase.NewInitConfig(c.ConfigManager)
}

// ShowConfigUseCase returns a new ShowConfig use case.
func (c *Container) ShowConfigUseCase() *usecase.ShowConfig {
	return usecase.NewShowConfig(c.ConfigLoader, c.ConfigManager)
}

// LoadBoardUseCase returns a new LoadBoard use case.
func (c *Container) LoadBoardUseCase() *usecase.LoadBoard {
	return usecase.NewLoadBoard(c.API, c.Model, c.BoardLogger)
}

// RefreshBoardUseCase returns a new RefreshBoard use case.
func (c *Container) RefreshBoardUseCase() *usecase.RefreshBoard {
	return usecase.NewRefreshBoard(c.Gateway, c.BoardLogger)
}

// ShowBoardUseCase returns a new ShowBoard use case.
func (c *Container) ShowBoardUseCase() *usecase.ShowBoard {
	return usecase.NewShowBoard(c.Model, c.Machine)
}

// CreateColumnUseCase returns a new CreateColumn use case.
func (c *Container) CreateColumnUseCase() *usecase.CreateColumn {
	return usecase.NewCreateColumn(c.Model, c.Gateway, c.IDs, c.BoardLogger)
}

// RenameColumnUseCase returns a new RenameColumn use case.
func (c *Container) RenameColumnUseCase() *usecase.RenameColumn {
	return usecase.NewRenameColumn(c.Model, c.Gateway, c.BoardLogger)
}

// DeleteColumnUseCase returns a new DeleteColumn use case.
func (c *Container) DeleteColumnUseCase() *usecase.DeleteColumn {
	return usecase.NewDeleteColumn(c.Model, c.Gateway, c.BoardLogger)
}

// MoveColumnUseCase returns a new MoveColumn use case.
func (c *Container) MoveColumnUseCase() *usecase.MoveColumn {
	return usecase.NewMoveColumn(c.Model, c.Gateway, c.BoardLogger)
}

// CreateTaskUseCase returns a new CreateTask use case.
func (c *Container) CreateTaskUseCase() *usecase.CreateTask {
	return usecase.NewCreateTask(c.Model, c.Gateway, c.IDs, c.BoardLogger)
}

// UpdateTaskUseCase returns a new UpdateTask use case.
func (c *Container) UpdateTaskUseCase() *usecase.UpdateTask {
	return usecase.NewUpdateTask(c.Model, c.Gateway, c.BoardLogger)
}

// DeleteTaskUseCase returns a new DeleteTask use case.
func (c *Container) DeleteTaskUseCase() *usecase.DeleteTask {
	return usecase.NewDeleteTask(c.Model, c.Gateway, c.BoardLogger)
}

// MoveTaskUseCase returns a new MoveTask use case.
func (c *Container) MoveTaskUseCase() *usecase.MoveTask {
	return usecase.NewMoveTask(c.Model, c.Gateway, c.BoardLogger)
}

// StartDragUseCase returns a new StartDrag use case.
func (c *Container) StartDragUseCase() *usecase.StartDrag {
	return usecase.NewStartDrag(c.Machine, c.BoardLogger)
}

// DragOverUseCase returns a new DragOver use case.
func (c *Container) DragOverUseCase() *usecase.DragOver {
	return usecase.NewDragOver(c.Machine, c.Model)
}

// DropUseCase returns a new Drop use case.
func (c *Container) DropUseCase() *usecase.Drop {
	return usecase.NewDrop(c.Machine, c.Model, c.Gateway, c.BoardLogger)
}

// ImportBoardUseCase returns a new ImportBoard use case.
func (c *Container) ImportBoardUseCase() *usecase.ImportBoard {
	return usecase.NewImportBoard(c.Model, c.Gateway, c.BoardLogger)
}

// ExportBoardUseCase returns a new ExportBoard use case.
func (c *Container) ExportBoardUseCase() *usecase.ExportBoard {
	return usecase.NewExportBoard(c.Model)
}

// Server returns an HTTP server exposing the configured store.
func (c *Container) Server() *server.Server {
	return server.New(c.API, c.Logger)
}
