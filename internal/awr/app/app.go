package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Leopold1975/awr_control/internal/awr/api/server"
	"github.com/Leopold1975/awr_control/internal/awr/domain/seed"
	"github.com/Leopold1975/awr_control/internal/awr/repository/inventorycache"
	"github.com/Leopold1975/awr_control/internal/awr/repository/inventorycache/redis"
	ir "github.com/Leopold1975/awr_control/internal/awr/repository/inventoryrepo/postgres"
	"github.com/Leopold1975/awr_control/internal/awr/repository/memory"
	tr "github.com/Leopold1975/awr_control/internal/awr/repository/taskrepo/postgres"
	ur "github.com/Leopold1975/awr_control/internal/awr/repository/userrepo/postgres"
	"github.com/Leopold1975/awr_control/internal/awr/services/authservice"
	"github.com/Leopold1975/awr_control/internal/awr/services/inventoryservice"
	"github.com/Leopold1975/awr_control/internal/awr/services/taskservice"
	"github.com/Leopold1975/awr_control/internal/pkg/config"
	"github.com/Leopold1975/awr_control/internal/pkg/pgtools"
	"github.com/Leopold1975/awr_control/pkg/logger"
)

type Server interface {
	Start(context.Context) error
	Shutdown(context.Context) error
}

type AWRApp struct {
	s       Server
	lg      logger.Logger
	cfg     config.Config
	closers []func(context.Context) error
}

type storage struct {
	users     authservice.Repository
	tasks     taskservice.Repository
	inventory inventoryservice.Repository
	close     func(context.Context) error
}

func New(ctx context.Context, cfg config.Config) (AWRApp, error) {
	lg, err := logger.New(cfg.Logger)
	if err != nil {
		return AWRApp{}, fmt.Errorf("can't get logger error: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return AWRApp{}, fmt.Errorf("config error: %w", err)
	}

	st, err := newStorage(ctx, cfg)
	if err != nil {
		return AWRApp{}, err
	}

	closers := []func(context.Context) error{st.close}

	cache, closeCache, err := newCache(ctx, cfg.RedisCache)
	if err != nil {
		st.close(ctx) //nolint:errcheck

		return AWRApp{}, err
	}

	if closeCache != nil {
		closers = append(closers, closeCache)
	}

	authService := authservice.New(st.users, cfg.Auth)

	if err := authService.EnsureUsers(ctx, seed.Default().Users); err != nil {
		for _, c := range closers {
			c(ctx) //nolint:errcheck
		}

		return AWRApp{}, fmt.Errorf("seed users error: %w", err)
	}

	taskService := taskservice.New(st.tasks, lg)
	inventoryService := inventoryservice.New(st.inventory, cache, lg)

	if closeCache != nil {
		go inventoryService.BackgroundRefresh(ctx, cfg.RedisCache.ExpTime)
	} else {
		lg.Warnf("redis address is empty, inventory cache disabled")
	}

	s := server.New(cfg.Server, authService, taskService, inventoryService, lg)

	lg.Infof("storage backend %s", cfg.Storage.Backend)

	return AWRApp{
		s:       s,
		lg:      lg,
		cfg:     cfg,
		closers: closers,
	}, nil
}

func newStorage(ctx context.Context, cfg config.Config) (storage, error) {
	switch cfg.Storage.Backend {
	case config.BackendPostgres:
		db, err := pgtools.Open(ctx, cfg.PostgresDB)
		if err != nil {
			return storage{}, fmt.Errorf("postgres initializing error: %w", err)
		}

		return storage{
			users:     ur.New(db),
			tasks:     tr.New(db),
			inventory: ir.New(db),
			close: func(ctx context.Context) error {
				return pgtools.Shutdown(ctx, db)
			},
		}, nil
	default:
		m := memory.New(seed.Default())

		return storage{
			users:     m,
			tasks:     m,
			inventory: m,
			close:     m.Shutdown,
		}, nil
	}
}

// newCache без адреса redis отдаёт кэш-заглушку и nil вместо функции закрытия.
func newCache(ctx context.Context,
	cfg config.RedisCache,
) (inventoryservice.Cache, func(context.Context) error, error) {
	if cfg.Addr == "" {
		return inventorycache.Nop{}, nil, nil
	}

	ic, err := redis.New(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("redis inventory cache initializing error: %w", err)
	}

	return ic, func(context.Context) error { return ic.Close() }, nil
}

func (aa *AWRApp) Run(ctx context.Context) {
	aa.lg.Infof("STARTED SERVER ON %s", aa.cfg.Server.Addr)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		if err := aa.s.Start(ctx); err != nil {
			aa.lg.Errorf("server start error: %s", err.Error())
			cancel()

			return
		}
	}()

	<-ctx.Done()

	ctxS, cancelS := context.WithTimeout(context.Background(), time.Second*5) //nolint:gomnd
	defer cancelS()

	if err := aa.Stop(ctxS); err != nil { //nolint:contextcheck
		aa.lg.Errorf("shutdown error: %s", err.Error())
	}
}

func (aa *AWRApp) Stop(ctx context.Context) error {
	var errs []error

	if err := aa.s.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown error: %w", err))
	}

	for _, c := range aa.closers {
		if err := c(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	if err := errors.Join(errs...); err != nil {
		return err
	}

	aa.lg.Info("Shutdowned successfully")
	aa.lg.Sync() //nolint:errcheck

	return nil
}
