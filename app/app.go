package app

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"time"

	"github.com/elastic-io/bucketzip/internal/log"
	"github.com/elastic-io/bucketzip/internal/options"
	"github.com/elastic-io/bucketzip/internal/source"
	"github.com/urfave/cli"
)

type App interface {
	Run() error
	Stop() error
}

// Program 根据命令参数构造具体的 App
type Program func(opts *options.Options) (App, error)

// StopTimeout Stop 的最长等待时间
var StopTimeout = 10 * time.Second

func Main(ctx *cli.Context, program Program, name string) error {
	opts, err := options.New(ctx)
	if err != nil {
		return err
	}

	app, err := program(opts)
	if err != nil {
		return err
	}
	logger := log.Named(name)

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, opts.StopSignals...)
	defer signal.Stop(signalCh)

	errCh := make(chan error, 1)
	go func() {
		if err := app.Run(); err != nil {
			errCh <- err
		}
		close(errCh)
	}()

	logger.Debugw("Application started", "options", opts.String())

	select {
	case receivedSignal := <-signalCh:
		logger.Infow("Received signal, initiating graceful shutdown", "signal", receivedSignal.String())
	case err = <-errCh:
		if err != nil {
			logger.Debugw("Application error, shutting down", "error", err)
		} else {
			logger.Debug("Application completed successfully, shutting down")
		}
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), StopTimeout)
	defer cancel()

	stopErrCh := make(chan error, 1)
	go func() {
		stopErrCh <- app.Stop()
		close(stopErrCh)
	}()

	select {
	case stopErr := <-stopErrCh:
		if stopErr != nil {
			logger.Debugw("Error during shutdown", "error", stopErr)
			if err == nil {
				err = stopErr
			}
		}
	case <-stopCtx.Done():
		logger.Warn("Shutdown timed out")
		if err == nil {
			err = stopCtx.Err()
		}
	}
	logger.Debug("Application shutdown complete")
	return err
}

// base 各命令共享的数据源与取消逻辑
type base struct {
	opts    *options.Options
	ctx     context.Context
	cancel  context.CancelFunc
	backend source.Backend
	once    sync.Once

	started atomic.Bool
	done    chan struct{}
}

func newBase(opts *options.Options) (*base, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	backend, err := source.New(opts.Config.Storage)
	if err != nil {
		return nil, err
	}
	opts.Config.Backend = backend

	ctx, cancel := context.WithCancel(context.Background())
	return &base{opts: opts, ctx: ctx, cancel: cancel, backend: backend, done: make(chan struct{})}, nil
}

// begin 标记 Run 开始，返回的函数在 Run 结束时调用
func (b *base) begin() func() {
	b.started.Store(true)
	return func() { close(b.done) }
}

// Stop 取消正在进行的操作，等 Run 退出后再关闭数据源
func (b *base) Stop() error {
	b.cancel()
	if b.started.Load() {
		<-b.done
	}
	var err error
	b.once.Do(func() {
		err = b.backend.Close()
	})
	return err
}
