package app

import (
	"github.com/elastic-io/bucketzip/internal/api"
	"github.com/elastic-io/bucketzip/internal/log"
	"github.com/elastic-io/bucketzip/internal/monitor"
	"github.com/elastic-io/bucketzip/internal/options"
	"github.com/elastic-io/bucketzip/internal/utils"

	_ "github.com/elastic-io/bucketzip/internal/api/archive"
	_ "github.com/elastic-io/bucketzip/internal/api/s3"
)

// Server serve 命令：通过 HTTP 提供打包下载
type Server struct {
	*base
	server *api.Server
}

func NewServer(opts *options.Options) (App, error) {
	b, err := newBase(opts)
	if err != nil {
		return nil, err
	}
	server := api.New(opts.Config)
	if err := server.Init(); err != nil {
		b.Stop()
		return nil, err
	}
	return &Server{base: b, server: server}, nil
}

func (s *Server) Run() error {
	defer s.begin()()

	cfg := s.opts.Config
	if cfg.Monitor {
		m := &monitor.Memory{
			Limit:    uint64(cfg.MemoryLimit),
			Interval: cfg.MonitorPeriod,
			OnCritical: func() {
				log.Logger.Errorw("Memory stays critical", "limit", cfg.MemoryLimit)
			},
		}
		utils.SafeGo(func() { m.Run(s.ctx) })
	}
	return s.server.Serve()
}

func (s *Server) Stop() error {
	if err := s.server.Done(); err != nil {
		log.Logger.Warnw("Server shutdown failed", "error", err)
	}
	return s.base.Stop()
}
