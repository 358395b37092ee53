// Command kvmd runs the key-value server.
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/korthochain/kvm/pkg/config"
	"github.com/korthochain/kvm/pkg/logger"
	"github.com/korthochain/kvm/pkg/server"
	"github.com/korthochain/kvm/pkg/server/statusserver"
	"github.com/korthochain/kvm/pkg/storage"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

func main() {
	fs := pflag.NewFlagSet("kvmd", pflag.ExitOnError)
	cfgFile := fs.StringP("config", "c", "", "configuration file (default ./config/kvmConf.yaml)")
	fs.IntP("port", "p", config.DefaultPort, "TCP port to listen on")
	fs.String("host", "", "address to listen on, all interfaces when empty")
	fs.Int("max-connections", config.DefaultMaxConnections, "connections served at once")
	fs.String("engine", storage.EngineHash, "store engine: hash or ordered")
	fs.Bool("status", false, "serve the HTTP status endpoint")
	fs.String("status-address", "127.0.0.1:55556", "status endpoint address")
	fs.String("log-level", "info", "debug, info, warn or error")
	fs.String("log-file", "./logs/kvmd.log", "log file")
	fs.Parse(os.Args[1:])

	cfg, err := config.LoadConfig(*cfgFile, fs)
	if err != nil {
		fmt.Fprintln(os.Stderr, "kvmd:", err)
		os.Exit(1)
	}
	if err := logger.InitLogger(cfg.LogCfg); err != nil {
		fmt.Fprintln(os.Stderr, "kvmd: init logger:", err)
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		logger.Error("kvmd exited", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
	logger.Sync()
}

func run(cfg *config.CfgInfo) error {
	st, err := storage.New(cfg.StoreCfg.Engine)
	if err != nil {
		return err
	}

	var limiter *server.LimiterConfig
	if cfg.LimiterCfg.Enabled {
		limiter = &server.LimiterConfig{
			Rate:      cfg.LimiterCfg.Rate,
			Burst:     cfg.LimiterCfg.Burst,
			WhiteList: cfg.LimiterCfg.WhiteList,
		}
	}

	srv, err := server.New(server.Config{
		Address:        cfg.ServerCfg.Address(),
		MaxConnections: cfg.ServerCfg.MaxConnections,
		MaxFrameSize:   cfg.ServerCfg.MaxFrameSize,
		PipelineDepth:  cfg.ServerCfg.PipelineDepth,
		IdleTimeout:    cfg.ServerCfg.IdleTimeout,
		WriteTimeout:   cfg.ServerCfg.WriteTimeout,
		Limiter:        limiter,
		Logger:         logger.Logger.Named("server"),
	}, st)
	if err != nil {
		st.Close()
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.StatusCfg.Enabled {
		ln, err := net.Listen("tcp", cfg.StatusCfg.Address)
		if err != nil {
			// Run releases the listener and the store.
			srv.Stop()
			srv.Run(ctx)
			return fmt.Errorf("status endpoint: %w", err)
		}
		ss := statusserver.NewServer(srv, logger.Logger.Named("status"))
		go func() {
			if err := ss.Serve(ln); err != nil {
				logger.Error("status endpoint failed", zap.Error(err))
			}
		}()
		defer ss.Shutdown()
	}

	logger.SugarLogger.Infof("kvmd starting: engine=%s limiter=%t status=%t",
		cfg.StoreCfg.Engine, limiter != nil, cfg.StatusCfg.Enabled)
	return srv.Run(ctx)
}
