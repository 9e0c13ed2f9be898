package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-storefront/pkg/config"
	"go-storefront/pkg/discovery"

	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// Serve 启动 HTTP 服务, 按配置注册到 Consul; 收到 SIGINT/SIGTERM 或 ctx 结束后注销并优雅退出
func Serve(ctx context.Context, svc config.ServiceConfig, consul config.ConsulConfig, handler http.Handler, log *zap.Logger) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", svc.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var reg *discovery.Registration
	if consul.Enabled {
		var err error
		reg, err = discovery.RegisterService(svc.Name, svc.Host, svc.Port, consul.Address, log)
		if err != nil {
			log.Error("register service", zap.Error(err))
		}
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		return fmt.Errorf("serve http: %w", err)
	case sig := <-quit:
		log.Info("shutting down", zap.String("signal", sig.String()))
	case <-ctx.Done():
		log.Info("shutting down", zap.Error(ctx.Err()))
	}

	if reg != nil {
		if err := reg.Deregister(); err != nil {
			log.Warn("deregister service", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
