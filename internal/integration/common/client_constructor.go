package common

import (
	"github.com/opmgt/beergame-coach/internal/config"
	pkgHTTP "github.com/opmgt/beergame-coach/pkg/http"
	"go.uber.org/zap"
)

// NewBaseConnector builds the shared HTTP connector for the outbound
// integrations (generative backend, persistence sink) from one client
// config block. Both integrations carry the same timeout and auth surface,
// so they differ only in base URL and token.
func NewBaseConnector(cfg config.HTTPClientConfig, logger *zap.Logger) *pkgHTTP.Connector {
	connCfg := &pkgHTTP.ConnectorConfig{
		Logger:  logger,
		BaseURL: cfg.Url,
	}

	return pkgHTTP.NewConnector(
		connCfg,
		pkgHTTP.WithRequestTimeout(cfg.RequestTimeout),
		pkgHTTP.WithConnClientTimeout(cfg.ConnTimeout),
		pkgHTTP.WithClientKeepAlive(cfg.KeepAlive),
		pkgHTTP.WithIdleConnTimeout(cfg.IdleConnTimeout),
		pkgHTTP.WithResponseHeaderTimeout(cfg.ResponseHeaderTimeout),
		pkgHTTP.WithRequestLogging(),
		pkgHTTP.WithAuthToken(cfg.Token),
	)
}
