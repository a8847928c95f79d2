// Package blob implements the persistence sink: an opaque object store
// addressed by object name over HTTP. The caller treats every failure as
// non-fatal; this connector only reports them.
package blob

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/opmgt/beergame-coach/internal/config"
	"github.com/opmgt/beergame-coach/internal/entity"
	"github.com/opmgt/beergame-coach/internal/integration/common"
	pkghttp "github.com/opmgt/beergame-coach/pkg/http"
	"go.uber.org/zap"
)

type Connector struct {
	config    config.BlobConnectorConfig
	connector *pkghttp.Connector
	logger    *zap.Logger
}

func NewConnector(
	cfg config.BlobConnectorConfig,
	logger *zap.Logger,
) *Connector {
	return &Connector{
		connector: common.NewBaseConnector(cfg.HTTPClientConfig, logger),
		config:    cfg,
		logger:    logger,
	}
}

// Upload writes one object and returns its stored name. A single attempt,
// matching the best-effort semantics of the sink.
func (c *Connector) Upload(ctx context.Context, objectName, contentType string, body []byte) (string, error) {
	ctxzap.Info(ctx, "uploading object to blob store",
		zap.String("object", objectName),
		zap.Int("bytes", len(body)),
	)

	endpoint := fmt.Sprintf("/%s/%s", c.config.Bucket, url.PathEscape(objectName))
	if err := c.connector.DoUpload(ctx, http.MethodPut, endpoint, contentType, body); err != nil {
		return "", fmt.Errorf("%w: %s: %v", entity.ErrPersistenceFailed, objectName, err)
	}

	ctxzap.Info(ctx, "object uploaded", zap.String("object", objectName))

	return objectName, nil
}
