package blob

import (
	"context"
	"sync"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// MockConnector keeps uploaded objects in memory.
type MockConnector struct {
	mu      sync.Mutex
	objects map[string][]byte
	logger  *zap.Logger
}

func NewMockConnector(logger *zap.Logger) *MockConnector {
	return &MockConnector{
		objects: make(map[string][]byte),
		logger:  logger,
	}
}

func (m *MockConnector) Upload(ctx context.Context, objectName, contentType string, body []byte) (string, error) {
	ctxzap.Info(ctx, "[MOCK] storing object", zap.String("object", objectName), zap.Int("bytes", len(body)))

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[objectName] = append([]byte(nil), body...)

	return objectName, nil
}

// Object returns a stored object for test assertions.
func (m *MockConnector) Object(name string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	body, ok := m.objects[name]
	return body, ok
}
