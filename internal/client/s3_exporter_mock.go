package client

import (
	"context"
	"fmt"
	"sync"
)

// MockUsageExporter implements UsageExporter for testing without AWS credentials
type MockUsageExporter struct {
	mu      sync.Mutex
	Uploads map[string][]byte

	// Optional function override for custom test behavior
	UploadReportFunc func(ctx context.Context, key string, data []byte) (string, error)
}

// NewMockUsageExporter creates a new mock usage exporter for testing
func NewMockUsageExporter() *MockUsageExporter {
	return &MockUsageExporter{
		Uploads: map[string][]byte{},
	}
}

// UploadReport records the upload in memory and returns a deterministic URL
func (m *MockUsageExporter) UploadReport(ctx context.Context, key string, data []byte) (string, error) {
	if m.UploadReportFunc != nil {
		return m.UploadReportFunc(ctx, key, data)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Uploads[key] = append([]byte(nil), data...)
	return fmt.Sprintf("https://test-bucket.s3.us-east-1.amazonaws.com/%s", key), nil
}
