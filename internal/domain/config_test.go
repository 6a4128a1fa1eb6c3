package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, BackendJSON, cfg.Store.Backend)
	assert.Equal(t, PolicyQueue, cfg.Reconcile.Policy)
	assert.True(t, cfg.Reconcile.ShouldRefetchOnFailure())
	assert.Equal(t, DefaultServerAddr, cfg.Server.Addr)
	assert.NoError(t, cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Store.Backend = "mongo"
	assert.ErrorIs(t, cfg.Validate(), ErrUnknownBackend)

	cfg = NewDefaultConfig()
	cfg.Reconcile.Policy = "latest"
	assert.ErrorIs(t, cfg.Validate(), ErrUnknownPolicy)
}

func TestStoreConfig_RequestTimeout(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"", DefaultRequestTimeout},
		{"3s", 3 * time.Second},
		{"garbage", DefaultRequestTimeout},
		{"-1s", DefaultRequestTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, StoreConfig{Timeout: tt.in}.RequestTimeout())
		})
	}
}

func TestReconcileConfig_RefetchOnFailure(t *testing.T) {
	off := false
	assert.False(t, ReconcileConfig{RefetchOnFailure: &off}.ShouldRefetchOnFailure())
}

func TestRenderConfigTemplate(t *testing.T) {
	out := RenderConfigTemplate(NewDefaultConfig())

	assert.Contains(t, out, `backend = "json"`)
	assert.Contains(t, out, `policy = "queue"`)
	assert.Contains(t, out, `level = "info"`)
	assert.Contains(t, out, `addr = ":8000"`)
}
