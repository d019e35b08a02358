package resolver

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuardTrimsSuccessfulAnswer(t *testing.T) {
	r := Guard(BackendFunc(func(_ context.Context, code string) (string, error) {
		return "  \"Hazelnut Praline Base\"\n", nil
	}))
	assert.Equal(t, "Hazelnut Praline Base", r.Resolve(context.Background(), "WIP-9000"))
}

func TestGuardMapsEveryFailureToFallback(t *testing.T) {
	cases := map[string]Backend{
		"error":    BackendFunc(func(context.Context, string) (string, error) { return "", errors.New("boom") }),
		"empty":    BackendFunc(func(context.Context, string) (string, error) { return "   ", nil }),
		"panic":    BackendFunc(func(context.Context, string) (string, error) { panic("malformed response") }),
		"disabled": Disabled,
		"nil":      nil,
	}
	for name, backend := range cases {
		t.Run(name, func(t *testing.T) {
			var got string
			require.NotPanics(t, func() {
				got = Guard(backend).Resolve(context.Background(), "WIP-9000")
			})
			assert.Equal(t, Fallback, got)
		})
	}
}

func TestGuardTimeout(t *testing.T) {
	backend := BackendFunc(func(ctx context.Context, _ string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	r := Guard(backend, WithTimeout(10*time.Millisecond))
	start := time.Now()
	assert.Equal(t, Fallback, r.Resolve(context.Background(), "X"))
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestStaticBackend(t *testing.T) {
	r := Guard(Static{"WIP-7": "Legacy Glaze"})
	assert.Equal(t, "Legacy Glaze", r.Resolve(context.Background(), "WIP-7"))
	assert.Equal(t, Fallback, r.Resolve(context.Background(), "WIP-8"))
}

func TestNewGeminiRequiresKey(t *testing.T) {
	_, err := NewGemini(context.Background(), " ", "")
	assert.Error(t, err)
}
