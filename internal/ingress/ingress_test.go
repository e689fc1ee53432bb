package ingress

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canonical/static-reports-operator/internal/config"
	"github.com/canonical/static-reports-operator/internal/hook"
	"github.com/canonical/static-reports-operator/internal/log"
)

func testAdapter(tools *hook.MockTools) *Adapter {
	provider := config.NewDefaultConfigProvider()
	provider.SetConfig(&config.Settings{Port: 80})

	logger := log.NewSlogAdapter(slog.New(slog.NewTextHandler(io.Discard, nil)))
	return NewAdapter(tools, provider, logger).WithHostnameFn(func() (string, error) {
		return "unit-0.example.com", nil
	})
}

func TestPublish_WritesEveryRelation(t *testing.T) {
	tools := &hook.MockTools{
		Relations: map[string][]string{RelationName: {"ingress:0", "ingress:3"}},
	}
	a := testAdapter(tools)

	err := a.Publish(context.Background(), config.Runtime{ExternalHostname: "reports.example.com"})
	require.NoError(t, err)

	for _, id := range []string{"ingress:0", "ingress:3"} {
		data := tools.RelationData[id]
		require.NotNil(t, data, id)
		assert.Equal(t, "reports.example.com", data["hostname"])
		assert.Equal(t, "80", data["port"])
		assert.Equal(t, "true", data["strip-prefix"])
	}
}

func TestPublish_NoRelations(t *testing.T) {
	tools := &hook.MockTools{}
	a := testAdapter(tools)

	require.NoError(t, a.Publish(context.Background(), config.Runtime{}))
	assert.Empty(t, tools.RelationData)
}

func TestPublish_FallsBackToUnitHostname(t *testing.T) {
	tools := &hook.MockTools{
		Relations: map[string][]string{RelationName: {"ingress:0"}},
	}
	a := testAdapter(tools)

	require.NoError(t, a.Publish(context.Background(), config.Runtime{}))
	assert.Equal(t, "unit-0.example.com", tools.RelationData["ingress:0"]["hostname"])
}

func TestProvidedURL(t *testing.T) {
	t.Run("published url", func(t *testing.T) {
		tools := &hook.MockTools{
			Relations: map[string][]string{RelationName: {"ingress:0"}},
			RemoteApp: map[string]map[string]string{
				"ingress:0": {"ingress": `{"url": "http://proxy.example.com/model-static-reports"}`},
			},
		}
		a := testAdapter(tools)

		assert.Equal(t, "http://proxy.example.com/model-static-reports", a.ProvidedURL(context.Background()))
	})

	t.Run("no relation", func(t *testing.T) {
		a := testAdapter(&hook.MockTools{})
		assert.Empty(t, a.ProvidedURL(context.Background()))
	})

	t.Run("relation without data", func(t *testing.T) {
		tools := &hook.MockTools{
			Relations: map[string][]string{RelationName: {"ingress:0"}},
		}
		a := testAdapter(tools)
		assert.Empty(t, a.ProvidedURL(context.Background()))
	})

	t.Run("invalid payload skipped", func(t *testing.T) {
		tools := &hook.MockTools{
			Relations: map[string][]string{RelationName: {"ingress:0", "ingress:1"}},
			RemoteApp: map[string]map[string]string{
				"ingress:0": {"ingress": "not json"},
				"ingress:1": {"ingress": `{"url": "http://proxy/app"}`},
			},
		}
		a := testAdapter(tools)

		assert.Equal(t, "http://proxy/app", a.ProvidedURL(context.Background()))
	})
}

func TestExternalURL(t *testing.T) {
	t.Run("ingress wins", func(t *testing.T) {
		tools := &hook.MockTools{
			Relations: map[string][]string{RelationName: {"ingress:0"}},
			RemoteApp: map[string]map[string]string{
				"ingress:0": {"ingress": `{"url": "http://proxy/app"}`},
			},
		}
		a := testAdapter(tools)

		url := a.ExternalURL(context.Background(), config.Runtime{ExternalHostname: "reports.example.com"})
		assert.Equal(t, "http://proxy/app", url)
	})

	t.Run("configured hostname", func(t *testing.T) {
		a := testAdapter(&hook.MockTools{})

		url := a.ExternalURL(context.Background(), config.Runtime{ExternalHostname: "reports.example.com"})
		assert.Equal(t, "http://reports.example.com:80", url)
	})

	t.Run("unit hostname fallback", func(t *testing.T) {
		a := testAdapter(&hook.MockTools{})

		url := a.ExternalURL(context.Background(), config.Runtime{})
		assert.Equal(t, "http://unit-0.example.com:80", url)
	})
}
