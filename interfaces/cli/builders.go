package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/tripwing/tripwing/application"
	"github.com/tripwing/tripwing/domain/session"
	"github.com/tripwing/tripwing/infrastructure/amadeus"
	"github.com/tripwing/tripwing/infrastructure/config"
	"github.com/tripwing/tripwing/infrastructure/planner"
	"github.com/tripwing/tripwing/infrastructure/recovery"
	"github.com/tripwing/tripwing/infrastructure/storage/memory"
	redisstore "github.com/tripwing/tripwing/infrastructure/storage/redis"
	sqlitestore "github.com/tripwing/tripwing/infrastructure/storage/sqlite"
)

// buildProviders constructs the provider chain from settings. A non-empty
// override restricts the chain to that single provider.
func buildProviders(settings *config.Settings, override string) ([]planner.Provider, error) {
	names := settings.ProviderOrder
	if override != "" {
		names = []string{override}
	}
	if len(names) == 0 {
		names = []string{settings.DefaultProvider}
	}

	providers := make([]planner.Provider, 0, len(names))
	for _, name := range names {
		ps, ok := settings.Provider(name)
		if !ok {
			return nil, fmt.Errorf("provider %q is not configured", name)
		}
		p, err := planner.New(name, planner.Config{
			APIKey:  ps.APIKey,
			BaseURL: ps.BaseURL,
			Model:   ps.Model,
			Timeout: ps.Timeout,
		})
		if err != nil {
			return nil, err
		}
		providers = append(providers, p)
	}
	return providers, nil
}

// buildStore constructs the session store backend from settings.
func buildStore(settings *config.Settings) (session.Store, error) {
	switch settings.Store.Backend {
	case "", "memory":
		return memory.NewStore(), nil
	case "redis":
		opts := []redisstore.ConfigOption{}
		if settings.Store.Address != "" {
			opts = append(opts, redisstore.WithAddress(settings.Store.Address))
		}
		return redisstore.NewStore(redisstore.DefaultConfig(), opts...)
	case "sqlite":
		cfg := sqlitestore.DefaultConfig()
		if settings.Store.Path != "" {
			cfg.DSN = "file:" + settings.Store.Path + "?cache=shared&mode=rwc"
		}
		return sqlitestore.NewStore(cfg)
	default:
		return nil, fmt.Errorf("unknown store backend %q", settings.Store.Backend)
	}
}

// buildHandler constructs the fault recovery handler from settings.
func buildHandler(settings *config.Settings) *recovery.Handler {
	var opts []recovery.Option
	if settings.Recovery.MaxRetries > 0 {
		opts = append(opts, recovery.WithMaxRetries(settings.Recovery.MaxRetries))
	}
	if delays := settings.Recovery.Delays(); len(delays) > 0 {
		opts = append(opts, recovery.WithDelays(delays))
	}
	return recovery.NewHandler(opts...)
}

// buildHost wires providers, recovery, session store, and configured tool
// servers into a host.
func buildHost(ctx context.Context, settings *config.Settings, providerOverride string) (*application.Host, error) {
	providers, err := buildProviders(settings, providerOverride)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(settings)
	if err != nil {
		return nil, err
	}

	host, err := application.NewHost(application.HostConfig{
		Providers:   providers,
		Handler:     buildHandler(settings),
		Store:       store,
		CallTimeout: time.Duration(settings.Tools.CallTimeoutSeconds) * time.Second,
	})
	if err != nil {
		return nil, err
	}

	for name, command := range settings.Tools.Servers {
		host.AddToolClient(ctx, name, command...)
	}
	return host, nil
}

// buildDirectClient constructs the direct Amadeus API client from settings.
func buildDirectClient(settings *config.Settings) (*amadeus.DirectClient, error) {
	return amadeus.NewDirectClient(amadeus.DirectConfig{
		ClientID:        settings.Amadeus.ClientID,
		ClientSecret:    settings.Amadeus.ClientSecret,
		Host:            settings.Amadeus.Host,
		DefaultCurrency: settings.Amadeus.DefaultCurrency,
		Timeout:         time.Duration(settings.Amadeus.TimeoutSeconds) * time.Second,
	})
}

// buildFlightClient constructs the fallback flight client: the direct API
// plus, when an "amadeus" tool server is configured and reachable, the remote
// tool path. The cleanup function disconnects whatever was opened.
func buildFlightClient(ctx context.Context, settings *config.Settings) (*amadeus.Client, func(), error) {
	direct, err := buildDirectClient(settings)
	if err != nil {
		return nil, nil, err
	}

	command, ok := settings.Tools.Servers["amadeus"]
	if !ok || len(command) == 0 {
		return amadeus.NewClient(direct, nil), func() { direct.Close() }, nil
	}

	tool := amadeus.NewToolClient()
	tool.Connect(ctx, command...)
	cleanup := func() {
		tool.Disconnect()
		direct.Close()
	}
	return amadeus.NewClient(direct, tool), cleanup, nil
}
