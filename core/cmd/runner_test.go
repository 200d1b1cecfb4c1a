package cmd

import (
	"context"
	"errors"
	"testing"

	coreconfig "github.com/m3rciful/stockbot/core/config"
	coretelegram "github.com/m3rciful/stockbot/core/telegram"
)

type stubConfig struct{ core *coreconfig.Config }

func (s stubConfig) CoreConfig() *coreconfig.Config { return s.core }

type stubApp struct{}

func (stubApp) TelegramRunOptions() (coretelegram.RunOptions, error) {
	return coretelegram.RunOptions{}, nil
}

func TestRunWiresLifecycleHooks(t *testing.T) {
	t.Setenv("STOCKBOT_TEST_CONFIG", "test.yaml")
	var loadedPath string
	var started, stopped bool
	err := Run(Options{
		ConfigEnvVar: "STOCKBOT_TEST_CONFIG",
		LoadConfig: func(path string) (ConfigCarrier, error) {
			loadedPath = path
			return stubConfig{core: &coreconfig.Config{}}, nil
		},
		Bootstrap:      func(ConfigCarrier) (TelegramApp, error) { return stubApp{}, nil },
		ShutdownLogger: func() error { return nil },
		RunTelegram: func(ctx context.Context, opts coretelegram.RunOptions) error {
			if err := opts.OnStart(ctx, coretelegram.Runtime{}); err != nil {
				return err
			}
			started = true
			stopped = opts.OnStop(ctx, coretelegram.Runtime{}) == nil
			return nil
		},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if loadedPath != "test.yaml" {
		t.Fatalf("config path = %q", loadedPath)
	}
	if !started || !stopped {
		t.Fatalf("hooks not called: started=%v stopped=%v", started, stopped)
	}
}

func TestRunRejectsMissingCoreConfig(t *testing.T) {
	err := Run(Options{
		DefaultConfigPath: "x.yaml",
		LoadConfig:        func(string) (ConfigCarrier, error) { return stubConfig{}, nil },
		Bootstrap: func(ConfigCarrier) (TelegramApp, error) {
			return nil, errors.New("must not bootstrap")
		},
	})
	if err == nil {
		t.Fatal("expected error for missing core config")
	}
}
