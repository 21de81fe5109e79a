package main

import (
	"context"
	"fmt"
	"os"

	corecmd "github.com/m3rciful/vidgate/core/cmd"
	"github.com/m3rciful/vidgate/internal/appconfig"
	"github.com/m3rciful/vidgate/internal/bot"
)

func main() {
	err := corecmd.Run(corecmd.Options{
		Name:              "vidgate",
		Args:              os.Args[1:],
		ConfigEnvVar:      "CONFIG_PATH",
		DefaultConfigPath: "config.yaml",
		LoadConfig: func(path string) (corecmd.ConfigCarrier, error) {
			cfg, err := appconfig.Load(path)
			if err != nil {
				return nil, err
			}
			return cfg, nil
		},
		Bootstrap: func(ctx context.Context, carrier corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
			cfg, ok := carrier.(*appconfig.Config)
			if !ok {
				return nil, fmt.Errorf("unexpected config type %T", carrier)
			}
			return bot.Bootstrap(ctx, cfg)
		},
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
