// Command api-server serves the order fulfillment HTTP API.
package main

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"go.uber.org/zap"

	fulfillment "github.com/rpstreef/screencloud-challenge/internal/app"
)

func main() {
	app.Run(func(ctx context.Context, lg *zap.Logger, t *app.Telemetry) error {
		cfg, err := fulfillment.LoadConfig()
		if err != nil {
			return errors.Wrap(err, "load config")
		}
		lg.Info("Starting fulfillment API",
			zap.String("addr", cfg.Addr),
			zap.String("storage", cfg.Storage),
			zap.String("product", cfg.Product.ID),
		)
		return fulfillment.Run(ctx, lg, t, cfg)
	})
}
