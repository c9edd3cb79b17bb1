package bootstrap

import (
	"context"
	"fmt"
	"net/http"

	"github.com/krobus00/execution-simulator/internal/config"
	httpHandler "github.com/krobus00/execution-simulator/internal/handler/executionengine/http"
	"github.com/krobus00/execution-simulator/internal/infrastructure"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func StartExecutionGateway(cmd *cobra.Command, args []string) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	deps := initExecutionEngine(ctx, false)

	httpMux := http.NewServeMux()
	infrastructure.RegisterHealthRoutes(httpMux, deps.ready)
	httpHandler.NewExecutionEngineHTTPHandler(deps.service).Register(httpMux)

	httpPort := fmt.Sprintf(":%s", config.Env.Port["execution_gateway_http"])
	httpServer := infrastructure.NewHTTPServerWithConfig(infrastructure.HTTPServerConfig{
		Addr:            httpPort,
		ShutdownTimeout: config.Env.GracefulShutdownTimeout,
	}, httpMux)

	go func() {
		err := httpServer.Start()
		if err != nil {
			logrus.Error(err)
		}
	}()
	logrus.Info(fmt.Sprintf("http server started on %s", httpPort))

	ops := map[string]operation{
		"http": func(ctx context.Context) error {
			cancel()
			return httpServer.Shutdown(ctx)
		},
	}
	for key, op := range deps.ops {
		ops[key] = op
	}

	wait := gracefulShutdown(ctx, config.Env.GracefulShutdownTimeout, ops)

	<-wait
}
