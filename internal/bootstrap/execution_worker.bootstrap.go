package bootstrap

import (
	"context"

	"github.com/krobus00/execution-simulator/internal/config"
	"github.com/krobus00/execution-simulator/internal/entity"
	"github.com/krobus00/execution-simulator/internal/util"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func StartExecutionWorker(cmd *cobra.Command, args []string) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	deps := initExecutionEngine(ctx, true)

	subscribers := make([]entity.Subscriber, 0)
	subscribers = append(subscribers, deps.service)
	for _, v := range subscribers {
		err := v.JetstreamEventSubscribe(ctx)
		util.ContinueOrFatal(err)
	}
	logrus.Info("execution worker consuming simulation requests")

	ops := map[string]operation{
		"worker context": func(ctx context.Context) error {
			cancel()
			return nil
		},
	}
	for key, op := range deps.ops {
		ops[key] = op
	}

	wait := gracefulShutdown(ctx, config.Env.GracefulShutdownTimeout, ops)

	<-wait
}
