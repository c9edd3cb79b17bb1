package entity

import "context"

type Publisher interface {
	JetstreamEventInit(ctx context.Context) error
}

type Subscriber interface {
	JetstreamEventSubscribe(ctx context.Context) error
}

type ExecutionRequestEvent struct {
	RetryCount int          `json:"retry"`
	Data       OrderRequest `json:"data"`
}

type ExecutionReportEvent struct {
	Data ExecutionReport `json:"data"`
}
