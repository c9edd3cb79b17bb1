package constant

const (
	ExecutionQueueName  = "execution_queue"
	ExecutionQueueGroup = "execution_group"

	ExecutionStreamName            = "execution"
	ExecutionStreamSubjectAll      = "execution.*"
	ExecutionStreamSubjectSimulate = "execution.simulate"
	ExecutionStreamSubjectReport   = "execution.report"

	TimeoutHandlerSimulateExecution = "simulate_execution"
)
