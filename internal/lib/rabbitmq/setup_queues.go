package rabbitmq

type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// RunJobRoutingKey ключ команды внепланового запуска задачи.
const RunJobRoutingKey = "jobs.run"

// GetCommandQueues очереди, которые слушает диспетчер.
func GetCommandQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: "dispatcher.jobs.run", RoutingKey: RunJobRoutingKey},
	}
}
