package rabbitmq

// Имена обменника и ключей маршрутизации уведомлений.
const (
	NotificationsExchange = "notifications"
	MilestonesRoutingKey  = "milestones"
)

// QueueConfig связывает очередь с ключом маршрутизации обменника.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// GetNotificationQueues возвращает очереди воркеров рассылки уведомлений.
func GetNotificationQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: "notification.milestones", RoutingKey: MilestonesRoutingKey},
	}
}
