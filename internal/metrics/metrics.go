// Package metrics реализует сбор и публикацию метрик Prometheus
// для движка прав доступа.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Recorder — интерфейс записи метрик, используется сервисами и поллерами.
type Recorder interface {
	RecordResolution(tier string)
	RecordAccessDenied(path string)
	RecordMaintenanceBlock()
	RecordMilestoneFired(kind string)
	RecordPollCycle(task string)
	RecordPollFailure(task string)
}

// Collector — реализация Recorder на счётчиках Prometheus.
type Collector struct {
	resolutions      *prometheus.CounterVec
	accessDenied     *prometheus.CounterVec
	maintenanceBlock prometheus.Counter
	milestonesFired  *prometheus.CounterVec
	pollCycles       *prometheus.CounterVec
	pollFailures     *prometheus.CounterVec
}

// NewCollector создаёт Collector и регистрирует метрики в переданном реестре.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "entitlement_resolutions_total",
			Help: "Количество вычислений состояния прав по тарифам",
		}, []string{"tier"}),
		accessDenied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "entitlement_access_denied_total",
			Help: "Количество отказов в доступе по страницам",
		}, []string{"path"}),
		maintenanceBlock: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "entitlement_maintenance_blocks_total",
			Help: "Количество блокировок из-за режима обслуживания",
		}),
		milestonesFired: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "entitlement_milestones_fired_total",
			Help: "Количество отправленных вех истечения по видам",
		}, []string{"kind"}),
		pollCycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "entitlement_poll_cycles_total",
			Help: "Количество завершённых циклов опроса по задачам",
		}, []string{"task"}),
		pollFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "entitlement_poll_failures_total",
			Help: "Количество неудачных циклов опроса по задачам",
		}, []string{"task"}),
	}
	reg.MustRegister(
		c.resolutions,
		c.accessDenied,
		c.maintenanceBlock,
		c.milestonesFired,
		c.pollCycles,
		c.pollFailures,
	)
	return c
}

// RecordResolution учитывает одно вычисление состояния прав.
func (c *Collector) RecordResolution(tier string) {
	c.resolutions.WithLabelValues(tier).Inc()
}

// RecordAccessDenied учитывает отказ в доступе к странице.
func (c *Collector) RecordAccessDenied(path string) {
	c.accessDenied.WithLabelValues(path).Inc()
}

// RecordMaintenanceBlock учитывает блокировку режимом обслуживания.
func (c *Collector) RecordMaintenanceBlock() {
	c.maintenanceBlock.Inc()
}

// RecordMilestoneFired учитывает отправленную веху.
func (c *Collector) RecordMilestoneFired(kind string) {
	c.milestonesFired.WithLabelValues(kind).Inc()
}

// RecordPollCycle учитывает завершённый цикл опроса.
func (c *Collector) RecordPollCycle(task string) {
	c.pollCycles.WithLabelValues(task).Inc()
}

// RecordPollFailure учитывает неудачный цикл опроса.
func (c *Collector) RecordPollFailure(task string) {
	c.pollFailures.WithLabelValues(task).Inc()
}

// Nop — пустая реализация Recorder для тестов и необязательной записи.
type Nop struct{}

func (Nop) RecordResolution(string)     {}
func (Nop) RecordAccessDenied(string)   {}
func (Nop) RecordMaintenanceBlock()     {}
func (Nop) RecordMilestoneFired(string) {}
func (Nop) RecordPollCycle(string)      {}
func (Nop) RecordPollFailure(string)    {}
