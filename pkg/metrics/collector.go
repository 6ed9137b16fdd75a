package metrics

import "github.com/ubinix-warun/suibase/pkg/events"

// DepthCollector subscribes to a DepthBroker and mirrors each sample into
// the MailboxDepth gauge. It owns no state beyond the subscription itself.
type DepthCollector struct {
	broker *events.DepthBroker
	sub    events.DepthSubscriber
	stopCh chan struct{}
}

// NewDepthCollector creates a collector bound to broker. Call Start to
// begin mirroring samples.
func NewDepthCollector(broker *events.DepthBroker) *DepthCollector {
	return &DepthCollector{
		broker: broker,
		stopCh: make(chan struct{}),
	}
}

// Start begins consuming depth samples in the background.
func (c *DepthCollector) Start() {
	c.sub = c.broker.Subscribe()
	go c.run()
}

// Stop unsubscribes and stops the collector.
func (c *DepthCollector) Stop() {
	close(c.stopCh)
	c.broker.Unsubscribe(c.sub)
}

func (c *DepthCollector) run() {
	for {
		select {
		case sample, ok := <-c.sub:
			if !ok {
				return
			}
			MailboxDepth.WithLabelValues(sample.Worker, sample.Workdir).Set(float64(sample.Depth))
		case <-c.stopCh:
			return
		}
	}
}
