package twitterkit

import (
	commanddispatcher "github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-job/queue"
	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/goliatone/go-twitterkit/adapters/gocommand"
	"github.com/goliatone/go-twitterkit/adapters/gojob"
	kitprometheus "github.com/goliatone/go-twitterkit/adapters/prometheus"
	"github.com/goliatone/go-twitterkit/core"
)

func PrometheusMetrics(registerer prom.Registerer, opts ...kitprometheus.RecorderOption) *kitprometheus.Recorder {
	return kitprometheus.NewRecorder(registerer, opts...)
}

// QueueWorkScheduler runs verification sweeps through a go-job queue.
func QueueWorkScheduler(enqueuer queue.Enqueuer, logger core.Logger, metrics core.MetricsRecorder) *gojob.QueueScheduler {
	return gojob.NewQueueScheduler(gojob.NewEnqueuerAdapter(enqueuer), logger, metrics)
}

// RegisterCommands subscribes every command and query of k on the go-command
// registry behind adapter.
func (k *Kit) RegisterCommands(adapter *gocommand.RegistryAdapter) ([]commanddispatcher.Subscription, error) {
	return gocommand.RegisterKit(adapter, gocommand.KitServices{
		Mutating:     k,
		Verification: k,
		Sessions:     k,
		Authorize:    k,
		Monitor:      k,
	})
}
