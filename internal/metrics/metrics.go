// Package metrics exposes the station's prometheus instruments.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TracksPlayed counts completed items by kind (music, segment, podcast).
	TracksPlayed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wvoid",
		Name:      "tracks_played_total",
		Help:      "Completed playback items by kind.",
	}, []string{"kind"})

	// TracksSkipped counts operator skips.
	TracksSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "wvoid",
		Name:      "tracks_skipped_total",
		Help:      "Items aborted by the skip command.",
	})

	// EncoderRestarts counts encoder respawns after a broken pipe or
	// failed spawn.
	EncoderRestarts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "wvoid",
		Name:      "encoder_restarts_total",
		Help:      "Times the Icecast encoder was restarted.",
	})

	// Listeners mirrors the last Icecast listener count.
	Listeners = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "wvoid",
		Name:      "listeners",
		Help:      "Current Icecast listener count.",
	})

	// MessagesReceived counts accepted listener messages.
	MessagesReceived = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "wvoid",
		Name:      "messages_received_total",
		Help:      "Listener messages accepted by the API.",
	})

	// MessagesRejected counts rejected submissions by reason.
	MessagesRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wvoid",
		Name:      "messages_rejected_total",
		Help:      "Listener messages rejected by the API.",
	}, []string{"reason"})
)
