package web

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

type gatewayMetrics struct {
	votes          *prometheus.CounterVec
	captcha        *prometheus.CounterVec
	recordDuration prometheus.Histogram
}

func newGatewayMetrics(registerer prometheus.Registerer) gatewayMetrics {
	m := gatewayMetrics{
		votes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ratemycompany",
			Name:      "votes_total",
			Help:      "Votes received by the gateway, by response status code.",
		}, []string{"code"}),
		captcha: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ratemycompany",
			Name:      "captcha_verifications_total",
			Help:      "hCaptcha verifications, by result.",
		}, []string{"result"}),
		recordDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "ratemycompany",
			Name:      "record_matchup_duration_seconds",
			Help:      "Time spent applying a vote in the store.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	if registerer != nil {
		registerer.MustRegister(m.votes, m.captcha, m.recordDuration)
	}

	return m
}

func (m gatewayMetrics) observeVote(code int) {
	m.votes.WithLabelValues(strconv.Itoa(code)).Inc()
}

func (m gatewayMetrics) observeCaptcha(result string) {
	m.captcha.WithLabelValues(result).Inc()
}
