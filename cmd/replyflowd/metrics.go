package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("replyflowd")

var webhookBadSignature = promauto.NewCounter(prometheus.CounterOpts{
	Name: "replyflowd_webhook_bad_signature",
	Help: "Number of webhook deliveries rejected for a bad payload signature",
})

var oauthConnects = promauto.NewCounter(prometheus.CounterOpts{
	Name: "replyflowd_oauth_connects",
	Help: "Number of accounts connected via OAuth callback",
})
