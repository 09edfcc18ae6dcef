package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	parseTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "resume_parse_total",
		Help: "Resume parse requests by result (ok, unsupported_format, failed).",
	}, []string{"result"})

	profileSourceTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "resume_profile_source_total",
		Help: "Authoritative candidate profile source per successful parse.",
	}, []string{"source"})

	atsSourceTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "resume_ats_source_total",
		Help: "ATS assessment source per parse with a job description.",
	}, []string{"source"})

	generationAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gemini_generation_attempts_total",
		Help: "Generation calls per model candidate by outcome.",
	}, []string{"model", "outcome"})

	parseDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "resume_parse_duration_seconds",
		Help:    "Wall time of a full resume parse.",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
	})
)
