package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	inboundMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swasthya_inbound_messages_total",
			Help: "Inbound channel messages by kind",
		},
		[]string{"kind"},
	)

	onboardingTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swasthya_onboarding_transitions_total",
			Help: "Onboarding step transitions",
		},
		[]string{"from", "to"},
	)

	chatPipelineRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swasthya_chat_pipeline_total",
			Help: "Chat pipeline runs by outcome",
		},
		[]string{"outcome"},
	)

	duplicateMessages = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "swasthya_duplicate_messages_total",
			Help: "Inbound messages dropped as webhook redeliveries",
		},
	)
)

// Pipeline outcomes.
const (
	OutcomeOK              = "ok"
	OutcomeAnalyzerError   = "analyzer_error"
	OutcomeSendError       = "send_error"
	OutcomeMissingLanguage = "missing_language"
	OutcomeMediaError      = "media_error"
)

func InboundMessage(kind string) {
	inboundMessages.WithLabelValues(kind).Inc()
}

func Transition(from, to string) {
	onboardingTransitions.WithLabelValues(from, to).Inc()
}

func ChatPipeline(outcome string) {
	chatPipelineRuns.WithLabelValues(outcome).Inc()
}

func DuplicateMessage() {
	duplicateMessages.Inc()
}
