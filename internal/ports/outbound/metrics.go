package outbound

import "time"

// Metrics records the business metrics of the wizard. The monitoring adapter backs it
// with Prometheus; NopMetrics is used when metrics are disabled and in tests.
type Metrics interface {
	// GenerationStage observes one pipeline stage (text, image, upload, save)
	GenerationStage(stage, status string, d time.Duration)
	// GenerationFinished counts a finished generation by outcome
	GenerationFinished(outcome string)
	EngagementWrite(action, status string)
	FeedFetch(status string, d time.Duration)
	ActiveSessions(n int)
}

// NopMetrics discards everything
type NopMetrics struct{}

func (NopMetrics) GenerationStage(string, string, time.Duration) {}
func (NopMetrics) GenerationFinished(string)                      {}
func (NopMetrics) EngagementWrite(string, string)                 {}
func (NopMetrics) FeedFetch(string, time.Duration)                {}
func (NopMetrics) ActiveSessions(int)                             {}
