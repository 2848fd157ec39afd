package repair

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/zen-systems/solvegate/pkg/adapter"
	"github.com/zen-systems/solvegate/pkg/answer"
)

// FailedMarker is returned when the self-correction call itself fails.
const FailedMarker = "Error: self-correction failed"

// DefaultTemperature is the sampling temperature for self-correction.
const DefaultTemperature = 0.3

// Corrector resolves disagreement between candidate answers with one more
// model call.
type Corrector struct {
	Adapter     adapter.Adapter
	Model       string
	Temperature float64
	MaxTokens   int
	Logger      logrus.FieldLogger
}

// NewCorrector creates a Corrector with the default temperature.
func NewCorrector(a adapter.Adapter, model string) *Corrector {
	return &Corrector{
		Adapter:     a,
		Model:       model,
		Temperature: DefaultTemperature,
		Logger:      logrus.StandardLogger(),
	}
}

// Correct always returns a string: the extracted answer, or FailedMarker.
func (c *Corrector) Correct(ctx context.Context, question string, previous []string) string {
	resp, err := c.Adapter.Complete(ctx, &adapter.Request{
		Model:       c.Model,
		Messages:    []adapter.Message{adapter.User(SelfCorrectionPrompt(question, previous))},
		Temperature: c.Temperature,
		MaxTokens:   c.MaxTokens,
	})
	if err != nil {
		c.logger().WithError(err).Warn("self-correction call failed")
		return FailedMarker
	}

	final := answer.ExtractFinal(resp.Text)
	if final == "" {
		return FailedMarker
	}
	return final
}

func (c *Corrector) logger() logrus.FieldLogger {
	if c.Logger == nil {
		return logrus.StandardLogger()
	}
	return c.Logger
}
