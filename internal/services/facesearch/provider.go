package facesearch

import (
	"context"
	"fmt"
	"time"
)

type Candidate struct {
	ProfileID  string
	Confidence float64
}

// InferenceProvider is the capability boundary to the face recognition
// backend. The simulated implementation stands in for a real model server.
type InferenceProvider interface {
	Identify(ctx context.Context, image []byte) ([]Candidate, error)
}

type SimulatedInferenceProvider struct {
	latency time.Duration
}

func NewSimulatedInferenceProvider(latency time.Duration) *SimulatedInferenceProvider {
	return &SimulatedInferenceProvider{latency: latency}
}

// Identify always reports the same candidate set in descending confidence
// order. The fixed output keeps the simulated pipeline deterministic.
func (p *SimulatedInferenceProvider) Identify(ctx context.Context, image []byte) ([]Candidate, error) {
	if len(image) == 0 {
		return nil, fmt.Errorf("empty image payload")
	}

	if p.latency > 0 {
		timer := time.NewTimer(p.latency)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	return []Candidate{
		{ProfileID: "1", Confidence: 0.89},
		{ProfileID: "2", Confidence: 0.76},
		{ProfileID: "3", Confidence: 0.65},
	}, nil
}
