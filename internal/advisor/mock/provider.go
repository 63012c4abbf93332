package mock

import (
	"context"
	"fmt"

	"vehicle-bot/internal/advisor"
)

// Provider is a canned advisor for development and tests. It is used as
// the default generator when no API key is configured.
type Provider struct {
	// Configurable responses for testing
	GenerateResponse *advisor.Advice
	GenerateError    error

	// Call tracking for testing
	GenerateCalls int
	LastRequest   *advisor.AdviceRequest
}

func New() *Provider {
	return &Provider{}
}

func (p *Provider) Generate(ctx context.Context, req advisor.AdviceRequest) (*advisor.Advice, error) {
	p.GenerateCalls++
	p.LastRequest = &req

	if p.GenerateError != nil {
		return nil, p.GenerateError
	}
	if p.GenerateResponse != nil {
		return p.GenerateResponse, nil
	}

	text := fmt.Sprintf(
		"Your %s scored %d/100 (%s risk). ",
		req.Snapshot.Class, req.Assessment.RiskScore, req.Assessment.RiskLevel,
	)
	if len(req.Assessment.DueParts) > 0 {
		text += fmt.Sprintf(
			"Start with the %s and work down the list; a trusted garage in %s district can handle all of it in one visit.",
			req.Assessment.DueParts[0].PartName, req.Snapshot.Location.District,
		)
	} else {
		text += "Nothing is overdue right now. Keep up the regular servicing."
	}

	return &advisor.Advice{
		Text:  text,
		Usage: advisor.UsageInfo{Model: "mock"},
	}, nil
}
