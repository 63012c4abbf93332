package groq

import (
	"fmt"
	"strings"

	"vehicle-bot/internal/advisor"
)

const systemPrompt = `You are a friendly vehicle maintenance advisor for drivers in Sri Lanka. You explain maintenance findings in simple, non-technical language that an everyday vehicle owner understands. Costs are in Sri Lankan Rupees (LKR). Keep the tone practical and reassuring, never alarmist. Answer in at most 180 words with short paragraphs or a short list, no markdown headings.`

// buildUserPrompt renders the assessment into a deterministic prompt.
// The same request must always produce the same text so that responses
// can be cached and regressions diffed.
func buildUserPrompt(req advisor.AdviceRequest) string {
	var b strings.Builder

	snap := req.Snapshot
	res := req.Assessment

	fmt.Fprintf(&b, "Vehicle: %s", snap.Class)
	if snap.FuelType != "" {
		fmt.Fprintf(&b, " (%s)", snap.FuelType)
	}
	fmt.Fprintf(&b, ", manufactured %d, odometer %d km.\n", snap.ManufactureYear, snap.OdometerKm)
	fmt.Fprintf(&b, "Location: %s district.\n", snap.Location.District)
	if snap.Weather != nil {
		fmt.Fprintf(&b, "Current weather: %s, %.0f C, wind %.0f km/h.\n",
			snap.Weather.Condition, snap.Weather.TemperatureC, snap.Weather.WindKmh)
	}

	fmt.Fprintf(&b, "\nMaintenance risk score: %d/100 (%s).\n", res.RiskScore, res.RiskLevel)

	if len(res.ContributingFactors) > 0 {
		b.WriteString("Contributing factors:\n")
		for _, f := range res.ContributingFactors {
			fmt.Fprintf(&b, "- %s (%+d)\n", f.Label, f.Magnitude)
		}
	}

	if len(res.DueParts) > 0 {
		b.WriteString("Parts due for attention:\n")
		for _, p := range res.DueParts {
			fmt.Fprintf(&b, "- %s, urgency %s, estimated cost LKR %.0f (%s)\n",
				p.PartName, p.Urgency, p.EstimatedCost, p.Rationale)
		}
	} else {
		b.WriteString("No parts are currently past their service interval.\n")
	}

	b.WriteString("\nExplain what the owner should do next, in order of urgency, and roughly what it will cost.")

	return b.String()
}
