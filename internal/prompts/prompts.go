// Package prompts supplies the mode configuration for the coach: the base
// system instruction and the structured-output instruction, selected by a
// mode key. The templates are pure configuration data; there is no
// per-mode control flow anywhere else in the service.
package prompts

import (
	"fmt"
	"strings"

	"github.com/opmgt/beergame-coach/internal/entity"
)

// Mode keys form a small closed set.
const (
	ModeQualitative  = "BeerGameQualitative"
	ModeQuantitative = "BeerGameQuantitative"
)

const commonBeerGameContext = `You are a supply chain agent helping me play a role-playing game.
The game has four players: retailer / wholesaler / distributor / factory.

You are a supply chain decision coach for the Beer Game. The supply chain includes four roles: factory, distributor, wholesaler, and retailer.
The two types of flows in this supply chain include product and information.
Shipment, i.e., product flow, is made downstream, i.e., from the factory to the distributor, then to the wholesaler, and finally to the retailer.
Order information is transmitted upstream in this supply chain, i.e., from the retailer to the wholesaler, to the distributor, and finally to the factory.

TASK
- Read the user's message describing the current game state and give ordering guidance for their role.
- The objective for each supply chain role is to make decisions on how many units to order each week to minimize total costs.

GAME FACTS (course setting)
- Holding cost: 0.5 per unit per week; Backorder cost: 1 per unit per week
- Physical shipping delays: 2 weeks on all links, EXCEPT Plant/Brewery -> Factory is 1 week
- Information delays: 2 weeks on all links, EXCEPT Factory -> Plant/Brewery is 1 week
- Starting inventory: 12 cases for each role
- Demand: steady demand for the first few weeks is 4 cases. Demand then spikes before stabilizing at 8 cases per week.

The user can override your recommendation.`

const (
	qualitativeEmphasis  = "Prioritize plain-language coaching about the ordering direction and decision logic."
	quantitativeEmphasis = "Prioritize a concrete order recommendation grounded in explicit calculations."
)

const structuredOutputCommon = "Return ONLY valid JSON (no markdown, no extra text) with exactly these keys: " +
	"quantitative_reasoning, qualitative_reasoning, short_quantitative_reasoning, " +
	"short_qualitative_reasoning, quantitative_answer, qualitative_answer. " +
	"All six keys are mandatory in every response, even if some values are brief strings. " +
	"Process requirements in this exact order: " +
	"1) Compute quantitative_reasoning first using explicit mathematical steps and assumptions. " +
	"2) Produce quantitative_answer as the exact final order quantity from that math. " +
	"3) Translate the quantitative reasoning into qualitative_reasoning (plain language, no equations). " +
	"4) Produce qualitative_answer as a directional recommendation consistent with the quantitative result, but without exact numbers. " +
	"If information is missing, make explicit assumptions in reasoning but still provide one exact integer in quantitative_answer."

const quantitativeOutputInstruction = "For quantitative fields: quantitative_reasoning can include explicit calculations and " +
	"quantitative_answer must be ONE exact integer only (for example: 12), with no words or units."

const qualitativeOutputInstruction = "For qualitative fields: qualitative_reasoning must avoid equations and express the same logic in plain language. " +
	"qualitative_answer must convey the same recommendation direction as quantitative_answer but must not include digits. " +
	"short_quantitative_reasoning and short_qualitative_reasoning are required and should each be concise (1-2 sentences)."

// Mode bundles the two instruction strings the orchestrator needs.
type Mode struct {
	Key               string
	SystemPrompt      string
	OutputInstruction string
}

// Provider resolves mode keys to their instruction strings.
type Provider struct {
	modes map[string]Mode
}

// NewProvider builds a provider with the built-in mode set, applying any
// overrides loaded from configuration. Override keys replace whole modes.
func NewProvider(overrides map[string]Mode) *Provider {
	modes := map[string]Mode{
		ModeQualitative: {
			Key:               ModeQualitative,
			SystemPrompt:      fmt.Sprintf("%s\n\nMode emphasis: %s", commonBeerGameContext, qualitativeEmphasis),
			OutputInstruction: buildOutputInstruction("Mode emphasis: keep qualitative sections especially clear, actionable, and non-technical."),
		},
		ModeQuantitative: {
			Key:               ModeQuantitative,
			SystemPrompt:      fmt.Sprintf("%s\n\nMode emphasis: %s", commonBeerGameContext, quantitativeEmphasis),
			OutputInstruction: buildOutputInstruction("Mode emphasis: keep quantitative sections especially direct and calculation-first."),
		},
	}

	for key, mode := range overrides {
		mode.Key = key
		modes[key] = mode
	}

	return &Provider{modes: modes}
}

// Mode returns the configuration for a mode key.
func (p *Provider) Mode(key string) (Mode, error) {
	mode, ok := p.modes[key]
	if !ok {
		return Mode{}, fmt.Errorf("%w: %q", entity.ErrUnknownMode, key)
	}
	return mode, nil
}

func buildOutputInstruction(modeSpecific string) string {
	return strings.Join([]string{
		structuredOutputCommon,
		quantitativeOutputInstruction,
		qualitativeOutputInstruction,
		modeSpecific,
	}, " ")
}
