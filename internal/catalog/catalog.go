// Package catalog holds the static set of models an API key can be scoped to.
package catalog

import "github.com/jinxlo/api-dashboard/internal/domain"

// Category is the closed set of model families
type Category string

const (
	CategoryLanguage Category = "language"
	CategorySpeech   Category = "speech"
	CategoryVision   Category = "vision"
)

// Model describes a catalog entry
type Model struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Category         Category `json:"category"`
	ShortDescription string   `json:"shortDescription"`
	ContextWindow    int      `json:"contextWindow,omitempty"`
	DefaultUseCase   string   `json:"defaultUseCase"`
	Release          string   `json:"release"`
	Latency          string   `json:"latency,omitempty"`
}

// Ref returns the display metadata attached to API keys
func (m Model) Ref() domain.ModelRef {
	return domain.ModelRef{ID: m.ID, Name: m.Name, Category: string(m.Category)}
}

var models = []Model{
	{
		ID:               "atlas-llm-pro",
		Name:             "Atlas LLM Pro",
		Category:         CategoryLanguage,
		ShortDescription: "Flagship reasoning model with 200K token context window.",
		ContextWindow:    200_000,
		DefaultUseCase:   "Enterprise knowledge copilots and complex orchestration pipelines.",
		Release:          "2025.03",
		Latency:          "~1.8s first token",
	},
	{
		ID:               "atlas-llm-lite",
		Name:             "Atlas LLM Lite",
		Category:         CategoryLanguage,
		ShortDescription: "Cost optimised chat model tuned for fast support flows.",
		ContextWindow:    64_000,
		DefaultUseCase:   "Customer support assistants, lightweight automations, summarisation.",
		Release:          "2025.01",
		Latency:          "~900ms first token",
	},
	{
		ID:               "atlas-llm-code",
		Name:             "Atlas LLM Code",
		Category:         CategoryLanguage,
		ShortDescription: "Code generation specialist with repository level context ingest.",
		ContextWindow:    128_000,
		DefaultUseCase:   "Pair programming, migration assistance, static analysis with natural language outputs.",
		Release:          "2024.12",
		Latency:          "~2.2s first token",
	},
	{
		ID:               "atlas-voice-studio",
		Name:             "Atlas Voice Studio",
		Category:         CategorySpeech,
		ShortDescription: "Neural TTS with expressive prosody controls and 20+ voices.",
		DefaultUseCase:   "Interactive voice assistants, localisation pipelines, marketing content.",
		Release:          "2025.02",
		Latency:          "Streaming <250ms",
	},
	{
		ID:               "atlas-voice-lite",
		Name:             "Atlas Voice Lite",
		Category:         CategorySpeech,
		ShortDescription: "Lightweight speech synthesis ideal for IVR and IoT devices.",
		DefaultUseCase:   "Transaction notifications, embedded devices, accessibility cues.",
		Release:          "2024.11",
		Latency:          "Streaming <180ms",
	},
	{
		ID:               "atlas-vision-diffuse",
		Name:             "Atlas Vision Diffuse",
		Category:         CategoryVision,
		ShortDescription: "Text-to-image diffusion tuned for photorealistic renders.",
		DefaultUseCase:   "Product marketing visuals, concept art, virtual staging.",
		Release:          "2025.04",
		Latency:          "1.4s per frame",
	},
	{
		ID:               "atlas-vision-illustrate",
		Name:             "Atlas Vision Illustrate",
		Category:         CategoryVision,
		ShortDescription: "Illustration focused diffusion with stylised control presets.",
		DefaultUseCase:   "Storyboarding, editorial artwork, motion graphic frames.",
		Release:          "2024.10",
		Latency:          "1.1s per frame",
	},
}

var byID = func() map[string]Model {
	m := make(map[string]Model, len(models))
	for _, model := range models {
		m[model.ID] = model
	}
	return m
}()

// All returns every model in declaration order
func All() []Model {
	out := make([]Model, len(models))
	copy(out, models)
	return out
}

// ByID looks up a model by identifier
func ByID(id string) (Model, bool) {
	m, ok := byID[id]
	return m, ok
}

// Resolve maps model ids to display refs, dropping ids that no longer exist
func Resolve(ids []string) []domain.ModelRef {
	refs := make([]domain.ModelRef, 0, len(ids))
	for _, id := range ids {
		if m, ok := byID[id]; ok {
			refs = append(refs, m.Ref())
		}
	}
	return refs
}

// Unknown returns the ids that do not resolve, in input order
func Unknown(ids []string) []string {
	var unknown []string
	for _, id := range ids {
		if _, ok := byID[id]; !ok {
			unknown = append(unknown, id)
		}
	}
	return unknown
}
