// Package chat implements the client-side state of a domain-scoped
// conversation with a remote foundation-model backend. It owns session
// identity, the append-only turn history, and the controller that drives
// the submit/response lifecycle and the reset rules for domain changes.
package chat

import (
	"time"
)

// TurnKind defines the kind of a history turn.
type TurnKind string

const (
	// TurnUser is a message submitted by the user.
	TurnUser TurnKind = "user"
	// TurnAssistant is a reply produced by the backend.
	TurnAssistant TurnKind = "assistant"
	// TurnError records a failed backend round-trip.
	TurnError TurnKind = "error"
)

// Turn is a single entry in the conversation history.
// Turns are append-only and immutable once recorded.
type Turn struct {
	// ID is the unique identifier for this turn.
	ID string `json:"id"`
	// Kind indicates who produced the turn.
	Kind TurnKind `json:"kind"`
	// Content is the text payload. Assistant turns may contain markdown.
	Content string `json:"content"`
	// Timestamp is when the turn was created.
	Timestamp time.Time `json:"timestamp"`
	// ModelUsed is the model that produced the reply (assistant turns only).
	ModelUsed string `json:"model_used,omitempty"`
	// Domain is the domain active when the reply was produced
	// (assistant turns only).
	Domain Domain `json:"domain,omitempty"`
}

// Domain is a topical specialization the conversation is scoped to.
// The set of domains is closed.
type Domain string

const (
	DomainGeneral Domain = "general"
	DomainHR      Domain = "hr"
	DomainMedical Domain = "medical"
	DomainLegal   Domain = "legal"
	DomainFinance Domain = "finance"
)

// Domains returns all known domains in display order.
func Domains() []Domain {
	return []Domain{DomainGeneral, DomainHR, DomainMedical, DomainLegal, DomainFinance}
}

// Valid reports whether d is a member of the closed domain set.
func (d Domain) Valid() bool {
	switch d {
	case DomainGeneral, DomainHR, DomainMedical, DomainLegal, DomainFinance:
		return true
	}
	return false
}

// DomainInfo holds static display metadata for a domain. It is irrelevant
// to the state machine and only consumed by presentation code.
type DomainInfo struct {
	ID          Domain `json:"id"`
	Label       string `json:"label"`
	Icon        string `json:"icon"`
	Description string `json:"description"`
}

var domainCatalog = map[Domain]DomainInfo{
	DomainGeneral: {DomainGeneral, "General Assistant", "🤖", "General purpose AI assistant"},
	DomainHR:      {DomainHR, "HR Assistant", "👔", "Employee policies, benefits, and workplace guidelines"},
	DomainMedical: {DomainMedical, "Medical Triage", "🏥", "General health information and guidance"},
	DomainLegal:   {DomainLegal, "Legal Assistant", "⚖️", "Legal document explanation and concepts"},
	DomainFinance: {DomainFinance, "Financial Advisor", "💰", "Financial analysis and budgeting help"},
}

// Info returns display metadata for d. Unknown domains fall back to the
// general catalog entry so presentation never fails on a lookup miss.
func (d Domain) Info() DomainInfo {
	if info, ok := domainCatalog[d]; ok {
		return info
	}
	return domainCatalog[DomainGeneral]
}

// ModelInfo describes one entry in the static model catalog.
type ModelInfo struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Provider     string   `json:"provider"`
	Description  string   `json:"description"`
	Capabilities []string `json:"capabilities,omitempty"`
}

// DefaultModelID is the model selected when a session starts.
const DefaultModelID = "anthropic.claude-3-sonnet-20240229-v1:0"

// DefaultModelCatalog returns the built-in model catalog. Callers may pass
// their own catalog to the controller instead, e.g. one fetched from the
// backend's models endpoint.
func DefaultModelCatalog() []ModelInfo {
	return []ModelInfo{
		{
			ID:           "anthropic.claude-3-sonnet-20240229-v1:0",
			Name:         "Claude 3 Sonnet",
			Provider:     "Anthropic",
			Description:  "Balanced performance and speed",
			Capabilities: []string{"Text", "Analysis", "Reasoning"},
		},
		{
			ID:           "anthropic.claude-3-haiku-20240307-v1:0",
			Name:         "Claude 3 Haiku",
			Provider:     "Anthropic",
			Description:  "Fast and efficient",
			Capabilities: []string{"Text", "Quick responses"},
		},
		{
			ID:           "meta.llama3-70b-instruct-v1:0",
			Name:         "Llama 3 70B",
			Provider:     "Meta",
			Description:  "Open source, instruction-tuned",
			Capabilities: []string{"Text", "Code", "Reasoning"},
		},
		{
			ID:           "ai21.j2-ultra-v1",
			Name:         "Jurassic-2 Ultra",
			Provider:     "AI21",
			Description:  "Advanced language understanding",
			Capabilities: []string{"Text", "Analysis", "Writing"},
		},
	}
}

// LookupModel finds a catalog entry by ID. The boolean reports whether the
// model is known; display code may still show raw IDs for unknown models.
func LookupModel(catalog []ModelInfo, id string) (ModelInfo, bool) {
	for _, m := range catalog {
		if m.ID == id {
			return m, true
		}
	}
	return ModelInfo{}, false
}
