// Package invite writes wedding invitations and WhatsApp message templates
// with a generative model.
package invite

import (
	"context" // For request-scoped generation
	"errors"  // For sentinel errors
	"fmt"     // For prompt formatting
	"strings" // For input cleanup
)

var (
	// ErrNotConfigured is returned when no model is available.
	ErrNotConfigured = errors.New("AI generator is not configured")
	// ErrEmptyResponse is returned when the model answers with no text.
	ErrEmptyResponse = errors.New("AI generator returned no text")
	// ErrMissingNames is returned for invitations without the couple's names.
	ErrMissingNames = errors.New("groomName and brideName are required")
	// ErrEmptyPrompt is returned for message requests without a prompt.
	ErrEmptyPrompt = errors.New("prompt is required")
)

// Generator turns a prompt into text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// InvitationRequest describes the invitation to write.
type InvitationRequest struct {
	GroomName   string `json:"groomName"`   // Required
	BrideName   string `json:"brideName"`   // Required
	WeddingDate string `json:"weddingDate"` // Free text, passed through
	Venue       string `json:"venue"`       // Wedding venue
	Tone        string `json:"tone"`        // e.g. formal, playful
	Language    string `json:"language"`    // Output language
	Details     string `json:"details"`     // Anything else to mention
}

// Validate checks the fields an invitation cannot do without.
func (r InvitationRequest) Validate() error {
	if strings.TrimSpace(r.GroomName) == "" || strings.TrimSpace(r.BrideName) == "" {
		return ErrMissingNames
	}
	return nil
}

// InvitationPrompt builds the prompt for a full invitation.
func InvitationPrompt(r InvitationRequest) string {
	tone := strings.TrimSpace(r.Tone)
	if tone == "" {
		tone = "warm and traditional" // Default tone
	}
	lang := strings.TrimSpace(r.Language)
	if lang == "" {
		lang = "English" // Default language
	}

	var b strings.Builder // Optional facts are added only when given
	fmt.Fprintf(&b, "Write a %s Indian wedding invitation in %s.\n", tone, lang)
	fmt.Fprintf(&b, "Couple: %s and %s.\n", strings.TrimSpace(r.GroomName), strings.TrimSpace(r.BrideName))
	if d := strings.TrimSpace(r.WeddingDate); d != "" {
		fmt.Fprintf(&b, "Date: %s.\n", d)
	}
	if v := strings.TrimSpace(r.Venue); v != "" {
		fmt.Fprintf(&b, "Venue: %s.\n", v)
	}
	if d := strings.TrimSpace(r.Details); d != "" {
		fmt.Fprintf(&b, "Also mention: %s\n", d)
	}
	b.WriteString("Keep it under 150 words. Return only the invitation text, no headings or markdown.")
	return b.String()
}

// MessagePrompt builds the prompt for a WhatsApp message template.
func MessagePrompt(request string) string {
	return "Write a short WhatsApp message for wedding guests. Request: " + strings.TrimSpace(request) + "\n" +
		"Rules: under 200 characters, 1-2 emojis, friendly tone. " +
		"Use these placeholders exactly as written where they fit: {{name}}, {{room}}, {{date}}, {{venue}}. " +
		"Return only the message text."
}

// Invitation generates an invitation with gen.
func Invitation(ctx context.Context, gen Generator, r InvitationRequest) (string, error) {
	if gen == nil {
		return "", ErrNotConfigured
	}
	if err := r.Validate(); err != nil {
		return "", err
	}
	return generate(ctx, gen, InvitationPrompt(r))
}

// Message generates a message template with gen.
func Message(ctx context.Context, gen Generator, request string) (string, error) {
	if gen == nil {
		return "", ErrNotConfigured
	}
	if strings.TrimSpace(request) == "" {
		return "", ErrEmptyPrompt
	}
	return generate(ctx, gen, MessagePrompt(request))
}

func generate(ctx context.Context, gen Generator, prompt string) (string, error) {
	text, err := gen.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text) // Models pad with blank lines
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
