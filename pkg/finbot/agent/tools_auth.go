// Package agent – tools_auth.go exposes the Google connection link tool.
// Its successful result short-circuits the turn: the orchestrator embeds
// the link verbatim instead of letting the model rephrase it.
package agent

import (
	"context"
	"fmt"
)

func (t *Tools) registerAuthTools(r *Registry) {
	r.Register(MakeToolDefinition(ToolAuthLink,
		"Generate a one-time link (valid 1 hour) for the user to connect their Google Calendar.",
		nil), t.getGoogleAuthLink)
}

func (t *Tools) getGoogleAuthLink(ctx context.Context, _ map[string]any) (any, error) {
	userID := UserIDFrom(ctx)
	if userID == "" {
		return nil, fmt.Errorf("no user in this conversation")
	}
	link, err := t.links.CreateLink(userID)
	if err != nil {
		return nil, fmt.Errorf("creating auth link: %w", err)
	}
	return link, nil
}
