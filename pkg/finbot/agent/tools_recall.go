// Package agent – tools_recall.go lets the model recall what the periodic
// jobs already told the user, so a reply never repeats this morning's
// briefing verbatim or contradicts an earlier nudge.
package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/jholhewres/finbot/pkg/finbot/store"
)

func (t *Tools) registerRecallTools(r *Registry) {
	r.Register(MakeToolDefinition(ToolRecentMessages,
		"List the most recent automated messages (briefings, nudges, summaries) the system already sent this user.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"limit": map[string]any{"type": "integer", "description": "max messages, default 5"},
			},
		}), t.getRecentSystemMessages)
}

func (t *Tools) getRecentSystemMessages(ctx context.Context, args map[string]any) (any, error) {
	userID := UserIDFrom(ctx)
	if userID == "" {
		return nil, fmt.Errorf("no user in this conversation")
	}

	msgs, err := t.store.RecentJobMessages(userID, intArg(args, "limit", 5))
	if err != nil {
		return nil, err
	}
	if len(msgs) == 0 {
		return "Belum ada pesan otomatis untuk user ini.", nil
	}

	out := make([]map[string]string, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, map[string]string{
			"job":     strings.TrimPrefix(m.Body, store.JobSentinelPrefix),
			"sent_at": m.CreatedAt.In(t.loc).Format("Mon, 2 Jan 15:04"),
			"text":    m.Response,
		})
	}
	return map[string]any{"messages": out}, nil
}
