// Package agent – orchestrator.go drives one conversation turn through an
// explicit state machine: route the message, invoke the model with the
// domain's tool subset, execute requested tools, then invoke the model a
// second time to phrase the final reply. The turn always ends in a
// user-visible reply, even on internal failure.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/jholhewres/finbot/pkg/finbot/store"
)

// turnState is the orchestration phase of a single turn.
type turnState int

const (
	stateRouting turnState = iota
	stateModelCall
	stateToolExec
	stateFinalize
	stateDone
)

// ConnectionChecker reports whether a user has a stored external credential.
// *oauth.TokenManager satisfies it.
type ConnectionChecker interface {
	Connected(userID string) bool
}

// Orchestrator owns the per-turn reasoning loop.
type Orchestrator struct {
	llm           Completer
	registry      *Registry
	store         *store.Store
	connections   ConnectionChecker
	assistantName string
	historyWindow int
	loc           *time.Location
	logger        *slog.Logger
	now           func() time.Time

	mu       sync.Mutex
	threadMu map[string]*sync.Mutex
}

// NewOrchestrator wires the orchestrator. historyWindow is the number of
// prior exchanges included as conversation context.
func NewOrchestrator(llm Completer, registry *Registry, st *store.Store, connections ConnectionChecker, assistantName string, historyWindow int, loc *time.Location, logger *slog.Logger) *Orchestrator {
	if assistantName == "" {
		assistantName = "Fin"
	}
	if historyWindow <= 0 {
		historyWindow = 10
	}
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		llm:           llm,
		registry:      registry,
		store:         st,
		connections:   connections,
		assistantName: assistantName,
		historyWindow: historyWindow,
		loc:           loc,
		logger:        logger.With("component", "orchestrator"),
		now:           time.Now,
		threadMu:      make(map[string]*sync.Mutex),
	}
}

// HandleMessage processes one inbound message and returns the reply text.
// Turns in the same chat are serialized; any failure inside the turn
// becomes the apologetic fallback reply rather than propagating.
func (o *Orchestrator) HandleMessage(ctx context.Context, userID, chatID, messageID, text string) string {
	mu := o.lockFor(chatID)
	mu.Lock()
	defer mu.Unlock()

	ctx = WithTurn(ctx, userID, chatID)

	reply, err := func() (reply string, err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v", r)
			}
		}()
		return o.runTurn(ctx, userID, text)
	}()
	if err != nil {
		o.logger.Error("turn failed", "chat_id", chatID, "err", err)
		turnFailures.Inc()
		reply = errorReply(err.Error())
	}

	if messageID != "" {
		if err := o.store.SetResponse(messageID, reply); err != nil {
			o.logger.Warn("recording response failed", "message_id", messageID, "err", err)
		}
	}
	return reply
}

// runTurn walks the state machine for one message.
func (o *Orchestrator) runTurn(ctx context.Context, userID, text string) (string, error) {
	var (
		state     = stateRouting
		domain    Domain
		toolNames []string
		messages  []Message
		first     *Response
		calls     []ToolCall
		results   []ToolResult
	)

	for state != stateDone {
		switch state {

		case stateRouting:
			domain = Route(text)
			connected := o.connections != nil && o.connections.Connected(userID)
			toolNames = toolNamesFor(domain, connected)
			messages = o.buildMessages(userID, domain, connected, text)
			messagesProcessed.WithLabelValues(string(domain)).Inc()
			o.logger.Info("message routed",
				"domain", domain, "connected", connected, "tools", len(toolNames))
			state = stateModelCall

		case stateModelCall:
			resp, err := o.llm.CompleteWithTools(ctx, messages, o.registry.Definitions(toolNames))
			if err != nil {
				return "", fmt.Errorf("model call: %w", err)
			}
			first = resp
			calls = extractToolCalls(resp)
			if len(calls) == 0 {
				// No tool use requested; the model's text is the reply.
				if resp.Content == "" {
					return "", fmt.Errorf("model returned empty response")
				}
				return resp.Content, nil
			}
			state = stateToolExec

		case stateToolExec:
			results = results[:0]
			for _, call := range calls {
				results = append(results, o.registry.Execute(ctx, call, toolNames))
			}
			// The connection link must reach the user verbatim; a second
			// model pass could paraphrase or mangle the URL.
			for _, res := range results {
				if res.Name == ToolAuthLink && res.Err == nil {
					return authLinkReply(res.Content), nil
				}
			}
			state = stateFinalize

		case stateFinalize:
			assistant := Message{Role: "assistant", Content: first.Content, ToolCalls: calls}
			messages = append(messages, assistant)
			for _, res := range results {
				messages = append(messages, Message{
					Role:       "tool",
					Content:    res.Content,
					ToolCallID: res.ToolCallID,
				})
			}
			resp, err := o.llm.CompleteWithTools(ctx, messages, nil)
			if err != nil {
				return "", fmt.Errorf("finalize call: %w", err)
			}
			if resp.Content == "" {
				return "", fmt.Errorf("model returned empty response")
			}
			return resp.Content, nil
		}
	}
	return "", fmt.Errorf("turn ended without reply")
}

// extractToolCalls prefers the structured tool_calls field; when absent it
// attempts the inline pseudo-XML fallback on the raw text.
func extractToolCalls(resp *Response) []ToolCall {
	if len(resp.ToolCalls) > 0 {
		return resp.ToolCalls
	}
	name, args, ok := ParseInlineToolCall(resp.Content)
	if !ok {
		return nil
	}
	fallbackParses.Inc()
	return []ToolCall{{
		ID:   "fallback_1",
		Type: "function",
		Function: FunctionCall{
			Name:      name,
			Arguments: stringifyResult(args),
		},
	}}
}

// buildMessages assembles system prompt, recent history and the user turn.
func (o *Orchestrator) buildMessages(userID string, domain Domain, connected bool, text string) []Message {
	messages := []Message{{
		Role:    "system",
		Content: buildSystemPrompt(o.assistantName, domain, connected, o.now(), o.loc),
	}}

	if userID != "" {
		history, err := o.store.RecentMessages(userID, o.historyWindow)
		if err != nil {
			o.logger.Warn("loading history failed", "user_id", userID, "err", err)
		}
		// Newest first from storage; replay oldest first. Job sentinel
		// rows are system broadcasts, not dialogue.
		for i := len(history) - 1; i >= 0; i-- {
			m := history[i]
			if strings.HasPrefix(m.Body, store.JobSentinelPrefix) {
				continue
			}
			messages = append(messages,
				Message{Role: "user", Content: m.Body},
				Message{Role: "assistant", Content: m.Response},
			)
		}
	}

	return append(messages, Message{Role: "user", Content: text})
}

func (o *Orchestrator) lockFor(chatID string) *sync.Mutex {
	o.mu.Lock()
	defer o.mu.Unlock()
	mu, ok := o.threadMu[chatID]
	if !ok {
		mu = &sync.Mutex{}
		o.threadMu[chatID] = mu
	}
	return mu
}
