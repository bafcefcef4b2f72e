// Copyright (C) 2025 Bakutransit Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package respond turns structured query results into Azerbaijani reply
// text via the language model.
package respond

import (
	"context"
	"fmt"

	"github.com/bakutransit/conductor/services/llm"
	"github.com/bakutransit/conductor/services/session"
)

// maxHistoryTurns bounds how much transcript is replayed to the model.
const maxHistoryTurns = 10

// Generator produces the natural-language reply for a turn. The
// orchestrator treats it as opaque.
type Generator interface {
	// Reply generates a reply to message given a context block and the
	// prior transcript (which may be nil).
	Reply(ctx context.Context, message, contextBlock string, history []session.Message) (string, error)
}

// LLMGenerator implements Generator over an llm.Client.
//
// Thread Safety: LLMGenerator is safe for concurrent use.
type LLMGenerator struct {
	client llm.Client
}

// NewLLMGenerator creates a generator over a model client.
func NewLLMGenerator(client llm.Client) *LLMGenerator {
	return &LLMGenerator{client: client}
}

// Reply implements Generator.Reply. The prior transcript is replayed as
// conversation turns ahead of the framed prompt so the model keeps
// multi-turn context.
func (g *LLMGenerator) Reply(ctx context.Context, message, contextBlock string, history []session.Message) (string, error) {
	prompt := fmt.Sprintf(replySystemPrompt, contextBlock, message)

	if len(history) > maxHistoryTurns {
		history = history[len(history)-maxHistoryTurns:]
	}

	messages := make([]llm.Message, 0, len(history)+1)
	for _, msg := range history {
		role := llm.RoleUser
		if msg.Role == session.RoleModel {
			role = llm.RoleModel
		}
		messages = append(messages, llm.Message{Role: role, Content: msg.Text})
	}
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: prompt})

	return g.client.Chat(ctx, messages)
}
