// Copyright (C) 2025 Bakutransit Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package intent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bakutransit/conductor/services/llm"
)

// DefaultRetryDelay is how long the parser waits before its single retry
// after an upstream rate-limit signal.
const DefaultRetryDelay = 15 * time.Second

// Parser classifies user messages. The local rule pass runs first; only
// unresolved messages cost a model call.
//
// Thread Safety: Parser is safe for concurrent use.
type Parser struct {
	client     llm.Client
	retryDelay time.Duration
}

// NewParser creates a parser over a model client.
func NewParser(client llm.Client) *Parser {
	return &Parser{client: client, retryDelay: DefaultRetryDelay}
}

// NewParserWithRetryDelay creates a parser with an explicit rate-limit
// retry delay. Tests use this to avoid the 15-second wait.
func NewParserWithRetryDelay(client llm.Client, retryDelay time.Duration) *Parser {
	return &Parser{client: client, retryDelay: retryDelay}
}

// Parse classifies a message into an intent and entities.
//
// On an upstream rate-limit signal the model call is retried exactly once
// after the configured delay; a second rate limit propagates as an error
// wrapping llm.ErrRateLimited. A response that is not parseable structured
// data degrades to the general intent rather than failing the turn.
func (p *Parser) Parse(ctx context.Context, message string) (Parsed, error) {
	if parsed, ok := localParse(message); ok {
		slog.Debug("Intent classified locally", slog.String("intent", string(parsed.Intent)))
		return parsed, nil
	}

	prompt := fmt.Sprintf(parsePromptTemplate, message)

	var text string
	var err error
	for attempt := 0; attempt < 2; attempt++ {
		text, err = p.client.Generate(ctx, prompt)
		if err == nil {
			break
		}
		if !errors.Is(err, llm.ErrRateLimited) || attempt > 0 {
			return Parsed{}, err
		}

		slog.Warn("Intent classifier rate limited, retrying once",
			slog.Duration("delay", p.retryDelay))
		select {
		case <-time.After(p.retryDelay):
		case <-ctx.Done():
			return Parsed{}, ctx.Err()
		}
	}
	if err != nil {
		return Parsed{}, err
	}

	return decodeParsed(text), nil
}

// decodeParsed turns model output into a Parsed, substituting the general
// intent for anything malformed.
func decodeParsed(text string) Parsed {
	text = stripCodeFences(text)

	var parsed Parsed
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		slog.Warn("Intent classifier returned unparseable JSON, defaulting to general",
			slog.String("error", err.Error()))
		return General()
	}

	if !parsed.Intent.valid() {
		parsed.Intent = IntentGeneral
	}
	if parsed.Entities == nil {
		parsed.Entities = map[string]string{}
	}
	return parsed
}

// stripCodeFences removes a surrounding markdown code fence, which some
// models wrap JSON in despite instructions.
func stripCodeFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	if _, rest, ok := strings.Cut(text, "\n"); ok {
		text = rest
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
