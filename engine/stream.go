package engine

import (
	"context"
	"encoding/json"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/movementfi/moveyield/core"
)

// createMessageStreaming makes a streaming API call, forwarding text
// deltas to the callback while accumulating the full message.
func (e *Engine) createMessageStreaming(ctx context.Context, params anthropic.MessageNewParams, callback func(string, bool)) (*anthropic.Message, error) {
	stream := e.client.Messages.NewStreaming(ctx, params)
	defer stream.Close()

	message := anthropic.Message{}

	for stream.Next() {
		event := stream.Current()

		// Accumulation errors are non-fatal; keep consuming events.
		_ = message.Accumulate(event)

		switch evt := event.AsAny().(type) {
		case anthropic.ContentBlockDeltaEvent:
			switch delta := evt.Delta.AsAny().(type) {
			case anthropic.TextDelta:
				callback(delta.Text, false)
			}
		case anthropic.MessageStopEvent:
			// Stream complete.
		}
	}

	if err := stream.Err(); err != nil {
		return nil, err
	}

	return &message, nil
}

// responseToBlocks converts an API response into transport blocks for
// persistence in conversation history.
func responseToBlocks(resp *anthropic.Message) []core.ContentBlock {
	blocks := make([]core.ContentBlock, 0, len(resp.Content))
	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			blocks = append(blocks, core.NewTextBlock(block.Text))
		case "tool_use":
			inputBytes, _ := json.Marshal(block.Input)
			blocks = append(blocks, core.NewToolUseBlock(block.ID, block.Name, inputBytes))
		}
	}
	return blocks
}
