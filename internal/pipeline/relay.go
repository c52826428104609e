package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fieldlens/fieldlens/internal/llm"
)

const chatSystemPrompt = "You are a document analysis assistant. Answer the user's question using only the extraction result below. If the answer is not in the result, say so.\n\nExtraction result:\n%s"

// Ask streams an answer about a stored extraction result. The full result is
// serialized into the system prompt so the model answers from what was
// actually extracted. Returns ErrNotFound for unknown ids.
func (o *Orchestrator) Ask(ctx context.Context, id, question string, fn func(delta string) error) error {
	res, err := o.store.Get(id)
	if err != nil {
		return err
	}

	doc, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("serialize result %s: %w", id, err)
	}

	return o.llm.Stream(ctx, llm.Request{
		Op:          opChat,
		System:      fmt.Sprintf(chatSystemPrompt, doc),
		Prompt:      question,
		MaxTokens:   1000,
		Temperature: 0.3,
	}, fn)
}
