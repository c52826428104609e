package llm

import (
	"context"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
)

// Client calls the OpenAI chat completions API. Requests carrying an image
// use the vision model; text-only requests use the (cheaper) text model.
type Client struct {
	api         openai.Client
	visionModel string
	textModel   string

	Stats *Stats
}

func NewClient(apiKey, visionModel, textModel string, timeout time.Duration) *Client {
	return &Client{
		api: openai.NewClient(
			option.WithAPIKey(apiKey),
			option.WithRequestTimeout(timeout),
		),
		visionModel: visionModel,
		textModel:   textModel,
		Stats:       NewStats(time.Hour),
	}
}

// VisionModel returns the configured multimodal model name.
func (c *Client) VisionModel() string { return c.visionModel }

// TextModel returns the configured text model name.
func (c *Client) TextModel() string { return c.textModel }

func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	params := c.buildParams(req)

	start := time.Now()
	resp, err := c.api.Chat.Completions.New(ctx, params)
	c.Stats.Record(req.Op, time.Since(start).Milliseconds())

	if err != nil {
		return "", &TransportError{Op: req.Op, Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", &TransportError{Op: req.Op, Err: errEmptyChoices}
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *Client) Stream(ctx context.Context, req Request, fn func(delta string) error) error {
	params := c.buildParams(req)

	start := time.Now()
	stream := c.api.Chat.Completions.NewStreaming(ctx, params)
	defer stream.Close()

	for stream.Next() {
		chunk := stream.Current()
		if len(chunk.Choices) == 0 {
			continue
		}
		delta := chunk.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		if err := fn(delta); err != nil {
			return err
		}
	}
	c.Stats.Record(req.Op, time.Since(start).Milliseconds())

	if err := stream.Err(); err != nil {
		return &TransportError{Op: req.Op, Err: err}
	}
	return nil
}

func (c *Client) buildParams(req Request) openai.ChatCompletionNewParams {
	model := c.textModel
	var userMsg openai.ChatCompletionMessageParamUnion

	if req.ImageURL != "" {
		model = c.visionModel
		userMsg = openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
			openai.TextContentPart(req.Prompt),
			openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
				URL:    req.ImageURL,
				Detail: "high",
			}),
		})
	} else {
		userMsg = openai.UserMessage(req.Prompt)
	}

	var messages []openai.ChatCompletionMessageParamUnion
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	messages = append(messages, userMsg)

	params := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(model),
		Messages: messages,
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}
	if req.ForceJSON {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}
	return params
}

type staticError string

func (e staticError) Error() string { return string(e) }

const errEmptyChoices = staticError("empty response from inference service")
