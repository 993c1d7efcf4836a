// Package openai wraps the OpenAI API for the two operations the call needs:
// JSON-mode chat completions and per-utterance Whisper transcription.
package openai

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"santacall/app/config"
	"santacall/app/util/faults"

	"github.com/samber/do"
	goopenai "github.com/sashabaranov/go-openai"
)

type Client struct {
	cfg    *config.Config
	client *goopenai.Client
}

func NewClient(di *do.Injector) (*Client, error) {
	cfg := do.MustInvoke[*config.Config](di)

	clientConfig := goopenai.DefaultConfig(cfg.OpenAI.Token)
	clientConfig.BaseURL = cfg.OpenAI.BaseURL
	clientConfig.HTTPClient = &http.Client{
		Timeout: 60 * time.Second,
	}

	return &Client{
		cfg:    cfg,
		client: goopenai.NewClientWithConfig(clientConfig),
	}, nil
}

// Complete runs one JSON-mode chat completion and returns the raw content
// with markdown fences stripped.
func (c *Client) Complete(ctx context.Context, system string, history []goopenai.ChatCompletionMessage, user string) (string, error) {
	messages := make([]goopenai.ChatCompletionMessage, 0, len(history)+2)
	messages = append(messages, goopenai.ChatCompletionMessage{
		Role:    goopenai.ChatMessageRoleSystem,
		Content: system,
	})
	messages = append(messages, history...)
	messages = append(messages, goopenai.ChatCompletionMessage{
		Role:    goopenai.ChatMessageRoleUser,
		Content: user,
	})

	aiResponse, err := c.client.CreateChatCompletion(
		ctx,
		goopenai.ChatCompletionRequest{
			Model:               c.cfg.OpenAI.ChatModel,
			Messages:            messages,
			Temperature:         0.8,
			MaxCompletionTokens: 500,
			ResponseFormat: &goopenai.ChatCompletionResponseFormat{
				Type: goopenai.ChatCompletionResponseFormatTypeJSONObject,
			},
		},
	)
	if err != nil {
		return "", classify(err)
	}

	if len(aiResponse.Choices) == 0 {
		return "", faults.Malformed("no chat completion choices")
	}

	result := aiResponse.Choices[0].Message.Content
	result = strings.Trim(result, "`")
	result = strings.TrimSpace(result)
	result = strings.TrimPrefix(result, "json")
	result = strings.TrimSpace(result)

	return result, nil
}

// Transcribe sends one finished utterance to Whisper.
func (c *Client) Transcribe(ctx context.Context, audio []byte, contentType string) (string, error) {
	resp, err := c.client.CreateTranscription(ctx, goopenai.AudioRequest{
		Model:    c.cfg.OpenAI.TranscribeModel,
		FilePath: "utterance" + extensionFor(contentType),
		Reader:   bytes.NewReader(audio),
	})
	if err != nil {
		return "", classify(err)
	}

	return strings.TrimSpace(resp.Text), nil
}

func extensionFor(contentType string) string {
	switch {
	case strings.Contains(contentType, "wav"):
		return ".wav"
	case strings.Contains(contentType, "ogg"):
		return ".ogg"
	case strings.Contains(contentType, "mp3"), strings.Contains(contentType, "mpeg"):
		return ".mp3"
	default:
		return ".webm"
	}
}

// classify maps SDK errors onto the vendor fault taxonomy.
func classify(err error) error {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		return faults.Vendor(apiErr.HTTPStatusCode, fmt.Sprint(apiErr.Message))
	}

	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) {
		return faults.Vendor(reqErr.HTTPStatusCode, reqErr.Error())
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	return faults.Transport(err)
}
