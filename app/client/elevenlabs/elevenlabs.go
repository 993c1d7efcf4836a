// Package elevenlabs is a thin client for the ElevenLabs text-to-speech API.
package elevenlabs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"santacall/app/config"
	"santacall/app/util/faults"

	"github.com/samber/do"
)

const maxErrorBody = 512

type Client struct {
	cfg        *config.Config
	httpClient *http.Client
}

type VoiceSettings struct {
	VoiceID    string
	Stability  float64
	Similarity float64
}

type synthesizeRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

type voiceSettings struct {
	Stability  float64 `json:"stability"`
	Similarity float64 `json:"similarity_boost"`
}

func NewClient(di *do.Injector) (*Client, error) {
	return &Client{
		cfg: do.MustInvoke[*config.Config](di),
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}, nil
}

// Synthesize converts text into audio bytes using the given voice. Zero-value
// settings fall back to the configured defaults.
func (c *Client) Synthesize(ctx context.Context, text string, settings VoiceSettings) ([]byte, error) {
	if settings.VoiceID == "" {
		settings.VoiceID = c.cfg.ElevenLabs.VoiceID
	}
	if settings.Stability == 0 {
		settings.Stability = c.cfg.ElevenLabs.Stability
	}
	if settings.Similarity == 0 {
		settings.Similarity = c.cfg.ElevenLabs.Similarity
	}

	body, err := json.Marshal(synthesizeRequest{
		Text:    text,
		ModelID: c.cfg.ElevenLabs.ModelID,
		VoiceSettings: voiceSettings{
			Stability:  settings.Stability,
			Similarity: settings.Similarity,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal synthesize request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/text-to-speech/%s", c.cfg.ElevenLabs.BaseURL, settings.VoiceID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build synthesize request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")
	req.Header.Set("xi-api-key", c.cfg.ElevenLabs.Token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, faults.Transport(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, faults.Vendor(resp.StatusCode, string(detail))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, faults.Transport(err)
	}

	if len(audio) == 0 {
		return nil, faults.Malformed("empty audio payload")
	}

	return audio, nil
}
