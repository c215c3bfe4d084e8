// Package live implements the client side of the Gemini Live websocket
// protocol: a long-lived bidirectional connection carrying microphone audio
// out and interleaved model audio plus transcript events back.
package live

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/khalid307-hue/speakcoach/pkg/core"
)

const (
	// DefaultEndpoint is the BidiGenerateContent websocket endpoint.
	DefaultEndpoint = "wss://generativelanguage.googleapis.com/ws/google.ai.generativelanguage.v1beta.GenerativeService.BidiGenerateContent"

	// DefaultModel is the default realtime audio model.
	DefaultModel = "gemini-2.0-flash-live-001"

	defaultConnectTimeout = 15 * time.Second
)

// Config configures a live session.
type Config struct {
	// Model is the realtime model name, with or without the "models/" prefix.
	Model string

	// Voice selects a prebuilt voice identity (e.g. "Aoede").
	Voice string

	// System is the behavioral instruction text for the session.
	System string

	// InputTranscription requests partial transcripts of the user's speech.
	InputTranscription bool

	// OutputTranscription requests partial transcripts of the model's speech.
	OutputTranscription bool
}

// Client dials live sessions.
type Client struct {
	apiKey   string
	endpoint string
	dialer   *websocket.Dialer
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithEndpoint overrides the websocket endpoint (tests, proxies).
func WithEndpoint(endpoint string) ClientOption {
	return func(c *Client) {
		c.endpoint = endpoint
	}
}

// WithDialer overrides the websocket dialer.
func WithDialer(dialer *websocket.Dialer) ClientOption {
	return func(c *Client) {
		c.dialer = dialer
	}
}

// NewClient creates a live session client.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		apiKey:   apiKey,
		endpoint: DefaultEndpoint,
		dialer:   websocket.DefaultDialer,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.dialer == nil {
		c.dialer = &websocket.Dialer{}
	}
	return c
}

// Connect opens a live session: dial, send the setup frame, then block until
// the server acknowledges with setupComplete or reports an error. The caller
// suspends until the handshake completes; with no ctx deadline a default
// connect timeout applies to the dial and the acknowledgement read.
func (c *Client) Connect(ctx context.Context, cfg Config) (*Session, error) {
	if c == nil {
		return nil, core.NewInvalidRequestError("live client is not initialized")
	}
	if strings.TrimSpace(c.apiKey) == "" {
		return nil, core.NewAuthenticationError("missing API key")
	}
	cfg = normalizeConfig(cfg)

	wsURL, err := c.sessionURL()
	if err != nil {
		return nil, err
	}

	dialCtx := ctx
	var cancel context.CancelFunc
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		dialCtx, cancel = context.WithTimeout(ctx, defaultConnectTimeout)
		defer cancel()
	}

	conn, resp, err := c.dialer.DialContext(dialCtx, wsURL, nil)
	if err != nil {
		if resp != nil {
			return nil, &core.TransportError{Op: "GET", URL: wsURL, Err: fmt.Errorf("websocket dial failed (status %d): %w", resp.StatusCode, err)}
		}
		return nil, &core.TransportError{Op: "GET", URL: wsURL, Err: err}
	}

	if err := conn.WriteJSON(buildSetup(cfg)); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("send setup: %w", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(defaultConnectTimeout))
	messageType, payload, err := conn.ReadMessage()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("read setup ack: %w", err)
	}
	_ = conn.SetReadDeadline(time.Time{})
	if messageType != websocket.TextMessage && messageType != websocket.BinaryMessage {
		_ = conn.Close()
		return nil, fmt.Errorf("unexpected first live frame type %d", messageType)
	}

	events, err := decodeServerFrame(payload)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	if len(events) == 0 {
		_ = conn.Close()
		return nil, fmt.Errorf("empty first live frame")
	}
	if _, ok := events[0].(SetupCompleteEvent); !ok {
		_ = conn.Close()
		return nil, core.NewAPIError("live setup rejected by server")
	}

	session := &Session{
		conn:   conn,
		events: make(chan Event, 256),
		done:   make(chan struct{}),
	}
	// Surface the ack to consumers too.
	session.emitEvent(SetupCompleteEvent{})
	go session.readLoop()
	return session, nil
}

func (c *Client) sessionURL() (string, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return "", core.NewInvalidRequestError("invalid live endpoint URL")
	}
	switch strings.ToLower(strings.TrimSpace(u.Scheme)) {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
		// already websocket scheme.
	default:
		return "", core.NewInvalidRequestError("live endpoint must use http(s) or ws(s)")
	}
	q := u.Query()
	q.Set("key", c.apiKey)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func normalizeConfig(cfg Config) Config {
	cfg.Model = strings.TrimSpace(cfg.Model)
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if !strings.HasPrefix(cfg.Model, "models/") {
		cfg.Model = "models/" + cfg.Model
	}
	cfg.Voice = strings.TrimSpace(cfg.Voice)
	cfg.System = strings.TrimSpace(cfg.System)
	return cfg
}

func buildSetup(cfg Config) clientSetup {
	setup := setupPayload{
		Model: cfg.Model,
		GenerationConfig: generationConfig{
			ResponseModalities: []string{"AUDIO"},
		},
	}
	if cfg.Voice != "" {
		setup.GenerationConfig.SpeechConfig = &speechConfig{
			VoiceConfig: voiceConfig{
				PrebuiltVoiceConfig: prebuiltVoiceConfig{VoiceName: cfg.Voice},
			},
		}
	}
	if cfg.System != "" {
		setup.SystemInstruction = &wireContent{
			Parts: []wirePart{{Text: cfg.System}},
		}
	}
	if cfg.InputTranscription {
		setup.InputAudioTranscription = &struct{}{}
	}
	if cfg.OutputTranscription {
		setup.OutputAudioTranscription = &struct{}{}
	}
	return clientSetup{Setup: setup}
}
