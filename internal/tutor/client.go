package tutor

import (
	"context"
	"errors"
	"time"

	"github.com/suPer8Hu/code-tutor/internal/ai"
	"github.com/suPer8Hu/code-tutor/internal/config"
	"github.com/suPer8Hu/code-tutor/internal/logger"
)

const defaultTimeout = 60 * time.Second

// TransportError wraps a failure of the remote call itself. Its message is
// the provider's own.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return e.Err.Error() }
func (e *TransportError) Unwrap() error { return e.Err }

type Client struct {
	log      *logger.Logger
	provider ai.Provider
	prompts  *PromptBuilder
	timeout  time.Duration
}

func NewClient(log *logger.Logger, provider ai.Provider, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		log:      log.With("component", "tutor.Client"),
		provider: provider,
		prompts:  NewPromptBuilder(),
		timeout:  timeout,
	}
}

// Advise renders the prompt, calls the model once and parses its reply.
// Errors are either ErrParse, a *TransportError, or a prompt rendering error.
func (c *Client) Advise(ctx context.Context, in PromptInput) (*Result, error) {
	prompt, err := c.prompts.Build(in)
	if err != nil {
		return nil, err
	}

	cctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	reply, err := c.provider.Chat(cctx, []ai.Message{{Role: ai.RoleUser, Content: prompt}})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			c.log.Warn("tutor model call timed out", "timeout", c.timeout.String())
		}
		return nil, &TransportError{Err: err}
	}

	res, err := Parse(reply)
	if err != nil {
		c.log.Warn("tutor reply rejected", "error", err, "reply", reply, "cost", time.Since(start).String())
		return nil, err
	}
	return res, nil
}

// NewConfiguredClient builds a client for the configured provider and model.
func NewConfiguredClient(ctx context.Context, log *logger.Logger, cfg config.Config) (*Client, error) {
	provider, err := ai.NewConfiguredRegistry(cfg).Get(ctx, cfg.AIProvider, cfg.ModelFor(cfg.AIProvider))
	if err != nil {
		return nil, err
	}
	log.Info("tutor provider ready", "provider", cfg.AIProvider, "model", cfg.ModelFor(cfg.AIProvider))
	return NewClient(log, provider, time.Duration(cfg.TutorTimeoutSeconds)*time.Second), nil
}
