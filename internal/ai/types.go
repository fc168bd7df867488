package ai

import (
    "context"
    "errors"
    "time"
)

// ImagePart is one inline image attached to a multimodal request.
type ImagePart struct {
    Base64 string
    MIME   string // e.g. image/jpeg
}

// Request represents a generic AI inference request for a page.
type Request struct {
    JobID         string
    PageID        int
    ContentRef    string
    Model         string
    Params        map[string]any
    Timeout       time.Duration
    // Vision fields
    ImageBase64   string // Base64 encoded image (single-image convenience; use Images for multi-image calls)
    ImageMIME     string // Image MIME type (image/jpeg)
    Images        []ImagePart // additional images sent alongside/instead of ImageBase64, in order
    SystemPrompt  string // System prompt for AI
    ContextText   string // Context from surrounding pages
    MuPDFText     string // Extracted MuPDF text
    UserPrompt    string // when set, used verbatim as the user turn instead of the PageID/context template

    // Generation parameters for calibration-sensitive callers (scoring,
    // feedback, combined, and visual agents) that need near-deterministic
    // output. Zero values fall back to each client's own default.
    Temperature   *float64
    TopP          *float64
    Seed          string // forwarded to OpenAI only; best-effort elsewhere
}

type Response struct {
    Text   string
    TokensIn  int
    TokensOut int
}

// Client interface for providers like OpenAI, Anthropic.
type Client interface {
    Name() string
    Do(ctx context.Context, req Request) (Response, error)
}

var (
    ErrRateLimited    = errors.New("rate_limited")
    ErrContentRefused = errors.New("content_refused")
)

func IsRateLimited(err error) bool { return errors.Is(err, ErrRateLimited) }
func IsContentRefused(err error) bool { return errors.Is(err, ErrContentRefused) }

