package agent

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/pkg/errors"

	"github.com/spinops/spinwatch/pkg/logging"
	"github.com/spinops/spinwatch/pkg/operation"
	"github.com/spinops/spinwatch/pkg/status"
	"github.com/spinops/spinwatch/pkg/statusdoc"
)

const (
	// DefaultTaskPort is the conventional port of task-style subsystems.
	DefaultTaskPort = 7002
	// DefaultPipelinePort is the conventional port of pipeline-style
	// subsystems.
	DefaultPipelinePort = 8084
)

// Doer performs one blocking HTTP exchange.
type Doer interface {
	Do(*http.Request) (*http.Response, error)
}

// Config carries everything an Agent binds at construction. There are no
// package-level defaults to fall back on besides the HTTP client.
type Config struct {
	// BaseURL locates the service, e.g. "http://localhost:7002".
	BaseURL string
	// Parser interprets the service's dialect of submission and poll bodies.
	Parser statusdoc.Parser
	// Client performs the HTTP exchanges; http.DefaultClient when nil.
	Client Doer
	// Log receives per-exchange debug entries; a component logger is created
	// when nil.
	Log logging.Logger
}

type Agent struct {
	log    logging.Logger
	base   *url.URL
	parser statusdoc.Parser
	client Doer
}

// New constructs an Agent bound to cfg's endpoint.
func New(cfg Config) (*Agent, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("base URL must be provided for Agent to target")
	}
	if cfg.Parser == nil {
		return nil, errors.New("document parser must be provided")
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, errors.Wrapf(err, "unusable base URL %q", cfg.BaseURL)
	}
	client := cfg.Client
	if client == nil {
		client = http.DefaultClient
	}
	log := cfg.Log
	if log == nil {
		log = logging.New("agent")
	}
	return &Agent{log: log, base: base, parser: cfg.Parser, client: client}, nil
}

// NewTask constructs an Agent for a task-style subsystem.
func NewTask(baseURL string) (*Agent, error) {
	return New(Config{BaseURL: baseURL, Parser: statusdoc.TaskParser{}})
}

// NewPipeline constructs an Agent for a pipeline-style subsystem.
func NewPipeline(baseURL string) (*Agent, error) {
	return New(Config{BaseURL: baseURL, Parser: statusdoc.PipelineParser{}})
}

// BaseURL assembles the conventional endpoint URL for a host and port.
func BaseURL(host string, port int) string {
	return fmt.Sprintf("http://%s:%d", host, port)
}

// Submit issues the request that starts op and wraps the response in a
// tracker. Any response with a body - success, garbage, or an error status -
// yields a usable tracker; a garbled body or non-2xx status yields one that
// is already terminally failed. The error return is reserved for transport
// failures, and even then the tracker comes back terminal so callers can
// poll-and-check uniformly.
func (a *Agent) Submit(ctx context.Context, op *operation.Operation) (*status.OperationStatus, error) {
	req, err := http.NewRequestWithContext(ctx, op.HTTPMethod(), a.resolve(op.Path), bytes.NewReader(op.Payload))
	if err != nil {
		return status.NewInternalError(op, a.parser, err.Error()),
			errors.Wrapf(err, "could not build submission for %q", op.Title)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return status.NewInternalError(op, a.parser, err.Error()),
			errors.Wrapf(err, "could not submit %q", op.Title)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return status.NewInternalError(op, a.parser, err.Error()),
			errors.Wrapf(err, "could not read submission response for %q", op.Title)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		a.log.WithField("operation", op.Title).
			Debugf("submission rejected with HTTP %d", resp.StatusCode)
		return status.NewInternalError(op, a.parser,
			fmt.Sprintf("HTTP %d: %s", resp.StatusCode, body)), nil
	}

	st := status.New(op, a.parser, body)
	a.log.WithField("operation", op.Title).Debugf("submitted, tracking %s", st.RequestID())
	return st, nil
}

// Refresh fetches a fresh status document for st from its captured resource
// URI. Transport errors propagate untouched for the caller's policy to
// handle; malformed bodies come back as a parse-failure document.
func (a *Agent) Refresh(ctx context.Context, st *status.OperationStatus) (statusdoc.Document, error) {
	if st.ResourceURI() == "" {
		// Terminal-from-birth trackers have nothing to poll.
		return statusdoc.Invalid(), nil
	}
	code, body, err := a.Get(ctx, st.ResourceURI())
	if err != nil {
		return statusdoc.Invalid(), err
	}
	if code < 200 || code >= 300 {
		return statusdoc.Invalid(), nil
	}
	parser := st.Parser()
	if parser == nil {
		parser = a.parser
	}
	return parser.ParsePoll(body), nil
}

// Get performs a bare GET of a path or absolute URL, returning the status
// code and body.
func (a *Agent) Get(ctx context.Context, path string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.resolve(path), nil)
	if err != nil {
		return 0, nil, errors.Wrapf(err, "could not build request for %q", path)
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return 0, nil, errors.Wrapf(err, "could not fetch %q", path)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, errors.Wrapf(err, "could not read response from %q", path)
	}
	return resp.StatusCode, body, nil
}

// resolve joins a path or reference against the agent's base URL, passing
// absolute URLs through untouched.
func (a *Agent) resolve(p string) string {
	ref, err := url.Parse(p)
	if err != nil {
		base := *a.base
		base.Path = singleSlashJoin(base.Path, p)
		return base.String()
	}
	if ref.IsAbs() {
		return ref.String()
	}
	if !ref.IsAbs() && ref.Path != "" && ref.Path[0] != '/' {
		ref.Path = singleSlashJoin(a.base.Path, ref.Path)
	}
	return a.base.ResolveReference(ref).String()
}

func singleSlashJoin(a, b string) string {
	for len(a) > 0 && a[len(a)-1] == '/' {
		a = a[:len(a)-1]
	}
	for len(b) > 0 && b[0] == '/' {
		b = b[1:]
	}
	return a + "/" + b
}
