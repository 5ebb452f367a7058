// Package jenkins triggers builds on a Jenkins server. A trigger is fire and
// forget on the Jenkins side; the interesting effect lands on some other
// service, so the returned tracker is bound to a status path polled through
// that service's agent rather than through Jenkins itself.
package jenkins

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/spinops/spinwatch/pkg/logging"
	"github.com/spinops/spinwatch/pkg/operation"
	"github.com/spinops/spinwatch/pkg/status"
	"github.com/spinops/spinwatch/pkg/statusdoc"
)

// Doer performs one blocking HTTP exchange.
type Doer interface {
	Do(*http.Request) (*http.Response, error)
}

// Config carries the Jenkins endpoint and credentials.
type Config struct {
	// BaseURL locates the Jenkins server.
	BaseURL string
	// Username and APIToken authenticate trigger requests.
	Username string
	APIToken string
	// Client performs the HTTP exchanges; http.DefaultClient when nil.
	Client Doer
	// Log receives per-trigger debug entries.
	Log logging.Logger
}

type Agent struct {
	log      logging.Logger
	base     *url.URL
	username string
	apiToken string
	client   Doer
}

// New constructs a trigger agent from cfg.
func New(cfg Config) (*Agent, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("Jenkins base URL must be provided")
	}
	if cfg.Username == "" || cfg.APIToken == "" {
		return nil, errors.New("Jenkins credentials must be provided")
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, errors.Wrapf(err, "unusable Jenkins base URL %q", cfg.BaseURL)
	}
	client := cfg.Client
	if client == nil {
		client = http.DefaultClient
	}
	log := cfg.Log
	if log == nil {
		log = logging.New("jenkins")
	}
	return &Agent{
		log:      log,
		base:     base,
		username: cfg.Username,
		apiToken: cfg.APIToken,
		client:   client,
	}, nil
}

// LoadAuth reads "username token" credentials from path, or from the
// JENKINS_USER and JENKINS_PASSWORD environment variables when path is
// empty.
func LoadAuth(path string) (username, token string, err error) {
	if path == "" {
		username = os.Getenv("JENKINS_USER")
		token = os.Getenv("JENKINS_PASSWORD")
		if username == "" || token == "" {
			return "", "", errors.New(
				"either an auth file or the JENKINS_USER and JENKINS_PASSWORD environment variables must be supplied")
		}
		return username, token, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", "", errors.Wrapf(err, "could not read Jenkins auth from %s", path)
	}
	fields := strings.Fields(string(raw))
	if len(fields) != 2 {
		return "", "", errors.Errorf(
			"%s is not in the expected \"<username> <token>\" format", path)
	}
	return fields[0], fields[1], nil
}

// TriggerOperation names a Jenkins job to kick and where to watch for its
// effect.
type TriggerOperation struct {
	// Title names the operation for logging only.
	Title string
	// Job is the Jenkins job to build.
	Job string
	// Token authorizes the remote trigger for the job.
	Token string
	// StatusPath is the path, on the owning service, where the triggered
	// work reports its progress.
	StatusPath string
	// Parser interprets poll documents fetched from StatusPath.
	Parser statusdoc.Parser
}

// Trigger kicks the job and returns a PENDING tracker bound to the
// operation's status path. Unlike operation submission, a rejected trigger is
// an error: there is no reference to poll if Jenkins refused the build.
func (a *Agent) Trigger(ctx context.Context, op *TriggerOperation) (*status.OperationStatus, error) {
	path := fmt.Sprintf("job/%s/build/?token=%s", url.PathEscape(op.Job), url.QueryEscape(op.Token))
	ref, err := url.Parse(path)
	if err != nil {
		return nil, errors.Wrapf(err, "could not build trigger URL for job %q", op.Job)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.base.ResolveReference(ref).String(), nil)
	if err != nil {
		return nil, errors.Wrapf(err, "could not build trigger request for job %q", op.Job)
	}
	req.SetBasicAuth(a.username, a.apiToken)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "could not trigger job %q", op.Job)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.Errorf("job %q trigger rejected with HTTP %d", op.Job, resp.StatusCode)
	}
	a.log.WithField("job", op.Job).Debugf("triggered, watching %s", op.StatusPath)

	desc := &operation.Operation{Title: op.Title, Method: http.MethodGet, Path: path}
	return status.Track(desc, op.Parser, op.StatusPath), nil
}
