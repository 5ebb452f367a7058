package springconfig

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

var applicationConfigRe = regexp.MustCompile(`^applicationConfig: \[(.+)\](.*)$`)

// Doer performs one blocking HTTP exchange.
type Doer interface {
	Do(*http.Request) (*http.Response, error)
}

// Scrape fetches a running service's /env endpoint and infers the effective
// configuration bindings from its property sources.
func Scrape(ctx context.Context, client Doer, envURL string) (*Bindings, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, envURL, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "could not build request for %q", envURL)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "could not fetch %q", envURL)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "could not read response from %q", envURL)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.Errorf("HTTP %d from %q: %s", resp.StatusCode, envURL, body)
	}

	var env map[string]interface{}
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, errors.Wrapf(err, "unparseable environment from %q", envURL)
	}
	return Infer(env), nil
}

// Infer reconstructs effective bindings from a raw environment dump:
// property sources are merged in precedence order, then the per-profile
// application config files named by spring.config.* are layered on top.
func Infer(env map[string]interface{}) *Bindings {
	applicationConfig := map[string]map[string]interface{}{}
	for name, value := range env {
		match := applicationConfigRe.FindStringSubmatch(name)
		if match == nil {
			continue
		}
		section, ok := value.(map[string]interface{})
		if !ok {
			continue
		}
		// key plus decorator, e.g. "file:config/gate.yml" or a profile suffix
		applicationConfig[match[1]+match[2]] = section
	}

	b := NewBindings()
	for _, source := range []string{"defaultProperties", "systemProperties", "systemEnvironment"} {
		if m, ok := env[source].(map[string]interface{}); ok {
			b.ImportMap(m)
		}
	}

	names := splitBinding(b, "spring.config.name")
	profiles := splitBinding(b, "spring.profiles.active")
	locations := splitBinding(b, "spring.config.location")

	for _, location := range locations {
		locationNames := []string{""}
		if strings.HasSuffix(location, "/") {
			locationNames = names
		}
		for _, name := range locationNames {
			root := "file:" + location + name
			if m, ok := applicationConfig[root+".yml"]; ok {
				b.ImportMap(m)
			}
			for _, profile := range profiles {
				if m, ok := applicationConfig[root+"-"+profile+".yml"]; ok {
					b.ImportMap(m)
				}
			}
		}
	}

	return b
}

func splitBinding(b *Bindings, field string) []string {
	value, err := b.GetString(field)
	if err != nil || value == "" {
		return nil
	}
	return strings.Split(value, ",")
}
