package springconfig

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"gotest.tools/assert"
)

func scrapedEnv() map[string]interface{} {
	return map[string]interface{}{
		"defaultProperties": map[string]interface{}{
			"flavor": "defaults",
			"services": map[string]interface{}{
				"gate": map[string]interface{}{"port": 8084.0},
			},
		},
		"systemProperties": map[string]interface{}{
			"flavor":                 "system",
			"spring.config.location": "config/",
			"spring.config.name":     "gate",
			"spring.profiles.active": "prod",
		},
		"applicationConfig: [file:config/gate.yml]": map[string]interface{}{
			"base":     "from-base-file",
			"override": "base",
		},
		"applicationConfig: [file:config/gate-prod.yml]": map[string]interface{}{
			"override": "prod",
		},
		"ignored": "not a property source",
	}
}

func TestInfer(t *testing.T) {
	b := Infer(scrapedEnv())

	t.Run("system-overrides-defaults", func(t *testing.T) {
		flavor, err := b.GetString("flavor")
		assert.NilError(t, err)
		assert.Equal(t, flavor, "system")
	})

	t.Run("nested-defaults-survive", func(t *testing.T) {
		port, err := b.Get("services.gate.port")
		assert.NilError(t, err)
		assert.Equal(t, port, 8084.0)
	})

	t.Run("config-file-layered", func(t *testing.T) {
		base, err := b.GetString("base")
		assert.NilError(t, err)
		assert.Equal(t, base, "from-base-file")
	})

	t.Run("profile-file-wins", func(t *testing.T) {
		override, err := b.GetString("override")
		assert.NilError(t, err)
		assert.Equal(t, override, "prod")
	})
}

func TestInferExplicitFileLocation(t *testing.T) {
	// A location not ending in "/" names the file directly; spring.config.name
	// is not appended.
	b := Infer(map[string]interface{}{
		"systemProperties": map[string]interface{}{
			"spring.config.location": "config/custom",
		},
		"applicationConfig: [file:config/custom.yml]": map[string]interface{}{
			"custom": "yes",
		},
	})

	custom, err := b.GetString("custom")
	assert.NilError(t, err)
	assert.Equal(t, custom, "yes")
}

func TestScrape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NilError(t, json.NewEncoder(w).Encode(scrapedEnv()))
	}))
	defer srv.Close()

	b, err := Scrape(context.Background(), srv.Client(), srv.URL+"/env")
	assert.NilError(t, err)
	flavor, err := b.GetString("flavor")
	assert.NilError(t, err)
	assert.Equal(t, flavor, "system")
}

func TestScrapeErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := Scrape(context.Background(), srv.Client(), srv.URL+"/env")
	assert.Check(t, err != nil)
}

func TestScrapeUnparseableBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "<html>definitely not an environment</html>")
	}))
	defer srv.Close()

	_, err := Scrape(context.Background(), srv.Client(), srv.URL+"/env")
	assert.Check(t, err != nil)
}
