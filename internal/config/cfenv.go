package config

import (
	"fmt"

	"github.com/cloudfoundry-community/go-cfenv"
)

// Service labels and capabilities used in the platform registry.
const (
	genaiServiceLabel    = "genai"
	postgresServiceLabel = "postgres"

	capabilityChat      = "chat"
	capabilityEmbedding = "embedding"
)

// applyPlatform overlays credentials from the platform's service registry.
// GenAI services are matched by their advertised model capabilities; the
// postgres service contributes its connection URI. Registry values outrank
// environment and file configuration.
func (c *Config) applyPlatform(app *cfenv.App) error {
	if svc := findGenAIService(app, capabilityEmbedding); svc != nil {
		applyModelService(svc, &c.EmbeddingEndpoint, &c.EmbeddingAPIKey, &c.EmbeddingModel)
	}
	if svc := findGenAIService(app, capabilityChat); svc != nil {
		applyModelService(svc, &c.ChatEndpoint, &c.ChatAPIKey, &c.ChatModel)
	}

	services, err := app.Services.WithLabel(postgresServiceLabel)
	if err != nil || len(services) == 0 {
		// No bound postgres service; keep the configured connection.
		return nil
	}
	uri, ok := credentialString(&services[0], "uri")
	if !ok {
		uri, ok = credentialString(&services[0], "url")
	}
	if !ok {
		return fmt.Errorf("postgres service %q has no uri credential", services[0].Name)
	}
	if err := c.applyConnectionURL(uri); err != nil {
		return fmt.Errorf("postgres service %q: %w", services[0].Name, err)
	}
	if password, ok := credentialString(&services[0], "password"); ok {
		c.PostgresPassword = password
	}
	return nil
}

// findGenAIService returns the first genai-labeled service advertising the
// given capability in its model_capabilities credential.
func findGenAIService(app *cfenv.App, capability string) *cfenv.Service {
	services, err := app.Services.WithLabel(genaiServiceLabel)
	if err != nil {
		return nil
	}
	for i := range services {
		caps, ok := services[i].Credentials["model_capabilities"].([]any)
		if !ok {
			continue
		}
		for _, c := range caps {
			if s, ok := c.(string); ok && s == capability {
				return &services[i]
			}
		}
	}
	return nil
}

// applyModelService copies api_base/api_key/model_name credentials into the
// given config fields, leaving each untouched when absent.
func applyModelService(svc *cfenv.Service, endpoint, apiKey, model *string) {
	if v, ok := credentialString(svc, "api_base"); ok {
		*endpoint = v
	}
	if v, ok := credentialString(svc, "api_key"); ok {
		*apiKey = v
	}
	if v, ok := credentialString(svc, "model_name"); ok {
		*model = v
	}
}

// credentialString reads a string credential, tolerating absent keys and
// non-string values.
func credentialString(svc *cfenv.Service, key string) (string, bool) {
	v, ok := svc.Credentials[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}
