package cli

import (
	"fmt"
	"os"

	"github.com/hungle-gif/operisbe/pkg/apiclient"
)

// apiURL resolves the server address: flag value first, then OPERIS_API_URL,
// then the local dev default.
func apiURL(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if env := os.Getenv("OPERIS_API_URL"); env != "" {
		return env
	}
	return "http://localhost:8080"
}

// newClient builds the API client over the default session file.
func newClient(baseURL string) (*apiclient.Client, error) {
	store, err := apiclient.NewSessionStore(os.Getenv("OPERIS_SESSION_FILE"))
	if err != nil {
		return nil, err
	}
	return apiclient.New(apiURL(baseURL), store), nil
}

// requireRole checks the cached profile before any request goes out, the
// same gate the portal applies when routing users to their dashboard.
func requireRole(client *apiclient.Client, roles ...string) error {
	profile := client.CachedProfile()
	if profile == nil {
		return fmt.Errorf("not logged in; run `operis login` first")
	}
	for _, role := range roles {
		if profile.Role == role {
			return nil
		}
	}
	return fmt.Errorf("this command requires role %v, you are %q", roles, profile.Role)
}
