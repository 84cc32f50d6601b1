package config

import (
	"fmt"
	"net"
	"strings"
)

// Validate reports configuration problems that would prevent the daemon from
// operating. LLM and storage credentials are deliberately not required:
// without them the daemon degrades to canned quiz content and mock uploads.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return fmt.Errorf("config: paths.data_dir is required")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return fmt.Errorf("config: paths.log_dir is required")
	}
	if bind := strings.TrimSpace(c.Paths.APIBind); bind != "" {
		if _, _, err := net.SplitHostPort(bind); err != nil {
			return fmt.Errorf("config: paths.api_bind %q: %w", bind, err)
		}
	}
	switch format := strings.ToLower(strings.TrimSpace(c.Logging.Format)); format {
	case "", "console", "json":
	default:
		return fmt.Errorf("config: logging.format %q is not supported", format)
	}
	if c.Storage.BridgeURL != "" && !strings.HasPrefix(c.Storage.BridgeURL, "http") {
		return fmt.Errorf("config: storage.bridge_url %q must be an http(s) URL", c.Storage.BridgeURL)
	}
	return nil
}
