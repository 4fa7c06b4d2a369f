package agent

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"
)

// probeTimeout bounds local-service detection. Local daemons answer in
// milliseconds; anything slower is treated as absent.
const probeTimeout = 2 * time.Second

// Detect probes baseURL for a responding agent daemon. It returns nil if
// the daemon answered its status endpoint, regardless of auth.
func Detect(ctx context.Context, baseURL string) error {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/status", nil)
	if err != nil {
		return err
	}

	resp, err := (&http.Client{Timeout: probeTimeout}).Do(req)
	if err != nil {
		return fmt.Errorf("no agent at %s: %w", baseURL, err)
	}
	resp.Body.Close()

	// 401 still proves the daemon is listening.
	if resp.StatusCode >= 500 {
		return fmt.Errorf("agent at %s unhealthy: HTTP %d", baseURL, resp.StatusCode)
	}
	return nil
}

// DetectOllama probes the local Ollama server, honoring OLLAMA_HOST.
// Returns the resolved base URL on success.
func DetectOllama(ctx context.Context) (string, error) {
	host := os.Getenv("OLLAMA_HOST")
	if host == "" {
		host = "http://127.0.0.1:11434"
	}
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "http://" + host
	}

	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, host+"/api/tags", nil)
	if err != nil {
		return "", err
	}

	resp, err := (&http.Client{Timeout: probeTimeout}).Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama not reachable at %s: %w", host, err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ollama at %s returned HTTP %d", host, resp.StatusCode)
	}
	return host, nil
}
