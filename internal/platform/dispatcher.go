package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Dispatcher resolves a named integration operation against a platform
// configuration and invokes it: implementation strings with a URL scheme go
// out as HTTP POSTs, everything else is looked up in the local registry.
//
// The dispatcher applies a per-call timeout but never retries; retry policy
// belongs to callers. It is side-effect free beyond the outbound call.
type Dispatcher struct {
	registry   *Registry
	httpClient *http.Client
	timeout    time.Duration
}

// NewDispatcher creates a dispatcher over the given registry
func NewDispatcher(registry *Registry, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Dispatcher{
		registry:   registry,
		httpClient: &http.Client{Timeout: timeout},
		timeout:    timeout,
	}
}

// Invoke calls the named operation with the uniform argument envelope.
func (d *Dispatcher) Invoke(ctx context.Context, cfg *Config, operation string, args map[string]interface{}) (map[string]interface{}, error) {
	impl := cfg.Operation(operation)
	if impl == "" {
		return nil, &NotConfiguredError{Operation: operation}
	}

	if IsEndpointURL(impl) {
		return d.invokeHTTP(ctx, cfg, operation, impl, args)
	}

	adapter, ok := d.registry.Get(impl)
	if !ok {
		return nil, &NotFoundError{Slug: impl, Operation: operation}
	}
	fn, ok := adapter.Lookup(operation)
	if !ok {
		return nil, &NotFoundError{Slug: impl, Operation: operation}
	}

	result, err := fn(ctx, cfg, args)
	if err != nil {
		return nil, &ExecutionError{Operation: operation, Platform: cfg.Domain, Err: err}
	}
	return result, nil
}

// invokeHTTP posts the JSON envelope {platform: <config>, ...args} to the
// operation endpoint. A non-2xx response and a response-level error field are
// both execution errors; some remote adapters signal failure with a 200 plus
// {"error": "..."}.
func (d *Dispatcher) invokeHTTP(ctx context.Context, cfg *Config, operation, endpoint string, args map[string]interface{}) (map[string]interface{}, error) {
	envelope := make(map[string]interface{}, len(args)+1)
	for k, v := range args {
		envelope[k] = v
	}
	envelope["platform"] = cfg

	body, err := json.Marshal(envelope)
	if err != nil {
		return nil, &ExecutionError{Operation: operation, Platform: cfg.Domain, Err: err}
	}

	callCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &ExecutionError{Operation: operation, Platform: cfg.Domain, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, &ExecutionError{Operation: operation, Platform: cfg.Domain, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &ExecutionError{
			Operation: operation,
			Platform:  cfg.Domain,
			Err:       fmt.Errorf("adapter endpoint returned %s", resp.Status),
		}
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ExecutionError{Operation: operation, Platform: cfg.Domain, Err: err}
	}

	result := map[string]interface{}{}
	if len(respBody) > 0 {
		if err := json.Unmarshal(respBody, &result); err != nil {
			return nil, &ExecutionError{Operation: operation, Platform: cfg.Domain, Err: fmt.Errorf("invalid adapter response: %w", err)}
		}
	}

	if msg, ok := result["error"].(string); ok && msg != "" {
		return nil, &ExecutionError{Operation: operation, Platform: cfg.Domain, Err: fmt.Errorf("%s", msg)}
	}

	return result, nil
}
