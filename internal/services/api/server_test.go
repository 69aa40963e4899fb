package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/temirov/repoprompt/internal/services/api"
)

func startServer(t *testing.T, config api.Config) string {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	server := api.NewServer(config)
	addressCh := make(chan string, 1)
	errorCh := make(chan error, 1)
	go func() {
		errorCh <- server.Run(ctx, func(address string) {
			addressCh <- address
		})
	}()
	t.Cleanup(func() {
		cancel()
		if err := <-errorCh; err != nil {
			t.Errorf("server error: %v", err)
		}
	})
	select {
	case address := <-addressCh:
		return "http://" + address
	case <-time.After(2 * time.Second):
		t.Fatalf("server did not start")
		return ""
	}
}

func TestServerRunExposesCapabilities(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name         string
		config       api.Config
		expectedCaps []api.Capability
	}{
		{
			name: "single capability",
			config: api.Config{
				Capabilities: []api.Capability{{Name: "list", Description: "List templates"}},
				Address:      "127.0.0.1:0",
			},
			expectedCaps: []api.Capability{{Name: "list", Description: "List templates"}},
		},
		{
			name: "multiple capabilities",
			config: api.Config{
				Capabilities: []api.Capability{
					{Name: "aggregate", Description: "Aggregate a template"},
					{Name: "rename", Description: "Rename a template"},
				},
			},
			expectedCaps: []api.Capability{
				{Name: "aggregate", Description: "Aggregate a template"},
				{Name: "rename", Description: "Rename a template"},
			},
		},
		{
			name:         "no capabilities",
			config:       api.Config{},
			expectedCaps: []api.Capability{},
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			baseURL := startServer(t, testCase.config)

			client := http.Client{Timeout: 2 * time.Second}
			response, err := client.Get(baseURL + "/capabilities")
			if err != nil {
				t.Fatalf("perform request: %v", err)
			}
			defer response.Body.Close()
			if response.StatusCode != http.StatusOK {
				t.Fatalf("unexpected status: %d", response.StatusCode)
			}

			var body struct {
				Capabilities []api.Capability `json:"capabilities"`
			}
			if err := json.NewDecoder(response.Body).Decode(&body); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if len(body.Capabilities) != len(testCase.expectedCaps) {
				t.Fatalf("expected %d capabilities, got %d", len(testCase.expectedCaps), len(body.Capabilities))
			}
			for index, capability := range body.Capabilities {
				if capability != testCase.expectedCaps[index] {
					t.Fatalf("capability %d mismatch: got %+v, want %+v", index, capability, testCase.expectedCaps[index])
				}
			}
		})
	}
}

func TestServerDispatchesCommands(t *testing.T) {
	t.Parallel()

	type echoRequest struct {
		Text string `json:"text"`
	}
	executors := map[string]api.CommandExecutor{
		"echo": api.CommandExecutorFunc(func(_ context.Context, request api.CommandRequest) (api.CommandResponse, error) {
			var payload echoRequest
			if err := request.Decode(&payload); err != nil {
				return api.CommandResponse{}, err
			}
			if payload.Text == "" {
				return api.CommandResponse{}, api.NewCommandExecutionError(http.StatusBadRequest, errors.New("text is required"))
			}
			return api.CommandResponse{Output: payload.Text, Format: "raw"}, nil
		}),
		"conflict": api.CommandExecutorFunc(func(context.Context, api.CommandRequest) (api.CommandResponse, error) {
			return api.CommandResponse{}, api.NewCommandExecutionError(http.StatusConflict, errors.New("already exists"))
		}),
		"broken": api.CommandExecutorFunc(func(context.Context, api.CommandRequest) (api.CommandResponse, error) {
			return api.CommandResponse{}, errors.New("unexpected")
		}),
	}
	baseURL := startServer(t, api.Config{Executors: executors})

	testCases := []struct {
		name           string
		method         string
		path           string
		body           string
		expectedStatus int
		expectedOutput string
		expectedError  string
	}{
		{name: "success", method: http.MethodPost, path: "/commands/echo", body: `{"text":"hi"}`, expectedStatus: http.StatusOK, expectedOutput: "hi"},
		{name: "validation", method: http.MethodPost, path: "/commands/echo", body: `{}`, expectedStatus: http.StatusBadRequest, expectedError: "text is required"},
		{name: "malformed", method: http.MethodPost, path: "/commands/echo", body: `{"text":`, expectedStatus: http.StatusBadRequest},
		{name: "unknown field", method: http.MethodPost, path: "/commands/echo", body: `{"other":1}`, expectedStatus: http.StatusBadRequest},
		{name: "conflict", method: http.MethodPost, path: "/commands/conflict", expectedStatus: http.StatusConflict, expectedError: "already exists"},
		{name: "internal", method: http.MethodPost, path: "/commands/broken", expectedStatus: http.StatusInternalServerError, expectedError: "unexpected"},
		{name: "unknown command", method: http.MethodPost, path: "/commands/missing", expectedStatus: http.StatusNotFound, expectedError: "command not found"},
		{name: "nested path", method: http.MethodPost, path: "/commands/echo/extra", expectedStatus: http.StatusNotFound},
		{name: "wrong method", method: http.MethodGet, path: "/commands/echo", expectedStatus: http.StatusMethodNotAllowed},
	}

	client := http.Client{Timeout: 2 * time.Second}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			request, err := http.NewRequest(testCase.method, baseURL+testCase.path, bytes.NewBufferString(testCase.body))
			if err != nil {
				t.Fatalf("new request: %v", err)
			}
			response, err := client.Do(request)
			if err != nil {
				t.Fatalf("perform request: %v", err)
			}
			defer response.Body.Close()
			if response.StatusCode != testCase.expectedStatus {
				t.Fatalf("expected status %d, got %d", testCase.expectedStatus, response.StatusCode)
			}
			if testCase.expectedStatus == http.StatusMethodNotAllowed {
				return
			}
			var body map[string]any
			if err := json.NewDecoder(response.Body).Decode(&body); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if testCase.expectedOutput != "" && body["output"] != testCase.expectedOutput {
				t.Fatalf("expected output %q, got %v", testCase.expectedOutput, body["output"])
			}
			if testCase.expectedError != "" {
				message, _ := body["error"].(string)
				if !strings.Contains(message, testCase.expectedError) {
					t.Fatalf("expected error containing %q, got %q", testCase.expectedError, message)
				}
			}
		})
	}
}
