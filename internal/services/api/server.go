// Package api exposes template commands over a local HTTP endpoint.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	defaultListenAddress     = "127.0.0.1:0"
	defaultShutdownDuration  = 5 * time.Second
	defaultReadHeaderTimeout = 10 * time.Second
	maxRequestBodyBytes      = 4 << 20
	headerContentType        = "Content-Type"
	mimeTypeJSON             = "application/json"
	capabilitiesPath         = "/capabilities"
	rootPath                 = "/"
	commandsPrefix           = "/commands/"
	errorFieldName           = "error"
	errorCommandNotFound     = "command not found"

	logMessageListening      = "api listening"
	logMessageCommandFailed  = "api command failed"
	logMessageCommandHandled = "api command handled"
)

// Capability is one template command advertised at /capabilities.
type Capability struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// CommandRequest carries the JSON body posted to /commands/{name}.
type CommandRequest struct {
	Payload json.RawMessage
}

// Decode unmarshals the payload into target. An empty payload leaves target untouched.
// Decoding failures are reported as bad requests.
func (request CommandRequest) Decode(target any) error {
	if len(bytes.TrimSpace(request.Payload)) == 0 {
		return nil
	}
	decoder := json.NewDecoder(bytes.NewReader(request.Payload))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		return NewCommandExecutionError(http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
	}
	return nil
}

// CommandResponse is returned to the client. Output holds a template listing,
// a template path or aggregated text; Warnings lists missing specs and
// skipped files.
type CommandResponse struct {
	Output   string   `json:"output"`
	Format   string   `json:"format"`
	Warnings []string `json:"warnings,omitempty"`
}

// CommandExecutor runs one named template command.
type CommandExecutor interface {
	Execute(ctx context.Context, request CommandRequest) (CommandResponse, error)
}

// CommandExecutorFunc adapts a function into a CommandExecutor.
type CommandExecutorFunc func(context.Context, CommandRequest) (CommandResponse, error)

// Execute invokes the underlying function.
func (executor CommandExecutorFunc) Execute(ctx context.Context, request CommandRequest) (CommandResponse, error) {
	return executor(ctx, request)
}

// CommandExecutionError pairs a template command failure with its HTTP status.
type CommandExecutionError struct {
	statusCode int
	err        error
}

// Error returns the error string.
func (executionError CommandExecutionError) Error() string {
	return executionError.err.Error()
}

// Unwrap exposes the wrapped error.
func (executionError CommandExecutionError) Unwrap() error {
	return executionError.err
}

// StatusCode reports the associated HTTP status code.
func (executionError CommandExecutionError) StatusCode() int {
	return executionError.statusCode
}

// NewCommandExecutionError wraps err with statusCode. A nil err yields nil.
func NewCommandExecutionError(statusCode int, err error) error {
	if err == nil {
		return nil
	}
	return CommandExecutionError{statusCode: statusCode, err: err}
}

// Config lists the advertised commands and their executors.
type Config struct {
	Address         string
	Capabilities    []Capability
	Executors       map[string]CommandExecutor
	ShutdownTimeout time.Duration
	Logger          *zap.Logger
}

// Server routes POST /commands/{name} to the matching executor.
type Server struct {
	config Config
}

// NewServer creates a Server with defaults applied.
func NewServer(config Config) Server {
	normalized := config
	if normalized.Address == "" {
		normalized.Address = defaultListenAddress
	}
	if normalized.ShutdownTimeout <= 0 {
		normalized.ShutdownTimeout = defaultShutdownDuration
	}
	if normalized.Capabilities == nil {
		normalized.Capabilities = []Capability{}
	}
	if normalized.Executors == nil {
		normalized.Executors = map[string]CommandExecutor{}
	}
	if normalized.Logger == nil {
		normalized.Logger = zap.NewNop()
	}
	return Server{config: normalized}
}

// Handler returns the HTTP routes served by the server.
func (server Server) Handler() http.Handler {
	router := http.NewServeMux()
	router.HandleFunc(capabilitiesPath, server.handleCapabilities)
	router.HandleFunc(rootPath, server.handleRoot)
	router.HandleFunc(commandsPrefix, server.handleCommand)
	return router
}

// Run starts the server and blocks until ctx is canceled.
// The notify callback receives the bound address once the listener is active.
func (server Server) Run(ctx context.Context, notify func(string)) error {
	listener, listenErr := net.Listen("tcp", server.config.Address)
	if listenErr != nil {
		return fmt.Errorf("listen on %s: %w", server.config.Address, listenErr)
	}
	actualAddress := listener.Addr().String()

	httpServer := &http.Server{Handler: server.Handler(), ReadHeaderTimeout: defaultReadHeaderTimeout}
	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		serveErr := httpServer.Serve(listener)
		if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			return fmt.Errorf("serve api: %w", serveErr)
		}
		return nil
	})

	server.config.Logger.Debug(logMessageListening, zap.String("address", actualAddress))
	if notify != nil {
		notify(actualAddress)
	}

	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), server.config.ShutdownTimeout)
		defer cancel()
		shutdownErr := httpServer.Shutdown(shutdownCtx)
		if shutdownErr != nil && !errors.Is(shutdownErr, context.Canceled) && !errors.Is(shutdownErr, http.ErrServerClosed) {
			return fmt.Errorf("shutdown api: %w", shutdownErr)
		}
		return nil
	})

	return group.Wait()
}

func (server Server) handleCapabilities(writer http.ResponseWriter, request *http.Request) {
	if request.Method != http.MethodGet {
		writer.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	payload := struct {
		Capabilities []Capability `json:"capabilities"`
	}{Capabilities: server.config.Capabilities}
	server.writeJSON(writer, http.StatusOK, payload)
}

func (server Server) handleRoot(writer http.ResponseWriter, request *http.Request) {
	if request.Method != http.MethodGet {
		writer.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if request.URL.Path != rootPath {
		server.writeError(writer, http.StatusNotFound, errorCommandNotFound)
		return
	}
	writer.WriteHeader(http.StatusOK)
}

func (server Server) handleCommand(writer http.ResponseWriter, request *http.Request) {
	if request.Method != http.MethodPost {
		writer.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	commandName := strings.TrimPrefix(request.URL.Path, commandsPrefix)
	executor, found := server.config.Executors[commandName]
	if !found || strings.Contains(commandName, "/") {
		server.writeError(writer, http.StatusNotFound, errorCommandNotFound)
		return
	}
	body, readErr := io.ReadAll(http.MaxBytesReader(writer, request.Body, maxRequestBodyBytes))
	if readErr != nil {
		server.writeError(writer, http.StatusBadRequest, fmt.Sprintf("read request body: %v", readErr))
		return
	}
	commandResponse, executeErr := executor.Execute(request.Context(), CommandRequest{Payload: json.RawMessage(body)})
	if executeErr != nil {
		statusCode := statusCodeFromError(executeErr)
		server.config.Logger.Warn(logMessageCommandFailed,
			zap.String("command", commandName),
			zap.Int("status", statusCode),
			zap.Error(executeErr),
		)
		server.writeError(writer, statusCode, executeErr.Error())
		return
	}
	server.config.Logger.Debug(logMessageCommandHandled, zap.String("command", commandName))
	server.writeJSON(writer, http.StatusOK, commandResponse)
}

func (server Server) writeError(writer http.ResponseWriter, statusCode int, message string) {
	server.writeJSON(writer, statusCode, map[string]string{errorFieldName: message})
}

func (server Server) writeJSON(writer http.ResponseWriter, statusCode int, payload any) {
	var buffer bytes.Buffer
	if encodeErr := json.NewEncoder(&buffer).Encode(payload); encodeErr != nil {
		fallback := map[string]string{errorFieldName: fmt.Sprintf("encode response: %v", encodeErr)}
		writer.Header().Set(headerContentType, mimeTypeJSON)
		writer.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(writer).Encode(fallback)
		return
	}
	writer.Header().Set(headerContentType, mimeTypeJSON)
	writer.WriteHeader(statusCode)
	_, _ = writer.Write(buffer.Bytes())
}

func statusCodeFromError(err error) int {
	var executionError CommandExecutionError
	if errors.As(err, &executionError) {
		return executionError.StatusCode()
	}
	return http.StatusInternalServerError
}
