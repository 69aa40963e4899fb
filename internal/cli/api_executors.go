package cli

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/temirov/repoprompt/internal/config"
	"github.com/temirov/repoprompt/internal/output"
	"github.com/temirov/repoprompt/internal/services/api"
	"github.com/temirov/repoprompt/internal/store"
	"github.com/temirov/repoprompt/internal/template"
	"github.com/temirov/repoprompt/internal/types"
)

const (
	errorNameRequired         = "name is required"
	errorRenameFieldsRequired = "from and to are required"
	errorAggregateSource      = "exactly one of template or text is required"
	errorSaveTextRequired     = "text is required"
)

type templateNameRequest struct {
	Name string `json:"name"`
}

type renameRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type saveRequest struct {
	Name string  `json:"name"`
	Text *string `json:"text"`
}

type aggregateRequest struct {
	Template string  `json:"template"`
	Text     *string `json:"text"`
	Strict   *bool   `json:"strict"`
}

func apiCapabilities() []api.Capability {
	return []api.Capability{
		{Name: types.CommandList, Description: "List stored templates"},
		{Name: types.CommandAggregate, Description: "Aggregate a stored template or ad hoc template text"},
		{Name: types.CommandCreate, Description: "Create a template with the starter body"},
		{Name: types.CommandDelete, Description: "Delete a template"},
		{Name: types.CommandRename, Description: "Rename a template"},
		{Name: types.CommandSave, Description: "Write template text, replacing any existing template"},
	}
}

func (app *application) apiExecutors() map[string]api.CommandExecutor {
	return map[string]api.CommandExecutor{
		types.CommandList:      api.CommandExecutorFunc(app.executeListCommand),
		types.CommandAggregate: api.CommandExecutorFunc(app.executeAggregateCommand),
		types.CommandCreate:    api.CommandExecutorFunc(app.executeCreateCommand),
		types.CommandDelete:    api.CommandExecutorFunc(app.executeDeleteCommand),
		types.CommandRename:    api.CommandExecutorFunc(app.executeRenameCommand),
		types.CommandSave:      api.CommandExecutorFunc(app.executeSaveCommand),
	}
}

func (app *application) executeListCommand(_ context.Context, _ api.CommandRequest) (api.CommandResponse, error) {
	templates, listErr := app.templateStore().List()
	if listErr != nil {
		return api.CommandResponse{}, listErr
	}
	rendered, renderErr := output.RenderTemplateList(types.FormatJSON, summarizeTemplates(templates))
	if renderErr != nil {
		return api.CommandResponse{}, renderErr
	}
	return api.CommandResponse{Output: rendered, Format: types.FormatJSON}, nil
}

func (app *application) executeAggregateCommand(commandContext context.Context, request api.CommandRequest) (api.CommandResponse, error) {
	var payload aggregateRequest
	if decodeErr := request.Decode(&payload); decodeErr != nil {
		return api.CommandResponse{}, decodeErr
	}
	hasTemplate := strings.TrimSpace(payload.Template) != ""
	if hasTemplate == (payload.Text != nil) {
		return api.CommandResponse{}, api.NewCommandExecutionError(http.StatusBadRequest, errors.New(errorAggregateSource))
	}
	if contextErr := commandContext.Err(); contextErr != nil {
		return api.CommandResponse{}, contextErr
	}

	var templateText string
	if hasTemplate {
		content, readErr := app.templateStore().Read(payload.Template)
		if readErr != nil {
			return api.CommandResponse{}, api.NewCommandExecutionError(statusCodeForStoreError(readErr), readErr)
		}
		templateText = content
	} else {
		templateText = *payload.Text
	}

	strict := config.BoolValue(payload.Strict, config.BoolValue(app.configuration.Run.Strict, false))
	result, summary, aggregateErr := app.aggregate(templateText, strict)
	if aggregateErr != nil {
		var resolveErr *template.ResolveError
		if errors.Is(aggregateErr, template.ErrReadFailure) || errors.As(aggregateErr, &resolveErr) {
			return api.CommandResponse{}, api.NewCommandExecutionError(http.StatusUnprocessableEntity, aggregateErr)
		}
		return api.CommandResponse{}, aggregateErr
	}
	return api.CommandResponse{
		Output:   result.Text,
		Format:   types.FormatRaw,
		Warnings: output.SummaryWarnings(&summary),
	}, nil
}

func (app *application) executeCreateCommand(_ context.Context, request api.CommandRequest) (api.CommandResponse, error) {
	name, nameErr := decodeTemplateName(request)
	if nameErr != nil {
		return api.CommandResponse{}, nameErr
	}
	created, createErr := app.templateStore().Create(name)
	if createErr != nil {
		return api.CommandResponse{}, api.NewCommandExecutionError(statusCodeForStoreError(createErr), createErr)
	}
	return api.CommandResponse{Output: created.Path, Format: types.FormatRaw}, nil
}

func (app *application) executeDeleteCommand(_ context.Context, request api.CommandRequest) (api.CommandResponse, error) {
	name, nameErr := decodeTemplateName(request)
	if nameErr != nil {
		return api.CommandResponse{}, nameErr
	}
	if deleteErr := app.templateStore().Delete(name); deleteErr != nil {
		return api.CommandResponse{}, api.NewCommandExecutionError(statusCodeForStoreError(deleteErr), deleteErr)
	}
	return api.CommandResponse{Output: name, Format: types.FormatRaw}, nil
}

func (app *application) executeRenameCommand(_ context.Context, request api.CommandRequest) (api.CommandResponse, error) {
	var payload renameRequest
	if decodeErr := request.Decode(&payload); decodeErr != nil {
		return api.CommandResponse{}, decodeErr
	}
	if payload.From == "" || payload.To == "" {
		return api.CommandResponse{}, api.NewCommandExecutionError(http.StatusBadRequest, errors.New(errorRenameFieldsRequired))
	}
	renamed, renameErr := app.templateStore().Rename(payload.From, payload.To)
	if renameErr != nil {
		return api.CommandResponse{}, api.NewCommandExecutionError(statusCodeForStoreError(renameErr), renameErr)
	}
	return api.CommandResponse{Output: renamed.Path, Format: types.FormatRaw}, nil
}

func (app *application) executeSaveCommand(_ context.Context, request api.CommandRequest) (api.CommandResponse, error) {
	var payload saveRequest
	if decodeErr := request.Decode(&payload); decodeErr != nil {
		return api.CommandResponse{}, decodeErr
	}
	if payload.Name == "" {
		return api.CommandResponse{}, api.NewCommandExecutionError(http.StatusBadRequest, errors.New(errorNameRequired))
	}
	if payload.Text == nil {
		return api.CommandResponse{}, api.NewCommandExecutionError(http.StatusBadRequest, errors.New(errorSaveTextRequired))
	}
	saved, writeErr := app.templateStore().Write(payload.Name, *payload.Text)
	if writeErr != nil {
		return api.CommandResponse{}, api.NewCommandExecutionError(statusCodeForStoreError(writeErr), writeErr)
	}
	return api.CommandResponse{Output: saved.Path, Format: types.FormatRaw}, nil
}

func decodeTemplateName(request api.CommandRequest) (string, error) {
	var payload templateNameRequest
	if decodeErr := request.Decode(&payload); decodeErr != nil {
		return "", decodeErr
	}
	if payload.Name == "" {
		return "", api.NewCommandExecutionError(http.StatusBadRequest, errors.New(errorNameRequired))
	}
	return payload.Name, nil
}

func statusCodeForStoreError(err error) int {
	switch {
	case errors.Is(err, store.ErrInvalidName):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrTemplateNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrNameConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
