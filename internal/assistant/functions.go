package assistant

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/agendia/booking-ai-platform/pkg/logging"
)

// FunctionExecutor validates and runs at most one requested function call
// per turn, normalizing every outcome into a FunctionResult so callers
// never branch on error types.
type FunctionExecutor struct {
	logger *logging.Logger
}

// NewFunctionExecutor builds the executor.
func NewFunctionExecutor(logger *logging.Logger) *FunctionExecutor {
	if logger == nil {
		logger = logging.Default()
	}
	return &FunctionExecutor{logger: logger}
}

// Execute looks up the requested function in the agent's registry, parses
// its JSON arguments and invokes the handler. Unknown functions, malformed
// payloads and handler errors all resolve to a failure result with
// ShouldContinue set, so the turn still produces a reply.
func (e *FunctionExecutor) Execute(ctx context.Context, call *FunctionCall, agent AgentDefinition, session *SessionContext) []FunctionResult {
	if call == nil {
		return nil
	}

	result, err := e.execute(ctx, call, agent, session)
	if err != nil {
		e.logger.Error("function call failed",
			"function", call.Name,
			"error", err,
		)
		return []FunctionResult{{
			Success:        false,
			Message:        err.Error(),
			ShouldContinue: true,
		}}
	}
	return []FunctionResult{result}
}

func (e *FunctionExecutor) execute(ctx context.Context, call *FunctionCall, agent AgentDefinition, session *SessionContext) (FunctionResult, error) {
	var def *FunctionDefinition
	for i := range agent.Functions {
		if agent.Functions[i].Name == call.Name {
			def = &agent.Functions[i]
			break
		}
	}
	if def == nil {
		return FunctionResult{}, fmt.Errorf("assistant: function not found: %s", call.Name)
	}

	args := map[string]any{}
	if call.Arguments != "" {
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			return FunctionResult{}, fmt.Errorf("assistant: malformed arguments for %s: %w", call.Name, err)
		}
	}

	result, err := def.Handler.Execute(ctx, args, session)
	if err != nil {
		return FunctionResult{}, fmt.Errorf("assistant: %s execution failed: %w", call.Name, err)
	}
	return result, nil
}

// functionSchemas converts an agent's function registry into the
// provider-neutral schema shape sent with completion requests.
func functionSchemas(functions []FunctionDefinition) []FunctionSchema {
	if len(functions) == 0 {
		return nil
	}
	schemas := make([]FunctionSchema, 0, len(functions))
	for _, fn := range functions {
		properties := make(map[string]any, len(fn.Parameters))
		required := make([]string, 0, len(fn.Parameters))
		for _, param := range fn.Parameters {
			prop := map[string]any{
				"type":        param.Type,
				"description": param.Description,
			}
			if len(param.Enum) > 0 {
				prop["enum"] = param.Enum
			}
			properties[param.Name] = prop
			if param.Required {
				required = append(required, param.Name)
			}
		}
		schemas = append(schemas, FunctionSchema{
			Name:        fn.Name,
			Description: fn.Description,
			Parameters: map[string]any{
				"type":       "object",
				"properties": properties,
				"required":   required,
			},
		})
	}
	return schemas
}
