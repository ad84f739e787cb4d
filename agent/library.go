package agent

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// Library answers the function calls a model makes.
type Library func(context.Context, *genai.FunctionCall) *genai.FunctionResponse

// Function is a tool a model can call.
type Function interface {
	Declaration() *genai.FunctionDeclaration
	Call(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse
}

// NewLibrary indexes functions by declared name. Two functions sharing a name
// is a programming error and panics.
func NewLibrary[T Function](functions []T) Library {
	byName := make(map[string]Function, len(functions))
	for _, f := range functions {
		name := f.Declaration().Name
		if _, dup := byName[name]; dup {
			panic(fmt.Sprintf("agent: function %q declared twice", name))
		}
		byName[name] = f
	}
	return func(ctx context.Context, call *genai.FunctionCall) *genai.FunctionResponse {
		f, ok := byName[call.Name]
		if !ok {
			return failure(call.ID, call.Name, fmt.Errorf("unknown function %s", call.Name))
		}
		return f.Call(ctx, call.ID, call.Args)
	}
}

// Declarations lists the declarations of functions, in order.
func Declarations[T Function](functions []T) []*genai.FunctionDeclaration {
	result := make([]*genai.FunctionDeclaration, 0, len(functions))
	for _, f := range functions {
		result = append(result, f.Declaration())
	}
	return result
}

// output is the response carrying a function result.
func output(id, name, text string) *genai.FunctionResponse {
	return &genai.FunctionResponse{ID: id, Name: name, Response: map[string]any{"output": text}}
}

// failure is the response reporting err to the model. Errors are strings so
// that they survive the JSON encoding.
func failure(id, name string, err error) *genai.FunctionResponse {
	return &genai.FunctionResponse{ID: id, Name: name, Response: map[string]any{"error": err.Error()}}
}
