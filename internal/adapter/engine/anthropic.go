package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/feastline/concierge/internal/capability"
	"github.com/feastline/concierge/internal/domain"
)

// MessagesClient captures the subset of the Anthropic SDK used by the
// engine. *sdk.MessageService satisfies it; tests pass a stub.
type MessagesClient interface {
	New(ctx context.Context, body sdk.MessageNewParams, opts ...option.RequestOption) (*sdk.Message, error)
}

// Anthropic drives the reasoning loop with the Claude Messages API. Each
// step sends the conversation so far; tool_use blocks are executed against
// the capability registry and their results fed back until the model stops
// requesting tools.
type Anthropic struct {
	messages  MessagesClient
	model     sdk.Model
	registry  *capability.Registry
	maxSteps  int
	maxTokens int64
}

// NewAnthropic builds the engine from an API key.
func NewAnthropic(apiKey, model string, registry *capability.Registry, maxSteps int) *Anthropic {
	ac := sdk.NewClient(option.WithAPIKey(apiKey))
	return NewAnthropicWithClient(&ac.Messages, model, registry, maxSteps)
}

// NewAnthropicWithClient builds the engine with an explicit messages client.
func NewAnthropicWithClient(messages MessagesClient, model string, registry *capability.Registry, maxSteps int) *Anthropic {
	if maxSteps <= 0 {
		maxSteps = 10
	}
	return &Anthropic{
		messages:  messages,
		model:     sdk.Model(model),
		registry:  registry,
		maxSteps:  maxSteps,
		maxTokens: 2048,
	}
}

// Run executes one reasoning turn.
func (a *Anthropic) Run(ctx context.Context, req Request, emit func(domain.Event)) (string, error) {
	blocks := []sdk.ContentBlockParamUnion{sdk.NewTextBlock(req.Message)}
	if req.Turn.HasMedia() {
		blocks = append(blocks, sdk.NewImageBlockBase64(mediaMIME(req.Turn.Media), req.Turn.Media.Data))
	}
	conversation := []sdk.MessageParam{sdk.NewUserMessage(blocks...)}

	system := []sdk.TextBlockParam{{Text: systemPrompt(req.History)}}
	tools := a.encodeTools()

	for step := 1; step <= a.maxSteps; step++ {
		params := sdk.MessageNewParams{
			MaxTokens: a.maxTokens,
			Messages:  conversation,
			Model:     a.model,
			System:    system,
		}
		if len(tools) > 0 {
			params.Tools = tools
		}

		msg, err := a.messages.New(ctx, params)
		if err != nil {
			return "", fmt.Errorf("anthropic messages.new: %w", err)
		}

		var text strings.Builder
		var calls []toolCall
		for _, block := range msg.Content {
			switch block.Type {
			case "text":
				text.WriteString(block.Text)
			case "tool_use":
				calls = append(calls, toolCall{id: block.ID, name: block.Name, input: block.Input})
			}
		}

		if len(calls) == 0 || msg.StopReason != sdk.StopReasonToolUse {
			answer := strings.TrimSpace(text.String())
			if answer == "" {
				answer = FallbackAnswer
			}
			return answer, nil
		}

		// Interim text is the model narrating its plan.
		if thought := strings.TrimSpace(text.String()); thought != "" {
			emit(domain.NewReasoningStepEvent(step, thought))
		}

		conversation = append(conversation, assistantMessage(text.String(), calls))
		conversation = append(conversation, sdk.NewUserMessage(a.executeCalls(ctx, req.Turn, step, calls, emit)...))
	}

	return "", fmt.Errorf("reasoning did not converge after %d steps", a.maxSteps)
}

type toolCall struct {
	id    string
	name  string
	input json.RawMessage
}

func (a *Anthropic) executeCalls(ctx context.Context, turn *capability.Turn, step int, calls []toolCall, emit func(domain.Event)) []sdk.ContentBlockParamUnion {
	results := make([]sdk.ContentBlockParamUnion, 0, len(calls))
	for _, call := range calls {
		emit(domain.NewAgentActionEvent(call.name, step, call.input))
		emit(domain.NewToolStartEvent(call.name, call.input))

		output, err := a.registry.Execute(ctx, turn, call.name, call.input)
		if err != nil {
			log.Printf("ERROR: capability %s failed: %v", call.name, err)
			emit(domain.NewToolErrorEvent(call.name, err.Error()))
			results = append(results, sdk.NewToolResultBlock(call.id, err.Error(), true))
			continue
		}

		emit(domain.NewToolEndEvent(call.name, output))
		payload, merr := json.Marshal(output)
		if merr != nil {
			payload = []byte(`{"error":"unserializable tool output"}`)
		}
		_, failed := output["error"]
		results = append(results, sdk.NewToolResultBlock(call.id, string(payload), failed))
	}
	return results
}

func assistantMessage(text string, calls []toolCall) sdk.MessageParam {
	blocks := make([]sdk.ContentBlockParamUnion, 0, len(calls)+1)
	if strings.TrimSpace(text) != "" {
		blocks = append(blocks, sdk.NewTextBlock(text))
	}
	for _, call := range calls {
		blocks = append(blocks, sdk.NewToolUseBlock(call.id, call.input, call.name))
	}
	return sdk.NewAssistantMessage(blocks...)
}

func (a *Anthropic) encodeTools() []sdk.ToolUnionParam {
	defs := a.registry.Definitions()
	tools := make([]sdk.ToolUnionParam, 0, len(defs))
	for _, def := range defs {
		u := sdk.ToolUnionParamOfTool(sdk.ToolInputSchemaParam{ExtraFields: def.InputSchema}, def.Name)
		if u.OfTool != nil {
			u.OfTool.Description = sdk.String(def.Description)
		}
		tools = append(tools, u)
	}
	return tools
}

func mediaMIME(m *domain.Media) string {
	if m.Metadata != nil {
		if mime, ok := m.Metadata["mime_type"].(string); ok && mime != "" {
			return mime
		}
	}
	if strings.Contains(m.Type, "/") {
		return m.Type
	}
	return "image/jpeg"
}

func systemPrompt(history []Exchange) string {
	var b strings.Builder
	b.WriteString(`You are a helpful food delivery assistant. You help users find restaurants and dishes, look up their orders, and handle refund requests.

TOOL SELECTION:
- For restaurants or places to eat, use search_restaurants
- For specific dishes, use search_food_items
- For a restaurant's menu, use get_restaurant_menu
- For order lookups, use get_order_details
- For refund requests, follow the refund workflow tools before initiate_refund

REFUND HANDLING:
1. Create a refund workflow with create_refund_workflow and collect the order id, the reason, and an evidence image, recording each with update_refund_workflow.
2. Verify the image with verify_refund_image and record the result.
3. Finalize with process_refund_decision, then call initiate_refund with the returned validation details.
Approve only when the image clearly supports the stated reason. Late delivery claims need no image.

RESPONSES:
- Use markdown and keep answers conversational.
- When data comes back from a tool, summarize it; the client renders the details separately.

Messages prefixed with [CONVERSATION HISTORY QUERY] ask about the conversation itself; answer them from the conversation history below, and never claim the conversation just started when history is present.`)

	if len(history) > 0 {
		b.WriteString("\n\nCONVERSATION HISTORY:\n")
		for _, h := range history {
			b.WriteString(h.Role)
			b.WriteString(": ")
			b.WriteString(h.Text)
			b.WriteString("\n")
		}
	}
	return b.String()
}
