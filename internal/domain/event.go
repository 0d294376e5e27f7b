package domain

import (
	"encoding/json"
	"time"
)

// Event is one frame of a turn's output stream. Exactly one constructor-set
// field group is populated per kind; events are immutable once created.
type Event struct {
	Kind           EventKind       `json:"type"`
	Text           string          `json:"data,omitempty"`
	Capability     string          `json:"tool_name,omitempty"`
	Step           int             `json:"step,omitempty"`
	Thought        string          `json:"thought,omitempty"`
	Timestamp      string          `json:"timestamp,omitempty"`
	Input          json.RawMessage `json:"input,omitempty"`
	Output         map[string]any  `json:"output,omitempty"`
	Card           *StructuredCard `json:"card,omitempty"`
	ConversationID string          `json:"conversation_id,omitempty"`
}

// StructuredCard is a typed, UI-renderable payload extracted from a
// capability's raw output. Only the card extractor constructs these.
type StructuredCard struct {
	Kind    CardKind       `json:"type"`
	Payload map[string]any `json:"data"`
}

func NewThinkingEvent(text string) Event {
	return Event{Kind: EventKindThinking, Text: text}
}

func NewReasoningStepEvent(step int, thought string) Event {
	return Event{
		Kind:      EventKindReasoningStep,
		Step:      step,
		Thought:   thought,
		Timestamp: time.Now().Format(time.RFC3339Nano),
	}
}

func NewAgentActionEvent(capability string, step int, input json.RawMessage) Event {
	return Event{Kind: EventKindAgentAction, Capability: capability, Step: step, Input: input}
}

func NewToolStartEvent(capability string, input json.RawMessage) Event {
	return Event{Kind: EventKindToolStart, Capability: capability, Text: "Using " + capability, Input: input}
}

func NewToolEndEvent(capability string, output map[string]any) Event {
	return Event{Kind: EventKindToolEnd, Capability: capability, Text: "Tool " + capability + " completed", Output: output}
}

func NewToolErrorEvent(capability, message string) Event {
	return Event{Kind: EventKindToolError, Capability: capability, Text: message}
}

func NewStructuredDataEvent(card StructuredCard) Event {
	c := card
	return Event{Kind: EventKindStructuredData, Card: &c}
}

func NewMessageEvent(text string) Event {
	return Event{Kind: EventKindMessage, Text: text}
}

func NewErrorEvent(message string) Event {
	return Event{Kind: EventKindError, Text: message}
}

func NewDoneEvent(conversationID string) Event {
	return Event{Kind: EventKindDone, ConversationID: conversationID}
}
