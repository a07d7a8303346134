package openai

import (
	"net/url"
	"strconv"

	"github.com/sashabaranov/go-openai"
)

// Optional fields are pointers or nil-able so that an absent value is omitted
// from the request body instead of being sent as null or empty.

type CreateAssistantRequest struct {
	Model           string                        `json:"model"`
	Name            *string                       `json:"name,omitempty"`
	Description     *string                       `json:"description,omitempty"`
	Instructions    *string                       `json:"instructions,omitempty"`
	ReasoningEffort *string                       `json:"reasoning_effort,omitempty"`
	Tools           []openai.AssistantTool        `json:"tools,omitempty"`
	Metadata        map[string]string             `json:"metadata,omitempty"`
	Temperature     *float32                      `json:"temperature,omitempty"`
	TopP            *float32                      `json:"top_p,omitempty"`
	ToolResources   *openai.AssistantToolResource `json:"tool_resources,omitempty"`
}

type ModifyAssistantRequest struct {
	Model           *string                       `json:"model,omitempty"`
	Name            *string                       `json:"name,omitempty"`
	Description     *string                       `json:"description,omitempty"`
	Instructions    *string                       `json:"instructions,omitempty"`
	ReasoningEffort *string                       `json:"reasoning_effort,omitempty"`
	ResponseFormat  any                           `json:"response_format,omitempty"`
	Tools           []openai.AssistantTool        `json:"tools,omitempty"`
	Metadata        map[string]string             `json:"metadata,omitempty"`
	Temperature     *float32                      `json:"temperature,omitempty"`
	TopP            *float32                      `json:"top_p,omitempty"`
	ToolResources   *openai.AssistantToolResource `json:"tool_resources,omitempty"`
}

// ListAssistantsRequest pages through assistants. Limit is capped at 100.
type ListAssistantsRequest struct {
	After  string
	Before string
	Limit  int
	Order  string
}

func (r ListAssistantsRequest) query() string {
	q := url.Values{}
	if r.After != "" {
		q.Set("after", r.After)
	}
	if r.Before != "" {
		q.Set("before", r.Before)
	}
	if r.Limit > 0 {
		q.Set("limit", strconv.Itoa(min(r.Limit, 100)))
	}
	if r.Order != "" {
		q.Set("order", r.Order)
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

type CreateVectorStoreRequest struct {
	Name             *string                    `json:"name,omitempty"`
	FileIDs          []string                   `json:"file_ids,omitempty"`
	ChunkingStrategy *openai.ChunkingStrategy   `json:"chunking_strategy,omitempty"`
	ExpiresAfter     *openai.VectorStoreExpires `json:"expires_after,omitempty"`
	Metadata         map[string]string          `json:"metadata,omitempty"`
}

type ModifyVectorStoreRequest struct {
	Name         *string                    `json:"name,omitempty"`
	ExpiresAfter *openai.VectorStoreExpires `json:"expires_after,omitempty"`
	Metadata     map[string]string          `json:"metadata,omitempty"`
}

// ThreadMessage is one prior turn seeded into a thread, or a new message.
type ThreadMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type CreateThreadRequest struct {
	Messages      []ThreadMessage               `json:"messages,omitempty"`
	ToolResources *openai.AssistantToolResource `json:"tool_resources,omitempty"`
	Metadata      map[string]string             `json:"metadata,omitempty"`
}

type CreateRunRequest struct {
	AssistantID            string                           `json:"assistant_id"`
	Model                  *string                          `json:"model,omitempty"`
	ReasoningEffort        *string                          `json:"reasoning_effort,omitempty"`
	Instructions           *string                          `json:"instructions,omitempty"`
	AdditionalInstructions *string                          `json:"additional_instructions,omitempty"`
	AdditionalMessages     []ThreadMessage                  `json:"additional_messages,omitempty"`
	Tools                  []openai.AssistantTool           `json:"tools,omitempty"`
	Metadata               map[string]string                `json:"metadata,omitempty"`
	Temperature            *float32                         `json:"temperature,omitempty"`
	TopP                   *float32                         `json:"top_p,omitempty"`
	MaxPromptTokens        *int                             `json:"max_prompt_tokens,omitempty"`
	MaxCompletionTokens    *int                             `json:"max_completion_tokens,omitempty"`
	TruncationStrategy     *openai.ThreadTruncationStrategy `json:"truncation_strategy,omitempty"`
	ToolChoice             any                              `json:"tool_choice,omitempty"`
	ParallelToolCalls      *bool                            `json:"parallel_tool_calls,omitempty"`
	ResponseFormat         any                              `json:"response_format,omitempty"`
}

// Tools builds a tool list from tool type names such as "file_search".
func Tools(names ...string) []openai.AssistantTool {
	tools := make([]openai.AssistantTool, 0, len(names))
	for _, n := range names {
		tools = append(tools, openai.AssistantTool{Type: openai.AssistantToolType(n)})
	}
	return tools
}

// FileSearchResources points the file_search tool at the given vector stores.
func FileSearchResources(vectorStoreIDs ...string) *openai.AssistantToolResource {
	return &openai.AssistantToolResource{
		FileSearch: &openai.AssistantToolFileSearch{VectorStoreIDs: vectorStoreIDs},
	}
}

func String(s string) *string { return &s }

func Float32(f float32) *float32 { return &f }

func Int(i int) *int { return &i }

func Bool(b bool) *bool { return &b }
