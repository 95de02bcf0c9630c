package postprocess

import "testing"

func TestRemoveThinkingBlocks(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "empty string",
			input:    "",
			expected: "",
		},
		{
			name:     "no thinking blocks",
			input:    "Hello, this is a normal answer.",
			expected: "Hello, this is a normal answer.",
		},
		{
			name:     "simple thinking block",
			input:    "Some text<thinking>Let me work this out</thinking>More text",
			expected: "Some textMore text",
		},
		{
			name:     "reasoning block",
			input:    "Start<reasoning>Analyzing the question</reasoning>End",
			expected: "StartEnd",
		},
		{
			name:     "reflection block",
			input:    "Begin<reflection>Checking the claim</reflection>Finish",
			expected: "BeginFinish",
		},
		{
			name:     "multiple thinking blocks",
			input:    "<thinking>First</thinking>middle<thinking>Second</thinking>",
			expected: "middle",
		},
		{
			name:     "truncated thinking block (no closing)",
			input:    "<thinking>Answer in progress",
			expected: "",
		},
		{
			name:     "truncated reasoning block",
			input:    "<reasoning>This model was cut off",
			expected: "",
		},
		{
			name:     "truncated thinking in middle",
			input:    "Before<thinking>Incomplete",
			expected: "Before",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := removeThinkingBlocks(tt.input)
			if result != tt.expected {
				t.Errorf("removeThinkingBlocks(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestRemovePreambleEchoes(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "empty string",
			input:    "",
			expected: "",
		},
		{
			name:     "no echo",
			input:    "Just a normal answer.",
			expected: "Just a normal answer.",
		},
		{
			name:     "here's answer echo",
			input:    "Here's the answer: Four",
			expected: "Four",
		},
		{
			name:     "here is response echo",
			input:    "Here is my response: Done",
			expected: "Done",
		},
		{
			name:     "the answer is echo",
			input:    "The answer is: 42",
			expected: "42",
		},
		{
			name:     "answer to your question echo",
			input:    "The answer to your question is: yes",
			expected: "yes",
		},
		{
			name:     "certainly echo",
			input:    "Certainly, here's the answer: Text",
			expected: "Text",
		},
		{
			name:     "sure echo",
			input:    "Sure, here is my answer: Done",
			expected: "Done",
		},
		{
			name:     "echo not at start (should not match)",
			input:    "Before Here's the answer: After",
			expected: "Before Here's the answer: After",
		},
		{
			name:     "echo without colon (should not match)",
			input:    "Here's the answer text",
			expected: "Here's the answer text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := removePreambleEchoes(tt.input)
			if result != tt.expected {
				t.Errorf("removePreambleEchoes(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestRemoveQuoteWrapping(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "empty string",
			input:    "",
			expected: "",
		},
		{
			name:     "single char",
			input:    "a",
			expected: "a",
		},
		{
			name:     "no quotes",
			input:    "Hello world",
			expected: "Hello world",
		},
		{
			name:     "double quotes",
			input:    "\"Hello world\"",
			expected: "Hello world",
		},
		{
			name:     "single quotes",
			input:    "'Hello world'",
			expected: "Hello world",
		},
		{
			name:     "guillemets",
			input:    "«Hello world»",
			expected: "Hello world",
		},
		{
			name:     "curly double quotes",
			input:    "“Hello world”",
			expected: "Hello world",
		},
		{
			name:     "curly single quotes",
			input:    "‘Hello world’",
			expected: "Hello world",
		},
		{
			name:     "unmatched quotes",
			input:    "\"Hello world'",
			expected: "\"Hello world'",
		},
		{
			name:     "only opening quote",
			input:    "\"Hello world",
			expected: "\"Hello world",
		},
		{
			name:     "quotes with leading/trailing whitespace",
			input:    "\"  Hello  \"",
			expected: "Hello",
		},
		{
			name:     "content with quotes inside",
			input:    "\"He said \"hello\"\"",
			expected: "He said \"hello\"",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := removeQuoteWrapping(tt.input)
			if result != tt.expected {
				t.Errorf("removeQuoteWrapping(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestClean(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "empty string",
			input:    "",
			expected: "",
		},
		{
			name:     "clean text",
			input:    "Just a normal answer.",
			expected: "Just a normal answer.",
		},
		{
			name:     "full cleanup pipeline",
			input:    "<thinking>Thinking</thinking>Here's the answer:\n\"Four\"",
			expected: "Four",
		},
		{
			name:     "thinking + echo + quotes",
			input:    "<reasoning>Reasoning</reasoning>Sure, here is my answer:\n\"Result\"",
			expected: "Result",
		},
		{
			name:     "truncated thinking at end",
			input:    "Text<thinking>Incomplete",
			expected: "Text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Clean(tt.input)
			if result != tt.expected {
				t.Errorf("Clean(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}
