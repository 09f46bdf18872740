package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tgo/sage/internal/pkg/errs"
)

func TestParseQuizOutputExtractsArrayFromProse(t *testing.T) {
	raw := "Sure! Here is your quiz:\n" +
		`[{"question":"What is Go?","options":["A language","A fish","A game","A planet"],"answer":"A language"}]` +
		"\nLet me know if you need more."

	quiz, err := parseQuizOutput(raw)
	require.NoError(t, err)
	require.Len(t, quiz, 1)
	assert.Equal(t, "What is Go?", quiz[0].Question)
	assert.Len(t, quiz[0].Options, 4)
	assert.Equal(t, "A language", quiz[0].Answer)
}

func TestParseQuizOutputNoArray(t *testing.T) {
	_, err := parseQuizOutput("I cannot create a quiz from this content.")
	require.Error(t, err)

	e, ok := errs.As(err)
	require.True(t, ok)
	assert.Equal(t, errs.CodeMalformedOutput, e.Code)
}

func TestParseQuizOutputInvalidJSON(t *testing.T) {
	_, err := parseQuizOutput(`[{"question": "unterminated`)
	require.Error(t, err)

	e, ok := errs.As(err)
	require.True(t, ok)
	assert.Equal(t, errs.CodeMalformedOutput, e.Code)
}

func TestBuildAnswerPromptWithContext(t *testing.T) {
	prompt := buildAnswerPrompt([]string{"alpha facts", "beta facts"}, "what is alpha?")

	assert.Contains(t, prompt, "alpha facts\n\nbeta facts")
	assert.Contains(t, prompt, "Question: what is alpha?")
	assert.Contains(t, prompt, "I could not find the information")
}

func TestBuildAnswerPromptWithNoChunks(t *testing.T) {
	// With zero retrieved chunks the question still goes to the model;
	// the instructions force an "insufficient information" style answer
	// instead of an error.
	prompt := buildAnswerPrompt(nil, "anything?")

	assert.Contains(t, prompt, "<context>\n\n</context>")
	assert.Contains(t, prompt, "I could not find the information")
}
