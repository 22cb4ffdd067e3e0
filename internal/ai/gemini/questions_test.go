package gemini

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/terra-clan/interview-engine/internal/models"
	"github.com/terra-clan/interview-engine/internal/orchestrator"
)

type stubModels struct {
	model  string
	prompt string
	config *genai.GenerateContentConfig
	resp   *genai.GenerateContentResponse
	err    error
}

func (s *stubModels) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	s.model = model
	s.config = config
	if len(contents) > 0 && len(contents[0].Parts) > 0 {
		s.prompt = contents[0].Parts[0].Text
	}
	return s.resp, s.err
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: text}}},
		}},
	}
}

func sampleRequest() orchestrator.GenerationRequest {
	return orchestrator.GenerationRequest{
		JobTitle:       "Site reliability engineer",
		RequiredSkills: []string{"Kubernetes", "Go"},
		Level:          models.LevelSenior,
		Category:       models.TestCategory{ID: "technical", Label: "Technical skills", Description: "Role knowledge"},
		Language:       "de",
		Count:          2,
		Duration:       30,
	}
}

func TestQuestionGeneratorParsesFencedJSON(t *testing.T) {
	stub := &stubModels{resp: textResponse("```json\n" +
		`{"questions":[{"text":"What is a pod?","model_answer":"Smallest unit","skill_measured":"Kubernetes"},` +
		`{"text":"Explain channels","model_answer":"Typed pipes","skill_measured":"Go"}]}` +
		"\n```")}
	gen := NewQuestionGenerator(&Generator{models: stub, modelName: "test-model"})

	items, err := gen.Generate(context.Background(), sampleRequest())
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "What is a pod?", items[0].Text)
	assert.Equal(t, "Go", items[1].SkillMeasured)

	assert.Equal(t, "test-model", stub.model)
	require.NotNil(t, stub.config)
	assert.Equal(t, "application/json", stub.config.ResponseMIMEType)
	assert.Contains(t, stub.prompt, "exactly 2 interview questions")
	assert.Contains(t, stub.prompt, "Kubernetes, Go")
	assert.Contains(t, stub.prompt, "language: de")
	assert.NotContains(t, stub.prompt, "{{")
}

func TestQuestionGeneratorRejectsMalformedOutput(t *testing.T) {
	cases := map[string]string{
		"not json":        "Sure! Here are your questions.",
		"missing field":   `{"questions":[{"text":"q"}]}`,
		"empty list":      `{"questions":[]}`,
		"only blank text": `{"questions":[{"text":" ","model_answer":"","skill_measured":""}]}`,
		"skill too long":  `{"questions":[{"text":"q","model_answer":"a","skill_measured":"` + strings.Repeat("s", 256) + `"}]}`,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			gen := NewQuestionGenerator(&Generator{models: &stubModels{resp: textResponse(body)}, modelName: "m"})
			_, err := gen.Generate(context.Background(), sampleRequest())
			require.Error(t, err)
		})
	}
}

func TestQuestionGeneratorPropagatesAPIError(t *testing.T) {
	stub := &stubModels{err: errors.New("quota exceeded")}
	gen := NewQuestionGenerator(&Generator{models: stub, modelName: "m"})

	_, err := gen.Generate(context.Background(), sampleRequest())
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "quota exceeded"))
}

func TestGeneratorEmptyResponse(t *testing.T) {
	g := &Generator{models: &stubModels{resp: &genai.GenerateContentResponse{}}, modelName: "m"}
	_, err := g.GenerateJSON(context.Background(), "prompt")
	require.Error(t, err)

	_, err = NewGenerator(context.Background(), " ", "")
	require.Error(t, err)
}

func TestExtractJSON(t *testing.T) {
	assert.Equal(t, `{"a":1}`, extractJSON("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, extractJSON("  {\"a\":1} "))
}
