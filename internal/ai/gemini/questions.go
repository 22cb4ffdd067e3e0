package gemini

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/terra-clan/interview-engine/internal/orchestrator"
)

//go:embed prompt.md
var promptTemplate string

//go:embed questions.schema.json
var questionsSchema string

var compiledSchema = mustCompileSchema(questionsSchema)

func mustCompileSchema(schema string) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schema))
	if err != nil {
		panic("gemini: invalid questions schema: " + err.Error())
	}
	return s
}

// jsonGenerator is the part of Generator the question generator needs
type jsonGenerator interface {
	GenerateJSON(ctx context.Context, prompt string) (string, error)
}

// QuestionGenerator turns a category request into interview questions
type QuestionGenerator struct {
	llm jsonGenerator
}

// NewQuestionGenerator creates a question generator backed by Gemini
func NewQuestionGenerator(llm jsonGenerator) *QuestionGenerator {
	return &QuestionGenerator{llm: llm}
}

type questionsResponse struct {
	Questions []orchestrator.GeneratedItem `json:"questions"`
}

// Generate asks the model for req.Count questions. Malformed or empty output is an error.
func (q *QuestionGenerator) Generate(ctx context.Context, req orchestrator.GenerationRequest) ([]orchestrator.GeneratedItem, error) {
	if req.Count <= 0 {
		return nil, fmt.Errorf("question count must be positive, got %d", req.Count)
	}

	raw, err := q.llm.GenerateJSON(ctx, buildPrompt(req))
	if err != nil {
		return nil, err
	}

	items, err := parseQuestions(raw)
	if err != nil {
		slog.Warn("unusable gemini response", "error", err, "category", req.Category.ID)
		return nil, err
	}

	return items, nil
}

func buildPrompt(req orchestrator.GenerationRequest) string {
	skills := strings.Join(req.RequiredSkills, ", ")
	if skills == "" {
		skills = "not specified"
	}
	description := strings.TrimSpace(req.JobDescription)
	if description == "" {
		description = "not provided"
	}
	language := strings.TrimSpace(req.Language)
	if language == "" {
		language = "en"
	}

	r := strings.NewReplacer(
		"{{COUNT}}", strconv.Itoa(req.Count),
		"{{CATEGORY_LABEL}}", req.Category.Label,
		"{{CATEGORY_DESCRIPTION}}", req.Category.Description,
		"{{JOB_TITLE}}", req.JobTitle,
		"{{LEVEL}}", string(req.Level),
		"{{SKILLS}}", skills,
		"{{DURATION}}", strconv.Itoa(req.Duration),
		"{{JOB_DESCRIPTION}}", description,
		"{{LANGUAGE}}", language,
	)
	return r.Replace(promptTemplate)
}

func parseQuestions(raw string) ([]orchestrator.GeneratedItem, error) {
	cleaned := extractJSON(raw)

	result, err := compiledSchema.Validate(gojsonschema.NewStringLoader(cleaned))
	if err != nil {
		return nil, fmt.Errorf("parse gemini response: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			msgs = append(msgs, desc.String())
		}
		return nil, fmt.Errorf("gemini response does not match schema: %s", strings.Join(msgs, "; "))
	}

	var resp questionsResponse
	if err := json.Unmarshal([]byte(cleaned), &resp); err != nil {
		return nil, fmt.Errorf("parse gemini response: %w", err)
	}

	items := make([]orchestrator.GeneratedItem, 0, len(resp.Questions))
	for _, item := range resp.Questions {
		if strings.TrimSpace(item.Text) == "" {
			continue
		}
		items = append(items, item)
	}
	if len(items) == 0 {
		return nil, errors.New("gemini returned no questions")
	}

	return items, nil
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}
