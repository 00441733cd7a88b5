// Package ai scores and drafts with a local LLM, validating every model
// response against a JSON schema before trusting it.
package ai

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/qri-io/jsonschema"

	"github.com/jobhunterpro/jobhunter/internal/models"
	"github.com/jobhunterpro/jobhunter/pkg/ollama"
)

//go:embed schema/assessment_v1.json
var assessmentSchemaJSON []byte

// ErrValidatorUnavailable wraps any failure to obtain a usable assessment.
// Callers fall back to their own scoring; ingestion never blocks on the model.
var ErrValidatorUnavailable = errors.New("ai validator unavailable")

// generateClient is the slice of the Ollama client the engine needs.
type generateClient interface {
	Generate(ctx context.Context, model, prompt string) (string, error)
}

// Assessment is the structured response we expect from the LLM.
type Assessment struct {
	RelevanceScore float64  `json:"relevance_score"`
	IsTechJob      bool     `json:"is_tech_job"`
	IsLegitimate   bool     `json:"is_legitimate"`
	KeySkills      []string `json:"key_skills"`
	Reasoning      string   `json:"reasoning"`

	// Raw captures the original model output for auditing/logging.
	Raw string `json:"-"`
}

const assessPrompt = `You review job postings for a candidate searching for technology roles.
Assess the posting below and reply with ONLY a JSON object of this exact shape:
{"relevance_score": <number 0-100>, "is_tech_job": <bool>, "is_legitimate": <bool>, "key_skills": [<strings>], "reasoning": "<one sentence>"}

Candidate keywords: {{.Keywords}}

Posting title: {{.Title}}
Company: {{.Company}}
Location: {{.Location}}
Description: {{.Description}}`

// Validator asks the model for a second opinion on a posting's relevance and
// legitimacy. It implements the pipeline's Validator contract.
type Validator struct {
	client   generateClient
	model    string
	timeout  time.Duration
	keywords []string
	schema   *jsonschema.Schema
	logger   *slog.Logger
}

func NewValidator(client generateClient, model string, timeout time.Duration, keywords []string, logger *slog.Logger) (*Validator, error) {
	if client == nil {
		return nil, fmt.Errorf("generate client is required")
	}
	if model == "" {
		return nil, fmt.Errorf("model name is required")
	}
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	schema := &jsonschema.Schema{}
	if err := json.Unmarshal(assessmentSchemaJSON, schema); err != nil {
		return nil, fmt.Errorf("compile assessment schema: %w", err)
	}

	return &Validator{
		client:   client,
		model:    model,
		timeout:  timeout,
		keywords: keywords,
		schema:   schema,
		logger:   logger,
	}, nil
}

// Score asks the model to assess the posting and returns its relevance score.
// Illegitimate or non-tech postings come back as zero so the pipeline drops
// them at the relevance threshold.
func (v *Validator) Score(ctx context.Context, p *models.Posting) (float64, error) {
	a, err := v.Assess(ctx, p)
	if err != nil {
		return 0, err
	}
	if !a.IsLegitimate || !a.IsTechJob {
		return 0, nil
	}
	return a.RelevanceScore, nil
}

// Assess renders the prompt, sends it to the model, and parses the validated
// structured response.
func (v *Validator) Assess(ctx context.Context, p *models.Posting) (*Assessment, error) {
	prompt, err := ollama.RenderTemplate(assessPrompt, map[string]any{
		"Keywords":    strings.Join(v.keywords, ", "),
		"Title":       p.Title,
		"Company":     p.Company,
		"Location":    p.Location,
		"Description": p.Description,
	})
	if err != nil {
		return nil, fmt.Errorf("render prompt: %w", err)
	}

	ctxReq, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	out, err := v.client.Generate(ctxReq, v.model, prompt)
	if err != nil {
		return nil, fmt.Errorf("%w: generate: %v", ErrValidatorUnavailable, err)
	}

	a, err := ParseAssessment(out)
	if err != nil {
		v.logger.Warn("ai parse error", "err", err, "raw", out)
		return nil, fmt.Errorf("%w: %v", ErrValidatorUnavailable, err)
	}

	verrs, err := v.schema.ValidateBytes(ctxReq, []byte(extractJSON(out)))
	if err != nil {
		return nil, fmt.Errorf("%w: schema validate: %v", ErrValidatorUnavailable, err)
	}
	if len(verrs) > 0 {
		var sb strings.Builder
		for _, ve := range verrs {
			sb.WriteString(ve.Message)
			sb.WriteString("; ")
		}
		return nil, fmt.Errorf("%w: response does not match schema: %s", ErrValidatorUnavailable, sb.String())
	}

	if a.KeySkills == nil {
		a.KeySkills = []string{}
	}
	a.Raw = out
	return a, nil
}

// ParseAssessment tries to extract a JSON object from arbitrary model output
// and unmarshal it.
func ParseAssessment(s string) (*Assessment, error) {
	if strings.TrimSpace(s) == "" {
		return nil, errors.New("empty response")
	}

	j := extractJSON(s)
	if j == "" {
		return nil, errors.New("no JSON object found in response")
	}

	var a Assessment
	if err := json.Unmarshal([]byte(j), &a); err != nil {
		return nil, fmt.Errorf("json unmarshal: %w", err)
	}
	return &a, nil
}

// extractJSON returns the substring from the first '{' to the last '}' in the
// input. This is a pragmatic approach to handle model outputs that wrap JSON
// in text or markdown.
func extractJSON(s string) string {
	first := strings.Index(s, "{")
	last := strings.LastIndex(s, "}")
	if first == -1 || last == -1 || last < first {
		return ""
	}
	return s[first : last+1]
}
