package ai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jobhunterpro/jobhunter/internal/config"
	"github.com/jobhunterpro/jobhunter/internal/models"
	"github.com/jobhunterpro/jobhunter/pkg/ollama"
)

const coverLetterPrompt = `Write a concise, professional cover letter (under 250 words) for this job.
Do not invent experience the candidate does not list. Plain text only, no placeholders.

Candidate: {{.Name}}
Skills: {{.Skills}}
Certifications: {{.Certifications}}
Education: {{.Education}}
Notable project: {{.KeyProject}}

Job title: {{.Title}}
Company: {{.Company}}
Location: {{.Location}}
Description: {{.Description}}`

const fallbackLetter = `Dear Hiring Team at {{.Company}},

I am writing to apply for the {{.Title}} position. My background covers {{.Skills}}, and I hold the following certifications: {{.Certifications}}.

{{if .KeyProject}}A project I am particularly proud of: {{.KeyProject}}.

{{end}}I am confident I can contribute to your team from day one and would welcome the chance to discuss the role.

Kind regards,
{{.Name}}
{{.Email}}{{if .Phone}} | {{.Phone}}{{end}}{{if .GitHub}} | {{.GitHub}}{{end}}`

// LetterWriter drafts cover letters. The model is optional: when it is absent
// or fails, a deterministic template letter is produced instead, so an apply
// request always yields a letter.
type LetterWriter struct {
	client    generateClient
	model     string
	timeout   time.Duration
	candidate config.CandidateProfile
	logger    *slog.Logger
}

// NewLetterWriter builds a writer. client may be nil to force template-only
// letters.
func NewLetterWriter(client generateClient, model string, timeout time.Duration, candidate config.CandidateProfile, logger *slog.Logger) *LetterWriter {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LetterWriter{client: client, model: model, timeout: timeout, candidate: candidate, logger: logger}
}

// Draft returns a cover letter for the posting, preferring the model and
// falling back to the template.
func (w *LetterWriter) Draft(ctx context.Context, p *models.Posting) string {
	if w.client != nil && w.model != "" {
		ctxReq, cancel := context.WithTimeout(ctx, w.timeout)
		letter, err := w.generate(ctxReq, p)
		cancel()
		if err == nil {
			return letter
		}
		w.logger.Warn("cover letter generation failed, using template", "err", err)
	}
	return w.Template(p)
}

func (w *LetterWriter) generate(ctx context.Context, p *models.Posting) (string, error) {
	prompt, err := ollama.RenderTemplate(coverLetterPrompt, w.letterData(p))
	if err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}

	out, err := w.client.Generate(ctx, w.model, prompt)
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}

	letter := strings.TrimSpace(out)
	if letter == "" {
		return "", fmt.Errorf("model returned an empty letter")
	}
	return letter, nil
}

// Template renders the deterministic fallback letter.
func (w *LetterWriter) Template(p *models.Posting) string {
	out, err := ollama.RenderTemplate(fallbackLetter, w.letterData(p))
	if err != nil {
		// fallbackLetter is a constant template
		w.logger.Error("fallback letter render failed", "err", err)
		return fmt.Sprintf("Dear Hiring Team,\n\nI am writing to apply for the %s position.\n\nKind regards,\n%s", p.Title, w.candidate.Name)
	}
	return out
}

func (w *LetterWriter) letterData(p *models.Posting) map[string]any {
	company := p.Company
	if company == "" {
		company = "your company"
	}
	return map[string]any{
		"Name":           w.candidate.Name,
		"Email":          w.candidate.Email,
		"Phone":          w.candidate.Phone,
		"GitHub":         w.candidate.GitHub,
		"Skills":         strings.Join(w.candidate.Skills, ", "),
		"Certifications": strings.Join(w.candidate.Certifications, ", "),
		"Education":      w.candidate.Education,
		"KeyProject":     w.candidate.KeyProject,
		"Title":          p.Title,
		"Company":        company,
		"Location":       p.Location,
		"Description":    p.Description,
	}
}
