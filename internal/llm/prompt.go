package llm

import (
	"fmt"
	"strings"

	"github.com/sortd/sortd/internal/model"
)

const manifestSystemPrompt = `You are a file organization assistant. You triage files from their metadata alone. You MUST respond with ONLY a valid JSON array. Do not include any explanatory text, markdown formatting, or commentary before or after the JSON.`

const fileSystemPrompt = `You are a file organization assistant. You classify a single file into a category path. You MUST respond with ONLY a valid JSON object. Start your response directly with { and end with }.`

// buildManifestPrompt renders the phase-one triage prompt: metadata
// for every file, the existing categories, and the taxonomy bounds.
func buildManifestPrompt(req ManifestRequest) string {
	var b strings.Builder

	b.WriteString("Triage the following files. For each file return one JSON object in an array:\n")
	b.WriteString(`{"id": "<file id>", "action": "direct", "category": "<path>", "summary": "<one line>", "tags": ["..."], "confidence": 0.0-1.0}` + "\n")
	b.WriteString("or, when metadata alone is not enough:\n")
	b.WriteString(`{"id": "<file id>", "action": "need_info", "requestType": "text_preview|image_vision|full_text|pdf_document"}` + "\n\n")

	writeTaxonomyRules(&b, req.Categories, req)

	b.WriteString("\nFiles:\n")
	for _, f := range req.Files {
		fmt.Fprintf(&b, "- id=%s name=%q size=%d mimeType=%s\n", f.ID, f.Name, f.Size, f.MimeType)
	}
	return b.String()
}

// buildFilePrompt renders the phase-two single-file prompt with the
// fetched content (or the metadata-only fallback description).
func buildFilePrompt(req FileRequest) string {
	var b strings.Builder

	b.WriteString("Classify this file. Return one JSON object:\n")
	b.WriteString(`{"category": "<path>", "summary": "<one line>", "tags": ["..."], "reasoning": "<short>", "confidence": 0.0-1.0}` + "\n\n")

	writeTaxonomyRules(&b, req.Categories, ManifestRequest{Config: req.Config})

	f := req.File
	fmt.Fprintf(&b, "\nFile: name=%q size=%d mimeType=%s\n", f.Name, f.Size, f.MimeType)

	switch {
	case req.TextContent != "":
		fmt.Fprintf(&b, "\nContent preview:\n---\n%s\n---\n", req.TextContent)
	case req.Description != "":
		fmt.Fprintf(&b, "\n%s\n", req.Description)
	}
	return b.String()
}

func writeTaxonomyRules(b *strings.Builder, categories []string, req ManifestRequest) {
	cfg := req.Config
	fmt.Fprintf(b, "Category paths use / as separator, at most %d levels deep.\n", cfg.MaxDepth)

	if len(categories) > 0 {
		b.WriteString("Existing categories:\n")
		for _, c := range categories {
			fmt.Fprintf(b, "- %s\n", c)
		}
	}

	if cfg.Mode == model.ModeStrict {
		b.WriteString("Use ONLY existing categories; never invent new ones.\n")
	} else {
		fmt.Fprintf(b, "Prefer existing categories; new ones are allowed, at most %d siblings per parent.\n", cfg.MaxChildren)
	}

	if len(cfg.CategoryVocabulary) > 0 {
		fmt.Fprintf(b, "Top-level categories should come from: %s.\n", strings.Join(cfg.CategoryVocabulary, ", "))
	}
	if cfg.TargetCategoryCount > 0 {
		fmt.Fprintf(b, "Aim for roughly %d categories overall.\n", cfg.TargetCategoryCount)
	}
	if cfg.CategoryLanguage != "" {
		fmt.Fprintf(b, "Write category names in %s.\n", cfg.CategoryLanguage)
	}
}
