package llm

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// NormalizeAnalysis parses a raw provider response into an Analysis.
// Providers are told to return bare JSON but routinely wrap it in
// markdown fences, stray arrays, or variant field names; all of that
// is tolerated here so call sites never see the mess.
func NormalizeAnalysis(raw []byte) (Analysis, error) {
	content := cleanMarkdownWrapper(string(raw))

	var node any
	if err := json.Unmarshal([]byte(content), &node); err != nil {
		return Analysis{}, fmt.Errorf("failed to parse analysis JSON: %w", err)
	}
	node = unwrapArray(node)

	obj, ok := node.(map[string]any)
	if !ok {
		return Analysis{}, fmt.Errorf("analysis response is not a JSON object")
	}

	a := analysisFromObject(obj)
	if a.Category == "" {
		return Analysis{}, fmt.Errorf("no category found in analysis response")
	}
	return a, nil
}

// NormalizeManifest parses a raw manifest response into per-file
// decisions. Accepts a bare array or an object wrapping the array
// under files/results/decisions.
func NormalizeManifest(raw []byte) ([]ManifestDecision, error) {
	content := cleanMarkdownWrapper(string(raw))

	var node any
	if err := json.Unmarshal([]byte(content), &node); err != nil {
		return nil, fmt.Errorf("failed to parse manifest JSON: %w", err)
	}

	items, ok := node.([]any)
	if !ok {
		obj, isObj := node.(map[string]any)
		if !isObj {
			return nil, fmt.Errorf("manifest response is neither array nor object")
		}
		for _, key := range []string{"files", "results", "decisions", "items"} {
			if arr, found := obj[key].([]any); found {
				items = arr
				break
			}
		}
		if items == nil {
			return nil, fmt.Errorf("manifest response contains no decision array")
		}
	}

	decisions := make([]ManifestDecision, 0, len(items))
	for _, item := range items {
		obj, isObj := item.(map[string]any)
		if !isObj {
			continue
		}
		d := decisionFromObject(obj)
		if d.FileID == "" {
			continue
		}
		decisions = append(decisions, d)
	}

	if len(decisions) == 0 {
		return nil, fmt.Errorf("no valid decisions found in manifest response")
	}
	return decisions, nil
}

func decisionFromObject(obj map[string]any) ManifestDecision {
	d := ManifestDecision{
		FileID: stringField(obj, "id", "fileId", "file_id"),
	}

	action := strings.ToLower(stringField(obj, "action", "decision", "kind", "type"))
	switch {
	case strings.Contains(action, "need"):
		d.Kind = DecisionNeedInfo
	case action == "direct" || strings.Contains(action, "classif"):
		d.Kind = DecisionDirect
	default:
		// No usable action field: infer from the presence of a category.
		if stringField(obj, "category", "classification", "targetPath", "path") != "" {
			d.Kind = DecisionDirect
		} else {
			d.Kind = DecisionNeedInfo
		}
	}

	if d.Kind == DecisionNeedInfo {
		d.RequestType = normalizeRequestType(stringField(obj, "requestType", "request_type", "need"))
		return d
	}

	a := analysisFromObject(obj)
	d.Analysis = &a
	return d
}

// analysisFromObject extracts proposal fields, accepting the common
// field-name variants providers drift between.
func analysisFromObject(obj map[string]any) Analysis {
	a := Analysis{
		Category:   stringField(obj, "category", "classification", "targetPath", "target_path", "path"),
		Summary:    stringField(obj, "summary", "description"),
		Reasoning:  stringField(obj, "reasoning", "rationale"),
		Confidence: confidenceField(obj),
	}

	if tags, ok := obj["tags"].([]any); ok {
		for _, t := range tags {
			if s, isStr := t.(string); isStr && s != "" {
				a.Tags = append(a.Tags, s)
			}
		}
	}
	return a
}

func normalizeRequestType(s string) RequestType {
	switch RequestType(strings.ToLower(strings.TrimSpace(s))) {
	case RequestImageVision, "vision", "image":
		return RequestImageVision
	case RequestFullText:
		return RequestFullText
	case RequestPDFDocument, "pdf":
		return RequestPDFDocument
	default:
		return RequestTextPreview
	}
}

func stringField(obj map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := obj[key]; ok {
			if s, isStr := v.(string); isStr && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}

// confidenceField reads confidence as a number or numeric string and
// clamps it to [0,1]. Missing or unparseable values score 0.
func confidenceField(obj map[string]any) float64 {
	var score float64
	switch v := obj["confidence"].(type) {
	case float64:
		score = v
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(v), "%"), 64)
		if err != nil {
			return 0
		}
		score = parsed
		if strings.HasSuffix(strings.TrimSpace(v), "%") {
			score /= 100
		}
	default:
		return 0
	}

	if score > 1 && score <= 100 {
		score /= 100
	}
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// unwrapArray unwraps a single-element array to its element; a
// multi-element array stays as-is for the caller to reject.
func unwrapArray(node any) any {
	if arr, ok := node.([]any); ok && len(arr) == 1 {
		return arr[0]
	}
	return node
}

// cleanMarkdownWrapper strips markdown code fences and any prose
// before the first brace or bracket.
func cleanMarkdownWrapper(content string) string {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```") {
		if idx := strings.Index(content, "\n"); idx >= 0 {
			content = content[idx+1:]
		}
		if idx := strings.LastIndex(content, "```"); idx >= 0 {
			content = content[:idx]
		}
		content = strings.TrimSpace(content)
	}

	// Some providers prepend prose despite instructions.
	objStart := strings.IndexByte(content, '{')
	arrStart := strings.IndexByte(content, '[')
	start := objStart
	if start < 0 || (arrStart >= 0 && arrStart < start) {
		start = arrStart
	}
	if start > 0 {
		content = content[start:]
	}
	return content
}
