package app

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"hotseat-quiz/internal/domain"
)

// DecodeDocument parses raw bytes and validates them as a bank export document.
// Parse failures wrap domain.ErrMalformedJSON; rule violations are *domain.ValidationError.
func DecodeDocument(data []byte) (domain.BankExportSchema, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return domain.BankExportSchema{}, fmt.Errorf("%w: %v", domain.ErrMalformedJSON, err)
	}
	if dec.More() {
		return domain.BankExportSchema{}, fmt.Errorf("%w: trailing data after document", domain.ErrMalformedJSON)
	}
	return ValidateDocument(doc)
}

// ValidateDocument checks a generically decoded JSON value field by field. The first failing rule wins.
// Numbers are expected as json.Number or float64.
func ValidateDocument(doc any) (domain.BankExportSchema, error) {
	obj, ok := doc.(map[string]any)
	if !ok || obj == nil {
		return domain.BankExportSchema{}, domain.Invalid("document", "document must be a JSON object")
	}
	if typ, _ := obj["type"].(string); typ != domain.ExportType {
		return domain.BankExportSchema{}, domain.Invalid("type", "file is not a quiz bank (type must be %q)", domain.ExportType)
	}
	name, ok := obj["name"].(string)
	if !ok || strings.TrimSpace(name) == "" {
		return domain.BankExportSchema{}, domain.Invalid("name", "bank name must not be empty")
	}
	rawQuestions, ok := obj["questions"].([]any)
	if !ok || len(rawQuestions) == 0 {
		return domain.BankExportSchema{}, domain.Invalid("questions", "bank must contain at least one question")
	}

	schema := domain.BankExportSchema{
		Version:   domain.ExportVersion,
		Type:      domain.ExportType,
		Name:      name,
		Questions: make([]domain.ExportQuestion, 0, len(rawQuestions)),
	}
	if v, ok := obj["version"].(string); ok && v != "" {
		schema.Version = v
	}

	for i, raw := range rawQuestions {
		q, ok := raw.(map[string]any)
		if !ok {
			return domain.BankExportSchema{}, domain.InvalidQuestion(i, "questions", "question must be an object")
		}
		text, ok := q["text"].(string)
		if !ok || strings.TrimSpace(text) == "" {
			return domain.BankExportSchema{}, domain.InvalidQuestion(i, "text", "question text is missing")
		}
		rawOptions, ok := q["options"].([]any)
		if !ok || len(rawOptions) < domain.MinOptions || len(rawOptions) > domain.MaxOptions {
			return domain.BankExportSchema{}, domain.InvalidQuestion(i, "options", "must have %d to %d options", domain.MinOptions, domain.MaxOptions)
		}
		options := make([]string, len(rawOptions))
		for j, o := range rawOptions {
			s, ok := o.(string)
			if !ok {
				return domain.BankExportSchema{}, domain.InvalidQuestion(i, "options", "option %d must be a string", j+1)
			}
			options[j] = s
		}
		idx, ok := integerValue(q["correctIndex"])
		if !ok || idx < 0 || idx >= len(options) {
			return domain.BankExportSchema{}, domain.InvalidQuestion(i, "correctIndex", "correct answer index is invalid")
		}
		schema.Questions = append(schema.Questions, domain.ExportQuestion{
			Text:         text,
			Options:      options,
			CorrectIndex: idx,
		})
	}
	return schema, nil
}

func integerValue(v any) (int, bool) {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i), true
		}
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return integerValue(f)
	case float64:
		if n != float64(int(n)) {
			return 0, false
		}
		return int(n), true
	case int:
		return n, true
	}
	return 0, false
}

// ToInternalBank converts a validated document into a custom bank without id or createdAt.
// Every question and option receives a fresh id.
func ToInternalBank(schema domain.BankExportSchema) domain.QuestionBank {
	questions := make([]domain.Question, len(schema.Questions))
	for i, eq := range schema.Questions {
		options := make([]domain.Option, len(eq.Options))
		for j, text := range eq.Options {
			options[j] = domain.Option{ID: uuid.NewString(), Text: text}
		}
		questions[i] = domain.Question{
			ID:              uuid.NewString(),
			Text:            eq.Text,
			Options:         options,
			CorrectOptionID: options[eq.CorrectIndex].ID,
		}
	}
	return domain.QuestionBank{
		Name:      strings.TrimSpace(schema.Name),
		Kind:      domain.BankCustom,
		Questions: questions,
	}
}

// ToExportSchema maps a bank to its interchange form, preserving option order.
func ToExportSchema(bank domain.QuestionBank) domain.BankExportSchema {
	questions := make([]domain.ExportQuestion, len(bank.Questions))
	for i, q := range bank.Questions {
		options := make([]string, len(q.Options))
		correct := -1
		for j, o := range q.Options {
			options[j] = o.Text
			if o.ID == q.CorrectOptionID {
				correct = j
			}
		}
		questions[i] = domain.ExportQuestion{Text: q.Text, Options: options, CorrectIndex: correct}
	}
	return domain.BankExportSchema{
		Version:   domain.ExportVersion,
		Type:      domain.ExportType,
		Name:      bank.Name,
		Questions: questions,
	}
}

// EncodeDocument renders a schema as indented JSON.
func EncodeDocument(schema domain.BankExportSchema) ([]byte, error) {
	return json.MarshalIndent(schema, "", "  ")
}

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	pathSeparator = regexp.MustCompile(`[/\\]+`)
)

// ExportFileName collapses whitespace runs in the bank name to hyphens and adds .json.
// Path separators become hyphens too, so the result is always a bare file name.
func ExportFileName(name string) string {
	name = pathSeparator.ReplaceAllString(name, "-")
	return whitespaceRun.ReplaceAllString(name, "-") + ".json"
}
