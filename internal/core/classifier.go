package core

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"playforge.com/cs-triage/internal/config"
	"playforge.com/cs-triage/internal/rules"
	"playforge.com/cs-triage/internal/store"
)

const (
	defaultClassifierModelName = "gemini-1.5-flash-latest"

	classifierSystemInstruction = "You are a customer-support inquiry classification expert. " +
		"Using the category rule list provided below, decide which category the incoming inquiry fits best. " +
		"Your answer must include the category id, the category name, your confidence, the reasoning behind the decision, " +
		"and the keywords you extracted from the inquiry text. " +
		"If no category fits, use category id 99 (unclassifiable)."
)

// Classifier maps one inquiry's free text to a category judgment. Every
// call must use a fresh, isolated request context: no conversation state
// may leak between inquiries.
type Classifier interface {
	Classify(ctx context.Context, inquiry store.Inquiry) (ClassificationResult, error)
}

// GeminiClassifier implements Classifier over the Gemini API. Isolation is
// by construction: each Classify call builds a new single-turn generation
// with no chat session and no history.
type GeminiClassifier struct {
	client  *genai.Client
	ruleSet *rules.RuleSet
}

func NewGeminiClassifier(ruleSet *rules.RuleSet) *GeminiClassifier {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(config.AppConfig.GeminiAPIKey))
	if err != nil {
		log.Fatalf("Failed to create GenAI client: %v", err)
	}

	return &GeminiClassifier{
		client:  client,
		ruleSet: ruleSet,
	}
}

func (c *GeminiClassifier) Close() {
	if c.client != nil {
		if err := c.client.Close(); err != nil {
			log.Printf("Error closing GenAI client: %v", err)
		} else {
			log.Println("GenAI client closed.")
		}
	}
}

// classificationPayload is the structured output requested from the model.
type classificationPayload struct {
	CategoryID   int      `json:"category_id"`
	CategoryName string   `json:"category_name"`
	Confidence   float64  `json:"confidence"`
	Reason       string   `json:"reason"`
	Keywords     []string `json:"keywords"`
}

var classificationSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"category_id":   {Type: genai.TypeInteger},
		"category_name": {Type: genai.TypeString},
		"confidence":    {Type: genai.TypeNumber},
		"reason":        {Type: genai.TypeString},
		"keywords":      {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
	},
	Required: []string{"category_id", "category_name", "confidence", "reason", "keywords"},
}

func (c *GeminiClassifier) Classify(ctx context.Context, inquiry store.Inquiry) (ClassificationResult, error) {
	// A fresh model per call: no session, no shared history between
	// inquiries.
	model := c.client.GenerativeModel(defaultClassifierModelName)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(c.systemContext())},
	}

	temp := float32(0.1)
	model.GenerationConfig = genai.GenerationConfig{
		Temperature:      &temp,
		ResponseMIMEType: "application/json",
		ResponseSchema:   classificationSchema,
	}

	prompt := fmt.Sprintf("Inquiry ID: %d\nUser: %s\nContent: %s", inquiry.ID, inquiry.UserID, inquiry.Description)

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return ClassificationResult{}, fmt.Errorf("gemini classification request failed: %w", err)
	}

	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return ClassificationResult{}, fmt.Errorf("gemini returned no candidates for inquiry %d", inquiry.ID)
	}

	var raw strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			raw.WriteString(string(txt))
		} else {
			log.Printf("Gemini response part was not text: %T", part)
		}
	}

	var payload classificationPayload
	if err := json.Unmarshal([]byte(raw.String()), &payload); err != nil {
		return ClassificationResult{}, fmt.Errorf("malformed classification output: %w", err)
	}

	if payload.Confidence < 0 {
		payload.Confidence = 0
	}
	if payload.Confidence > 1 {
		payload.Confidence = 1
	}

	return ClassificationResult{
		InquiryID:          inquiry.ID,
		UserID:             inquiry.UserID,
		InquiryDescription: inquiry.Description,
		CategoryID:         payload.CategoryID,
		CategoryName:       payload.CategoryName,
		Confidence:         payload.Confidence,
		Reason:             payload.Reason,
		Keywords:           payload.Keywords,
	}, nil
}

// systemContext renders the full category rule list into the system
// instruction, so classification never depends on any prior inquiry.
func (c *GeminiClassifier) systemContext() string {
	var b strings.Builder
	b.WriteString(classifierSystemInstruction)
	b.WriteString("\n\n[Category rule list]\n")
	for _, rule := range c.ruleSet.All() {
		fmt.Fprintf(&b, "[Category ID: %d]\nName: %s / %s\nDescription: %s\nKey Points: %s\n---\n",
			rule.ID, rule.NameLocal, rule.NameEn, rule.Description, rule.HandlingSummary)
	}
	return b.String()
}
