package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"google.golang.org/genai"
)

// LLMModelName is the GenAI model used for wardrobe image analysis.
type LLMModelName int32

const (
	Pro25 LLMModelName = iota
	Flash25
	FlashLite25
	Flash20
)

func (t LLMModelName) String() string {
	switch t {
	case Pro25:
		return "gemini-2.5-pro"
	case Flash25:
		return "gemini-2.5-flash"
	case FlashLite25:
		return "gemini-2.5-flash-lite-preview-06-17"
	case Flash20:
		return "gemini-2.0-flash"
	default:
		return "gemini-2.0-flash"
	}
}

const embeddingModelName = "text-embedding-004"

func floatPointer(f float32) *float32 {
	return &f
}

func Int32Pointer(i int32) *int32 {
	return &i
}

type LLMResponse struct {
	Response           string `json:"response"`
	InputTokenCount    int32  `json:"input_token_count"`
	Thoughts           string `json:"thoughts"`
	ThoughtsTokenCount int32  `json:"thoughts_token_count"`
	OutputTokenCount   int32  `json:"output_token_count"`
	TotalTokenCount    int32  `json:"total_token_count"`
	IsTest             bool   `json:"is_test"`
}

// ItemAttributesResponse is the JSON shape the model is forced into via the
// response schema.
type ItemAttributesResponse struct {
	Name           string   `json:"name"`
	Category       string   `json:"category"`
	ColorPrimary   string   `json:"color_primary"`
	ColorSecondary string   `json:"color_secondary"`
	Pattern        string   `json:"pattern"`
	Material       string   `json:"material"`
	Seasons        []string `json:"seasons"`
	Styles         []string `json:"styles"`
	Description    string   `json:"description"`
}

// AttributeExtractor analyzes a wardrobe item photo and embeds its textual
// description for similarity search.
type AttributeExtractor interface {
	ExtractAttributes(filePath string, modelName LLMModelName) (*LLMResponse, error)
	EmbedItemText(text string) ([]float64, error)
}

type ResponseWithThoughts struct {
	Thoughts string `json:"thoughts"`
	Text     string `json:"text"`
}

func tryUploadGoogleStorage(ctx context.Context, client *genai.Client, filePath string, newName *string) (*genai.File, error) {
	var genFile *genai.File
	var err error
	maxUploadTimes := 3
	for i := range maxUploadTimes {
		config := &genai.UploadFileConfig{}
		if newName != nil {
			config = &genai.UploadFileConfig{
				Name: *newName,
			}
		}

		genFile, err = client.Files.UploadFromPath(ctx, filePath, config)
		if err == nil {
			fmt.Println("File uploaded successfully:", filePath, "Attempt:", i+1)
			return genFile, nil
		}
		fmt.Printf("Error uploading file %s, attempt %d: %v\n", filePath, i+1, err)
	}
	return nil, fmt.Errorf("failed to upload file to google storage /after %d attempts: %s", maxUploadTimes, filePath)
}

func GetFirstCandidateTextWithThoughts(result *genai.GenerateContentResponse) (*ResponseWithThoughts, error) {
	var thinkingContent string
	for _, c := range result.Candidates {
		fmt.Println("Finish reason: ", c.FinishReason, " Finish message: ", c.FinishMessage)

		if len(c.SafetyRatings) > 0 {
			fmt.Println("[Safety] Safety ratings present:", len(c.SafetyRatings))
			for _, rating := range c.SafetyRatings {
				fmt.Println("[Safety] rating:", rating.Category, "Score:", rating.Probability, "Severity score:", rating.SeverityScore, " Blocked:", rating.Blocked)
				if rating.Blocked {
					return nil, fmt.Errorf("content violation: Couldn't analyze the item photo, because it contains %s,", rating.Category)
				}
			}
		}
		for _, part := range c.Content.Parts {
			if part.Thought && part.Text != "" {
				thinkingContent = part.Text
				continue
			}
		}
	}
	return &ResponseWithThoughts{
		Thoughts: thinkingContent,
		Text:     result.Text(),
	}, nil
}

var dashAlphaRule = regexp.MustCompile(`[^a-zA-Z0-9-]`)

type GeminiAttributeExtractor struct{}

func (GeminiAttributeExtractor) ExtractAttributes(filePath string, modelName LLMModelName) (*LLMResponse, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  os.Getenv("GOOGLE_API_KEY"),
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating genai client: %v", err)
	}

	fileName := filepath.Base(filePath)
	sanitizedFileName := dashAlphaRule.ReplaceAllString(strings.ReplaceAll(fileName, ".", "-"), "")
	genFile, err := tryUploadGoogleStorage(ctx, client, filePath, &sanitizedFileName)
	if err != nil {
		fmt.Println("Error uploading file:", filePath, err)
		return nil, fmt.Errorf("error uploading file to google storage %s: %v", filePath, err)
	}

	parts := []*genai.Part{
		{
			FileData: &genai.FileData{
				FileURI:  genFile.URI,
				MIMEType: genFile.MIMEType,
			},
		},
	}

	result, err := client.Models.GenerateContent(ctx, modelName.String(), []*genai.Content{{Parts: parts}}, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		CandidateCount:   1,
		MaxOutputTokens:  5000,
		Temperature:      floatPointer(0.4),
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{
				{Text: `You are an expert fashion cataloger. Analyze the single clothing item in the photo and return its attributes in JSON.
- "name": a short shopper-friendly item name.
- "category": exactly one of tops, bottoms, outer, shoes, dress, bag, hat, accessory.
- "color_primary": the dominant color as one plain lowercase word or two-word phrase.
- "color_secondary": the second most present color, or an empty string.
- "pattern": solid, striped, checked, floral, dotted or another single word, empty if unclear.
- "material": the most likely fabric or material, empty if unclear.
- "seasons": subset of ["spring", "summer", "autumn", "winter", "all_season"] the item suits.
- "styles": subset of ["casual", "formal", "business", "sport", "elegant"] the item suits.
- "description": one or two sentences describing the item for a catalog.
If the photo does not contain a clothing item, return an empty "category" and explain in "description".`},
			},
		},
		ResponseSchema: &genai.Schema{
			Type: "object",
			Properties: map[string]*genai.Schema{
				"name": {
					Type: "string",
				},
				"category": {
					Type: "string",
				},
				"color_primary": {
					Type: "string",
				},
				"color_secondary": {
					Type: "string",
				},
				"pattern": {
					Type: "string",
				},
				"material": {
					Type: "string",
				},
				"seasons": {
					Type:  "array",
					Items: &genai.Schema{Type: "string"},
				},
				"styles": {
					Type:  "array",
					Items: &genai.Schema{Type: "string"},
				},
				"description": {
					Type: "string",
				},
			},
			Required: []string{"name", "category", "color_primary", "seasons", "styles", "description"},
		},
	})
	if err != nil {
		fmt.Println("Error in GenerateContent:", err)
		return nil, fmt.Errorf("%v", err)
	}

	var inputTokenCount int32
	var thoughtsTokenCount int32
	var outputTokenCount int32
	var totalTokenCount int32
	if result.UsageMetadata != nil {
		inputTokenCount = result.UsageMetadata.PromptTokenCount
		thoughtsTokenCount = result.UsageMetadata.ThoughtsTokenCount
		outputTokenCount = result.UsageMetadata.CandidatesTokenCount
		totalTokenCount = result.UsageMetadata.TotalTokenCount
		fmt.Println("Input token count:", inputTokenCount)
		fmt.Println("Output token count:", outputTokenCount)
		fmt.Println("Thoughts token count:", thoughtsTokenCount)
		fmt.Println("Total token count:", totalTokenCount)
	} else {
		fmt.Println("UsageMetadata is nil!")
	}

	llmResponseText, err := GetFirstCandidateTextWithThoughts(result)
	if err != nil {
		fmt.Println("Error getting first candidate text: ", err)
		fmt.Println(result.Candidates)
		if result.PromptFeedback != nil {
			fmt.Println(result.PromptFeedback.BlockReason)
			fmt.Println(result.PromptFeedback.BlockReasonMessage)
			fmt.Println(result.PromptFeedback.SafetyRatings)
			return nil, fmt.Errorf("content violation: %s ", result.PromptFeedback.BlockReasonMessage)
		}
		return nil, fmt.Errorf("error getting first candidate text: %v", err)
	}
	return &LLMResponse{
		Response:           llmResponseText.Text,
		Thoughts:           llmResponseText.Thoughts,
		InputTokenCount:    inputTokenCount,
		ThoughtsTokenCount: thoughtsTokenCount,
		OutputTokenCount:   outputTokenCount,
		TotalTokenCount:    totalTokenCount,
		IsTest:             false,
	}, nil
}

// EmbedItemText embeds the catalog text of an item for similarity search.
func (GeminiAttributeExtractor) EmbedItemText(text string) ([]float64, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  os.Getenv("GOOGLE_API_KEY"),
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating genai client: %v", err)
	}

	result, err := client.Models.EmbedContent(ctx, embeddingModelName, genai.Text(text), &genai.EmbedContentConfig{
		OutputDimensionality: Int32Pointer(int32(EmbeddingDim())),
	})
	if err != nil {
		return nil, fmt.Errorf("error embedding item text: %v", err)
	}
	if len(result.Embeddings) == 0 || len(result.Embeddings[0].Values) == 0 {
		return nil, fmt.Errorf("empty embedding response")
	}
	values := make([]float64, len(result.Embeddings[0].Values))
	for i, v := range result.Embeddings[0].Values {
		values[i] = float64(v)
	}
	return values, nil
}
