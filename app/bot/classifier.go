package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-pkgz/repeater/v2"
	tokenizer "github.com/sandwich-go/gpt3-encoder"
	"github.com/sashabaranov/go-openai"

	"github.com/umnov/tg-neuromod/app/storage"
)

//go:generate moq --out mocks/openai_client.go --pkg mocks --skip-ensure . openAIClient:OpenAIClientMock
//go:generate moq --out mocks/examples_reader.go --pkg mocks --skip-ensure . examplesReader:ExamplesReaderMock

// ErrClassifierUnavailable reported when the model gave no parsable verdict
// after all attempts. The caller decides what to do with an unchecked message.
var ErrClassifierUnavailable = errors.New("spam classifier unavailable")

// openAIClient is a subset of the openai client used by the classifier
type openAIClient interface {
	CreateChatCompletion(context.Context, openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// examplesReader provides labeled examples for the few-shot prompt
type examplesReader interface {
	Read(ctx context.Context, adminID int64) ([]storage.Example, error)
}

// ClassifierConfig contains parameters for Classifier
type ClassifierConfig struct {
	Model             string
	MaxTokensResponse int // hard limit for the number of tokens in the response
	MaxTokensRequest  int // max request length in tokens
	MaxSymbolsRequest int // fallback max request length in symbols if tokenizer failed
	Attempts          int // how many times to ask the model before giving up
	RetryDelay        time.Duration
	Temperature       float32
}

// Classifier asks an LLM whether a message is spam and extracts a confidence
// score from the strictly formatted answer. Positive score means spam with the
// given confidence percent, negative means not spam.
type Classifier struct {
	client   openAIClient
	examples examplesReader
	params   ClassifierConfig
}

// the model is instructed to answer in a fixed single-line format, anything
// else fails the extraction and triggers a retry
const basePrompt = `Ты - классификатор спама. Пользователь подает тебе сообщения с текстом, именем и биографией (опционально),
а ты должен определить, спам это или нет, и дать оценку своей уверенности в процентах.

ФОРМАТ:
<начало ответа>
да ХХХ%
<конец ответа>

ИЛИ

<начало ответа>
нет ХХХ%
<конец ответа>

где ХХХ% - уровень твоей уверенности от 0 до 100.

Больше ничего к ответу не добавляй.

ПРИМЕРЫ:
`

// ClassifyRequest is a single message to check with optional sender details
type ClassifyRequest struct {
	Text    string
	Name    string
	Bio     string
	AdminID int64 // examples scope, 0 picks the shared set only
}

// NewClassifier makes a classifier with the given client and examples source
func NewClassifier(client openAIClient, examples examplesReader, params ClassifierConfig) *Classifier {
	if params.Model == "" {
		params.Model = openai.GPT4o
	}
	if params.MaxTokensResponse == 0 {
		params.MaxTokensResponse = 64
	}
	if params.MaxTokensRequest == 0 {
		params.MaxTokensRequest = 3000
	}
	if params.MaxSymbolsRequest == 0 {
		params.MaxSymbolsRequest = 12000
	}
	if params.Attempts == 0 {
		params.Attempts = 3
	}
	if params.RetryDelay == 0 {
		params.RetryDelay = 500 * time.Millisecond
	}
	return &Classifier{client: client, examples: examples, params: params}
}

// Check returns the spam score for the message, in [-100, 100]. The request
// is retried up to the configured number of attempts on transport errors and
// on answers that don't follow the format, then ErrClassifierUnavailable is
// returned wrapped with the last failure.
func (c *Classifier) Check(ctx context.Context, req ClassifyRequest) (int, error) {
	if c.client == nil {
		return 0, fmt.Errorf("%w: no client configured", ErrClassifierUnavailable)
	}

	prompt, err := c.systemPrompt(ctx, req.AdminID)
	if err != nil {
		return 0, fmt.Errorf("failed to build system prompt: %w", err)
	}

	userMsg := "\n" + renderRequest(req.Text, req.Name, req.Bio) + "\n<ответ>\n"

	score := 0
	worker := func() error {
		resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       c.params.Model,
			MaxTokens:   c.params.MaxTokensResponse,
			Temperature: c.params.Temperature,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: prompt},
				{Role: openai.ChatMessageRoleUser, Content: c.reduceRequest(userMsg)},
			},
		})
		if err != nil {
			return fmt.Errorf("chat completion request failed: %w", err)
		}
		if len(resp.Choices) == 0 {
			return fmt.Errorf("no choices in response")
		}
		score, err = extractScore(resp.Choices[0].Message.Content)
		return err
	}

	if err := repeater.NewFixed(c.params.Attempts, c.params.RetryDelay).Do(ctx, worker); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrClassifierUnavailable, err)
	}
	log.Printf("[DEBUG] classifier score %d for %q", score, truncate(req.Text, 128))
	return score, nil
}

// systemPrompt renders the base instruction followed by all examples in scope,
// each as a request block with the expected answer.
func (c *Classifier) systemPrompt(ctx context.Context, adminID int64) (string, error) {
	examples, err := c.examples.Read(ctx, adminID)
	if err != nil {
		return "", fmt.Errorf("failed to read examples: %w", err)
	}

	var sb strings.Builder
	sb.WriteString(basePrompt)
	for _, ex := range examples {
		verdict := "да"
		if ex.Score < 0 {
			verdict = "нет"
		}
		confidence := ex.Score
		if confidence < 0 {
			confidence = -confidence
		}
		sb.WriteString("\n")
		sb.WriteString(renderRequest(ex.Text, ex.Name, ex.Bio))
		sb.WriteString(fmt.Sprintf("\n<ответ>\n%s %d%%\n</ответ>\n", verdict, confidence))
	}
	return sb.String(), nil
}

// renderRequest formats a message with optional sender details as a tagged block
func renderRequest(text, name, bio string) string {
	var sb strings.Builder
	sb.WriteString("<запрос>\n<текст сообщения>\n")
	sb.WriteString(text)
	sb.WriteString("\n</текст сообщения>\n")
	if name != "" {
		sb.WriteString("<имя>" + name + "</имя>\n")
	}
	if bio != "" {
		sb.WriteString("<биография>" + bio + "</биография>\n")
	}
	sb.WriteString("</запрос>")
	return sb.String()
}

// reduceRequest cuts the request to the token limit with the tokenizer and
// falls back to a symbol cut if the tokenizer fails
func (c *Classifier) reduceRequest(text string) string {
	bySymbols := func(text string) string {
		if len(text) <= c.params.MaxSymbolsRequest {
			return text
		}
		return text[:c.params.MaxSymbolsRequest]
	}

	encoder, err := tokenizer.NewEncoder()
	if err != nil {
		return bySymbols(text)
	}
	tokens, err := encoder.Encode(text)
	if err != nil {
		return bySymbols(text)
	}
	if len(tokens) <= c.params.MaxTokensRequest {
		return text
	}
	return encoder.Decode(tokens[:c.params.MaxTokensRequest])
}

var (
	betweenTagsRe = regexp.MustCompile(`(?is)<[^>]+>(.*?)<[^>]+>`)
	beforeCloseRe = regexp.MustCompile(`(?is)^(.*)<[^>]+>`)
	whitespacesRe = regexp.MustCompile(`\s+`)
	percentCutsRe = regexp.MustCompile(`%+$`)
)

// extractScore parses the model answer into a signed score. The answer may be
// wrapped in arbitrary tags or miss the opening tag, the verdict word and the
// percent are what matters. The affirmative verdict is checked first.
func extractScore(response string) (int, error) {
	answer := response
	if m := betweenTagsRe.FindStringSubmatch(response); m != nil {
		answer = m[1]
	} else if m := beforeCloseRe.FindStringSubmatch(response); m != nil {
		answer = m[1]
	}
	parts := whitespacesRe.Split(strings.ToLower(strings.TrimSpace(answer)), -1)
	if len(parts) < 2 {
		return 0, fmt.Errorf("failed to extract spam score from response: %q", response)
	}

	val, err := strconv.Atoi(percentCutsRe.ReplaceAllString(parts[1], ""))
	if err != nil || val < 0 || val > 100 {
		return 0, fmt.Errorf("failed to extract spam score from response: %q", response)
	}

	switch parts[0] {
	case "да":
		return val, nil
	case "нет":
		return -val, nil
	}
	return 0, fmt.Errorf("failed to extract spam score from response: %q", response)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
