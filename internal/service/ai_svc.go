package service

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/tgo/sage/internal/pkg/errs"
)

// TextGenerator produces a completion for a single prompt. The production
// implementation is AIService; tests substitute fakes.
type TextGenerator interface {
	Invoke(ctx context.Context, prompt string) (string, error)
}

// AIService wraps one OpenAI-compatible chat model shared by answering,
// summarization and quiz generation.
type AIService struct {
	chatModel model.BaseChatModel
}

func NewAIService(ctx context.Context, apiKey, baseURL, modelName string) (*AIService, error) {
	chatModel, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:  apiKey,
		Model:   modelName,
		BaseURL: baseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}
	return &AIService{chatModel: chatModel}, nil
}

func (s *AIService) Invoke(ctx context.Context, prompt string) (string, error) {
	resp, err := s.chatModel.Generate(ctx, []*schema.Message{
		schema.UserMessage(prompt),
	})
	if err != nil {
		return "", translateModelError(err)
	}
	return resp.Content, nil
}

var retryAfterRe = regexp.MustCompile(`(?i)retry[ -]?(?:after|in)?[^0-9]*(\d+)`)

// translateModelError maps provider throttling to a rate-limit error that
// carries a retry-after duration. Anything else passes through untouched.
func translateModelError(err error) error {
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "429") ||
		strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "too many requests") ||
		strings.Contains(msg, "quota") {
		retryAfter := 30
		if m := retryAfterRe.FindStringSubmatch(err.Error()); m != nil {
			if secs, perr := strconv.Atoi(m[1]); perr == nil && secs > 0 {
				retryAfter = secs
			}
		}
		return errs.RateLimit(retryAfter)
	}
	return err
}
