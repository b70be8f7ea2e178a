// Package intent implements the IntentService on the OpenAI chat completions
// API. Every call runs under the caller's context; callers keep deterministic
// fallbacks for timeouts and transport failures.
package intent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"clustercart/config"
	"clustercart/internal/domain/entity"
	"clustercart/internal/domain/service"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

const (
	chatCompletionsURL = "https://api.openai.com/v1/chat/completions"
	defaultModel       = "gpt-4o-mini"
	noneLabel          = "NONE"
)

// Params defines the dependencies for the OpenAI intent service.
type Params struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

type openAIService struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

// NewOpenAIService is the constructor for openAIService.
func NewOpenAIService(params Params) (service.IntentService, error) {
	cfg := params.Config.OpenAI
	if cfg == nil || cfg.APIKey == "" {
		return nil, errors.New("openai api key is required")
	}

	model := cfg.Model
	if model == "" {
		model = defaultModel
	}

	return &openAIService{
		apiKey:  cfg.APIKey,
		model:   model,
		baseURL: chatCompletionsURL,
		client:  &http.Client{},
		logger:  params.Logger,
	}, nil
}

// ClassifyIntent maps the message onto the intent vocabulary.
func (s *openAIService) ClassifyIntent(ctx context.Context, text string, memberCtx service.MemberContext) (entity.Intent, error) {
	system := `You classify WhatsApp messages for a group-buying grocery bot.
Reply with exactly one label from this list and nothing else:
catalog_search, cart_view, cart_add, cart_remove, cart_checkout,
cluster_create, cluster_join, cluster_view, cluster_rename,
referral_link, menu_help, payment_confirmation, order_help, other
` + senderContext(memberCtx)

	label, err := s.complete(ctx, system, text, 10)
	if err != nil {
		return "", err
	}

	return entity.ParseIntent(strings.ToLower(strings.TrimSpace(label))), nil
}

// ExtractName pulls a person's name out of an onboarding reply.
func (s *openAIService) ExtractName(ctx context.Context, text string) (string, error) {
	system := `The user was asked for their name. Reply with only the name,
title-cased, or NONE if the message contains no name.`

	return s.completeSlot(ctx, system, text)
}

// ExtractCity pulls a supported city out of an onboarding reply.
func (s *openAIService) ExtractCity(ctx context.Context, text string) (string, error) {
	system := `The user was asked which city they are in. The supported cities
are Lagos, Abuja and Port Harcourt. Reply with exactly one of:
Lagos, Abuja, Port Harcourt, NONE.`

	return s.completeSlot(ctx, system, text)
}

// ExtractLagosArea resolves Mainland or Island from a reply.
func (s *openAIService) ExtractLagosArea(ctx context.Context, text string) (string, error) {
	system := `The user was asked whether they are on the Lagos Mainland or
Island. Reply with exactly one of: Mainland, Island, NONE.`

	return s.completeSlot(ctx, system, text)
}

// ExtractMembership resolves a membership plan from a reply.
func (s *openAIService) ExtractMembership(ctx context.Context, text string) (entity.MembershipType, error) {
	system := `The user was asked to choose a membership plan. Reply with
exactly one of: lifetime, monthly, onetime, NONE.`

	label, err := s.completeSlot(ctx, system, text)
	if err != nil {
		return "", err
	}

	return entity.MembershipType(strings.ToLower(label)), nil
}

// ExtractProductQuery pulls the product search terms out of a message.
func (s *openAIService) ExtractProductQuery(ctx context.Context, text string) (string, error) {
	system := `Extract the product the user wants to buy from their message.
Reply with only the product search terms, lowercase, or NONE if the message
names no product.`

	return s.completeSlot(ctx, system, text)
}

// InterpretCartAction classifies a reply given the candidates on offer.
func (s *openAIService) InterpretCartAction(ctx context.Context, text string, candidates []entity.Product) (*service.CartAction, error) {
	var list strings.Builder
	for i, p := range candidates {
		fmt.Fprintf(&list, "%d. %s (sku %s)\n", i+1, p.Name, p.SKU)
	}

	system := fmt.Sprintf(`The user was shown these products and asked what to do:
%s
Interpret their reply. Respond with a JSON object only, no prose:
{"action": "add"|"remove"|"checkout"|"affirm"|"none", "sku": "<sku or empty>", "qty": <integer, 1 if unstated>}
Use "affirm" for a bare yes that names no product.`, list.String())

	out, err := s.complete(ctx, system, text, 60)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Action string `json:"action"`
		SKU    string `json:"sku"`
		Qty    int    `json:"qty"`
	}
	if err := json.Unmarshal([]byte(extractJSON(out)), &parsed); err != nil {
		return nil, errors.Wrap(err, "failed to parse cart action")
	}

	action := &service.CartAction{
		Kind: service.CartActionKind(strings.ToLower(parsed.Action)),
		SKU:  parsed.SKU,
		Qty:  parsed.Qty,
	}
	if action.Qty < 1 {
		action.Qty = 1
	}
	switch action.Kind {
	case service.CartActionAdd, service.CartActionRemove, service.CartActionCheckout,
		service.CartActionAffirm, service.CartActionNone:
	default:
		action.Kind = service.CartActionNone
	}

	return action, nil
}

// GenerateReply produces a short freeform answer for messages nothing else
// handled.
func (s *openAIService) GenerateReply(ctx context.Context, text string, memberCtx service.MemberContext) (string, error) {
	system := `You are the assistant for a WhatsApp group-buying grocery bot in
Nigeria. Answer in at most two short sentences and steer the user toward
searching products, viewing their cart, or typing "menu".
` + senderContext(memberCtx)

	return s.complete(ctx, system, text, 120)
}

// senderContext renders the member facts as a prompt line.
func senderContext(memberCtx service.MemberContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Sender: in a buying cluster: %t; paid member: %t",
		memberCtx.InCluster, memberCtx.IsPaid)
	if memberCtx.PendingReview {
		b.WriteString("; their payment proof is awaiting review")
	}
	if memberCtx.City != "" {
		fmt.Fprintf(&b, "; city: %s", memberCtx.City)
	}
	b.WriteString(".")

	return b.String()
}

// completeSlot runs a single-value extraction and folds NONE into "".
func (s *openAIService) completeSlot(ctx context.Context, system, text string) (string, error) {
	out, err := s.complete(ctx, system, text, 30)
	if err != nil {
		return "", err
	}

	out = strings.TrimSpace(out)
	if strings.EqualFold(out, noneLabel) {
		return "", nil
	}

	return out, nil
}

func (s *openAIService) complete(ctx context.Context, system, user string, maxTokens int) (string, error) {
	reqBody := chatRequest{
		Model: s.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: 0,
		MaxTokens:   maxTokens,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal chat request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL, bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(err, "failed to create chat request")
	}
	httpReq.Header.Set("Authorization", "Bearer "+s.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return "", errors.Wrap(err, "chat request failed")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Wrap(err, "failed to read chat response")
	}

	if resp.StatusCode != http.StatusOK {
		var openaiErr apiError
		if json.Unmarshal(respBody, &openaiErr) == nil && openaiErr.Error.Message != "" {
			return "", errors.Errorf("openai error (%d): %s", resp.StatusCode, openaiErr.Error.Message)
		}

		return "", errors.Errorf("openai error (%d): %s", resp.StatusCode, string(respBody))
	}

	var chatResp chatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return "", errors.Wrap(err, "failed to decode chat response")
	}
	if len(chatResp.Choices) == 0 {
		return "", errors.New("chat response has no choices")
	}

	return strings.TrimSpace(chatResp.Choices[0].Message.Content), nil
}

// extractJSON trims markdown code fences the model sometimes wraps around a
// JSON answer.
func extractJSON(out string) string {
	out = strings.TrimSpace(out)
	if start := strings.Index(out, "{"); start >= 0 {
		if end := strings.LastIndex(out, "}"); end > start {
			return out[start : end+1]
		}
	}

	return out
}
