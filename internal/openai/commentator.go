// Package openai writes a short plain-language commentary on a finished
// portfolio comparison.
package openai

import (
	"context"
	"fmt"
	"strings"

	oa "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"portfolioBench/internal/analytics"
	"portfolioBench/internal/portfolio"
)

const systemPrompt = `You are a financial analyst commenting on a Vietnamese stock portfolio compared with the VNIndex.

Your response must follow this exact structure:

**Result:**
[One or two sentences on how the portfolio did against the index]

**Drivers:**
[Which holdings most plausibly explain the difference, and concentration in the allocation]

**Risk:**
[Comment on volatility and drawdown compared with the index]

Guidelines:
- Use only the figures given; do not invent prices or news
- Mention cash if part of the portfolio is unallocated
- Do not give buy or sell instructions
- Keep it under 200 words`

// Comparison is everything the commentary is based on.
type Comparison struct {
	Portfolio portfolio.Portfolio
	Window    portfolio.Window
	Summary   analytics.Summary
	Risk      analytics.RiskStats
}

type Commentator struct {
	cli   oa.Client
	model string
}

func NewCommentator(apiKey string) *Commentator {
	return &Commentator{cli: oa.NewClient(option.WithAPIKey(apiKey)), model: "gpt-4"}
}

func (c *Commentator) Comment(ctx context.Context, cmp Comparison) (string, error) {
	resp, err := c.cli.Chat.Completions.New(ctx, oa.ChatCompletionNewParams{
		Model: c.model,
		Messages: []oa.ChatCompletionMessageParamUnion{
			oa.SystemMessage(systemPrompt),
			oa.UserMessage(userPrompt(cmp)),
		},
		MaxTokens: oa.Int(600), // Telegram message
	})
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from OpenAI")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func userPrompt(cmp Comparison) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Period: last %s\n", cmp.Window.Label())
	b.WriteString("Holdings:\n")
	for _, h := range cmp.Portfolio.Holdings {
		fmt.Fprintf(&b, "- %s %s%%\n", h.Symbol, trimFloat(h.Weight))
	}
	if cash := cmp.Portfolio.Cash(); cash > 0 {
		fmt.Fprintf(&b, "- Cash %s%%\n", trimFloat(cash))
	}
	s := cmp.Summary
	fmt.Fprintf(&b, "Portfolio return: %s\n", analytics.FormatPercent(s.PortfolioReturn))
	fmt.Fprintf(&b, "%s return: %s\n", analytics.BenchmarkName, analytics.FormatPercent(s.BenchmarkReturn))
	fmt.Fprintf(&b, "Outperformance: %s\n", analytics.FormatPercent(s.Outperformance))
	fmt.Fprintf(&b, "Annualised volatility: portfolio %.2f%%, %s %.2f%%\n",
		cmp.Risk.PortfolioVolatility, analytics.BenchmarkName, cmp.Risk.BenchmarkVolatility)
	fmt.Fprintf(&b, "Max drawdown: portfolio %.2f%%, %s %.2f%%\n",
		cmp.Risk.PortfolioMaxDrawdown, analytics.BenchmarkName, cmp.Risk.BenchmarkMaxDrawdown)
	return b.String()
}

func trimFloat(v float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
}
