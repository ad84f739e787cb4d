package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/etnz/marketgate"
	"github.com/etnz/marketgate/docs"
	"github.com/etnz/marketgate/renderer"
	"google.golang.org/genai"
)

const model = "gemini-2.5-pro"

// MarketData is what the Analyst can look up, *gateway.Markets in
// production.
type MarketData interface {
	Snapshots(ctx context.Context, symbols []string, extended bool) (*marketgate.SnapshotResult, error)
	Bars(ctx context.Context, symbols []string, q marketgate.BarsQuery) (map[string][]marketgate.Bar, error)
	Forex(ctx context.Context, pair string) (marketgate.ForexRate, error)
	Crypto(ctx context.Context, symbol string) (marketgate.CryptoPrice, error)
	FearGreed(ctx context.Context) (marketgate.FearGreed, error)
}

// creates the facilitator
func newFacilitator(experts ...*Expert) *Expert {
	return &Expert{
		Name: "Facilitator",
		// Used by facilitators to know what they can expected from the expert
		Description: ``,
		ModelName:   model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{FunctionDeclarations: Declarations(experts)},
			},
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: `
			As a facilitator you are in charge of the conversation and solving the user's request.

			Learn about the expert's skill that you can get from the Tools to ask them questions.
			They are at your service and 100% dedicated to you, they keep context of your previous questions.

			The user is here primarily to understand how the markets are doing: stocks, currencies,
			coins and the overall sentiment.

			Devise a plan of questions to ask to each experts and come up with the best reponse to the user's request.
			Always quote the figures you got from the Analyst rather than guessing them.
		`}}},
		},
		Library: NewLibrary(experts),
	}
}

// NewTrader returns the expert grounding its answers with Google Search.
func NewTrader() *Expert {
	return &Expert{
		Name: "Trader",
		Description: `This is an expert trader,
		Very well aware of all the financial products and institutions,
		about the latest news about the different funds or companies.
		Ask the Trader whenever you need recent news or grounding information.`,
		ModelName: model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{GoogleSearch: &genai.GoogleSearch{}},
			},
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: `
			You are a expert in Trading, you can search and find about anything related to
			financial institutions, companies, markets, funds etc. You Leverage Google Search to
			ground your assertions in a solid truth.
			You can get the latests news too, and you know how to relate them to the user's request.
				`}}},
		},
	}
}

// NewAnalyst returns the expert reading live market data from m.
func NewAnalyst(m MarketData) *Expert {
	lib := Tools(m)

	return &Expert{
		Name: "Analyst",
		Description: `This is the market data Analyst. It has live access to stock snapshots and daily bars,
		currency rates, the US dollar index, coin prices and the Fear & Greed index.
		Ask the Analyst for any price, move or sentiment figure.`,
		ModelName: model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{FunctionDeclarations: Declarations(lib)},
			},
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: `
				You are a market data analyst.
				You know how to use the Tools to get prices and moves of stocks, currencies and coins,
				and the market sentiment. You are part of a team of experts, yours is the figures.
				They might ask you questions with approximative tickers, figure out what they meant.

				` + must(docs.Get("symbols")),
			}}},
		},
		Library: NewLibrary(lib),
	}
}

// Func implements a simple Function
type Func struct {
	// Declare this function
	Decl *genai.FunctionDeclaration
	// Call this function
	Func func(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse
}

func (f *Func) Declaration() *genai.FunctionDeclaration { return f.Decl }
func (f *Func) Call(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse {
	return f.Func(ctx, id, args)
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

// newFunc declares a function answering markdown, or an error.
func newFunc(name, description string, params map[string]*genai.Schema, required []string, call func(ctx context.Context, args map[string]any) (string, error)) *Func {
	return &Func{
		Decl: &genai.FunctionDeclaration{
			Name:        name,
			Description: description,
			Parameters: &genai.Schema{
				Type:       genai.TypeObject,
				Properties: params,
				Required:   required,
			},
			Response: &genai.Schema{
				Type:        genai.TypeString,
				Description: "A markdown document.",
			},
		},
		Func: func(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse {
			out, err := call(ctx, args)
			if err != nil {
				return failure(id, name, err)
			}
			return output(id, name, out)
		},
	}
}

// Tools returns the market data functions over m.
func Tools(m MarketData) []Function {
	symbols := &genai.Schema{
		Type:        genai.TypeString,
		Description: "A comma separated list of symbols, like 'AAPL,MSFT,EURUSD,BTC'.",
	}
	return []Function{
		newFunc("Snapshots",
			`Snapshots returns the latest price, previous close and daily change of each symbol.
			Symbols may mix stocks, forex pairs, the dollar index (USD) and coins.`,
			map[string]*genai.Schema{
				"symbols": symbols,
				"extended": {
					Type:        genai.TypeBoolean,
					Description: "Also compute the overnight gap and the intraday move, and tell the market session.",
				},
			}, []string{"symbols"},
			func(ctx context.Context, args map[string]any) (string, error) {
				list, err := stringArg(args, "symbols")
				if err != nil {
					return "", err
				}
				extended, _ := args["extended"].(bool)
				res, err := m.Snapshots(ctx, marketgate.ParseSymbols(list), extended)
				if err != nil {
					return "", err
				}
				return renderer.RenderSnapshots(res), nil
			}),
		newFunc("Bars",
			`Bars returns the daily open, high, low, close and volume of stocks over the last days.`,
			map[string]*genai.Schema{
				"symbols": symbols,
				"days": {
					Type:        genai.TypeInteger,
					Description: "How many days of history, 7 by default.",
				},
			}, []string{"symbols"},
			func(ctx context.Context, args map[string]any) (string, error) {
				list, err := stringArg(args, "symbols")
				if err != nil {
					return "", err
				}
				days, err := intArg(args, "days", 7)
				if err != nil {
					return "", err
				}
				bars, err := m.Bars(ctx, marketgate.ParseSymbols(list), marketgate.LastDays(days, time.Now()))
				if err != nil {
					return "", err
				}
				return renderer.RenderBars(bars), nil
			}),
		newFunc("Forex",
			`Forex returns the rate of a currency pair and its change since the previous business day.
			Use 'USD' alone for the US dollar index.`,
			map[string]*genai.Schema{
				"pair": {Type: genai.TypeString, Description: "A pair like 'EURUSD', or 'USD'."},
			}, []string{"pair"},
			func(ctx context.Context, args map[string]any) (string, error) {
				pair, err := stringArg(args, "pair")
				if err != nil {
					return "", err
				}
				rate, err := m.Forex(ctx, pair)
				if err != nil {
					return "", err
				}
				return renderer.RenderForex(rate), nil
			}),
		newFunc("Crypto",
			`Crypto returns the price of a coin in USD and its 24h change.`,
			map[string]*genai.Schema{
				"symbol": {Type: genai.TypeString, Description: "A coin like 'BTC' or 'ETH'."},
			}, []string{"symbol"},
			func(ctx context.Context, args map[string]any) (string, error) {
				symbol, err := stringArg(args, "symbol")
				if err != nil {
					return "", err
				}
				price, err := m.Crypto(ctx, symbol)
				if err != nil {
					return "", err
				}
				return renderer.RenderCrypto(price), nil
			}),
		newFunc("FearGreed",
			`FearGreed returns the market Fear & Greed index, with its value a day, a week and a month ago.`,
			map[string]*genai.Schema{}, nil,
			func(ctx context.Context, args map[string]any) (string, error) {
				fg, err := m.FearGreed(ctx)
				if err != nil {
					return "", err
				}
				return renderer.RenderFearGreed(fg), nil
			}),
	}
}

func stringArg(args map[string]any, name string) (string, error) {
	v, ok := args[name]
	if !ok {
		return "", fmt.Errorf("argument %q is required", name)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("argument %q is not a string as expected but %T", name, v)
	}
	return s, nil
}

// intArg reads an integer argument. JSON numbers arrive as float64.
func intArg(args map[string]any, name string, def int) (int, error) {
	v, ok := args[name]
	if !ok {
		return def, nil
	}
	switch n := v.(type) {
	case float64:
		if n <= 0 || n != float64(int(n)) {
			return 0, fmt.Errorf("argument %q must be a positive integer, got %v", name, n)
		}
		return int(n), nil
	case int:
		if n <= 0 {
			return 0, fmt.Errorf("argument %q must be a positive integer, got %d", name, n)
		}
		return n, nil
	}
	return 0, fmt.Errorf("argument %q is not a number as expected but %T", name, v)
}
