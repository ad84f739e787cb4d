// Package agent runs the market assistant: a facilitator model answering the
// user with the help of expert models, one of them reading live market data.
package agent

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"slices"
	"strings"

	"google.golang.org/genai"
)

const prompt = "assist> "

// exitWords end the session.
var exitWords = []string{"bye", "exit", "quit"}

// Agent is an interactive session between the user and the facilitator.
type Agent struct {
	w           io.Writer
	in          *bufio.Scanner
	Facilitator *Expert
	Experts     []*Expert

	// Markdown renders the answers, they are printed as is when nil.
	Markdown func(string) string
}

// New returns an Agent writing to w and reading questions from r, one per
// line. The facilitator can consult every expert.
func New(w io.Writer, r io.Reader, experts ...*Expert) *Agent {
	return &Agent{
		w:           w,
		in:          bufio.NewScanner(r),
		Experts:     experts,
		Facilitator: newFacilitator(experts...),
	}
}

// Start opens the chat sessions of the experts and of the facilitator.
func (a *Agent) Start(ctx context.Context, client *genai.Client) error {
	for _, e := range append(slices.Clip(a.Experts), a.Facilitator) {
		if err := e.Start(ctx, client); err != nil {
			return err
		}
	}
	return nil
}

// Run answers questions until the user leaves or the input ends. The
// questions are asked first, as if the user typed them.
func (a *Agent) Run(ctx context.Context, client *genai.Client, questions ...string) error {
	if a.Facilitator.chat == nil {
		if err := a.Start(ctx, client); err != nil {
			return err
		}
	}
	fmt.Fprintf(a.w, "Welcome to mgate market assist. Type '%s' to exit.\n", exitWords[0])

	for {
		input, ok := a.next(&questions)
		if !ok {
			return a.in.Err()
		}
		if input == "" {
			continue
		}
		if slices.Contains(exitWords, strings.ToLower(input)) {
			return nil
		}
		if err := a.answer(ctx, input); err != nil {
			return err
		}
	}
}

// next prints the prompt and returns the next question, taken from queued
// before reading the input. It reports false once the input is exhausted.
func (a *Agent) next(queued *[]string) (string, bool) {
	fmt.Fprint(a.w, prompt)
	if len(*queued) > 0 {
		q := strings.TrimSpace((*queued)[0])
		*queued = (*queued)[1:]
		fmt.Fprintln(a.w, q)
		return q, true
	}
	if !a.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(a.in.Text()), true
}

func (a *Agent) answer(ctx context.Context, question string) error {
	content, err := a.Facilitator.Ask(ctx, &genai.Part{Text: question})
	if err != nil {
		return err
	}
	out := text(content)
	if a.Markdown != nil {
		out = a.Markdown(out)
	}
	fmt.Fprintln(a.w, out)
	return nil
}
