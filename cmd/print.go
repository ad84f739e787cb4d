package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/etnz/marketgate"
	"github.com/google/subcommands"
)

// renderMarkdown formats doc for the terminal, or returns it as is when it
// cannot.
func renderMarkdown(doc string) string {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(120))
	if err != nil {
		return doc
	}
	out, err := r.Render(doc)
	if err != nil {
		return doc
	}
	return out
}

func printMarkdown(doc string) {
	fmt.Print(renderMarkdown(doc))
}

// printJSON prints v indented on stdout.
func printJSON(v any) subcommands.ExitStatus {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// symbolArgs accepts symbols as separate arguments, comma separated lists,
// or both.
func symbolArgs(args []string) []string {
	return marketgate.ParseSymbols(strings.Join(args, ","))
}
