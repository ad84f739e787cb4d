package docs

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/etnz/marketgate/config"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"
)

const (
	bashSetup    = "bash setup"
	bashRun      = "bash run"
	consoleCheck = "console check"
	bashCheck    = "bash check"
	yamlConfig   = "yaml"
)

func TestTopics(t *testing.T) {
	topics, err := Names()
	if err != nil {
		t.Fatalf("Names() error = %v", err)
	}
	want := []string{"symbols", "scheduling", "caching", "providers", "configuration", "server"}
	if strings.Join(topics, " ") != strings.Join(want, " ") {
		t.Errorf("Names() = %q, want %q in index order", topics, want)
	}

	// every listed topic loads.
	for _, topic := range topics {
		if _, err := Get(topic); err != nil {
			t.Errorf("Get(%q) error = %v", topic, err)
		}
	}

	// every file is listed.
	files, err := filepath.Glob("*.md")
	if err != nil {
		t.Fatalf("failed to glob *.md: %v", err)
	}
	for _, file := range files {
		name := strings.TrimSuffix(filepath.Base(file), ".md")
		if name != Index && !slices.Contains(topics, name) {
			t.Errorf("topic %q is not listed in readme.md", name)
		}
	}
}

func TestGet(t *testing.T) {
	if _, err := Get(" Symbols "); err != nil {
		t.Errorf("Get() is not case insensitive: %v", err)
	}
	if _, err := Get("nope"); err == nil || !strings.Contains(err.Error(), `unknown topic "nope"`) {
		t.Errorf("Get(nope) error = %v, want unknown topic", err)
	}
}

func TestJoin(t *testing.T) {
	all, err := Join("*")
	if err != nil {
		t.Fatalf("Join(*) error = %v", err)
	}
	symbols := strings.Index(all, "# Symbols")
	server := strings.Index(all, "# Server")
	if symbols < 0 || server < 0 || symbols > server {
		t.Errorf("Join(*) does not follow the index order: symbols at %d, server at %d", symbols, server)
	}
	if strings.Contains(all, "Topics, printed with") {
		t.Error("Join(*) includes the index")
	}
	if _, err := Join("symbols", "nope"); err == nil {
		t.Error("Join() with an unknown topic did not fail")
	}
}

func TestCodeBlocks(t *testing.T) {
	files, err := filepath.Glob("*.md")
	if err != nil {
		t.Fatal(err)
	}
	files = append(files, "../README.md")

	for _, file := range files {
		t.Run(file, func(t *testing.T) {
			runBlocks(t, file)
		})
	}
}

// HELPER

// Block represents a fenced code block in the markdown file.
type Block struct {
	Type    string
	Content string
	File    string
	Line    int
}

// buildMgate builds the `mgate` command-line executable and returns the
// absolute path to the compiled binary. It uses a temporary directory for the
// build output.
func buildMgate(t *testing.T, tmp string) string {
	t.Helper()

	output := filepath.Join(tmp, "mgate")

	buildCmd := exec.Command("go", "build", "-o", output, "../mgate/")
	if out, err := buildCmd.CombinedOutput(); err != nil {
		t.Fatalf("failed to build mgate command: %v\n%s", err, out)
	}

	return output
}

// parseMarkdown parses a markdown file and returns a list of Blocks.
func parseMarkdown(t *testing.T, file string) []*Block {
	t.Helper()

	content, err := os.ReadFile(file)
	if err != nil {
		t.Fatalf("failed to read %s: %v", file, err)
	}

	mdParser := goldmark.DefaultParser()
	root := mdParser.Parse(text.NewReader(content))

	// Read all blocks.

	var blocks []*Block

	ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		if fcb, ok := n.(*ast.FencedCodeBlock); ok {
			if fcb.Info == nil {
				return ast.WalkContinue, nil
			}
			lang := string(fcb.Info.Segment.Value(content))

			// lang := string(fcb.Language(content))
			var blockContent strings.Builder
			for i := 0; i < fcb.Lines().Len(); i++ {
				line := fcb.Lines().At(i)
				blockContent.WriteString(string(line.Value(content)))
			}

			// Get the line number of the block
			startOffset := fcb.Info.Segment.Start

			switch lang {
			case bashCheck, bashSetup, bashRun, consoleCheck, yamlConfig:
				blocks = append(blocks, &Block{
					Type:    lang,
					Content: blockContent.String(),
					File:    file,
					Line:    lineNumber(content, startOffset),
				})
			}
		}
		return ast.WalkContinue, nil
	})

	return blocks
}

// lineNumber computes the lineNumber for a given offset AST offset.
// the markdown parser we use does not support that feature so we
// have to implement it.
func lineNumber(source []byte, offset int) (lineNumber int) {
	newline := []byte{'\n'}
	// Create a slice of the source from the beginning to the node's offset.
	sourceToNode := source[:offset]

	// Count the number of newlines in that slice.
	lineCount := bytes.Count(sourceToNode, newline)

	// The line number is the number of newlines + 1.
	return lineCount + 1
}

// blockRunner defines all that is need to run a test for a block
type blockRunner struct {
	env            []string // env use to execute commands
	previousOutput string
	tmpFolder      string
}

func (r *blockRunner) runBlock(t *testing.T, block *Block) {
	t.Helper()

	// Configuration samples must be valid for the config package.
	if block.Type == yamlConfig {
		cfg := config.Default()
		dec := yaml.NewDecoder(strings.NewReader(block.Content))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil {
			t.Errorf("%s:%d: invalid configuration sample: %v", block.File, block.Line, err)
			return
		}
		if err := cfg.Validate(); err != nil {
			t.Errorf("%s:%d: invalid configuration sample: %v", block.File, block.Line, err)
		}
		return
	}

	// Check don't need execution.
	if block.Type == consoleCheck {
		want := strings.TrimSpace(block.Content)
		got := strings.TrimSpace(r.previousOutput)
		// replace tabs with spaces for consistent comparison
		got = strings.ReplaceAll(got, "\t", "        ")
		if want != got {
			// Print out the diffs in full text first, and in escaped text later.
			t.Errorf("%s:%d: output mismatch:\ngot:\n\n%s\n\nwant:\n\n%s\n\ngot :%q\nwant:%q\n", block.File, block.Line, got, want, got, want)
		}
		return
	}
	// Create a new execution folder on a new setup.
	if block.Type == bashSetup {
		r.tmpFolder = t.TempDir() // new scenario temp folder
	}

	// Execute bash.
	cmd := exec.Command("bash", "-c", "set -e; "+block.Content)
	cmd.Dir = r.tmpFolder
	cmd.Env = r.env
	output, err := cmd.CombinedOutput()

	// Record last run output.
	if block.Type == bashRun {
		r.previousOutput = string(output)
	}

	// Handling bash errors.
	if err != nil {
		switch block.Type {
		case bashSetup, bashRun:
			t.Fatalf("%s:%d: %s failed: %v with output:\n%s\n", block.File, block.Line, block.Type, err, output)
		case bashCheck:
			t.Errorf("%s:%d: %s failed: %v with output:\n%s\n", block.File, block.Line, block.Type, err, output)
			return
		default:
			t.Fatalf("%s:%d: unknown block type: %s", block.File, block.Line, block.Type)
		}
	}
}

// runBlocks executes a series of scenarios extracted from a
// markdown file.
func runBlocks(t *testing.T, file string) {
	t.Helper()

	blocks := parseMarkdown(t, file)
	if len(blocks) == 0 {
		return
	}

	globalTmp := t.TempDir()
	mgatePath := buildMgate(t, globalTmp)
	mgateDir := filepath.Dir(mgatePath)

	// scenarios never reach the real providers.
	newPath := fmt.Sprintf("PATH=%s%c%s", mgateDir, os.PathListSeparator, os.Getenv("PATH"))
	baseEnv := append(os.Environ(), newPath, "ALPACA_API_KEY=", "ALPACA_SECRET_KEY=", "REDIS_ADDR=")

	r := blockRunner{
		env:       baseEnv,
		tmpFolder: t.TempDir(),
	}
	for _, block := range blocks {
		r.runBlock(t, block)
	}
}
