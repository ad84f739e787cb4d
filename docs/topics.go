// Package docs embeds the mgate documentation.
//
// readme.md is the index: each "* name: summary" line declares a topic stored
// in name.md, and topics are listed in the order of the index.
package docs

import (
	"bufio"
	"embed"
	"fmt"
	"regexp"
	"strings"
)

//go:embed *.md
var files embed.FS

// Index is the name of the topic listing all the others.
const Index = "readme"

// Topic is an entry of the index.
type Topic struct {
	Name    string
	Summary string
}

var entry = regexp.MustCompile(`^\*\s+([a-z][a-z0-9-]*):\s*(.*)$`)

// Topics returns the topics of the index, in order.
func Topics() ([]Topic, error) {
	index, err := Get(Index)
	if err != nil {
		return nil, err
	}
	var topics []Topic
	sc := bufio.NewScanner(strings.NewReader(index))
	for sc.Scan() {
		if m := entry.FindStringSubmatch(sc.Text()); m != nil {
			topics = append(topics, Topic{Name: m[1], Summary: m[2]})
		}
	}
	return topics, sc.Err()
}

// Names returns the names of the topics of the index, in order.
func Names() ([]string, error) {
	topics, err := Topics()
	if err != nil {
		return nil, err
	}
	names := make([]string, len(topics))
	for i, t := range topics {
		names[i] = t.Name
	}
	return names, nil
}

// Get returns the markdown of a topic. Names are case insensitive.
func Get(name string) (string, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	content, err := files.ReadFile(name + ".md")
	if err != nil {
		return "", fmt.Errorf("unknown topic %q, see `mgate topic`: %w", name, err)
	}
	return string(content), nil
}

// Join returns the named topics one after the other. "*" stands for every
// topic of the index.
func Join(names ...string) (string, error) {
	var b strings.Builder
	for _, name := range names {
		expanded := []string{name}
		if name == "*" {
			all, err := Names()
			if err != nil {
				return "", err
			}
			expanded = all
		}
		for _, n := range expanded {
			content, err := Get(n)
			if err != nil {
				return "", err
			}
			b.WriteString(content)
			b.WriteString("\n")
		}
	}
	return b.String(), nil
}
