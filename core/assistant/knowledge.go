package assistant

import (
	"io/fs"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	appfs "github.com/trezcool/edutrack/fs"
)

type (
	// KnowledgeBase holds the canned answers used when no language model answers.
	KnowledgeBase struct {
		Fallback string           `yaml:"fallback"`
		Entries  []KnowledgeEntry `yaml:"entries"`
	}

	KnowledgeEntry struct {
		Topic    string   `yaml:"topic"`
		Keywords []string `yaml:"keywords"`
		Answer   string   `yaml:"answer"`
	}
)

// LoadKnowledgeBase reads the knowledge base shipped with the binary.
func LoadKnowledgeBase() (*KnowledgeBase, error) {
	data, err := fs.ReadFile(appfs.FS, appfs.KnowledgeBaseFile)
	if err != nil {
		return nil, errors.Wrap(err, "assistant.LoadKnowledgeBase")
	}
	return ParseKnowledgeBase(data)
}

func ParseKnowledgeBase(data []byte) (*KnowledgeBase, error) {
	kb := new(KnowledgeBase)
	if err := yaml.Unmarshal(data, kb); err != nil {
		return nil, errors.Wrap(err, "assistant.ParseKnowledgeBase")
	}
	for i, entry := range kb.Entries {
		for j, kw := range entry.Keywords {
			kb.Entries[i].Keywords[j] = reply(kw)
		}
	}
	return kb, nil
}

// Answer returns the answer of the entry sharing the most keywords with message, or the fallback text.
func (kb *KnowledgeBase) Answer(message string) string {
	words := " " + reply(message) + " "
	var (
		best  string
		score int
	)
	for _, entry := range kb.Entries {
		var n int
		for _, kw := range entry.Keywords {
			if kw != "" && strings.Contains(words, " "+kw+" ") {
				n++
			}
		}
		if n > score {
			best, score = entry.Answer, n
		}
	}
	if best == "" {
		return kb.Fallback
	}
	return best
}
