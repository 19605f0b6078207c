package nlq

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadStateVocabulary reads a YAML state vocabulary. The document is a
// single mapping from keyword to one state name or a list of them:
//
//	open: [New, Active]
//	blocked: Blocked
//	in review: In Review
//
// Loaded keywords layer over DefaultStates; mapping a keyword to an
// empty list removes the default entry.
func LoadStateVocabulary(path string) (StateVocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read state vocabulary: %w", err)
	}
	return ParseStateVocabulary(data)
}

// ParseStateVocabulary parses YAML vocabulary bytes. See
// LoadStateVocabulary for the document shape.
func ParseStateVocabulary(data []byte) (StateVocabulary, error) {
	var raw map[string]yaml.Node
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse state vocabulary: %w", err)
	}

	vocab := DefaultStates()
	for keyword, node := range raw {
		kw := Normalize(keyword)
		if kw == "" {
			return nil, fmt.Errorf("state vocabulary: empty keyword")
		}
		states, err := decodeStates(&node)
		if err != nil {
			return nil, fmt.Errorf("state vocabulary: keyword %q: %w", keyword, err)
		}
		if len(states) == 0 {
			delete(vocab, kw)
			continue
		}
		vocab[kw] = states
	}
	return vocab, nil
}

func decodeStates(node *yaml.Node) ([]string, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		var s string
		if err := node.Decode(&s); err != nil {
			return nil, err
		}
		if s == "" {
			return nil, fmt.Errorf("empty state name")
		}
		return []string{s}, nil
	case yaml.SequenceNode:
		var ss []string
		if err := node.Decode(&ss); err != nil {
			return nil, err
		}
		for _, s := range ss {
			if s == "" {
				return nil, fmt.Errorf("empty state name")
			}
		}
		return ss, nil
	default:
		return nil, fmt.Errorf("want a state name or list of state names")
	}
}
