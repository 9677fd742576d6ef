// CLAUDE:SUMMARY Parses the trackingParams document (JSON or YAML) into TrackingRules, with a degrade-to-empty loader.
package rules

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// Top-level field names of the rules document.
const (
	fieldGenericParams = "genericParams"
	fieldDomainRules   = "domainRules"
)

type ruleDoc struct {
	TrackingParams []string `yaml:"trackingParams"`
	PreserveParams []string `yaml:"preserveParams"`
}

// Load parses a rules document from r. JSON documents are accepted as-is
// since they are valid YAML. Missing fields are treated as empty lists.
func Load(r io.Reader) (*TrackingRules, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read rules: %w", err)
	}

	// JSON forbids raw tabs inside strings, so tab indentation can be
	// flattened before the YAML scanner, which rejects it, sees it.
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '{' {
		data = bytes.ReplaceAll(data, []byte{'\t'}, []byte{' '})
	}

	var doc yaml.Node
	if err := yaml.NewDecoder(bytes.NewReader(data)).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrMalformedRules)
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformedRules, err)
	}

	root := resolve(&doc)
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = resolve(root.Content[0])
	}
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: top level must be a mapping", ErrMalformedRules)
	}

	var generic []string
	var domains []Domain
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, val := root.Content[i].Value, resolve(root.Content[i+1])
		switch key {
		case fieldGenericParams:
			if err := val.Decode(&generic); err != nil {
				return nil, fmt.Errorf("%w: %s: %v", ErrMalformedRules, fieldGenericParams, err)
			}
		case fieldDomainRules:
			d, err := decodeDomains(val)
			if err != nil {
				return nil, err
			}
			domains = d
		}
	}

	return New(generic, domains), nil
}

// decodeDomains walks the domainRules mapping pair by pair so that the
// document order survives into lookup order.
func decodeDomains(n *yaml.Node) ([]Domain, error) {
	if n.Tag == "!!null" {
		return nil, nil
	}
	if n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: %s must be a mapping", ErrMalformedRules, fieldDomainRules)
	}

	domains := make([]Domain, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		key := n.Content[i].Value
		var rd ruleDoc
		if err := resolve(n.Content[i+1]).Decode(&rd); err != nil {
			return nil, fmt.Errorf("%w: %s[%q]: %v", ErrMalformedRules, fieldDomainRules, key, err)
		}
		domains = append(domains, Domain{
			Key:      key,
			Tracking: rd.TrackingParams,
			Preserve: rd.PreserveParams,
		})
	}
	return domains, nil
}

func resolve(n *yaml.Node) *yaml.Node {
	for n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}

// LoadFile reads and parses the rules document at path.
func LoadFile(path string) (*TrackingRules, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrRulesNotFound, path)
		}
		return nil, fmt.Errorf("open rules file: %w", err)
	}
	defer func() { _ = f.Close() }()

	tr, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return tr, nil
}

// LoadOrEmpty loads the rules at path and falls back to Empty on any
// failure. The failure is logged; a missing or broken rule set disables
// cleaning rather than stopping the process.
func LoadOrEmpty(path string, logger *slog.Logger) *TrackingRules {
	if logger == nil {
		logger = slog.Default()
	}
	tr, err := LoadFile(path)
	if err != nil {
		logger.Warn("rules: load failed, using empty rule set", "path", path, "error", err)
		return Empty()
	}
	g, d := tr.Len()
	logger.Info("rules: loaded", "path", path, "generic_params", g, "domain_rules", d)
	return tr
}
