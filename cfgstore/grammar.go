// Package cfgstore loads grammar definitions from local disk or S3 and
// persists/reloads generate-run result snapshots. It is a CLI-layer
// convenience: engine.Generate never touches disk or a network client
// itself, per the engine's external-interface contract.
package cfgstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"gopkg.in/yaml.v3"

	"github.com/cfgforge/cfgforge/grammar"
)

// GrammarDoc is the on-disk/S3 YAML shape for a grammar definition: a
// mapping of nonterminal to its ordered alternative list, plus an explicit
// start symbol (defaults to grammar.DefaultStart when empty).
type GrammarDoc struct {
	Start string              `yaml:"start"`
	Rules map[string][]string `yaml:"rules"`
}

// toRules converts the YAML document into grammar.Rules and resolves the
// start symbol, validating that every nonterminal key is exactly one byte
// long (the data model restricts nonterminals to single characters).
func (d GrammarDoc) toRules() (grammar.Rules, byte, error) {
	start := grammar.DefaultStart
	if d.Start != "" {
		if len(d.Start) != 1 {
			return nil, 0, fmt.Errorf("cfgstore: start symbol %q must be a single character", d.Start)
		}
		start = d.Start[0]
	}
	rules := make(grammar.Rules, len(d.Rules))
	for nt, alts := range d.Rules {
		if len(nt) != 1 {
			return nil, 0, fmt.Errorf("cfgstore: nonterminal %q must be a single character", nt)
		}
		rules[nt[0]] = alts
	}
	return rules, start, nil
}

// LoadGrammarFile reads a grammar definition from a local YAML file.
func LoadGrammarFile(path string) (grammar.Rules, byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("cfgstore: read %s: %w", path, err)
	}
	return decodeGrammarYAML(data)
}

// LoadGrammarS3 fetches a grammar definition from an S3 object, using the
// AWS SDK's default credential chain (same resolution order the teacher's
// lode S3 backend uses). region may be empty to use the chain's default.
func LoadGrammarS3(ctx context.Context, bucket, key, region string) (grammar.Rules, byte, error) {
	var opts []func(*config.LoadOptions) error
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, 0, fmt.Errorf("cfgstore: load AWS config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg)

	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, 0, fmt.Errorf("cfgstore: get s3://%s/%s: %w", bucket, key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("cfgstore: read s3://%s/%s: %w", bucket, key, err)
	}
	return decodeGrammarYAML(data)
}

func decodeGrammarYAML(data []byte) (grammar.Rules, byte, error) {
	var doc GrammarDoc
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, 0, fmt.Errorf("cfgstore: decode grammar yaml: %w", err)
	}
	return doc.toRules()
}

// DemoGrammar is the fixed grammar from the original prototype's launcher
// (S -> 0A|1B, A -> 0AA|1S|1, B -> 1BB|0S|0), kept as the default source
// when no grammar file or S3 object is given, and as the E1-E7 test fixture.
func DemoGrammar() (grammar.Rules, byte) {
	return grammar.Rules{
		'S': {"0A", "1B"},
		'A': {"0AA", "1S", "1"},
		'B': {"1BB", "0S", "0"},
	}, grammar.DefaultStart
}
