package cfgstore

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/config"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/justapithecus/lode/lode"
	lodes3 "github.com/justapithecus/lode/lode/s3"

	"github.com/cfgforge/cfgforge/grammar"
)

// GrammarLibrary is a small catalog of named grammar definitions, backed by
// a lode.Dataset — the teacher's storage client, repurposed from
// Hive-partitioned event logs to a flat "name" partition holding one record
// per published grammar.
type GrammarLibrary struct {
	ds lode.Dataset
}

// OpenGrammarLibraryFS opens (creating if absent) a grammar library rooted
// at a local directory.
func OpenGrammarLibraryFS(root string) (*GrammarLibrary, error) {
	ds, err := newGrammarDataset(lode.NewFSFactory(root))
	if err != nil {
		return nil, fmt.Errorf("cfgstore: open grammar library at %s: %w", root, err)
	}
	return &GrammarLibrary{ds: ds}, nil
}

// OpenGrammarLibraryS3 opens a grammar library backed by an S3 bucket,
// using the AWS SDK's default credential chain.
func OpenGrammarLibraryS3(ctx context.Context, bucket, prefix, region string) (*GrammarLibrary, error) {
	var opts []func(*config.LoadOptions) error
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("cfgstore: load AWS config: %w", err)
	}
	client := awss3.NewFromConfig(awsCfg)
	factory := func() (lode.Store, error) {
		return lodes3.New(client, lodes3.Config{Bucket: bucket, Prefix: prefix})
	}
	ds, err := newGrammarDataset(factory)
	if err != nil {
		return nil, fmt.Errorf("cfgstore: open grammar library at s3://%s/%s: %w", bucket, prefix, err)
	}
	return &GrammarLibrary{ds: ds}, nil
}

func newGrammarDataset(factory lode.StoreFactory) (lode.Dataset, error) {
	return lode.NewDataset(
		lode.DatasetID("cfgforge-grammars"),
		factory,
		lode.WithHiveLayout("name"),
		lode.WithCodec(lode.NewJSONLCodec()),
	)
}

// Publish writes a named grammar definition into the library.
func (l *GrammarLibrary) Publish(ctx context.Context, name string, doc GrammarDoc) error {
	record := map[string]any{
		"name":  name,
		"start": doc.Start,
		"rules": doc.Rules,
	}
	_, err := l.ds.Write(ctx, []any{record}, lode.Metadata{})
	if err != nil {
		return fmt.Errorf("cfgstore: publish grammar %q: %w", name, err)
	}
	return nil
}

// List returns the distinct grammar names currently published.
func (l *GrammarLibrary) List(ctx context.Context) ([]string, error) {
	snapshots, err := l.ds.Snapshots(ctx)
	if err != nil {
		return nil, fmt.Errorf("cfgstore: list grammar library: %w", err)
	}
	seen := make(map[string]struct{})
	var names []string
	for _, snap := range snapshots {
		records, err := l.ds.Read(ctx, snap.ID)
		if err != nil {
			return nil, fmt.Errorf("cfgstore: read snapshot %s: %w", snap.ID, err)
		}
		for _, item := range records {
			rec, ok := item.(map[string]any)
			if !ok {
				continue
			}
			name, _ := rec["name"].(string)
			if name == "" {
				continue
			}
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}
			names = append(names, name)
		}
	}
	return names, nil
}

// Fetch loads the most recently published definition for name.
func (l *GrammarLibrary) Fetch(ctx context.Context, name string) (grammar.Rules, byte, error) {
	snapshots, err := l.ds.Snapshots(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("cfgstore: fetch grammar %q: %w", name, err)
	}
	for i := len(snapshots) - 1; i >= 0; i-- {
		records, err := l.ds.Read(ctx, snapshots[i].ID)
		if err != nil {
			return nil, 0, fmt.Errorf("cfgstore: read snapshot %s: %w", snapshots[i].ID, err)
		}
		for _, item := range records {
			rec, ok := item.(map[string]any)
			if !ok || rec["name"] != name {
				continue
			}
			doc := GrammarDoc{Start: stringField(rec["start"])}
			doc.Rules, err = rulesField(rec["rules"])
			if err != nil {
				return nil, 0, fmt.Errorf("cfgstore: decode grammar %q: %w", name, err)
			}
			return doc.toRules()
		}
	}
	return nil, 0, fmt.Errorf("cfgstore: grammar %q not found", name)
}

func stringField(v any) string {
	s, _ := v.(string)
	return s
}

func rulesField(v any) (map[string][]string, error) {
	raw, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("rules field has unexpected shape %T", v)
	}
	rules := make(map[string][]string, len(raw))
	for nt, altsAny := range raw {
		items, ok := altsAny.([]any)
		if !ok {
			return nil, fmt.Errorf("alternatives for %q have unexpected shape %T", nt, altsAny)
		}
		alts := make([]string, 0, len(items))
		for _, it := range items {
			s, ok := it.(string)
			if !ok {
				return nil, fmt.Errorf("alternative for %q has unexpected shape %T", nt, it)
			}
			alts = append(alts, s)
		}
		rules[nt] = alts
	}
	return rules, nil
}
