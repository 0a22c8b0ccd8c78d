package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/everworldlife-netizen/Live-Lox-Model/internal/domain/model"
	"github.com/everworldlife-netizen/Live-Lox-Model/internal/domain/normalize"
)

// feedFile points at a saved feed document. Relative paths are resolved
// against the batch file.
type feedFile struct {
	Name string `yaml:"name"`
	Tier int    `yaml:"tier"`
	Path string `yaml:"path"`
}

// batchFile is what the collectors leave on disk for one ingest run.
type batchFile struct {
	Feeds  []feedFile             `yaml:"feeds"`
	Posts  []normalize.SocialPost `yaml:"posts"`
	Report []normalize.ReportRow  `yaml:"report"`
}

func readYAML(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}

func loadRoster(path string) ([]model.Player, error) {
	var players []model.Player
	if err := readYAML(path, &players); err != nil {
		return nil, err
	}
	return players, nil
}

func loadProjectionInputs(path string) ([]model.ProjectionInput, error) {
	var inputs []model.ProjectionInput
	if err := readYAML(path, &inputs); err != nil {
		return nil, err
	}
	return inputs, nil
}

// loadBatch reads a batch file and the feed documents it names. A feed that
// cannot be opened or parsed fails the whole load.
func loadBatch(ctx context.Context, path string) ([]normalize.Payload, error) {
	var b batchFile
	if err := readYAML(path, &b); err != nil {
		return nil, err
	}

	var payloads []normalize.Payload
	for _, f := range b.Feeds {
		feedPath := f.Path
		if !filepath.IsAbs(feedPath) {
			feedPath = filepath.Join(filepath.Dir(path), feedPath)
		}
		fp, err := loadFeed(ctx, normalize.FeedSource{Name: f.Name, Tier: f.Tier}, feedPath)
		if err != nil {
			return nil, err
		}
		payloads = append(payloads, fp...)
	}
	for i := range b.Posts {
		payloads = append(payloads, normalize.Payload{Kind: model.KindSocial, Post: &b.Posts[i]})
	}
	for i := range b.Report {
		payloads = append(payloads, normalize.Payload{Kind: model.KindOfficial, Row: &b.Report[i]})
	}
	return payloads, nil
}

func loadFeed(ctx context.Context, src normalize.FeedSource, path string) ([]normalize.Payload, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening feed %s: %w", path, err)
	}
	defer f.Close()
	return normalize.ParseFeed(ctx, src, f)
}
