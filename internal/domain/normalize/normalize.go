// Package normalize maps heterogeneous collector payloads onto model.RawItem.
package normalize

import (
	"context"
	"fmt"
	"html"
	"io"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/everworldlife-netizen/Live-Lox-Model/internal/domain/model"
	"github.com/everworldlife-netizen/Live-Lox-Model/pkg/logger"
	"github.com/everworldlife-netizen/Live-Lox-Model/pkg/metrics"
)

// OfficialSource is the source name stamped on official injury report rows.
const OfficialSource = "official_nba_injury_report"

// FeedSource describes the feed an item came from. A zero Tier defers to
// the normalizer's source table.
type FeedSource struct {
	Name string `json:"name" yaml:"name"`
	Tier int    `json:"tier" yaml:"tier"`
}

// SocialPost is one post delivered by a social collector.
type SocialPost struct {
	ID       string    `json:"id" yaml:"id"`
	Account  string    `json:"account" yaml:"account"`
	Text     string    `json:"text" yaml:"text"`
	PostedAt time.Time `json:"posted_at" yaml:"posted_at"`
	Tier     int       `json:"tier,omitempty" yaml:"tier,omitempty"`
}

// ReportRow is one row of the official injury report.
type ReportRow struct {
	GameDate      string    `json:"game_date" yaml:"game_date"`
	Matchup       string    `json:"matchup" yaml:"matchup"`
	Team          string    `json:"team" yaml:"team"`
	PlayerName    string    `json:"player_name" yaml:"player_name"`
	CurrentStatus string    `json:"current_status" yaml:"current_status"`
	Reason        string    `json:"reason" yaml:"reason"`
	ReportedAt    time.Time `json:"reported_at" yaml:"reported_at"`
}

// Payload wraps exactly one collector output.
type Payload struct {
	Kind model.SourceKind
	Feed FeedSource
	Item *gofeed.Item
	Post *SocialPost
	Row  *ReportRow
}

// Normalizer converts payloads into raw items. It holds no mutable state.
type Normalizer struct {
	tiers  map[string]int
	now    func() time.Time
	logger logger.Logger
}

// New creates a Normalizer.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{
		tiers: map[string]int{},
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(n)
	}
	if n.logger == nil {
		n.logger = logger.Get().Named("normalizer")
	}
	return n
}

// tierFor resolves the reliability tier. An explicit tier must be valid;
// otherwise the source table is consulted and unknown sources are general.
func (n *Normalizer) tierFor(source string, explicit int) (int, error) {
	if explicit != 0 {
		if !model.ValidTier(explicit) {
			return 0, fmt.Errorf("%w: tier %d for %q", ErrInvalidTier, explicit, source)
		}
		return explicit, nil
	}
	if t, ok := n.tiers[source]; ok && model.ValidTier(t) {
		return t, nil
	}
	return model.TierGeneral, nil
}

// FromFeedItem maps a parsed feed entry.
func (n *Normalizer) FromFeedItem(src FeedSource, item *gofeed.Item) (model.RawItem, error) {
	if item == nil {
		return model.RawItem{}, fmt.Errorf("%w: nil feed item", ErrMalformedItem)
	}
	tier, err := n.tierFor(src.Name, src.Tier)
	if err != nil {
		return model.RawItem{}, err
	}

	id := strings.TrimSpace(item.Link)
	if id == "" {
		id = strings.TrimSpace(item.GUID)
	}

	published := n.now()
	if item.PublishedParsed != nil {
		published = *item.PublishedParsed
	} else if item.UpdatedParsed != nil {
		published = *item.UpdatedParsed
	}

	body := item.Content
	if body == "" {
		body = item.Description
	}

	raw := model.RawItem{
		SourceName:  src.Name,
		SourceTier:  tier,
		Kind:        model.KindFeed,
		PublishedAt: published.UTC(),
		URLOrID:     id,
		Title:       stripHTML(item.Title),
		Body:        stripHTML(body),
	}
	return raw, validate(raw)
}

// FromSocialPost maps a social post. The first line becomes the title.
func (n *Normalizer) FromSocialPost(post SocialPost) (model.RawItem, error) {
	tier, err := n.tierFor(post.Account, post.Tier)
	if err != nil {
		return model.RawItem{}, err
	}

	text := strings.TrimSpace(post.Text)
	title, _, _ := strings.Cut(text, "\n")

	id := ""
	if post.ID != "" {
		id = post.Account + "/" + post.ID
	}
	published := post.PostedAt
	if published.IsZero() {
		published = n.now()
	}

	raw := model.RawItem{
		SourceName:  post.Account,
		SourceTier:  tier,
		Kind:        model.KindSocial,
		PublishedAt: published.UTC(),
		URLOrID:     id,
		Title:       strings.TrimSpace(title),
		Body:        text,
	}
	if raw.Body == raw.Title {
		raw.Body = ""
	}
	return raw, validate(raw)
}

// FromReportRow maps an official report row. The title is rendered as
// "Player Name: Status (Reason)" so the parser treats it like any headline.
func (n *Normalizer) FromReportRow(row ReportRow) (model.RawItem, error) {
	player := strings.TrimSpace(row.PlayerName)
	status := strings.TrimSpace(row.CurrentStatus)
	if player == "" || status == "" {
		return model.RawItem{}, fmt.Errorf("%w: report row needs player and status", ErrMalformedItem)
	}

	title := player + ": " + status
	if reason := strings.TrimSpace(row.Reason); reason != "" {
		title += " (" + reason + ")"
	}

	gameID := ""
	if row.GameDate != "" || row.Matchup != "" {
		gameID = strings.TrimSpace(row.GameDate) + ":" + strings.TrimSpace(row.Matchup)
	}

	published := row.ReportedAt
	if published.IsZero() {
		published = n.now()
	}

	raw := model.RawItem{
		SourceName:  OfficialSource,
		SourceTier:  model.TierOfficial,
		Kind:        model.KindOfficial,
		PublishedAt: published.UTC(),
		URLOrID:     strings.Join([]string{OfficialSource, gameID, row.Team, player}, "|"),
		Title:       title,
		GameID:      gameID,
	}
	return raw, validate(raw)
}

// Normalize dispatches on the payload kind.
func (n *Normalizer) Normalize(p Payload) (model.RawItem, error) {
	switch {
	case p.Kind == model.KindFeed && p.Item != nil:
		return n.FromFeedItem(p.Feed, p.Item)
	case p.Kind == model.KindSocial && p.Post != nil:
		return n.FromSocialPost(*p.Post)
	case p.Kind == model.KindOfficial && p.Row != nil:
		return n.FromReportRow(*p.Row)
	default:
		return model.RawItem{}, fmt.Errorf("%w: kind %q", ErrUnknownPayload, p.Kind)
	}
}

// Batch normalizes payloads in delivery order. A malformed payload is
// logged and skipped; the batch always completes unless ctx is cancelled,
// in which case the items produced so far are returned.
func (n *Normalizer) Batch(ctx context.Context, payloads []Payload) ([]model.RawItem, int) {
	items := make([]model.RawItem, 0, len(payloads))
	skipped := 0
	for i, p := range payloads {
		if ctx.Err() != nil {
			break
		}
		raw, err := n.Normalize(p)
		if err != nil {
			skipped++
			metrics.RecordItemMalformed(string(p.Kind))
			n.logger.Warn(ctx, "skipping malformed payload",
				logger.Int("index", i),
				logger.String("kind", string(p.Kind)),
				logger.Error(err),
			)
			continue
		}
		metrics.RecordItemNormalized(string(raw.Kind))
		items = append(items, raw)
	}
	return items, skipped
}

// ParseFeed parses a feed document into payloads ready for Batch. Only a
// document that cannot be parsed at all is an error.
func ParseFeed(ctx context.Context, src FeedSource, r io.Reader) ([]Payload, error) {
	feed, err := gofeed.NewParser().Parse(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFeedParse, src.Name, err)
	}
	if src.Name == "" {
		src.Name = feed.Title
	}

	payloads := make([]Payload, 0, len(feed.Items))
	for _, item := range feed.Items {
		if ctx.Err() != nil {
			break
		}
		payloads = append(payloads, Payload{Kind: model.KindFeed, Feed: src, Item: item})
	}
	return payloads, nil
}

func validate(raw model.RawItem) error {
	switch {
	case raw.Title == "":
		return fmt.Errorf("%w: empty title", ErrMalformedItem)
	case raw.URLOrID == "":
		return fmt.Errorf("%w: missing url or id", ErrMalformedItem)
	case raw.SourceName == "":
		return fmt.Errorf("%w: missing source name", ErrMalformedItem)
	}
	return nil
}

// stripHTML drops tags, decodes entities and collapses whitespace.
func stripHTML(text string) string {
	var b strings.Builder
	inTag := false
	for _, r := range text {
		switch {
		case r == '<':
			inTag = true
			b.WriteRune(' ')
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(html.UnescapeString(b.String())), " ")
}
