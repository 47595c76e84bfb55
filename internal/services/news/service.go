// Package services раз в час забирает свежие новости из RSS и Atom лент
// и публикует их в группы соответствующих категорий.
package services

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/magabrotheeeer/signal-club/internal/lib/sl"
	"github.com/magabrotheeeer/signal-club/internal/messaging"
	"github.com/magabrotheeeer/signal-club/internal/models"
)

// FeedFetcher загружает ленту.
type FeedFetcher interface {
	Fetch(ctx context.Context, url string) (*gofeed.Feed, error)
}

// HTTPFetcher загружает ленты через gofeed.
type HTTPFetcher struct {
	parser *gofeed.Parser
}

// NewHTTPFetcher конструктор.
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	p := gofeed.NewParser()
	p.Client = &http.Client{Timeout: timeout}
	p.UserAgent = "signal-club/1.0"
	return &HTTPFetcher{parser: p}
}

// Fetch реализует FeedFetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (*gofeed.Feed, error) {
	return f.parser.ParseURLWithContext(url, ctx)
}

// GroupLookup группы категорий.
type GroupLookup interface {
	Category(name string) (int64, bool)
}

// Service публикует новости.
type Service struct {
	fetcher FeedFetcher
	seen    SeenStore
	sender  messaging.Sender
	groups  GroupLookup
	feeds   map[string][]string
	perFeed int
	log     *slog.Logger
}

// NewService конструктор. feeds: категория -> адреса лент.
func NewService(fetcher FeedFetcher, seen SeenStore, sender messaging.Sender, groups GroupLookup,
	feeds map[string][]string, perFeed int, log *slog.Logger) *Service {
	if perFeed <= 0 {
		perFeed = 3
	}
	return &Service{
		fetcher: fetcher,
		seen:    seen,
		sender:  sender,
		groups:  groups,
		feeds:   feeds,
		perFeed: perFeed,
		log:     log.With(slog.String("component", "news")),
	}
}

// Run проходит все ленты и возвращает число опубликованных новостей.
// Ошибка ленты или отправки не прерывает запуск.
func (s *Service) Run(ctx context.Context) int {
	categories := make([]string, 0, len(s.feeds))
	for c := range s.feeds {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	posted := 0
	for _, category := range categories {
		group, ok := s.groups.Category(category)
		if !ok {
			continue
		}
		for _, url := range s.feeds[category] {
			if ctx.Err() != nil {
				return posted
			}
			posted += s.runFeed(ctx, category, group, url)
		}
	}
	return posted
}

func (s *Service) runFeed(ctx context.Context, category string, group int64, url string) int {
	log := s.log.With(slog.String("category", category), slog.String("feed", url))

	feed, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		log.Error("failed to fetch feed", sl.Err(err))
		return 0
	}

	posted := 0
	for i, item := range feed.Items {
		if i >= s.perFeed {
			break
		}
		link := strings.TrimSpace(item.Link)
		if link == "" {
			continue
		}
		fresh, err := s.seen.MarkSeen(ctx, link)
		if err != nil {
			log.Warn("seen store unavailable", sl.Err(err))
			continue
		}
		if !fresh {
			continue
		}
		if err := s.sender.SendMessage(ctx, group, formatNews(category, item.Title, link), messaging.FormatHTML); err != nil {
			log.Error("failed to post news", sl.Chat(group), sl.Err(err))
			if err := s.seen.Forget(ctx, link); err != nil {
				log.Warn("failed to release news link", sl.Err(err))
			}
			continue
		}
		posted++
	}
	if posted > 0 {
		log.Info("news posted", slog.Int("count", posted))
	}
	return posted
}

var newsIcons = map[string]string{
	models.AssetCrypto: "₿",
	models.AssetStocks: "📈",
	models.AssetForex:  "💱",
	models.AssetGold:   "🥇",
}

func formatNews(category, title, link string) string {
	icon, ok := newsIcons[category]
	if !ok {
		icon = "📰"
	}
	return fmt.Sprintf("%s <b>%s NEWS</b>\n\n<b>%s</b>\n\n<a href='%s'>Read More</a>",
		icon, strings.ToUpper(category), html.EscapeString(title), html.EscapeString(link))
}
