// Package research runs a fixed sequence of web searches and price lookups
// for a topic and prints a plain-text briefing.
package research

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"

	"github.com/liamashdown/polytools/internal/pricefeed/coingecko"
	"github.com/liamashdown/polytools/internal/websearch/brave"
)

const (
	searchYear       = "2026"
	bannerWidth      = 60
	descriptionLimit = 150
)

// Coins quoted at the top of a crypto briefing.
var trackedCoins = []string{"bitcoin", "ethereum", "solana"}

// Category selects the research plan.
type Category int

const (
	Crypto Category = iota
	Geopolitical
	Sports
)

// ParseCategory accepts crypto, geopolitical (or geo) and sports.
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(s) {
	case "", "crypto":
		return Crypto, nil
	case "geopolitical", "geo":
		return Geopolitical, nil
	case "sports":
		return Sports, nil
	}
	return 0, fmt.Errorf("invalid category %q: must be crypto, geopolitical, geo or sports", s)
}

func (c Category) String() string {
	switch c {
	case Crypto:
		return "crypto"
	case Geopolitical:
		return "geopolitical"
	case Sports:
		return "sports"
	}
	return fmt.Sprintf("Category(%d)", int(c))
}

// section is one search in a plan. {query} and {year} are substituted.
type section struct {
	title    string
	template string
	count    int
}

type plan struct {
	prices   bool
	sections []section
}

var plans = map[Category]plan{
	Crypto: {
		prices: true,
		sections: []section{
			{"📰 Recent News:", "{query} crypto latest news {year}", 5},
			{"📅 Macro Calendar Search:", "economic calendar this week FOMC PCE CPI {year}", 3},
			{"💰 ETF Flow Sentiment:", "bitcoin ETF inflow outflow this week {year}", 3},
		},
	},
	Geopolitical: {
		sections: []section{
			{"📰 Wire Services (Reuters/AP):", "{query} site:reuters.com OR site:apnews.com {year}", 3},
			{"🔍 Expert Analysis:", "{query} analysis ISW OR criticalthreats OR IAEA {year}", 3},
			{"🏛️ Official Statements:", "{query} official statement latest {year}", 3},
			{"⏰ Timeline & Deadlines:", "{query} deadline timeline schedule {year}", 3},
		},
	},
	Sports: {
		sections: []section{
			{"📊 Recent Form & Odds:", "{query} odds prediction form {year}", 5},
			{"🏥 Injury Reports:", "{query} injury report lineup {year}", 3},
		},
	},
}

func (s section) query(topic string) string {
	return strings.NewReplacer("{query}", topic, "{year}", searchYear).Replace(s.template)
}

// Searcher runs web searches.
type Searcher interface {
	Search(ctx context.Context, query string, count int) ([]brave.Result, error)
}

// PriceFeed quotes coin prices.
type PriceFeed interface {
	SimplePrice(ctx context.Context, ids []string) (map[string]coingecko.Quote, error)
}

// Pipeline executes research plans.
type Pipeline struct {
	search Searcher
	prices PriceFeed
	out    io.Writer
	log    *logrus.Logger
}

// New creates a Pipeline. prices may be nil when only non-crypto categories run.
func New(search Searcher, prices PriceFeed, out io.Writer, log *logrus.Logger) *Pipeline {
	return &Pipeline{
		search: search,
		prices: prices,
		out:    out,
		log:    log,
	}
}

// Run prints the briefing for topic. The first failing call aborts the run.
func (p *Pipeline) Run(ctx context.Context, category Category, topic string) error {
	pl, ok := plans[category]
	if !ok {
		return fmt.Errorf("no research plan for %s", category)
	}

	banner := strings.Repeat("=", bannerWidth)
	fmt.Fprintln(p.out, banner)
	fmt.Fprintf(p.out, "%s RESEARCH: %s\n", strings.ToUpper(category.String()), topic)
	fmt.Fprintln(p.out, banner)

	if pl.prices {
		if err := p.printPrices(ctx); err != nil {
			return err
		}
	}

	for i, sec := range pl.sections {
		title := sec.title
		if i == 0 {
			title = "\n" + title
		}
		fmt.Fprintln(p.out, title)

		q := sec.query(topic)
		p.log.WithFields(logrus.Fields{
			"section": sec.title,
			"query":   q,
		}).Debug("Running search")

		results, err := p.search.Search(ctx, q, sec.count)
		if err != nil {
			return fmt.Errorf("%s: %w", strings.TrimSuffix(sec.title, ":"), err)
		}
		for _, r := range results {
			fmt.Fprintf(p.out, "  • %s\n", r.Title)
			fmt.Fprintf(p.out, "    %s\n", truncate(r.Description, descriptionLimit))
			fmt.Fprintln(p.out)
		}
	}

	return nil
}

func (p *Pipeline) printPrices(ctx context.Context) error {
	fmt.Fprintln(p.out, "\n📊 Current Prices:")

	quotes, err := p.prices.SimplePrice(ctx, trackedCoins)
	if err != nil {
		return err
	}

	coins := make([]string, 0, len(quotes))
	for coin := range quotes {
		coins = append(coins, coin)
	}
	sort.Strings(coins)

	for _, coin := range coins {
		fmt.Fprintln(p.out, formatQuote(coin, quotes[coin]))
	}
	return nil
}

func formatQuote(coin string, q coingecko.Quote) string {
	return fmt.Sprintf("  %s: $%s (%+.1f%% 24h)", coin, humanize.FormatFloat("#,###.##", q.USD), q.USD24hChange)
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
