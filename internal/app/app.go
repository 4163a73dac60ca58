// Package app wires configuration, HTTP clients and command handlers
// together and dispatches the poly and research commands.
package app

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/liamashdown/polytools/internal/alerts"
	"github.com/liamashdown/polytools/internal/config"
	"github.com/liamashdown/polytools/internal/httpclient"
	"github.com/liamashdown/polytools/internal/metrics"
	"github.com/liamashdown/polytools/internal/polymarket/clobapi"
	"github.com/liamashdown/polytools/internal/polymarket/dataapi"
	"github.com/liamashdown/polytools/internal/polymarket/gammaapi"
	"github.com/liamashdown/polytools/internal/pricefeed/coingecko"
	"github.com/liamashdown/polytools/internal/research"
	"github.com/liamashdown/polytools/internal/scanner"
	"github.com/liamashdown/polytools/internal/websearch/brave"
)

// Command is a poly subcommand.
type Command int

const (
	CommandScan Command = iota + 1
	CommandSearch
	CommandBalance
	CommandBook
	CommandOrder
	CommandOrders
	CommandCancel
	CommandPositions
)

var commandNames = map[Command]string{
	CommandScan:      "scan",
	CommandSearch:    "search",
	CommandBalance:   "balance",
	CommandBook:      "book",
	CommandOrder:     "order",
	CommandOrders:    "orders",
	CommandCancel:    "cancel",
	CommandPositions: "positions",
}

// ParseCommand maps a subcommand name to its Command.
func ParseCommand(name string) (Command, error) {
	for cmd, n := range commandNames {
		if n == name {
			return cmd, nil
		}
	}
	return 0, fmt.Errorf("unknown command %q", name)
}

func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Command(%d)", int(c))
}

// needsWallet reports whether the command signs requests with the wallet key.
func (c Command) needsWallet() bool {
	switch c {
	case CommandBalance, CommandOrder, CommandOrders, CommandCancel, CommandPositions:
		return true
	}
	return false
}

// Args carries the parsed arguments of every command. Each command reads
// only its own fields.
type Args struct {
	Order   string
	Limit   int
	MidOnly bool
	Query   string
	TokenID string
	Side    string
	Price   float64
	Size    float64
	OrderID string
}

// App runs commands against the configured APIs.
type App struct {
	cfg *config.Config
	log *logrus.Logger
	out io.Writer
}

// New creates an App writing command output to out.
func New(cfg *config.Config, log *logrus.Logger, out io.Writer) *App {
	return &App{
		cfg: cfg,
		log: log,
		out: out,
	}
}

// Run executes one poly command and records its duration and outcome.
func (a *App) Run(ctx context.Context, cmd Command, args Args) error {
	start := time.Now()
	err := a.dispatch(ctx, cmd, args)
	metrics.RecordCommand(cmd.String(), time.Since(start), err)

	a.log.WithFields(logrus.Fields{
		"command":  cmd.String(),
		"duration": time.Since(start).String(),
		"ok":       err == nil,
	}).Debug("Command finished")
	return err
}

func (a *App) dispatch(ctx context.Context, cmd Command, args Args) error {
	if _, ok := commandNames[cmd]; !ok {
		return fmt.Errorf("unknown command %v", cmd)
	}

	// Reject bad input before any key is read or request is made
	orderReq := scanner.OrderRequest{TokenID: args.TokenID, Side: args.Side, Price: args.Price, Size: args.Size}
	switch cmd {
	case CommandScan:
		if args.Order != "" {
			if err := scanner.ValidateOrder(args.Order); err != nil {
				return err
			}
		}
	case CommandOrder:
		if _, err := orderReq.Validate(); err != nil {
			return err
		}
	}

	httpClient, err := httpclient.New(httpclient.Options{
		ProxyURL: a.cfg.ProxyURL,
		Timeout:  a.cfg.MarketTimeout,
	})
	if err != nil {
		return err
	}

	var signer *clobapi.Signer
	if cmd.needsWallet() {
		key, err := clobapi.LoadPrivateKey(a.cfg.KeyPath, a.cfg.KeyPassword)
		if err != nil {
			return err
		}
		signer = clobapi.NewSigner(key, a.cfg.ChainID)
	}

	sc := scanner.New(
		gammaapi.NewClient(a.cfg, httpClient, a.log),
		dataapi.NewClient(a.cfg, httpClient, a.log),
		clobapi.NewClient(a.cfg, httpClient, signer, a.log),
		newAlertSender(a.cfg, httpClient, a.log),
		a.out,
		a.log,
	)

	switch cmd {
	case CommandScan:
		return sc.Scan(ctx, scanner.ScanOptions{Order: args.Order, Limit: args.Limit, MidOnly: args.MidOnly})
	case CommandSearch:
		return sc.Search(ctx, scanner.SearchOptions{Query: args.Query, Limit: args.Limit})
	case CommandBalance:
		return sc.Balance(ctx)
	case CommandBook:
		return sc.Book(ctx, args.TokenID)
	case CommandOrder:
		return sc.PlaceOrder(ctx, orderReq)
	case CommandOrders:
		return sc.Orders(ctx)
	case CommandCancel:
		return sc.Cancel(ctx, args.OrderID)
	case CommandPositions:
		return sc.Positions(ctx)
	}
	return fmt.Errorf("unknown command %v", cmd)
}

// Research runs the research pipeline for topic.
func (a *App) Research(ctx context.Context, category research.Category, topic string) (err error) {
	start := time.Now()
	defer func() {
		metrics.RecordCommand("research", time.Since(start), err)
	}()

	if err := a.cfg.RequireBraveKey(); err != nil {
		return err
	}

	httpClient, err := httpclient.New(httpclient.Options{
		ProxyURL: a.cfg.ProxyURL,
		Timeout:  a.cfg.ResearchTimeout,
	})
	if err != nil {
		return err
	}

	pipeline := research.New(
		brave.NewClient(a.cfg, httpClient, a.log),
		coingecko.NewClient(a.cfg, httpClient, a.log),
		a.out,
		a.log,
	)
	return pipeline.Run(ctx, category, topic)
}

// newAlertSender builds the order notification sender from ALERT_MODE.
// Returns nil when no mode is configured.
func newAlertSender(cfg *config.Config, httpClient *http.Client, log *logrus.Logger) alerts.Sender {
	var senders []alerts.Sender
	for _, mode := range cfg.AlertModes() {
		switch mode {
		case "log":
			senders = append(senders, alerts.NewLogSender(log))
		case "discord":
			senders = append(senders, alerts.NewDiscordSender(cfg.DiscordWebhookURL, httpClient))
		default:
			log.WithField("mode", mode).Warn("Unknown alert mode, ignoring")
		}
	}

	switch len(senders) {
	case 0:
		return nil
	case 1:
		return senders[0]
	}
	return alerts.NewMultiSender(senders...)
}
