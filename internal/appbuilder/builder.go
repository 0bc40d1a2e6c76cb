// Package appbuilder wires configuration into the running components.
package appbuilder

import (
	"fmt"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/park285/age-of-ai-chess/internal/config"
	"github.com/park285/age-of-ai-chess/internal/game"
	"github.com/park285/age-of-ai-chess/internal/httpui"
	"github.com/park285/age-of-ai-chess/internal/live"
	"github.com/park285/age-of-ai-chess/internal/msgcat"
	"github.com/park285/age-of-ai-chess/internal/render"
	"github.com/park285/age-of-ai-chess/internal/rules"
	"github.com/park285/age-of-ai-chess/internal/session"
	"github.com/park285/age-of-ai-chess/internal/theme"
	"github.com/park285/age-of-ai-chess/internal/view"
)

type Deps struct {
	Engine    *rules.Engine
	Messages  *msgcat.Catalog
	Themes    *theme.Registry
	Sessions  *session.Manager
	Projector *view.Projector
	HTTP      *httpui.Server
	// Live is nil when LIVE_ADDR is empty.
	Live *live.Server
}

func New(cfg *config.AppConfig, logger *zap.Logger) (*Deps, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	msgs, err := msgcat.New(cfg.MessagesDir)
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}
	themes, err := theme.Load(cfg.ThemesFile)
	if err != nil {
		return nil, fmt.Errorf("load themes: %w", err)
	}
	if strings.TrimSpace(cfg.DefaultTheme) != "" {
		if err := themes.SetDefault(cfg.DefaultTheme); err != nil {
			return nil, fmt.Errorf("default theme: %w", err)
		}
	}

	engine := rules.NewEngine()
	sessions, err := session.NewManager(themes, controllerFactory(cfg, engine, msgs, logger),
		session.WithTTL(cfg.SessionTTL),
		session.WithMaxSessions(cfg.MaxSessions),
		session.WithLogger(logger.Named("session")),
	)
	if err != nil {
		return nil, fmt.Errorf("init sessions: %w", err)
	}

	projector, err := view.NewProjector(engine, msgs, cfg.RandomSeed)
	if err != nil {
		return nil, fmt.Errorf("init projector: %w", err)
	}

	httpSrv, err := httpui.New(httpui.Deps{
		Sessions:  sessions,
		Projector: projector,
		Renderer:  render.NewPNGRenderer(),
		Pieces:    engine,
		Texts:     msgs,
		Logger:    logger.Named("http"),
		LiveURL:   advertisedLiveURL(cfg.LiveAddr),
	})
	if err != nil {
		return nil, fmt.Errorf("init http: %w", err)
	}

	deps := &Deps{
		Engine:    engine,
		Messages:  msgs,
		Themes:    themes,
		Sessions:  sessions,
		Projector: projector,
		HTTP:      httpSrv,
	}
	if cfg.LiveAddr != "" {
		deps.Live, err = live.New(live.Deps{
			Sessions:       sessions,
			Projector:      projector,
			Logger:         logger.Named("live"),
			AllowedOrigins: cfg.AllowedOrigins,
		})
		if err != nil {
			return nil, fmt.Errorf("init live: %w", err)
		}
	}
	return deps, nil
}

// controllerFactory builds one controller per session. A fixed seed is offset
// per session so sessions stay reproducible without sharing a sequence.
func controllerFactory(cfg *config.AppConfig, engine *rules.Engine, msgs *msgcat.Catalog, logger *zap.Logger) session.Factory {
	var n atomic.Int64
	pacing := game.Pacing{Base: cfg.ReplyDelayBase, Jitter: cfg.ReplyDelayJitter}
	return func(flavor func() string, intro []string) (*game.Controller, error) {
		var seed int64
		if cfg.RandomSeed != 0 {
			seed = cfg.RandomSeed + n.Add(1)
		}
		return game.NewController(engine,
			game.WithPacing(pacing),
			game.WithRandomSeed(seed),
			game.WithChooser(game.NewRandomChooser(seed)),
			game.WithMessages(msgs),
			game.WithFlavor(flavor),
			game.WithIntro(intro...),
			game.WithLogLimit(cfg.LogLimit),
			game.WithLogger(logger.Named("game")),
		)
	}
}

// advertisedLiveURL turns a listen address into what the page connects to.
// Only a bare port is portable across hostnames.
func advertisedLiveURL(addr string) string {
	addr = strings.TrimSpace(addr)
	switch {
	case addr == "":
		return ""
	case strings.HasPrefix(addr, "ws://"), strings.HasPrefix(addr, "wss://"):
		return addr
	case strings.HasPrefix(addr, ":"):
		return addr
	}
	if i := strings.LastIndex(addr, ":"); i >= 0 {
		return addr[i:]
	}
	return ""
}
