package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"litcal/internal/assembler"
	"litcal/internal/config"
	"litcal/internal/i18n"
	"litcal/internal/ics"
	appLog "litcal/internal/log"
	"litcal/internal/proprium"
	"litcal/internal/source"
	"litcal/internal/web"
)

type flagConfig struct {
	configPath string
	listen     string
	serve      bool

	year    int
	nation  string
	diocese string
	locale  string
	format  string
}

func main() {
	flags := parseFlags()

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}
	if flags.listen != "" {
		conf.Listen = flags.listen
	}
	if lvl, err := appLog.ParseLevel(conf.LogLevel); err != nil {
		appLog.Warn("ignoring invalid log level", "log_level", conf.LogLevel)
	} else {
		appLog.SetLevel(lvl)
	}

	appLog.Info("effective config",
		"listen", conf.Listen,
		"data_dir", conf.DataDir,
		"default_locale", conf.DefaultLocale,
		"warm_cron", conf.WarmCron,
		"cache_ttl_seconds", conf.CacheTTLSeconds,
		"serve", flags.serve,
	)

	svc, err := newApp(conf)
	if err != nil {
		appLog.Error("failed to initialize", err)
		os.Exit(1)
	}

	if !flags.serve {
		if err := svc.compute(os.Stdout, flags); err != nil {
			appLog.Error("calendar computation failed", err)
			os.Exit(1)
		}
		return
	}

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := svc.serve(ctx); err != nil {
		appLog.Error("server failed", err)
		os.Exit(1)
	}
	appLog.Info("litcal exiting")
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "./litcal.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.BoolVar(&cfg.serve, "serve", false, "Serve the HTTP API instead of printing one calendar")
	flag.IntVar(&cfg.year, "year", time.Now().Year(), "Calendar year")
	flag.StringVar(&cfg.nation, "nation", "", "National calendar id, e.g. US")
	flag.StringVar(&cfg.diocese, "diocese", "", "Diocesan calendar id, e.g. milano")
	flag.StringVar(&cfg.locale, "locale", "", "Locale for event names (default from config)")
	flag.StringVar(&cfg.format, "format", "json", "Output format: json, yaml or ics")

	flag.Parse()

	return cfg
}

type app struct {
	conf       *config.Config
	registry   *source.Registry
	translator *i18n.Translator
	assembler  *assembler.Assembler
}

func newApp(conf *config.Config) (*app, error) {
	p, err := proprium.Load()
	if err != nil {
		return nil, fmt.Errorf("load proprium: %w", err)
	}
	reg, err := source.Load(conf.DataDir)
	if err != nil {
		return nil, fmt.Errorf("load calendars: %w", err)
	}
	tr, err := i18n.LoadEmbedded()
	if err != nil {
		return nil, fmt.Errorf("load translations: %w", err)
	}
	return &app{
		conf:       conf,
		registry:   reg,
		translator: tr,
		assembler: assembler.New(p,
			assembler.WithCatalog(reg),
			assembler.WithLocalizer(tr),
			assembler.WithGeneralSettings(conf.GeneralSettings),
		),
	}, nil
}

func (a *app) scope(nation, diocese string) (assembler.Scope, error) {
	switch {
	case diocese != "":
		dc, err := a.registry.RequireDiocese(diocese)
		if err != nil {
			return assembler.Scope{}, err
		}
		return assembler.Diocesan(dc.ID), nil
	case nation != "":
		nc, err := a.registry.RequireNation(nation)
		if err != nil {
			return assembler.Scope{}, err
		}
		return assembler.National(nc.ID), nil
	}
	return assembler.General(), nil
}

// compute writes one calendar to w in the requested format.
func (a *app) compute(w io.Writer, flags flagConfig) error {
	scope, err := a.scope(flags.nation, flags.diocese)
	if err != nil {
		return err
	}
	requested := flags.locale
	if requested == "" {
		requested = a.conf.DefaultLocale
	}
	locale := a.translator.Match(requested)

	res, err := a.assembler.ComputeCalendar(flags.year, scope, locale)
	if err != nil {
		return err
	}

	switch strings.ToLower(flags.format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(res); err != nil {
			return err
		}
		return enc.Close()
	case "ics":
		_, err := io.WriteString(w, ics.Export(res, ics.Options{
			ProductID: a.conf.ICal.ProductID,
			Domain:    a.conf.ICal.Domain,
			Label:     func(key string) string { return a.translator.Translate(locale, key) },
		}))
		return err
	default:
		return fmt.Errorf("unsupported format %q", flags.format)
	}
}

// serve runs the HTTP API, warming the cache on start and then on the
// configured cron schedule, until ctx is cancelled.
func (a *app) serve(ctx context.Context) error {
	srv := web.NewServer(a.conf, a.assembler, a.registry, a.translator)

	if err := srv.Warm(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	if a.conf.WarmCron != "" {
		c := cron.New()
		_, err := c.AddFunc(a.conf.WarmCron, func() {
			if err := srv.Warm(ctx); err != nil && !errors.Is(err, context.Canceled) {
				appLog.Error("scheduled cache warm failed", err)
			}
		})
		if err != nil {
			return fmt.Errorf("invalid warm_cron %q: %w", a.conf.WarmCron, err)
		}
		c.Start()
		defer func() { <-c.Stop().Done() }()
		appLog.Info("cache warm scheduled", "warm_cron", a.conf.WarmCron)
	}

	return web.StartServer(ctx, srv)
}
