package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/balccon/balcconator/core"
	"github.com/balccon/balcconator/filestore"
	"github.com/balccon/balcconator/frontend"
	"github.com/balccon/balcconator/mail"
	"github.com/balccon/balcconator/sqldb"
	"github.com/balccon/balcconator/sqldb/mysql"
	"github.com/balccon/balcconator/sqldb/sqlite3"
	"github.com/balccon/balcconator/util"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/xo/dburl"
)

// applyFlags overrides the config with the flags which have been set explicitly.
func applyFlags(fs *flag.FlagSet, cfg *core.Config, values map[string]*string) {
	fs.Visit(func(f *flag.Flag) {
		if ptr, ok := values[f.Name]; ok {
			switch f.Name {
			case "base":
				cfg.Base = *ptr
			case "db":
				cfg.DB = *ptr
			case "documents":
				cfg.Documents = *ptr
			case "listen":
				cfg.Listen = *ptr
			case "log-format":
				cfg.LogFormat = *ptr
			case "log-level":
				cfg.LogLevel = *ptr
			case "public-url":
				cfg.PublicURL = *ptr
			}
		}
	})
}

func setupLogging(cfg core.Config) error {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	zerolog.SetGlobalLevel(level)
	if cfg.LogFormat != "json" {
		// on most systems systemd-journald adds timestamps
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: true, PartsExclude: []string{zerolog.TimestampFieldName}})
	}
	return nil
}

func main() {

	var configPath string // is in both FlagSets
	var dbArg string      // is in both FlagSets

	// default FlagSet

	flag.StringVar(&configPath, "config", "balcconator.ini", "read configuration from this ini `file`, if it exists")
	// Your reverse proxy must not strip the prefix. So if you're using nginx, the "proxy_pass" value should not end with a slash.
	var base = flag.String("base", "", "strip off this `prefix` from every HTTP request and prepend it to every link")
	// MySQL: collation should be utf8mb4_unicode_ci, and parseTime=true is required for the session store
	flag.StringVar(&dbArg, "db", "", "sql database url, see github.com/xo/dburl")
	var documents = flag.String("documents", "", "store uploaded documents in this `directory`")
	var listenAddr = flag.String("listen", "", "serve HTTP content at this `ip:port`")
	var logFormat = flag.String("log-format", "", "log format: console or json")
	var logLevel = flag.String("log-level", "", "log level: debug, info, warn or error")
	var publicURL = flag.String("public-url", "", "absolute `url` of the site, used in confirmation mails")

	// init FlagSet

	var initFlags = flag.NewFlagSet("init", flag.ExitOnError)

	initFlags.StringVar(&configPath, "config", "balcconator.ini", "read configuration from this ini `file`, if it exists") // copied from above
	initFlags.StringVar(&dbArg, "db", "", "sql database url, see github.com/xo/dburl")
	var initDemo = initFlags.Bool("demo", false, "inserts demo accounts, groups, news, a venue and an event")
	var initGrant = initFlags.Bool("grant", false, "gives the given permission to the given user")
	var initInsert = initFlags.Bool("insert", false, "creates the given group or user")
	var initJoin = initFlags.Bool("join", false, "joins the given user to the given group")
	var groupname = initFlags.String("group", "", "specifies a group `name`")
	var perm = initFlags.String("perm", "", "specifies a permission: news, reviewer, venue or schedule")
	var username = initFlags.String("user", "", "specifies a user `name`")

	var fs *flag.FlagSet
	if len(os.Args) > 1 && os.Args[1] == "init" {
		initFlags.Parse(os.Args[2:])
		fs = initFlags
	} else {
		flag.Parse()
		fs = flag.CommandLine
	}

	// config

	cfg, err := core.LoadConfig(configPath)
	if err != nil {
		log.Error().Err(err).Msg("could not load config")
		return
	}

	applyFlags(fs, &cfg, map[string]*string{
		"base":       base,
		"db":         &dbArg,
		"documents":  documents,
		"listen":     listenAddr,
		"log-format": logFormat,
		"log-level":  logLevel,
		"public-url": publicURL,
	})

	if err := setupLogging(cfg); err != nil {
		log.Error().Err(err).Msg("could not set up logging")
		return
	}

	// database

	dbURL, err := dburl.Parse(cfg.DB)
	if err != nil {
		log.Error().Err(err).Msg("could not parse database url")
		return
	}

	sqlDB, err := sql.Open(dbURL.Driver, dbURL.DSN)
	if err != nil {
		log.Error().Err(err).Msg("could not open sql database")
		return
	}

	defer func() {
		log.Info().Msg("closing database")
		sqlDB.Close()
	}()

	if err = sqlDB.Ping(); err != nil {
		log.Error().Err(err).Msg("could not ping sql database")
		return
	}

	log.Info().Str("driver", dbURL.Driver).Msg("using database")

	// base

	cfg.Base = strings.Trim(cfg.Base, "/")
	if cfg.Base != "" {
		cfg.Base = "/" + cfg.Base
	}

	// assemble stuff

	var dialect = sqldb.Dialect(dbURL.Driver)
	var sessionStore scs.Store
	switch dialect {
	case sqldb.MySQL:
		sessionStore, err = mysql.NewSessionStore(sqlDB, 5*time.Minute)
	case sqldb.SQLite3:
		sessionStore, err = sqlite3.NewSessionStore(sqlDB, 5*time.Minute)
	default:
		err = fmt.Errorf("unknown database backend: %s", dbURL.Driver)
	}
	if err != nil {
		log.Error().Err(err).Msg("could not create session store")
		return
	}

	if err := os.MkdirAll(cfg.Documents, 0755); err != nil {
		log.Error().Err(err).Msg("could not create documents directory")
		return
	}

	var reg = prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	db := &core.CoreDB{}
	db.Init(sessionStore, cfg.Base, reg)

	// order matters for the foreign keys
	db.AccountDB = sqldb.NewAccountDB(sqlDB)
	db.GroupDB = sqldb.NewGroupDB(sqlDB)
	db.NewsDB = sqldb.NewNewsDB(sqlDB, dialect)
	db.VenueDB = sqldb.NewVenueDB(sqlDB, dialect)
	db.EventDB = sqldb.NewEventDB(sqlDB, dialect)

	db.Documents = &filestore.Store{Root: cfg.Documents}
	db.Mailer = mail.New(cfg.Mail)
	db.PublicURL = strings.TrimSuffix(cfg.PublicURL, "/")

	// init

	if initFlags.Parsed() {
		switch {
		case *initDemo:
			err = insertDemo(db)
		case *initGrant:
			err = grant(db, *username, *perm)
		case *initInsert:
			if *groupname != "" {
				err = insertGroup(db, *groupname)
			}
			if *username != "" && err == nil {
				err = insertUser(db, *username)
			}
		case *initJoin:
			err = db.Join(*groupname, *username)
		default:
			initFlags.Usage()
		}
		if err != nil {
			log.Error().Err(err).Msg("init failed")
		}
		return
	}

	listen(db, reg, cfg.Listen, cfg.Base)
}

func listen(db *core.CoreDB, reg *prometheus.Registry, addr string, base string) {

	var mux = http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.Handle("/", db.SessionManager.LoadAndSave(frontend.NewRouter(db, base)))

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		log.Error().Err(err).Msg("could not listen")
		return
	}

	log.Info().Str("addr", addr).Str("base", base).Msg("listening")

	httpSrv := &http.Server{
		Handler:      frontend.Instrument(db.Metrics, util.WithPrefix(base, mux)),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := httpSrv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			// don't panic, we want a graceful shutdown
			log.Error().Err(err).Msg("error serving")
		}
		stop()
	}()

	<-ctx.Done()

	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
}
