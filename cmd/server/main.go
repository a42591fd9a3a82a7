package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"entrypass/bot"
	"entrypass/entity"
	"entrypass/impl/auth"
	"entrypass/impl/core"
	"entrypass/internal/config"
	"entrypass/internal/database"
	"entrypass/internal/http-server/api"
	"entrypass/internal/notifier"
	"entrypass/lib/logger"
	"entrypass/lib/sl"

	"github.com/joho/godotenv"
)

type userStore interface {
	auth.Database
	SaveUser(ctx context.Context, user *entity.User) error
}

func main() {
	configPath := flag.String("conf", "config.yml", "path to config file")
	logPath := flag.String("log", "/var/log/", "path to log file directory")
	hashPassword := flag.String("hash-password", "", "print the bcrypt hash of a password for the users section and exit")
	flag.Parse()

	if *hashPassword != "" {
		hash, err := auth.HashPassword(*hashPassword)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Println(hash)
		return
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintln(os.Stderr, "loading .env:", err)
	}

	conf := config.MustLoad(*configPath)
	log := logger.SetupLogger(conf.Env, *logPath)
	log.Info("starting entrypass", slog.String("config", *configPath), slog.String("env", conf.Env))

	var tg *bot.TgBot
	if conf.Telegram.Enabled {
		var err error
		tg, err = bot.NewTgBot(conf.Telegram.ApiKey, conf.Telegram.ChatIds, log)
		if err != nil {
			log.Error("telegram bot", sl.Err(err))
		} else {
			level, err := logger.ParseLevel(conf.Telegram.MinLevel)
			if err != nil {
				log.Warn("telegram alert level", sl.Err(err))
			}
			log = logger.WithAlerts(log, tg, level)
			log.Info("telegram alerts enabled", slog.String("level", level.String()))
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	memory := database.NewMemory()
	var store core.PassStore = memory
	var closeStore func()

	switch conf.Store.Driver {
	case config.DriverMySQL:
		db, err := database.NewSQLClient(conf)
		if err != nil {
			log.Error("mysql client", sl.Err(err))
			os.Exit(1)
		}
		store, closeStore = db, db.Close
		log.With(
			slog.String("host", conf.Store.HostName),
			slog.String("database", conf.Store.Database),
		).Info("mysql pass store connected")
	case config.DriverPostgres:
		pg, err := database.NewPostgres(ctx, conf.Store.Url)
		if err != nil {
			log.Error("postgres client", sl.Err(err))
			os.Exit(1)
		}
		store, closeStore = pg, pg.Close
		log.Info("postgres pass store connected")
	default:
		log.Info("using in-memory pass store")
	}

	var users userStore = memory
	mongo, err := database.NewMongoClient(ctx, conf)
	if err != nil {
		log.Error("mongo client", sl.Err(err))
		os.Exit(1)
	}
	if mongo != nil {
		users = mongo
		log.With(slog.String("database", conf.Mongo.Database)).Info("mongo user store connected")
	}
	for _, seed := range conf.Users {
		user := &entity.User{
			Id:           seed.Id,
			Username:     seed.Username,
			PasswordHash: seed.PasswordHash,
			Role:         entity.Role(seed.Role),
		}
		if err = users.SaveUser(ctx, user); err != nil {
			log.With(slog.String("username", seed.Username)).Error("seed user", sl.Err(err))
			os.Exit(1)
		}
	}
	log.With(slog.Int("count", len(conf.Users))).Info("staff accounts loaded")

	events := notifier.New()
	handler := core.New(store, events, log)
	handler.SetAuthService(auth.New(users, auth.Config{
		Secret:     []byte(conf.Auth.Secret),
		Issuer:     conf.Auth.Issuer,
		AccessTTL:  conf.Auth.AccessTTL,
		RefreshTTL: conf.Auth.RefreshTTL,
	}))

	server := api.New(conf, log, handler)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", sl.Err(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.With(slog.Int("listeners", events.Subscribers())).Info("shutting down")

	// event streams never go idle on their own
	events.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err = server.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", sl.Err(err))
	}

	if closeStore != nil {
		closeStore()
	}
	if mongo != nil {
		mongo.Close(shutdownCtx)
	}
	if tg != nil {
		tg.Stop()
	}
}
