package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/chxlky/trello-telegram-bridge/api"
	"github.com/chxlky/trello-telegram-bridge/bot"
	"github.com/chxlky/trello-telegram-bridge/database"
	"github.com/chxlky/trello-telegram-bridge/integrations"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	levelStr := strings.ToLower(os.Getenv("LOG_LEVEL"))
	if levelStr == "" {
		levelStr = "debug"
	}
	level, err := zapcore.ParseLevel(levelStr)
	if err != nil {
		level = zapcore.InfoLevel
	}

	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      true,
		Encoding:         "console",
		EncoderConfig:    encoderConfig,
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, _ := config.Build()
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	viper.SetConfigName("config")
	viper.SetConfigType("toml")
	viper.AddConfigPath(".")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("database.path", "users.db")
	viper.SetDefault("trello.board_name", "Trello-Telegram-Board")
	viper.SetDefault("trello.board_lists", []string{"InProgress", "Done"})
	if err := viper.ReadInConfig(); err != nil {
		zap.L().Warn("No config file found, relying on environment variables", zap.Error(err))
	}

	baseURL := strings.TrimRight(viper.GetString("server.base_url"), "/")
	if baseURL == "" {
		zap.L().Fatal("server.base_url is not configured")
	}
	botToken := viper.GetString("telegram.bot_token")
	if botToken == "" {
		zap.L().Fatal("telegram.bot_token is not configured")
	}
	groupID := viper.GetInt64("telegram.group_id")
	if groupID == 0 {
		zap.L().Fatal("telegram.group_id is not configured")
	}

	db := database.Init(viper.GetString("database.path"))
	sqlDB, _ := db.DB()

	tgBot, err := bot.New(botToken, db)
	if err != nil {
		zap.L().Fatal("Failed to initialise Telegram bot client", zap.Error(err))
	}

	router := gin.New()
	router.Use(ginzap.Ginzap(logger, time.RFC3339, true))
	router.Use(ginzap.RecoveryWithZap(logger, true))

	apiHandler := &api.Handler{
		Bot:      tgBot,
		BotToken: botToken,
		ChatID:   groupID,
	}
	router.POST("/:token", apiHandler.BotWebhookHandler)
	router.HEAD("/trello", apiHandler.TrelloValidationHandler)
	router.POST("/trello", apiHandler.TrelloWebhookHandler)

	port := viper.GetString("server.port")
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	zap.L().Info("Starting server", zap.String("port", port))
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zap.L().Fatal("Server error", zap.Error(err))
		}
	}()

	// Give the server a moment to start
	time.Sleep(250 * time.Millisecond)

	if err := tgBot.SetWebhook(baseURL + "/" + botToken); err != nil {
		zap.L().Error("Failed to set bot webhook", zap.Error(err))
	} else {
		zap.L().Info("Bot webhook was created")
	}

	trelloClient := integrations.NewTrelloClient(
		viper.GetString("trello.api_key"),
		viper.GetString("trello.api_token"),
	)

	boardID, err := trelloClient.EnsureBoard(viper.GetString("trello.board_name"))
	if err != nil {
		zap.L().Fatal("Failed to provision Trello board", zap.Error(err))
	}

	if err := trelloClient.EnsureLists(boardID, viper.GetStringSlice("trello.board_lists")); err != nil {
		zap.L().Fatal("Failed to provision Trello lists", zap.Error(err))
	}

	if _, err := trelloClient.RegisterWebhook(boardID, baseURL+"/trello"); err != nil {
		zap.L().Error("Failed to register Trello webhook", zap.Error(err))
	} else {
		zap.L().Info("Trello webhook is active", zap.String("boardID", boardID))
	}

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	done := make(chan struct{})
	var once sync.Once

	cleanup := func(reason string) {
		zap.L().Info("Shutdown initiated", zap.String("reason", reason))

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		zap.L().Info("Shutting down HTTP server...")
		if err := srv.Shutdown(ctx); err != nil {
			zap.L().Error("Error shutting down server", zap.Error(err))
		} else {
			zap.L().Info("HTTP server shut down gracefully.")
		}

		if sqlDB != nil {
			if err := sqlDB.Close(); err != nil {
				zap.L().Error("Error closing database", zap.Error(err))
			} else {
				zap.L().Info("Database connection closed.")
			}
		}
		close(done)
	}

	go func() {
		sig := <-sigCh
		once.Do(func() {
			cleanup(sig.String())
		})

		// if a second signal is caught, exit immediately
		go func() {
			<-sigCh
			zap.L().Info("Second interrupt signal received. Exiting immediately.")
			os.Exit(1)
		}()
	}()

	<-done
	zap.L().Info("Exiting...")
}
