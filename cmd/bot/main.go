package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/artyrk/filebox/internal/bot"
)

func main() {
	// Missing .env is fine; plain environment variables work too
	godotenv.Load()

	token := os.Getenv("BOT_TOKEN")
	if token == "" {
		log.Fatal("BOT_TOKEN is not set")
	}

	apiURL := os.Getenv("API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}

	frontend, err := bot.New(bot.Config{
		Token:  token,
		APIURL: apiURL,
	})
	if err != nil {
		log.Fatalf("Failed to initialize bot: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	frontend.Run(ctx)
	log.Println("Bot stopped")
}
