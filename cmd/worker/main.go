// The worker consumes review activity events from RabbitMQ and
// appends them to logs/review-activity.log. It runs separately from
// the API server so broker hiccups never touch request latency.
package main

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/kinotage/movie-reviews/internal/queue"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zlog.Logger = zlog.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})

	_ = godotenv.Load()

	zlog.Info().Msg("review activity worker starting")
	if err := queue.StartReviewConsumer(); err != nil {
		zlog.Fatal().Err(err).Msg("consumer stopped")
	}
}
