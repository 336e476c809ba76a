package telegram

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/sync/errgroup"
)

// maxConcurrentUpdates bounds how many messages, and so detector calls,
// are handled at once.
const maxConcurrentUpdates = 4

// dispatchUpdates hands messages to handle with at most limit running at a
// time. It returns once ctx is done or updates is closed and every started
// handler has finished. stop is called when ctx ends the loop.
func dispatchUpdates(
	ctx context.Context,
	updates <-chan tgbotapi.Update,
	limit int,
	stop func(),
	handle func(context.Context, *tgbotapi.Message),
) error {
	g := new(errgroup.Group)
	g.SetLimit(limit)

	for {
		select {
		case <-ctx.Done():
			stop()
			return g.Wait()
		case update, ok := <-updates:
			if !ok {
				return g.Wait()
			}
			if update.Message == nil {
				continue
			}
			msg := update.Message
			// blocks while limit handlers are running
			g.Go(func() error {
				handle(ctx, msg)
				return nil
			})
		}
	}
}
