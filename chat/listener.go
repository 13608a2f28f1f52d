package chat

import (
	"context"
	"fmt"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	appconfig "quoteflow/config"
	"quoteflow/extractor"
	"quoteflow/logger"
	"quoteflow/writer"
)

// Listener is the event-driven ingestion path. It consumes Telegram text
// messages, filters them by chat and by trigger substrings, runs the
// extractor over qualifying bodies and writes the resulting Records as one
// batch per message. It runs independently of the polling scheduler.
type Listener struct {
	bot      *tgbotapi.BotAPI
	chatID   int64
	triggers []string
	ext      *extractor.Extractor
	sink     writer.Sink
	log      *logger.Log
	wg       sync.WaitGroup
}

func NewListener(cfg *appconfig.Config, ext *extractor.Extractor, sink writer.Sink) (*Listener, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return &Listener{
		bot:      bot,
		chatID:   cfg.Telegram.ChatID,
		triggers: cfg.Telegram.Triggers,
		ext:      ext,
		sink:     sink,
		log:      logger.GetLogger(),
	}, nil
}

// Run consumes updates until ctx is cancelled. Each qualifying message is
// handled in its own goroutine so a slow write never blocks the next
// update; Run waits for in-flight handlers before returning.
func (l *Listener) Run(ctx context.Context) error {
	log := l.log.WithComponent("chat_listener")
	if l.chatID != 0 {
		log.WithFields(logger.Fields{"chat_id": l.chatID}).Info("starting chat listener, restricted to one chat")
	} else {
		log.Info("starting chat listener for all chats")
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := l.bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			l.bot.StopReceivingUpdates()
			l.wg.Wait()
			log.Info("chat listener stopped")
			return nil
		case update, ok := <-updates:
			if !ok {
				l.wg.Wait()
				return nil
			}
			msg := update.Message
			if msg == nil || msg.Text == "" || msg.IsCommand() {
				continue
			}
			l.wg.Add(1)
			go func(chatID int64, text string) {
				defer l.wg.Done()
				l.handle(ctx, chatID, text)
			}(msg.Chat.ID, msg.Text)
		}
	}
}

// handle processes one inbound message body. It is split from Run so the
// filtering and extraction logic stays independent of the transport.
func (l *Listener) handle(ctx context.Context, chatID int64, text string) {
	if l.chatID != 0 && chatID != l.chatID {
		return
	}
	if !l.qualifies(text) {
		return
	}

	log := l.log.WithComponent("chat_listener").WithFields(logger.Fields{"chat_id": chatID})

	records := l.ext.Extract(text)
	if len(records) == 0 {
		log.Debug("qualifying message yielded no records")
		return
	}
	if err := l.sink.Write(ctx, records); err != nil {
		log.WithError(err).WithFields(logger.Fields{"records": len(records)}).Error("chat batch write failed")
		return
	}
	for _, rec := range records {
		log.WithFields(logger.Fields{
			"symbol": rec.Symbol,
			"bid":    rec.Bid,
			"ask":    rec.Ask,
		}).Info("saved broadcast quote")
	}
}

// qualifies reports whether a message body carries quote information.
func (l *Listener) qualifies(text string) bool {
	for _, trigger := range l.triggers {
		if trigger != "" && strings.Contains(text, trigger) {
			return true
		}
	}
	return false
}
