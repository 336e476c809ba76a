package telegram

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"plantscan-service/internal/domain/scan"
	"plantscan-service/internal/service"
)

// Annotator draws detections on an image.
type Annotator interface {
	Annotate(image []byte, preds []scan.RawPrediction) ([]byte, error)
}

type Bot struct {
	api        *tgbotapi.BotAPI
	scans      *service.ScanService
	annotator  Annotator
	thresholds *thresholdStore
	httpClient *resty.Client
	log        zerolog.Logger
}

// NewBot authorizes against the Bot API. annotator may be nil.
func NewBot(token string, scans *service.ScanService, annotator Annotator, log zerolog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to authorize bot: %w", err)
	}

	log.Info().Str("username", api.Self.UserName).Msg("authorized on telegram")

	return &Bot{
		api:        api,
		scans:      scans,
		annotator:  annotator,
		thresholds: newThresholdStore(scans.DefaultThreshold()),
		httpClient: resty.New(),
		log:        log,
	}, nil
}

// Run processes updates until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	stop := func() {
		b.log.Info().Msg("stopping bot update loop")
		b.api.StopReceivingUpdates()
	}
	return dispatchUpdates(ctx, updates, maxConcurrentUpdates, stop, b.handleMessage)
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.IsCommand() {
		b.handleCommand(msg)
		return
	}

	if len(msg.Photo) > 0 {
		b.handlePhoto(ctx, msg)
		return
	}

	b.sendMessage(msg.Chat.ID, msgSendPhoto)
}

func (b *Bot) handleCommand(msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	switch msg.Command() {
	case "start":
		b.sendMessage(chatID, formatReplyText(msgStart, b.thresholds.Get(chatID)))

	case "help":
		b.sendMessage(chatID, formatReplyText(msgHelp))

	case "threshold":
		t, ok := parseThreshold(msg.CommandArguments())
		if !ok {
			b.sendMessage(chatID, msgThresholdUsage)
			return
		}
		b.thresholds.Set(chatID, t)
		b.sendMessage(chatID, fmt.Sprintf(msgThresholdSet, t))

	default:
		b.sendMessage(chatID, msgUnknownCommand)
	}
}

func (b *Bot) handlePhoto(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	b.sendMessage(chatID, msgProcessing)

	// largest size is last
	photo := msg.Photo[len(msg.Photo)-1]

	imageData, err := b.downloadFile(ctx, photo.FileID)
	if err != nil {
		b.log.Error().Err(err).Int64("chat_id", chatID).Msg("failed to download photo")
		b.sendMessage(chatID, msgProcessingError)
		return
	}

	threshold := b.thresholds.Get(chatID)
	record, err := b.scans.ProcessImage(ctx, imageData, photo.FileUniqueID+".jpg", &threshold)
	if err != nil {
		b.log.Error().Err(err).Int64("chat_id", chatID).Msg("failed to process photo")
		b.sendMessage(chatID, msgProcessingError)
		return
	}

	text := formatDiagnosis(record.Result)

	if b.annotator != nil && len(record.Predictions) > 0 {
		annotated, err := b.annotator.Annotate(imageData, record.Predictions)
		if err == nil {
			b.sendPhoto(chatID, annotated, text)
			return
		}
		b.log.Debug().Err(err).Msg("annotation skipped")
	}

	b.sendMessage(chatID, text)
}

func (b *Bot) downloadFile(ctx context.Context, fileID string) ([]byte, error) {
	file, err := b.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}

	res, err := b.httpClient.R().SetContext(ctx).Get(file.Link(b.api.Token))
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	if res.IsError() {
		return nil, fmt.Errorf("download file: status %d", res.StatusCode())
	}

	return res.Body(), nil
}

func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error().Err(err).Int64("chat_id", chatID).Msg("failed to send message")
	}
}

func (b *Bot) sendPhoto(chatID int64, image []byte, caption string) {
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: "scan.jpg", Bytes: image})
	photo.Caption = caption
	if _, err := b.api.Send(photo); err != nil {
		b.log.Error().Err(err).Int64("chat_id", chatID).Msg("failed to send photo")
	}
}
