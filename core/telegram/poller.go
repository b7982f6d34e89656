package telegram

import (
	"fmt"
	"time"

	tele "gopkg.in/telebot.v4"

	coreconfig "github.com/m3rciful/skybot/core/config"
)

// BuildPoller constructs the update source selected by run_mode.
func BuildPoller(cfg *coreconfig.Config) (tele.Poller, error) {
	switch cfg.Telegram.RunMode {
	case "webhook":
		if cfg.Webhook.URL == "" {
			return nil, fmt.Errorf("webhook mode requires webhook.url")
		}
		listen := cfg.Webhook.Listen
		if cfg.Webhook.Port > 0 {
			listen = fmt.Sprintf("%s:%d", listen, cfg.Webhook.Port)
		}
		return &tele.Webhook{
			Listen: listen,
			Endpoint: &tele.WebhookEndpoint{
				PublicURL: cfg.Webhook.URL,
			},
		}, nil
	default:
		timeout := time.Duration(cfg.Telegram.LongPollTimeoutSeconds) * time.Second
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		return &tele.LongPoller{Timeout: timeout}, nil
	}
}
