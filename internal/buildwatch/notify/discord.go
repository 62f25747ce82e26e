package notify

import (
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/webhook"
)

const (
	embedColorSuccess = 0x2ECC71
	embedColorFailure = 0xE74C3C
)

// discordSender posts build outcomes as webhook embeds.
type discordSender struct {
	client webhook.Client
}

func newDiscordSender(url string) (*discordSender, error) {
	client, err := webhook.NewWithURL(url)
	if err != nil {
		return nil, err
	}
	return &discordSender{client: client}, nil
}

func (d *discordSender) name() string { return "discord" }

func (d *discordSender) send(event Event) error {
	color := embedColorSuccess
	if event.Failed {
		color = embedColorFailure
	}
	embed := discord.NewEmbedBuilder().
		SetTitle(event.Title).
		SetDescription(event.Message).
		SetColor(color).
		SetTimestamp(time.Now()).
		SetFooter("buildwatch", "").
		Build()

	_, err := d.client.CreateEmbeds([]discord.Embed{embed})
	return err
}
