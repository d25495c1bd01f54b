package notice

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	slacknotificator "github.com/sizzlei/slack-notificator"
	"github.com/slack-go/slack"
)

// Announcer는 새 공지를 외부 채널로 내보냅니다.
type Announcer interface {
	Announce(ctx context.Context, n Notice) error
}

// SlackAnnouncer는 Slack 채널에 공지를 attachment로 보냅니다.
type SlackAnnouncer struct {
	token     string
	channelID string
}

// NewSlackAnnouncer는 토큰이나 채널이 비어 있으면 nil을 반환합니다 (미러링 끔).
func NewSlackAnnouncer(token, channelID string) *SlackAnnouncer {
	if strings.TrimSpace(token) == "" || strings.TrimSpace(channelID) == "" {
		return nil
	}
	return &SlackAnnouncer{token: token, channelID: channelID}
}

// Attachment는 공지를 Slack attachment로 변환합니다.
func Attachment(n Notice) slack.Attachment {
	body := strings.ReplaceAll(n.Description, "\r\n", "\n")
	return slack.Attachment{
		Color:  n.Color.Hex(),
		Title:  n.Title,
		Text:   body,
		Footer: fmt.Sprintf("notice #%d", n.ID),
	}
}

// Announce
func (a *SlackAnnouncer) Announce(ctx context.Context, n Notice) error {
	api := slacknotificator.GetClient(a.token)
	if err := api.SetChannel(a.channelID).SendAttachment("[공지] "+n.Title, Attachment(n)); err != nil {
		return fmt.Errorf("slack 발송 실패 (채널: %s): %w", a.channelID, err)
	}
	log.Infof("공지(ID: %d) -> 채널(%s) 발송 성공", n.ID, a.channelID)
	return nil
}
