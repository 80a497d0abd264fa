package bot

import (
	"strings"

	"github.com/AbdallahZerfaoui/terminjetzt-bot/internal/menu"
	"github.com/AbdallahZerfaoui/terminjetzt-bot/pkg/tgui"
)

const (
	backLabel    = "⬅️ Back"
	channelLabel = "🔔 Notify Me (Join)"

	// Telegram renders roughly this many characters on one button row;
	// longer labels are truncated with an ellipsis.
	maxButtonLabelRunes = 64
)

// Keyboard maps a menu view onto an inline keyboard, one action button per
// item in document order. The root view (empty path) gets the channel link
// appended when one is configured; every non-root view gets a back button
// whose token is the parent path.
func Keyboard(path []string, items []menu.Node, channel string) *tgui.Inline {
	kb := tgui.NewInline()

	for _, it := range items {
		data := menu.JoinPath(append(append([]string(nil), path...), it.ID))
		kb.Row(tgui.Btn(tgui.TruncRunes(it.Text, maxButtonLabelRunes), data))
	}

	if len(path) == 0 {
		if ch := strings.TrimSpace(channel); ch != "" {
			kb.Row(tgui.URLBtn(channelLabel, ChannelURL(ch)))
		}
		return kb
	}

	back := menu.JoinPath(path[:len(path)-1])
	kb.Row(tgui.Btn(backLabel, back))
	return kb
}

// ChannelURL turns a channel reference ("@name" or "name") into a t.me link.
func ChannelURL(channel string) string {
	return "https://t.me/" + strings.TrimLeft(strings.TrimSpace(channel), "@")
}
