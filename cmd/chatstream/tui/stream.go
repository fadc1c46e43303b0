package tuicmder

import (
	"context"

	bubbletea "github.com/charmbracelet/bubbletea"

	"github.com/papercomputeco/chatstream/pkg/chat"
)

// streamUpdateMsg carries a snapshot of the in-flight reply.
type streamUpdateMsg struct {
	reply chat.Message
}

// streamDoneMsg ends a reply. err is the stream error, if any; reply keeps
// the partial content either way.
type streamDoneMsg struct {
	reply chat.Message
	err   error
}

// startStream sends text on conv in a goroutine and returns the channel its
// progress is delivered on. The channel is closed after the streamDoneMsg.
//
// Updates are dropped while the UI is behind: every snapshot carries the
// full content so far, so the next one catches up.
func startStream(ctx context.Context, conv *chat.Conversation, text string) <-chan bubbletea.Msg {
	ch := make(chan bubbletea.Msg, 16)

	go func() {
		defer close(ch)

		reply, err := conv.Send(ctx, text, func(m *chat.Message) {
			select {
			case ch <- streamUpdateMsg{reply: *m}:
			default:
			}
		})

		done := streamDoneMsg{err: err}
		if reply != nil {
			done.reply = *reply
		}
		ch <- done
	}()

	return ch
}

// waitForStream reads the next progress message from ch.
func waitForStream(ch <-chan bubbletea.Msg) bubbletea.Cmd {
	return func() bubbletea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return msg
	}
}
