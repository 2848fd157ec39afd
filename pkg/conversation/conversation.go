// Package conversation holds the message log a strategy builds up while it
// talks to a model.
package conversation

import (
	"github.com/zen-systems/solvegate/pkg/adapter"
)

// Log is an append-only sequence of chat messages. A Log is a value: Append
// and Compact return a new Log and never modify the receiver, so a Log can be
// passed around and kept without copying.
type Log struct {
	msgs []adapter.Message
}

// New creates a log holding msgs.
func New(msgs ...adapter.Message) Log {
	return Log{msgs: append([]adapter.Message(nil), msgs...)}
}

// Append returns a new log with one more message.
func (l Log) Append(role adapter.Role, content string) Log {
	return l.AppendMessage(adapter.Message{Role: role, Content: content})
}

// AppendMessage returns a new log with m appended.
func (l Log) AppendMessage(m adapter.Message) Log {
	next := make([]adapter.Message, len(l.msgs), len(l.msgs)+1)
	copy(next, l.msgs)
	return Log{msgs: append(next, m)}
}

// Messages returns a copy of the messages in order.
func (l Log) Messages() []adapter.Message {
	return append([]adapter.Message(nil), l.msgs...)
}

// Len returns the number of messages.
func (l Log) Len() int { return len(l.msgs) }

// Last returns the most recent message, or false for an empty log.
func (l Log) Last() (adapter.Message, bool) {
	if len(l.msgs) == 0 {
		return adapter.Message{}, false
	}
	return l.msgs[len(l.msgs)-1], true
}

// Chars returns the total content length in bytes.
func (l Log) Chars() int {
	n := 0
	for _, m := range l.msgs {
		n += len(m.Content)
	}
	return n
}

// Tokens estimates the token size of the log.
func (l Log) Tokens(counter adapter.TokenCounter) int {
	if counter == nil {
		counter = adapter.DefaultTokenCounter()
	}
	n := 0
	for _, m := range l.msgs {
		n += counter.Count(m.Content)
	}
	return n
}

// Middle returns the messages between the first and the most recent, which
// are the ones Compact replaces.
func (l Log) Middle() []adapter.Message {
	if len(l.msgs) <= 2 {
		return nil
	}
	return append([]adapter.Message(nil), l.msgs[1:len(l.msgs)-1]...)
}

// Compact returns a log of three messages: the first message, summary as a
// user message, and the most recent message. Logs of two messages or fewer
// are returned unchanged.
func (l Log) Compact(summary string) Log {
	if len(l.msgs) <= 2 {
		return l
	}
	return Log{msgs: []adapter.Message{
		l.msgs[0],
		adapter.User(summary),
		l.msgs[len(l.msgs)-1],
	}}
}
