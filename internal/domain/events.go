package domain

import (
	"context"
	"io"
	"strconv"
	"strings"
)

// Actor identifies who sent an inbound event and where replies go.
type Actor struct {
	UserID    int64
	ChatID    int64
	FirstName string
	LastName  string
	Username  string
}

// DisplayName joins first and last name the way registration stores it.
func (a Actor) DisplayName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// Handle is the @username when known, else the numeric id.
func (a Actor) Handle() string {
	if a.Username != "" {
		return "@" + a.Username
	}
	return strconv.FormatInt(a.UserID, 10)
}

// Event is the closed set of inbound events. Transports decode raw updates into one of
// CommandEvent, TextEvent, CallbackEvent or DocumentEvent.
type Event interface {
	Origin() Actor
	event()
}

// CommandEvent is a slash command: Name without the leading slash, Args trimmed.
type CommandEvent struct {
	Actor
	Name string
	Args string
}

// TextEvent is a plain message that is not a command.
type TextEvent struct {
	Actor
	Text string
}

// CallbackEvent is a tap on a previously sent choice.
type CallbackEvent struct {
	Actor
	Callback Callback
}

// DocumentEvent is an uploaded file. Open streams its content.
type DocumentEvent struct {
	Actor
	FileName string
	Open     func(ctx context.Context) (io.ReadCloser, error)
}

func (e CommandEvent) Origin() Actor  { return e.Actor }
func (e TextEvent) Origin() Actor     { return e.Actor }
func (e CallbackEvent) Origin() Actor { return e.Actor }
func (e DocumentEvent) Origin() Actor { return e.Actor }

func (CommandEvent) event()  {}
func (TextEvent) event()     {}
func (CallbackEvent) event() {}
func (DocumentEvent) event() {}

// DecodeMessage turns message text into a CommandEvent or TextEvent. The command is the
// first whitespace-delimited token; a "@botname" suffix is dropped.
func DecodeMessage(actor Actor, text string) Event {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "/") {
		return TextEvent{Actor: actor, Text: text}
	}
	head, rest, _ := strings.Cut(trimmed, " ")
	if i := strings.IndexAny(head, "\n\t"); i >= 0 {
		rest = head[i:] + " " + rest
		head = head[:i]
	}
	name := strings.TrimPrefix(head, "/")
	if at := strings.IndexByte(name, '@'); at >= 0 {
		name = name[:at]
	}
	if name == "" {
		return TextEvent{Actor: actor, Text: text}
	}
	return CommandEvent{Actor: actor, Name: strings.ToLower(name), Args: strings.TrimSpace(rest)}
}

// Callback token prefixes. The payload follows the separator verbatim.
const (
	MaterialPrefix = "material__"
	QuizPrefix     = "quiz__"
)

// Callback is the decoded payload of a callback token.
type Callback interface {
	Token() string
	callback()
}

// MaterialCallback selects a file from the materials directory.
type MaterialCallback struct {
	Filename string
}

// QuizAnswerCallback selects an option of the current quiz question.
type QuizAnswerCallback struct {
	Option int
}

// MalformedCallback is any token that did not decode.
type MalformedCallback struct {
	Raw string
}

func (c MaterialCallback) Token() string   { return MaterialPrefix + c.Filename }
func (c QuizAnswerCallback) Token() string { return QuizPrefix + strconv.Itoa(c.Option) }
func (c MalformedCallback) Token() string  { return c.Raw }

func (MaterialCallback) callback()   {}
func (QuizAnswerCallback) callback() {}
func (MalformedCallback) callback()  {}

// DecodeCallback parses a callback token. It never fails; undecodable data yields
// MalformedCallback.
func DecodeCallback(data string) Callback {
	switch {
	case strings.HasPrefix(data, MaterialPrefix):
		name := strings.TrimPrefix(data, MaterialPrefix)
		if name == "" {
			return MalformedCallback{Raw: data}
		}
		return MaterialCallback{Filename: name}
	case strings.HasPrefix(data, QuizPrefix):
		idx, err := strconv.Atoi(strings.TrimPrefix(data, QuizPrefix))
		if err != nil || idx < 0 {
			return MalformedCallback{Raw: data}
		}
		return QuizAnswerCallback{Option: idx}
	default:
		return MalformedCallback{Raw: data}
	}
}
