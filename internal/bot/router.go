package bot

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"teacher-assistant-bot/internal/app"
	"teacher-assistant-bot/internal/domain"
)

// Sender is the outbound half of a transport.
type Sender interface {
	app.TextSender
	SendChoices(ctx context.Context, chatID int64, text string, choices []domain.Choice) error
	SendDocument(ctx context.Context, chatID int64, path string) error
}

// Services groups the use cases the router dispatches to.
type Services struct {
	Auth        *app.Authorizer
	Quiz        *app.QuizService
	Attendance  *app.AttendanceGuard
	Directory   *app.Directory
	Broadcaster *app.Broadcaster
	Library     *app.Library
}

type commandHandler func(ctx context.Context, ev domain.CommandEvent) error

// Router maps every inbound event to exactly one handler and emits the replies.
type Router struct {
	svc      Services
	out      Sender
	log      zerolog.Logger
	commands map[string]commandHandler
}

func NewRouter(svc Services, out Sender, log zerolog.Logger) *Router {
	r := &Router{
		svc: svc,
		out: out,
		log: log.With().Str("module", "router").Logger(),
	}
	r.commands = map[string]commandHandler{
		"start":      r.start,
		"help":       r.help,
		"register":   r.register,
		"materials":  r.materials,
		"attendance": r.attendance,
		"ask":        r.ask,
		"quiz":       r.quizStart,
		"cancel":     r.quizCancel,
		"broadcast":  r.broadcast,
		"stats":      r.stats,
	}
	return r
}

// Dispatch handles one event. Failures are logged and answered; they never propagate.
func (r *Router) Dispatch(ctx context.Context, ev domain.Event) {
	actor := ev.Origin()
	var err error
	switch e := ev.(type) {
	case domain.CommandEvent:
		if h, ok := r.commands[e.Name]; ok {
			err = h(ctx, e)
		} else {
			err = r.reply(ctx, actor, msgUnknown)
		}
	case domain.CallbackEvent:
		err = r.callback(ctx, e)
	case domain.DocumentEvent:
		err = r.document(ctx, e)
	default:
		err = r.reply(ctx, actor, msgUnknown)
	}
	if err != nil {
		r.log.Warn().Err(err).Int64("user_id", actor.UserID).Msg("reply_failed")
	}
}

func (r *Router) callback(ctx context.Context, ev domain.CallbackEvent) error {
	switch cb := ev.Callback.(type) {
	case domain.QuizAnswerCallback:
		return r.quizAnswer(ctx, ev.Actor, cb.Option)
	case domain.MaterialCallback:
		path, err := r.svc.Library.Resolve(cb.Filename)
		if err != nil {
			return r.reply(ctx, ev.Actor, msgFileNotFound)
		}
		return r.out.SendDocument(ctx, ev.ChatID, path)
	default:
		return r.reply(ctx, ev.Actor, msgNotFound)
	}
}

func (r *Router) reply(ctx context.Context, actor domain.Actor, text string, args ...any) error {
	if len(args) > 0 {
		text = fmt.Sprintf(text, args...)
	}
	return r.out.SendText(ctx, actor.ChatID, text)
}

// fail logs an unexpected error and sends the generic failure message.
func (r *Router) fail(ctx context.Context, actor domain.Actor, op string, err error) error {
	r.log.Error().Err(err).Str("op", op).Int64("user_id", actor.UserID).Msg("handler_failed")
	return r.reply(ctx, actor, msgFailure)
}

func (r *Router) sendQuestion(ctx context.Context, actor domain.Actor, p app.QuestionPrompt) error {
	text := fmt.Sprintf(msgQuestion, p.Number, p.Total, p.Question.Prompt)
	return r.out.SendChoices(ctx, actor.ChatID, text, p.Choices())
}

func (r *Router) quizStart(ctx context.Context, ev domain.CommandEvent) error {
	prompt, err := r.svc.Quiz.Start(ctx, ev.UserID)
	switch {
	case errors.Is(err, domain.ErrNotRegistered):
		return r.reply(ctx, ev.Actor, msgRegisterFirst)
	case errors.Is(err, domain.ErrNoQuestions):
		return r.reply(ctx, ev.Actor, msgNoQuestions)
	case errors.Is(err, domain.ErrQuizInProgress):
		return r.reply(ctx, ev.Actor, msgQuizInProgress)
	case err != nil:
		return r.fail(ctx, ev.Actor, "quiz_start", err)
	}
	return r.sendQuestion(ctx, ev.Actor, prompt)
}

func (r *Router) quizAnswer(ctx context.Context, actor domain.Actor, option int) error {
	res, err := r.svc.Quiz.Answer(ctx, actor.UserID, option)
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		return r.reply(ctx, actor, msgQuizNotActive)
	case errors.Is(err, domain.ErrOptionOutOfRange):
		return r.reply(ctx, actor, msgInvalidOption)
	case err != nil:
		return r.fail(ctx, actor, "quiz_answer", err)
	}

	if res.Correct {
		err = r.reply(ctx, actor, msgCorrect)
	} else {
		err = r.reply(ctx, actor, msgIncorrect, res.CorrectOption)
	}
	if err != nil {
		return err
	}
	if res.State == domain.SessionCompleted {
		return r.reply(ctx, actor, msgQuizFinished, res.Score, res.Total)
	}
	return r.sendQuestion(ctx, actor, *res.Next)
}

func (r *Router) quizCancel(ctx context.Context, ev domain.CommandEvent) error {
	err := r.svc.Quiz.Cancel(ctx, ev.UserID)
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		return r.reply(ctx, ev.Actor, msgNothingToCancel)
	case err != nil:
		return r.fail(ctx, ev.Actor, "quiz_cancel", err)
	}
	return r.reply(ctx, ev.Actor, msgQuizCancelled)
}
