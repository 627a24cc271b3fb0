package bot

import (
	"context"
	"errors"
	"path/filepath"

	"teacher-assistant-bot/internal/domain"
)

func (r *Router) start(ctx context.Context, ev domain.CommandEvent) error {
	name := ev.FirstName
	if name == "" {
		name = ev.Handle()
	}
	return r.reply(ctx, ev.Actor, msgStart, name)
}

func (r *Router) help(ctx context.Context, ev domain.CommandEvent) error {
	return r.reply(ctx, ev.Actor, msgHelp)
}

func (r *Router) register(ctx context.Context, ev domain.CommandEvent) error {
	created, err := r.svc.Directory.Register(ctx, ev.Actor)
	if err != nil {
		return r.fail(ctx, ev.Actor, "register", err)
	}
	r.log.Info().Int64("user_id", ev.UserID).Bool("created", created).Msg("user_registered")
	return r.reply(ctx, ev.Actor, msgRegistered)
}

func (r *Router) materials(ctx context.Context, ev domain.CommandEvent) error {
	names, err := r.svc.Library.List()
	if err != nil {
		return r.fail(ctx, ev.Actor, "materials", err)
	}
	if len(names) == 0 {
		return r.reply(ctx, ev.Actor, msgNoMaterials)
	}
	choices := make([]domain.Choice, len(names))
	for i, name := range names {
		choices[i] = domain.Choice{Label: name, Token: domain.MaterialCallback{Filename: name}.Token()}
	}
	return r.out.SendChoices(ctx, ev.ChatID, msgMaterialsHeader, choices)
}

func (r *Router) attendance(ctx context.Context, ev domain.CommandEvent) error {
	status, err := r.svc.Attendance.MarkToday(ctx, ev.UserID)
	if err != nil {
		return r.fail(ctx, ev.Actor, "attendance", err)
	}
	if status == domain.AttendanceAlreadyMarked {
		return r.reply(ctx, ev.Actor, msgAttendanceAlready)
	}
	return r.reply(ctx, ev.Actor, msgAttendanceMarked)
}

func (r *Router) ask(ctx context.Context, ev domain.CommandEvent) error {
	outcome, err := r.svc.Directory.Ask(ctx, ev.Actor, ev.Args)
	switch {
	case errors.Is(err, domain.ErrEmptyMessage):
		return r.reply(ctx, ev.Actor, msgAskUsage)
	case err != nil:
		return r.fail(ctx, ev.Actor, "ask", err)
	}
	r.log.Info().Int64("user_id", ev.UserID).Int("admins_notified", outcome.Delivered).Msg("ask_forwarded")
	return r.reply(ctx, ev.Actor, msgAskSent)
}

func (r *Router) broadcast(ctx context.Context, ev domain.CommandEvent) error {
	isAdmin := r.svc.Auth.IsAdmin(ev.UserID)
	if !isAdmin {
		return r.reply(ctx, ev.Actor, msgAdminsOnly)
	}
	if ev.Args == "" {
		return r.reply(ctx, ev.Actor, msgBroadcastUsage)
	}
	recipients, err := r.svc.Directory.Recipients(ctx)
	if err != nil {
		return r.fail(ctx, ev.Actor, "broadcast", err)
	}
	outcome, err := r.svc.Broadcaster.Broadcast(ctx, isAdmin, ev.Args, recipients)
	switch {
	case errors.Is(err, domain.ErrNotAdmin):
		return r.reply(ctx, ev.Actor, msgAdminsOnly)
	case errors.Is(err, domain.ErrEmptyMessage):
		return r.reply(ctx, ev.Actor, msgBroadcastUsage)
	case err != nil:
		return r.fail(ctx, ev.Actor, "broadcast", err)
	}
	return r.reply(ctx, ev.Actor, msgBroadcastDone, outcome.Delivered, outcome.Attempted)
}

func (r *Router) stats(ctx context.Context, ev domain.CommandEvent) error {
	stats, err := r.svc.Directory.Stats(ctx, ev.UserID)
	switch {
	case errors.Is(err, domain.ErrNotAdmin):
		return r.reply(ctx, ev.Actor, msgAdminsOnly)
	case err != nil:
		return r.fail(ctx, ev.Actor, "stats", err)
	}
	return r.reply(ctx, ev.Actor, msgStats, stats.Users, stats.AttendanceToday)
}

func (r *Router) document(ctx context.Context, ev domain.DocumentEvent) error {
	if !r.svc.Auth.IsAdmin(ev.UserID) {
		return r.reply(ctx, ev.Actor, msgUploadAdminOnly)
	}
	if ev.Open == nil {
		return r.reply(ctx, ev.Actor, msgFileNotFound)
	}
	body, err := ev.Open(ctx)
	if err != nil {
		return r.fail(ctx, ev.Actor, "upload_fetch", err)
	}
	defer body.Close()

	path, err := r.svc.Library.Save(ev.FileName, body)
	switch {
	case errors.Is(err, domain.ErrMaterialNotFound):
		return r.reply(ctx, ev.Actor, msgUploadBadName)
	case err != nil:
		return r.fail(ctx, ev.Actor, "upload_save", err)
	}
	r.log.Info().Int64("user_id", ev.UserID).Str("path", path).Msg("material_saved")
	return r.reply(ctx, ev.Actor, msgUploadSaved, filepath.Base(path))
}
