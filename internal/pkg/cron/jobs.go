package cron

import (
	"context"
	"log/slog"
	"time"
)

type SubscriptionExpirer interface {
	ExpireLapsed(ctx context.Context) (int, error)
}

type SessionAutoCloser interface {
	AutoCloseStale(ctx context.Context) (int, error)
}

type DeadlineReminder interface {
	SendDeadlineReminders(ctx context.Context, window time.Duration) (int, error)
}

// Jobs holds the periodic maintenance work of the API.
type Jobs struct {
	subscriptions SubscriptionExpirer
	sessions      SessionAutoCloser
	tasks         DeadlineReminder

	ReminderWindow time.Duration
}

func NewJobs(subscriptions SubscriptionExpirer, sessions SessionAutoCloser, tasks DeadlineReminder) *Jobs {
	return &Jobs{
		subscriptions:  subscriptions,
		sessions:       sessions,
		tasks:          tasks,
		ReminderWindow: 24 * time.Hour,
	}
}

// RegisterJobs adds every job to the scheduler.
func (j *Jobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob("expire_lapsed_subscriptions", time.Hour, j.ExpireLapsedSubscriptions)
	scheduler.AddJob("auto_close_stale_sessions", 15*time.Minute, j.AutoCloseStaleSessions)
	scheduler.AddJob("send_task_deadline_reminders", 15*time.Minute, j.SendTaskDeadlineReminders)
}

// ExpireLapsedSubscriptions moves paid subscriptions past their period end to expired.
func (j *Jobs) ExpireLapsedSubscriptions(ctx context.Context) error {
	n, err := j.subscriptions.ExpireLapsed(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		slog.Info("Expired lapsed subscriptions", "count", n)
	}
	return nil
}

// AutoCloseStaleSessions closes sessions left running for more than a day.
func (j *Jobs) AutoCloseStaleSessions(ctx context.Context) error {
	n, err := j.sessions.AutoCloseStale(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		slog.Info("Auto-closed stale work sessions", "count", n)
	}
	return nil
}

// SendTaskDeadlineReminders notifies assignees of tasks due within ReminderWindow.
func (j *Jobs) SendTaskDeadlineReminders(ctx context.Context) error {
	n, err := j.tasks.SendDeadlineReminders(ctx, j.ReminderWindow)
	if err != nil {
		return err
	}
	if n > 0 {
		slog.Info("Sent task deadline reminders", "count", n)
	}
	return nil
}
