// Package scheduler drives periodic syncs from a crontab expression.
//
// Jobs are registered on a robfig/cron runner using the standard five-field
// parser and evaluated in the configured timezone. An invalid expression is
// logged and leaves the daemon running without a periodic job. An optional
// startup run fires shortly after Start and can be forced into full mode.
package scheduler
