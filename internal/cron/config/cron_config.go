package cron_config

type Config struct {
	// Heartbeat check, every minute
	CronScheduleHeartbeat string `env:"CRON_SCHEDULE_HEARTBEAT" envDefault:"0 * * * * *"`
	// Full account sync, every 15 minutes
	CronScheduleAccountSync string `env:"CRON_SCHEDULE_ACCOUNT_SYNC" envDefault:"0 */15 * * * *"`
}
