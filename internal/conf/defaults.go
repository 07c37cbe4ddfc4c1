// conf/defaults.go default values for settings
package conf

import (
	"time"

	"github.com/spf13/viper"
)

// setDefaultConfig registers defaults for every scalar setting.
func setDefaultConfig() {
	viper.SetDefault("debug", false)
	viper.SetDefault("timezone", "Asia/Seoul")

	viper.SetDefault("logging.default_level", "info")
	viper.SetDefault("logging.timezone", "Asia/Seoul")
	viper.SetDefault("logging.console.enabled", true)
	viper.SetDefault("logging.console.level", "info")
	viper.SetDefault("logging.file_output.enabled", false)
	viper.SetDefault("logging.file_output.path", "logs/attendance.log")
	viper.SetDefault("logging.file_output.level", "debug")

	viper.SetDefault("attendance.deadline1", "07:11")
	viper.SetDefault("attendance.deadline2", "08:31")
	viper.SetDefault("attendance.quota", 2)
	viper.SetDefault("attendance.wildcard_quota", 1)

	viper.SetDefault("discord.webhook_url", "")
	viper.SetDefault("discord.timeout", 10*time.Second)

	viper.SetDefault("database.driver", "sqlite")
	viper.SetDefault("database.sqlite.path", "attendance.db")
	viper.SetDefault("database.mysql.host", "localhost")
	viper.SetDefault("database.mysql.port", 3306)
	viper.SetDefault("database.mysql.username", "attendance")
	viper.SetDefault("database.mysql.database", "attendance")

	viper.SetDefault("jobs.dayend_offset_days", 1)
	viper.SetDefault("jobs.concurrency", 4)

	viper.SetDefault("api.enabled", true)
	viper.SetDefault("api.listen", ":8080")
	viper.SetDefault("api.rate_limit.per_second", 5.0)
	viper.SetDefault("api.rate_limit.burst", 10)

	viper.SetDefault("mqtt.enabled", false)
	viper.SetDefault("mqtt.broker", "tcp://localhost:1883")
	viper.SetDefault("mqtt.client_id", "attendance")
	viper.SetDefault("mqtt.topic", "attendance/presence")
	viper.SetDefault("mqtt.qos", 1)

	viper.SetDefault("alerts.enabled", false)
	viper.SetDefault("alerts.cooldown", "10m")

	viper.SetDefault("sentry.enabled", false)
	viper.SetDefault("sentry.environment", "production")
	viper.SetDefault("sentry.min_priority", "high")

	viper.SetDefault("metrics.enabled", true)
}
