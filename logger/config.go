package logger

import "github.com/spf13/viper"

type Conf struct {
	LogDir string
}

// LogConfig reads the optional log directory from the environment
// (SQLMCP_LOG_DIR). An empty value means stderr only.
func LogConfig() *Conf {
	v := viper.New()
	v.SetEnvPrefix("SQLMCP")
	v.AutomaticEnv()

	return &Conf{
		LogDir: v.GetString("LOG_DIR"),
	}
}
