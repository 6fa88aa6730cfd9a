package gateway

import (
	"time"

	"github.com/spf13/viper"
)

type Conf struct {
	Addr         string
	TimeoutRead  time.Duration
	TimeoutWrite time.Duration
	TimeoutIdle  time.Duration
}

func GatewayConfigs() *Conf {
	v := viper.New()
	v.SetEnvPrefix("SQLMCP")
	v.AutomaticEnv()
	v.SetDefault("GATEWAY_ADDR", "localhost:9090")

	return &Conf{
		Addr:         v.GetString("GATEWAY_ADDR"),
		TimeoutRead:  time.Second * 30,
		TimeoutWrite: time.Second * 60, // covers a full subprocess lifecycle per call
		TimeoutIdle:  time.Second * 30,
	}
}
