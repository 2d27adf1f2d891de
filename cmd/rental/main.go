package main

import (
	stdLog "log"
	"time"

	"github.com/carhive/rental-service/app"
	"github.com/carhive/rental-service/config"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		stdLog.Print("load envs from .env ", err)
	}
	cfg := config.NewConfig(
		config.WithWriteTimeout(time.Minute),
	)

	if err := app.Run(cfg); err != nil {
		stdLog.Fatal("app run ", err)
	}
}
