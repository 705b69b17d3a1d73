package main

import (
	"github.com/OFFIS-RIT/logicflow/internal/server"
	"github.com/OFFIS-RIT/logicflow/internal/util"
	"github.com/OFFIS-RIT/logicflow/pkg/logger"
	"github.com/OFFIS-RIT/logicflow/pkg/logger/console"
)

func main() {
	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)

	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: debug,
	})
	logger.Init(consoleLogger)

	server.Init()
}
