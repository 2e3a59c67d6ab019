package main

import (
	"os"

	"judge_engine/common"
	"judge_engine/lib/logger"
	"judge_engine/server"
)

func main() {
	configPath := os.Args[1]
	engine := common.InitJudgeEngine(configPath)
	err := server.SetupServer(engine)
	if err != nil {
		logger.Panic("Can not set up judge server, error: %v", err)
	}
	engine.Run()
}
