package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"judge_engine/common/config"
	"judge_engine/common/connectors/judgeconn"
	"judge_engine/common/db/models"
)

const usage = `usage:
  judge_cli <address> submit <problem> <language> <source-file>
  judge_cli <address> trial <problem> <language> <source-file> <input-file>
  judge_cli <address> generate <problem> <count> [category] [mode]
  judge_cli <address> tests <problem>
  judge_cli <address> status
`

func main() {
	if len(os.Args) < 3 {
		fmt.Print(usage)
		os.Exit(2)
	}
	client := judgeconn.NewConnector(&config.Connection{Address: os.Args[1]})
	ctx := context.Background()

	switch os.Args[2] {
	case "submit":
		submit(ctx, client, os.Args[3:])
	case "trial":
		trial(ctx, client, os.Args[3:])
	case "generate":
		generate(ctx, client, os.Args[3:])
	case "tests":
		tests(ctx, client, os.Args[3:])
	case "status":
		status(ctx, client)
	default:
		fmt.Print(usage)
		os.Exit(2)
	}
}

func submit(ctx context.Context, client *judgeconn.Connector, args []string) {
	if len(args) != 3 {
		fmt.Print(usage)
		os.Exit(2)
	}
	source, err := os.ReadFile(args[2])
	if err != nil {
		panic(err)
	}

	id, err := client.SubmitRun(ctx, &judgeconn.SubmitRequest{
		Problem:  args[0],
		Language: args[1],
		Source:   string(source),
		FileName: filepath.Base(args[2]),
	})
	if err != nil {
		panic(err)
	}
	fmt.Printf("run %s\n", id)

	for {
		run, err := client.GetRun(ctx, id)
		if err != nil {
			panic(err)
		}
		if run.Status == string(models.RunFinished) || run.Status == string(models.RunError) {
			printRun(run)
			return
		}
		time.Sleep(300 * time.Millisecond)
	}
}

func printRun(run *judgeconn.Run) {
	if run.Error != "" {
		fmt.Printf("error: %s\n", run.Error)
		return
	}
	fmt.Printf("%s\n", run.Overall)
	if run.Report == nil {
		return
	}
	for _, test := range run.Report.Tests {
		fmt.Printf("  %s %d: %s (%.2f ms)", test.Category, test.Number, test.Verdict, test.TimeMs)
		if test.Detail != "" {
			fmt.Printf(" %s", test.Detail)
		}
		fmt.Println()
	}
	stats := run.Report.Stats
	fmt.Printf("passed %d/%d, total time %.2f ms\n", stats.Passed, stats.Total, stats.TimeMs)
}

func trial(ctx context.Context, client *judgeconn.Connector, args []string) {
	if len(args) != 4 {
		fmt.Print(usage)
		os.Exit(2)
	}
	source, err := os.ReadFile(args[2])
	if err != nil {
		panic(err)
	}
	input, err := os.ReadFile(args[3])
	if err != nil {
		panic(err)
	}

	result, err := client.Trial(ctx, &judgeconn.TrialRequest{
		Problem:  args[0],
		Language: args[1],
		Source:   string(source),
		FileName: filepath.Base(args[2]),
		Input:    string(input),
	})
	if err != nil {
		panic(err)
	}
	if !result.OK {
		fmt.Printf("%s\n", result.Message)
		return
	}
	fmt.Println(result.Output)
}

func generate(ctx context.Context, client *judgeconn.Connector, args []string) {
	if len(args) < 2 {
		fmt.Print(usage)
		os.Exit(2)
	}
	count, err := strconv.Atoi(args[1])
	if err != nil {
		panic(err)
	}
	request := &judgeconn.GenerateTestsRequest{Count: count}
	if len(args) > 2 {
		request.Category = args[2]
	}
	if len(args) > 3 {
		request.Mode = args[3]
	}

	result, err := client.GenerateTests(ctx, args[0], request)
	if err != nil {
		panic(err)
	}
	fmt.Printf("generated %d, skipped %d\n", result.Generated, result.Skipped)
	for _, warning := range result.Warnings {
		fmt.Printf("  warning: %s\n", warning)
	}
}

func tests(ctx context.Context, client *judgeconn.Connector, args []string) {
	if len(args) != 1 {
		fmt.Print(usage)
		os.Exit(2)
	}
	overview, err := client.TestsOverview(ctx, args[0])
	if err != nil {
		panic(err)
	}
	for cat, stats := range overview.Categories {
		fmt.Printf("%s: %d tests, %d bytes\n", cat, stats.Count, stats.SizeBytes)
	}
	fmt.Printf("total: %d tests, %d bytes\n", overview.TotalCount, overview.TotalBytes)
}

func status(ctx context.Context, client *judgeconn.Connector) {
	engineStatus, err := client.Status(ctx)
	if err != nil {
		panic(err)
	}
	fmt.Printf(
		"queue %d, active %d, uptime %.0fs\n",
		engineStatus.QueueSize, engineStatus.ActiveRuns, engineStatus.UptimeSeconds,
	)
}
