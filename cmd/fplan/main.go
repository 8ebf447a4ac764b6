package main

import "github.com/simaogato/wealthflow-planner/internal/cli"

func main() {
	cli.Execute()
}
