package main

import "github.com/codio-extensions/explain-error-assistant-ignore-autograder-results/internal/cli"

func main() {
	cli.Execute()
}
