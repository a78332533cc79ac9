package main

import "github.com/intervue-dev/intervue/internal/cli"

func main() {
	cli.Execute()
}
