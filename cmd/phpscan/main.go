package main

import "github.com/mvp-joe/phpscan/internal/cli"

func main() {
	cli.Execute()
}
