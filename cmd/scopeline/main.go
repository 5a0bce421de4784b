package main

import "github.com/mvp-joe/scopeline/internal/cli"

func main() {
	cli.Execute()
}
