package main

import (
	"github.com/Ethernal-Tech/deposit-relayer/cli"
)

func main() {
	cli.NewRootCommand().Execute()
}
