package main

import (
	"github.com/Rakhulsr/go-storefront/app/cmd"
)

func main() {
	cmd.RunCli()
}
