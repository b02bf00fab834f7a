package main

import (
	"github.com/c9s/isoforest/pkg/cmd"
)

func main() {
	cmd.Execute()
}
