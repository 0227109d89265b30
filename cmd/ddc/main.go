package main

import (
	"github.com/regspec/ddc/pkg/cmd"
)

func main() {
	cmd.Execute()
}
