package main

import (
	"github.com/GoldenFealla/framesync/cmd"
	"github.com/GoldenFealla/framesync/internal/config"
	"github.com/samber/lo"
)

func main() {
	lo.Must0(config.Setup())
	cmd.Execute()
}
