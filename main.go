package main

import (
	"github.com/racketlab/swingsense/cmd"
	"github.com/racketlab/swingsense/internal/recovery"
)

func main() {
	defer recovery.HandlePanic()
	cmd.Execute()
}
