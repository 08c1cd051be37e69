package main

import (
	"github.com/mattislub/Timed-Audio-Queue/cmd"
)

func main() {
	cmd.Execute()
}
