package main

import (
	"github.com/spiceai/plasmagym/pkg/cli/cmd"
	_ "github.com/spiceai/plasmagym/pkg/environment/plasma"
)

func main() {
	cmd.Execute()
}
