package main

import "github.com/neonofficialstudio-ux/awbeta1-sub001/internal/cli"

func main() {
	cli.Execute()
}
