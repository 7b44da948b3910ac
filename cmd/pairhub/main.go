package main

import "github.com/suPer8Hu/pairhub/cmd/pairhub/cli"

func main() {
	cli.Execute()
}
