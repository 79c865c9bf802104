package main

import "github.com/Yates-Labs/bookrag/cmd"

func main() {
	cmd.Execute()
}
