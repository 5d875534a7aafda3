package main

import "github.com/edulend/loan-management/cmd"

func main() {
	cmd.Execute()
}
