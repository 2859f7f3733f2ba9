package main

import "github.com/vibast-solutions/ms-go-donations/cmd"

func main() {
	cmd.Execute()
}
