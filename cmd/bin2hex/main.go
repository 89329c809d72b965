package main

import "github.com/anupcshan/bin2hex/cmd/bin2hex/cmd"

func main() {
	cmd.Execute()
}
