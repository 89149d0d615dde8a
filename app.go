package main

import "github.com/masmgr/jjlog-go/cmd"

func main() {
	cmd.Run()
}
