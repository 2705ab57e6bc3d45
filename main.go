package main

import "github.com/Justype/qadapter/cmd"

func main() {
	cmd.Execute()
}
