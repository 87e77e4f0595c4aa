package main

import "repodump/cmd"

func main() {
	cmd.Execute()
}
