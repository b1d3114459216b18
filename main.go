package main

import "github.com/sparkify/sparkify-etl/cmd"

func main() {
	cmd.Execute()
}
