package main

import "github.com/Mohsinsiddi/devfund/cmd"

func main() {
	cmd.Execute()
}
