package main

import "github.com/chrisdamba/kitchensync/cmd"

func main() {
	cmd.Execute()
}
