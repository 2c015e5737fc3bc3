package main

import "nhbrcforms/cmd/formsctl/cmd"

func main() {
	cmd.Execute()
}
