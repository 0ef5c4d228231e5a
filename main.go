package main

import "phonebook-backend/cmd"

func main() {
	cmd.Run()
}
