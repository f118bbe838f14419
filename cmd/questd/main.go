package main

import "github.com/questsupremacy/questd/cmd/questd/root"

func main() {
	root.Execute()
}
