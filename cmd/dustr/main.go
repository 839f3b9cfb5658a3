package main

import "github.com/ffishim/dustr"

func main() {
	dustr.Run()
}
