// Package main is the entry point for the minigame bot.
package main

func main() {
	Execute()
}
