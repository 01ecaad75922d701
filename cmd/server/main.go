package main

import "taskhub/internal/app"

func main() {
	app.Run()
}
